package multirate

// Partition orders the N components into a permutation and, given a
// starting offset and an upper bound K, splits off a head whose desired
// step sizes all tolerate at least the returned cutoff K'. The tail
// (everything from the returned end onward) needs a smaller step and is
// handled by a nested sub-slab.
type Partition interface {
	// Update partitions index[offset:] in place, returns the position
	// end such that index[offset:end) is the head, and returns the
	// cutoff step size K' <= K governing that head.
	Update(offset int, adaptivity Adaptivity, K float64) (end int, Kp float64)
	Index(n int) int
	Size() int
}

// defaultPartition keeps a single permutation of [0, N) and repartitions it
// in place on every call, moving components whose current desired step
// tolerates K to the front (an in-place two-pointer partition that swaps
// with the tail, so the relative order of components is not preserved).
type defaultPartition struct {
	index []int
}

func NewPartition(n int) Partition {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return &defaultPartition{index: idx}
}

func (p *defaultPartition) Size() int      { return len(p.index) }
func (p *defaultPartition) Index(n int) int { return p.index[n] }

func (p *defaultPartition) Update(offset int, adaptivity Adaptivity, K float64) (end int, Kp float64) {
	n := len(p.index)

	i, j := offset, n
	for i < j {
		if adaptivity.Timestep(p.index[i]) >= K {
			i++
			continue
		}
		j--
		p.index[i], p.index[j] = p.index[j], p.index[i]
	}
	end = i

	if end == offset {
		// Nothing tolerates K: shrink the cutoff to the best available
		// step so the recursion still makes progress on at least one
		// component.
		best, bestPos := -1.0, offset
		for k := offset; k < n; k++ {
			if t := adaptivity.Timestep(p.index[k]); t > best {
				best, bestPos = t, k
			}
		}
		p.index[offset], p.index[bestPos] = p.index[bestPos], p.index[offset]
		return offset + 1, best
	}

	Kp = K
	for k := offset; k < end; k++ {
		if t := adaptivity.Timestep(p.index[k]); t < Kp {
			Kp = t
		}
	}
	return end, Kp
}
