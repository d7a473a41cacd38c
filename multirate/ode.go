package multirate

// SolverKind selects the nonlinear solver the core hands the packed dofs to.
type SolverKind int

const (
	DefaultSolver SolverKind = iota
	FixedPointSolver
	NewtonSolver
)

// MethodFamily selects the local element basis.
type MethodFamily int

const (
	CG MethodFamily = iota
	DG
)

// Config flattens the options the core reads out of the ODE's parameter set
// in the original: "ODE implicit", "ODE nonlinear solver" and the method
// family. There is no string-keyed lookup; every recognized option is a
// field.
type Config struct {
	Implicit        bool
	NonlinearSolver SolverKind
	Method          MethodFamily
	MethodOrder     uint
	FixedTimeStep   bool
	// Epsilon is the tolerance used by every interval containment check.
	// Zero selects DefaultEpsilon.
	Epsilon float64
	// Adaptivity tunes the step-size controller. Zero value (KMax==0)
	// selects DefaultAdaptivityConfig.
	Adaptivity AdaptivityConfig
}

// DefaultEpsilon is the tolerance used for all "within"/"contains" interval
// predicates unless a Config overrides it.
const DefaultEpsilon = 1e-12

func DefaultConfig() Config {
	return Config{
		NonlinearSolver: DefaultSolver,
		Method:          CG,
		MethodOrder:     1,
		Epsilon:         DefaultEpsilon,
	}
}

// ODE is the problem the core integrates: a scalar right-hand side per
// component, a bidirectional dependency graph, and a hook the user can use
// to observe or veto progress.
type ODE interface {
	// Dimension is the number of scalar components, N.
	Dimension() uint
	EndTime() float64
	InitialValue(i uint) float64
	// F evaluates component i's right-hand side given the full state
	// vector u and time t. Only entries of u named by Dependencies(i)
	// are guaranteed meaningful.
	F(u []float64, t float64, i uint) float64
	// Dependencies lists the components i's right-hand side reads.
	Dependencies(i uint) []uint
	// Transpose lists the components that read component i, i.e. the
	// reverse of Dependencies. Dependencies(j) containing i implies
	// Transpose(i) contains j.
	Transpose(i uint) []uint
	// Update is called once per accepted (or final) slab end time with
	// the current solution vector. Returning false cooperatively stops
	// further shifting. Build also calls it with u0 whenever a slab starts
	// at t=0; that return value is ignored.
	Update(u []float64, t float64, end bool) bool
}
