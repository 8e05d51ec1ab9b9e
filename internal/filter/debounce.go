package filter

// Debouncer turns a noisy stream of discrete values into a stable state. The
// state only moves to a new value after that value has been signalled for a
// run of consecutive calls at least as long as the transition threshold.
type Debouncer[T comparable] struct {
	initial     T
	state       T
	last        T
	run         int
	primed      bool
	threshold   int
	transitions map[transition[T]]int
}

type transition[T comparable] struct {
	from, to T
}

// NewDebouncer creates a Debouncer starting in initial. Every transition
// uses threshold unless overridden with SetTransitionThreshold. Thresholds
// below 1 are treated as 1.
func NewDebouncer[T comparable](initial T, threshold int) *Debouncer[T] {
	return &Debouncer[T]{
		initial:   initial,
		state:     initial,
		threshold: max(threshold, 1),
	}
}

// NewBinaryDebouncer creates a bool Debouncer starting in false.
func NewBinaryDebouncer(threshold int) *Debouncer[bool] {
	return NewDebouncer(false, threshold)
}

// SetTransitionThreshold overrides the run length needed to move from one
// state to another.
func (d *Debouncer[T]) SetTransitionThreshold(from, to T, threshold int) {
	if d.transitions == nil {
		d.transitions = make(map[transition[T]]int)
	}
	d.transitions[transition[T]{from, to}] = max(threshold, 1)
}

// Threshold returns the run length needed to move from one state to another.
func (d *Debouncer[T]) Threshold(from, to T) int {
	if n, ok := d.transitions[transition[T]{from, to}]; ok {
		return n
	}
	return d.threshold
}

// Signal records one raw observation and reports whether the stable state
// changed as a result. The state changes at most once per call.
func (d *Debouncer[T]) Signal(raw T) bool {
	if d.primed && raw == d.last {
		d.run++
	} else {
		d.last = raw
		d.run = 1
		d.primed = true
	}

	if raw == d.state || d.run < d.Threshold(d.state, raw) {
		return false
	}
	d.state = raw
	return true
}

// State returns the stable state.
func (d *Debouncer[T]) State() T {
	return d.state
}

// Run returns the length of the current run of identical raw values.
func (d *Debouncer[T]) Run() int {
	return d.run
}

// Reset returns the debouncer to its initial state.
func (d *Debouncer[T]) Reset() {
	var zero T
	d.state = d.initial
	d.last = zero
	d.run = 0
	d.primed = false
}
