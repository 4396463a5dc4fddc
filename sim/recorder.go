package sim

// Recorder receives the state and record produced by every step of a run.
// Implementations live in sim/trace; the engine skips recording entirely for
// NoRecorder and nil.
type Recorder[S, R, T any] interface {
	Record(s S, r R, t TimeStep[T])
}

// NoRecorder discards everything. It retains no memory and is the recorder
// used for every search-time evaluation.
type NoRecorder[S, R, T any] struct{}

// Record is a no-op.
func (NoRecorder[S, R, T]) Record(S, R, TimeStep[T]) {}
