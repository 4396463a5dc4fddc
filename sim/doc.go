// Package sim provides the generic time-stepping simulation engine.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - model.go: the callback contract a model implements (TimeAxis, Initialize,
//     RunTimestep, ComputeOutcome, plus optional GetAction and IsTerminal)
//   - timeaxis.go: validated, length-known timelines and the TimeStep handed to callbacks
//   - engine.go: the run loop (init → stepping → done)
//
// # Architecture
//
// The sim package defines the contracts and the engine; everything else lives
// in sub-packages:
//   - sim/trace/: step recording (builder and pre-allocated traces), tabular access, file sinks
//   - sim/metric/: declarative reductions from outcome collections to named scalars
//   - sim/optim/: optimization problems, batch evaluation, Pareto fronts, search backends
//   - sim/models/: worked example models
//
// # Reproducibility
//
// All randomness flows from a SimulationKey through named streams (rng.go).
// Stream seeds are a pure function of the key and the stream name, so a batch
// evaluated sequentially or in parallel produces bit-identical results.
//
// # Errors
//
// Every failure is one of the typed errors in errors.go. Nothing in this
// module substitutes a default for a contract violation.
package sim
