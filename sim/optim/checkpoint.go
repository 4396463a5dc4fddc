package optim

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/dossgollin-lab/SimOptDecisions-sub001/sim"
)

// Descriptor identifies the problem a checkpoint was taken from. A search
// state is only meaningful for a problem with the same descriptor.
type Descriptor struct {
	Params     []string    `yaml:"params"`
	Bounds     []Bound     `yaml:"bounds"`
	Objectives []Objective `yaml:"objectives"`
	Metrics    []string    `yaml:"metrics"`
	Batch      string      `yaml:"batch"`
	Seeding    string      `yaml:"seeding"`
	Seed       int64       `yaml:"seed"`
	Scenarios  int         `yaml:"scenarios"`
}

// Checkpoint pairs a problem descriptor with an opaque backend state.
type Checkpoint struct {
	Problem     Descriptor
	Iteration   int
	SearchState []byte
}

// CheckpointStore persists checkpoints.
type CheckpointStore interface {
	Save(cp *Checkpoint) error
	Load() (*Checkpoint, error)
}

// Descriptor describes the problem for checkpointing.
func (p *Problem[C, Sc, P, S, A, R, O, T]) Descriptor() Descriptor {
	return Descriptor{
		Params:     p.ParamNames(),
		Bounds:     p.Bounds(),
		Objectives: p.ObjectiveList(),
		Metrics:    p.metrics.Names(),
		Batch:      p.batch.String(),
		Seeding:    p.opts.seeding.String(),
		Seed:       int64(p.opts.key),
		Scenarios:  len(p.scenarios),
	}
}

// Checkpoint wraps a backend state taken after iteration.
func (p *Problem[C, Sc, P, S, A, R, O, T]) Checkpoint(iteration int, state []byte) *Checkpoint {
	return &Checkpoint{Problem: p.Descriptor(), Iteration: iteration, SearchState: slices.Clone(state)}
}

// Resume returns the search state of cp after checking that it was taken
// from an equivalent problem.
func (p *Problem[C, Sc, P, S, A, R, O, T]) Resume(cp *Checkpoint) ([]byte, error) {
	if cp == nil {
		return nil, &sim.ValidationError{What: "checkpoint", Reason: "checkpoint is nil"}
	}
	if field := cp.Problem.diff(p.Descriptor()); field != "" {
		return nil, &sim.ValidationError{What: "checkpoint", Reason: "taken from a different problem: " + field + " differs"}
	}
	return slices.Clone(cp.SearchState), nil
}

// diff names the first field that differs, or returns "".
func (d Descriptor) diff(o Descriptor) string {
	switch {
	case !slices.Equal(d.Params, o.Params):
		return "params"
	case !slices.Equal(d.Bounds, o.Bounds):
		return "bounds"
	case !slices.Equal(d.Objectives, o.Objectives):
		return "objectives"
	case !slices.Equal(d.Metrics, o.Metrics):
		return "metrics"
	case d.Batch != o.Batch:
		return "batch"
	case d.Seeding != o.Seeding:
		return "seeding"
	case d.Seed != o.Seed:
		return "seed"
	case d.Scenarios != o.Scenarios:
		return "scenarios"
	}
	return ""
}

// checkpointFile is the on-disk layout. The search state is base64 text
// since backends may store arbitrary bytes.
type checkpointFile struct {
	Problem     Descriptor `yaml:"problem"`
	Iteration   int        `yaml:"iteration"`
	SearchState string     `yaml:"search_state"`
}

// FileCheckpointStore keeps one checkpoint in a YAML file. Save replaces the
// file atomically.
type FileCheckpointStore struct {
	Path string
}

// Save implements CheckpointStore.
func (s FileCheckpointStore) Save(cp *Checkpoint) error {
	if cp == nil {
		return &sim.ValidationError{What: "checkpoint", Reason: "checkpoint is nil"}
	}
	data, err := yaml.Marshal(&checkpointFile{
		Problem:     cp.Problem,
		Iteration:   cp.Iteration,
		SearchState: base64.StdEncoding.EncodeToString(cp.SearchState),
	})
	if err != nil {
		return fmt.Errorf("encoding checkpoint: %w", err)
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing checkpoint: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return errors.Join(fmt.Errorf("replacing checkpoint: %w", err), os.Remove(tmp))
	}
	return nil
}

// Load implements CheckpointStore. A missing file yields an error matching
// fs.ErrNotExist.
func (s FileCheckpointStore) Load() (*Checkpoint, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cf checkpointFile
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cf); err != nil {
		return nil, fmt.Errorf("parsing checkpoint %s: %w", s.Path, err)
	}
	state, err := base64.StdEncoding.DecodeString(cf.SearchState)
	if err != nil {
		return nil, fmt.Errorf("decoding search state in %s: %w", s.Path, err)
	}
	return &Checkpoint{Problem: cf.Problem, Iteration: cf.Iteration, SearchState: state}, nil
}
