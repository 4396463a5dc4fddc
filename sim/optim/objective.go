package optim

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dossgollin-lab/SimOptDecisions-sub001/sim"
)

// Direction states how an objective's metric value is optimized.
type Direction int

const (
	Minimize Direction = iota
	Maximize
	// Ignore keeps the objective in the problem description but out of the
	// vector handed to the search backend.
	Ignore
)

var directionNames = map[Direction]string{
	Minimize: "minimize",
	Maximize: "maximize",
	Ignore:   "ignore",
}

func (d Direction) String() string {
	if s, ok := directionNames[d]; ok {
		return s
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// ParseDirection accepts "minimize", "maximize" or "ignore" (case-insensitive).
func ParseDirection(s string) (Direction, error) {
	for d, name := range directionNames {
		if strings.EqualFold(s, name) {
			return d, nil
		}
	}
	return 0, &sim.ValidationError{What: "direction", Reason: fmt.Sprintf("unknown direction %q", s), Valid: []string{"minimize", "maximize", "ignore"}}
}

// MarshalYAML writes the direction by name.
func (d Direction) MarshalYAML() (any, error) { return d.String(), nil }

// UnmarshalYAML reads a direction name.
func (d *Direction) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseDirection(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Objective names a metric and how to optimize it.
type Objective struct {
	Name      string    `yaml:"name"`
	Direction Direction `yaml:"direction"`
}

// Minimizing is shorthand for Objective{name, Minimize}.
func Minimizing(name string) Objective { return Objective{Name: name, Direction: Minimize} }

// Maximizing is shorthand for Objective{name, Maximize}.
func Maximizing(name string) Objective { return Objective{Name: name, Direction: Maximize} }

func (o Objective) String() string { return o.Direction.String() + " " + o.Name }

// active returns the objectives that reach the backend, in declaration order.
func active(objectives []Objective) []Objective {
	out := make([]Objective, 0, len(objectives))
	for _, o := range objectives {
		if o.Direction != Ignore {
			out = append(out, o)
		}
	}
	return out
}

// toBackend converts a metric value to the minimized backend convention.
func (o Objective) toBackend(v float64) float64 {
	if o.Direction == Maximize {
		return -v
	}
	return v
}

// fromBackend undoes toBackend.
func (o Objective) fromBackend(v float64) float64 { return o.toBackend(v) }
