package optim

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/dossgollin-lab/SimOptDecisions-sub001/sim"
)

// Bound is the closed interval a policy parameter may take.
type Bound struct {
	Lo float64 `yaml:"lo"`
	Hi float64 `yaml:"hi"`
}

func (b Bound) String() string { return fmt.Sprintf("[%g, %g]", b.Lo, b.Hi) }

// Contains reports whether x lies in the interval.
func (b Bound) Contains(x float64) bool { return x >= b.Lo && x <= b.Hi }

// Parameterized policies expose their continuous parameter vector.
type Parameterized interface {
	Params() []float64
}

// Bounded policies declare one Bound per parameter, in Params order.
type Bounded interface {
	Bounds() []Bound
}

// FromVector builds a policy of type P from a parameter vector. It is
// implemented on a prototype value; the receiver is not modified.
type FromVector[P any] interface {
	FromVector(x []float64) (P, error)
}

// codec converts between policies and parameter vectors.
type codec[P any] struct {
	bounds []Bound
	names  []string
	params func(P) []float64
	build  func(x []float64) (P, error)
}

// paramTag is the struct tag carrying "lo,hi" for derived bounds.
const paramTag = "param"

// newCodec inspects the prototype policy. A policy implementing Bounded must
// also implement Parameterized and FromVector[P]. Otherwise P must be a struct
// (or pointer to struct) with float fields tagged `param:"lo,hi"`.
func newCodec[P any](prototype P) (*codec[P], error) {
	if b, ok := any(prototype).(Bounded); ok {
		return explicitCodec(prototype, b)
	}
	return taggedCodec(prototype)
}

func explicitCodec[P any](prototype P, b Bounded) (*codec[P], error) {
	pt, ok := any(prototype).(Parameterized)
	if !ok {
		return nil, &sim.InterfaceNotImplementedError{Method: "Params() []float64", Type: fmt.Sprintf("%T", prototype)}
	}
	fv, ok := any(prototype).(FromVector[P])
	if !ok {
		return nil, &sim.InterfaceNotImplementedError{Method: fmt.Sprintf("FromVector([]float64) (%T, error)", prototype), Type: fmt.Sprintf("%T", prototype)}
	}
	bounds := b.Bounds()
	if err := checkBounds(bounds); err != nil {
		return nil, err
	}
	if n := len(pt.Params()); n != len(bounds) {
		return nil, sim.ConstructionErrorf("policy", "%T has %d parameters but %d bounds", prototype, n, len(bounds))
	}
	names := make([]string, len(bounds))
	for i := range names {
		names[i] = "x" + strconv.Itoa(i)
	}
	return &codec[P]{
		bounds: append([]Bound(nil), bounds...),
		names:  names,
		params: func(p P) []float64 { return any(p).(Parameterized).Params() },
		build:  fv.FromVector,
	}, nil
}

func taggedCodec[P any](prototype P) (*codec[P], error) {
	typ := reflect.TypeFor[P]()
	isPtr := typ.Kind() == reflect.Pointer
	st := typ
	if isPtr {
		st = typ.Elem()
	}
	if st.Kind() != reflect.Struct {
		return nil, &sim.InterfaceNotImplementedError{Method: "Bounds() []optim.Bound", Type: typ.String()}
	}

	var (
		fields []int
		bounds []Bound
		names  []string
	)
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		tag, ok := f.Tag.Lookup(paramTag)
		if !ok {
			continue
		}
		switch f.Type.Kind() {
		case reflect.Float32, reflect.Float64:
		default:
			return nil, sim.ConstructionErrorf("policy", "field %s.%s is %s; only continuous float parameters can be searched", st, f.Name, f.Type)
		}
		if !f.IsExported() {
			return nil, sim.ConstructionErrorf("policy", "tagged field %s.%s is unexported", st, f.Name)
		}
		b, err := parseBoundTag(tag)
		if err != nil {
			return nil, sim.ConstructionErrorf("policy", "field %s.%s: %v", st, f.Name, err)
		}
		fields = append(fields, i)
		bounds = append(bounds, b)
		names = append(names, f.Name)
	}
	if len(fields) == 0 {
		return nil, sim.ConstructionErrorf("policy", "%s has no Bounds method and no fields tagged %s:\"lo,hi\"", typ, paramTag)
	}
	if err := checkBounds(bounds); err != nil {
		return nil, err
	}

	base := reflect.ValueOf(&prototype).Elem()
	structOf := func(v reflect.Value) reflect.Value {
		if isPtr {
			return v.Elem()
		}
		return v
	}
	return &codec[P]{
		bounds: bounds,
		names:  names,
		params: func(p P) []float64 {
			v := structOf(reflect.ValueOf(p))
			x := make([]float64, len(fields))
			for j, i := range fields {
				x[j] = v.Field(i).Float()
			}
			return x
		},
		build: func(x []float64) (P, error) {
			var zero P
			if len(x) != len(fields) {
				return zero, sim.ConstructionErrorf("parameter vector", "got %d values for %d parameters", len(x), len(fields))
			}
			s := reflect.New(st).Elem()
			if src := structOf(base); src.IsValid() {
				s.Set(src)
			}
			for j, i := range fields {
				s.Field(i).SetFloat(x[j])
			}
			if isPtr {
				return s.Addr().Interface().(P), nil
			}
			return s.Interface().(P), nil
		},
	}, nil
}

func parseBoundTag(tag string) (Bound, error) {
	lo, hi, ok := strings.Cut(tag, ",")
	if !ok {
		return Bound{}, fmt.Errorf("tag %q is not of the form \"lo,hi\"", tag)
	}
	l, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
	if err != nil {
		return Bound{}, fmt.Errorf("lower bound: %w", err)
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(hi), 64)
	if err != nil {
		return Bound{}, fmt.Errorf("upper bound: %w", err)
	}
	return Bound{Lo: l, Hi: h}, nil
}

func checkBounds(bounds []Bound) error {
	if len(bounds) == 0 {
		return &sim.ConstructionError{What: "bounds", Reason: "policy declares no parameters"}
	}
	for i, b := range bounds {
		if math.IsNaN(b.Lo) || math.IsNaN(b.Hi) || math.IsInf(b.Lo, 0) || math.IsInf(b.Hi, 0) {
			return sim.ConstructionErrorf("bounds", "parameter %d bound %s is not finite", i, b)
		}
		if b.Lo > b.Hi {
			return sim.ConstructionErrorf("bounds", "parameter %d bound %s has lo > hi", i, b)
		}
	}
	return nil
}

// midpoint returns the centre of the box described by bounds.
func midpoint(bounds []Bound) []float64 {
	lo, hi := splitBounds(bounds)
	floats.Add(lo, hi)
	floats.Scale(0.5, lo)
	return lo
}

func splitBounds(bounds []Bound) (lo, hi []float64) {
	lo = make([]float64, len(bounds))
	hi = make([]float64, len(bounds))
	for i, b := range bounds {
		lo[i], hi[i] = b.Lo, b.Hi
	}
	return lo, hi
}

// probe builds a policy at the bounds midpoint and checks it round-trips to a
// vector of the right length.
func (c *codec[P]) probe() error {
	mid := midpoint(c.bounds)
	p, err := c.build(mid)
	if err != nil {
		return fmt.Errorf("building policy at bounds midpoint: %w", err)
	}
	if got := c.params(p); len(got) != len(mid) {
		return sim.ConstructionErrorf("policy", "policy built from %d parameters reports %d", len(mid), len(got))
	}
	return nil
}

// decode builds a policy after checking x against the bounds: matching
// length, no NaN, every component inside its Bound.
func (c *codec[P]) decode(x []float64) (P, error) {
	var zero P
	if len(x) != len(c.bounds) {
		return zero, sim.ConstructionErrorf("parameter vector", "got %d values for %d parameters", len(x), len(c.bounds))
	}
	if floats.HasNaN(x) {
		return zero, &sim.ConstructionError{What: "parameter vector", Reason: "contains NaN"}
	}
	for i, b := range c.bounds {
		if !b.Contains(x[i]) {
			return zero, sim.ConstructionErrorf("parameter vector", "%s = %v lies outside %s", c.names[i], x[i], b)
		}
	}
	return c.build(x)
}
