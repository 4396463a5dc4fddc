package metric

import (
	"reflect"

	"github.com/dossgollin-lab/SimOptDecisions-sub001/sim"
)

// Field returns an accessor for the exported numeric struct field name of O
// (O may be a struct or a pointer to one). The field is resolved once here;
// the accessor itself does no lookup by name.
func Field[O any](name string) (func(O) float64, error) {
	typ := reflect.TypeFor[O]()
	ptr := false
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
		ptr = true
	}
	if typ.Kind() != reflect.Struct {
		return nil, sim.ConstructionErrorf("metric field", "outcome type %s is not a struct", typ)
	}
	sf, ok := typ.FieldByName(name)
	if !ok || !sf.IsExported() {
		return nil, &sim.ConstructionError{What: "metric field", Reason: "outcome type " + typ.String() + " has no exported field " + name}
	}
	idx := sf.Index
	var toFloat func(reflect.Value) float64
	switch sf.Type.Kind() {
	case reflect.Float32, reflect.Float64:
		toFloat = func(v reflect.Value) float64 { return v.Float() }
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		toFloat = func(v reflect.Value) float64 { return float64(v.Int()) }
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		toFloat = func(v reflect.Value) float64 { return float64(v.Uint()) }
	case reflect.Bool:
		toFloat = func(v reflect.Value) float64 {
			if v.Bool() {
				return 1
			}
			return 0
		}
	default:
		return nil, sim.ConstructionErrorf("metric field", "field %s.%s has non-numeric type %s", typ, name, sf.Type)
	}
	return func(o O) float64 {
		v := reflect.ValueOf(o)
		if ptr {
			v = v.Elem()
		}
		return toFloat(v.FieldByIndex(idx))
	}, nil
}

// MustField is Field for field names known at compile time.
func MustField[O any](name string) func(O) float64 {
	f, err := Field[O](name)
	if err != nil {
		panic(err)
	}
	return f
}
