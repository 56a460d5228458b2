package settings

import (
	"fmt"
	"strconv"
)

type Kind int

const (
	String Kind = iota
	Bool
	Int
	Float
)

func (k Kind) String() string {
	switch k {
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Float:
		return "float"
	default:
		return "string"
	}
}

// Value is a typed scalar from the settings snapshot.
type Value struct {
	Kind Kind
	b    bool
	i    int64
	f    float64
	s    string
}

func BoolValue(b bool) Value { return Value{Kind: Bool, b: b} }
func IntValue(i int64) Value { return Value{Kind: Int, i: i} }
func FloatValue(f float64) Value { return Value{Kind: Float, f: f} }
func StringValue(s string) Value { return Value{Kind: String, s: s} }
func (v Value) Bool() bool { return v.b }
func (v Value) Int() int64 { return v.i }
func (v Value) Float() float64 { return v.f }
func (v Value) Equal(o Value) bool { return v == o }

// String renders the canonical text form: true/false, base-10 integers,
// shortest round-tripping floats and raw strings.
func (v Value) String() string {
	switch v.Kind {
	case Bool:
		return strconv.FormatBool(v.b)
	case Int:
		return strconv.FormatInt(v.i, 10)
	case Float:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	default:
		return v.s
	}
}

// FromAny converts a decoded scalar into a Value.
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case Value:
		return t, nil
	case bool:
		return BoolValue(t), nil
	case int:
		return IntValue(int64(t)), nil
	case int32:
		return IntValue(int64(t)), nil
	case int64:
		return IntValue(t), nil
	case uint:
		return IntValue(int64(t)), nil
	case float32:
		return FloatValue(float64(t)), nil
	case float64:
		return FloatValue(t), nil
	case string:
		return StringValue(t), nil
	default:
		return Value{}, fmt.Errorf("unsupported settings value type %T", x)
	}
}
