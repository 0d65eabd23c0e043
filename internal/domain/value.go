package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrValueKind = errors.New("value kind mismatch")

// Kind tags the variant held by a Value.
type Kind string

const (
	KindNone      Kind = ""
	KindString    Kind = "string"
	KindInt       Kind = "int"
	KindDecimal   Kind = "decimal"
	KindBool      Kind = "bool"
	KindTime      Kind = "time"
	KindReference Kind = "reference"
)

// IsValid reports whether k names a storable kind.
func (k Kind) IsValid() bool {
	switch k {
	case KindString, KindInt, KindDecimal, KindBool, KindTime, KindReference:
		return true
	default:
		return false
	}
}

// Value is a tagged node value. The zero Value is absent (KindNone).
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
	t    time.Time
	ref  Reference
}

func StringValue(s string) Value       { return Value{kind: KindString, s: s} }
func IntValue(i int64) Value           { return Value{kind: KindInt, i: i} }
func DecimalValue(f float64) Value     { return Value{kind: KindDecimal, f: f} }
func BoolValue(b bool) Value           { return Value{kind: KindBool, b: b} }
func TimeValue(t time.Time) Value      { return Value{kind: KindTime, t: t.UTC()} }
func ReferenceValue(r Reference) Value { return Value{kind: KindReference, ref: r} }

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNone() bool { return v.kind == KindNone }

func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", v.mismatch(KindString)
	}
	return v.s, nil
}

func (v Value) AsInt() (int64, error) {
	if v.kind != KindInt {
		return 0, v.mismatch(KindInt)
	}
	return v.i, nil
}

// AsDecimal also accepts int values.
func (v Value) AsDecimal() (float64, error) {
	switch v.kind {
	case KindDecimal:
		return v.f, nil
	case KindInt:
		return float64(v.i), nil
	}
	return 0, v.mismatch(KindDecimal)
}

func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, v.mismatch(KindBool)
	}
	return v.b, nil
}

func (v Value) AsTime() (time.Time, error) {
	if v.kind != KindTime {
		return time.Time{}, v.mismatch(KindTime)
	}
	return v.t, nil
}

func (v Value) AsReference() (Reference, error) {
	if v.kind != KindReference {
		return Reference{}, v.mismatch(KindReference)
	}
	return v.ref, nil
}

func (v Value) mismatch(want Kind) error {
	return fmt.Errorf("%w: have %q, want %q", ErrValueKind, v.kind, want)
}

func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.s == o.s
	case KindInt:
		return v.i == o.i
	case KindDecimal:
		return v.f == o.f
	case KindBool:
		return v.b == o.b
	case KindTime:
		return v.t.Equal(o.t)
	case KindReference:
		return v.ref == o.ref
	}
	return true
}

// String renders the value the way Coerce parses it back.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindDecimal:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindTime:
		return v.t.Format(time.RFC3339)
	case KindReference:
		return v.ref.String()
	}
	return ""
}

// Coerce converts v to kind. Strings are parsed into scalar kinds, scalars are
// formatted into strings and ints widen to decimals. Anything else is an error.
func (v Value) Coerce(kind Kind) (Value, error) {
	if v.kind == kind || v.kind == KindNone {
		return v, nil
	}
	if kind == KindString {
		return StringValue(v.String()), nil
	}
	if v.kind == KindInt && kind == KindDecimal {
		return DecimalValue(float64(v.i)), nil
	}
	if v.kind != KindString {
		return Value{}, v.mismatch(kind)
	}
	s := strings.TrimSpace(v.s)
	switch kind {
	case KindInt:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not an int", ErrValueKind, v.s)
		}
		return IntValue(i), nil
	case KindDecimal:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a decimal", ErrValueKind, v.s)
		}
		return DecimalValue(f), nil
	case KindBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a bool", ErrValueKind, v.s)
		}
		return BoolValue(b), nil
	case KindTime:
		t, err := parseTime(s)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a time", ErrValueKind, v.s)
		}
		return TimeValue(t), nil
	case KindReference:
		ref, err := ParseReference(s)
		if err != nil {
			return Value{}, err
		}
		return ReferenceValue(ref), nil
	}
	return Value{}, v.mismatch(kind)
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

type valueJSON struct {
	Type  Kind            `json:"type"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON encodes the value with its tag so it round-trips through JSONB.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindNone {
		return []byte("null"), nil
	}
	var raw any
	switch v.kind {
	case KindString:
		raw = v.s
	case KindInt:
		raw = v.i
	case KindDecimal:
		raw = v.f
	case KindBool:
		raw = v.b
	case KindTime:
		raw = v.t.Format(time.RFC3339Nano)
	case KindReference:
		raw = v.ref.String()
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	return json.Marshal(valueJSON{Type: v.kind, Value: b})
}

func (v *Value) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*v = Value{}
		return nil
	}
	var in valueJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	var err error
	switch in.Type {
	case KindString:
		var s string
		err = json.Unmarshal(in.Value, &s)
		*v = StringValue(s)
	case KindInt:
		var i int64
		err = json.Unmarshal(in.Value, &i)
		*v = IntValue(i)
	case KindDecimal:
		var f float64
		err = json.Unmarshal(in.Value, &f)
		*v = DecimalValue(f)
	case KindBool:
		var x bool
		err = json.Unmarshal(in.Value, &x)
		*v = BoolValue(x)
	case KindTime:
		var s string
		if err = json.Unmarshal(in.Value, &s); err == nil {
			var t time.Time
			t, err = time.Parse(time.RFC3339Nano, s)
			*v = TimeValue(t)
		}
	case KindReference:
		var s string
		if err = json.Unmarshal(in.Value, &s); err == nil {
			var ref Reference
			ref, err = ParseReference(s)
			*v = ReferenceValue(ref)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrValueKind, in.Type)
	}
	return err
}

// ValueFromAny converts a decoded JSON scalar into a Value. Numbers without a
// fraction become ints.
func ValueFromAny(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Value{}, nil
	case string:
		return StringValue(t), nil
	case bool:
		return BoolValue(t), nil
	case float64:
		if t == float64(int64(t)) {
			return IntValue(int64(t)), nil
		}
		return DecimalValue(t), nil
	case int:
		return IntValue(int64(t)), nil
	case int64:
		return IntValue(t), nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return IntValue(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return Value{}, err
		}
		return DecimalValue(f), nil
	case time.Time:
		return TimeValue(t), nil
	case Reference:
		return ReferenceValue(t), nil
	}
	return Value{}, fmt.Errorf("%w: unsupported %T", ErrValueKind, x)
}

// Plain returns the untagged Go value, used when rendering node maps.
func (v Value) Plain() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return v.i
	case KindDecimal:
		return v.f
	case KindBool:
		return v.b
	case KindTime:
		return v.t.Format(time.RFC3339)
	case KindReference:
		return v.ref.String()
	}
	return nil
}
