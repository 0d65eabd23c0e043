package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_Coerce(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		in      Value
		kind    Kind
		want    Value
		wantErr bool
	}{
		{"string to int", StringValue(" 12 "), KindInt, IntValue(12), false},
		{"string to decimal", StringValue("2.5"), KindDecimal, DecimalValue(2.5), false},
		{"string to bool", StringValue("true"), KindBool, BoolValue(true), false},
		{"date string to time", StringValue("2024-03-01"), KindTime, TimeValue(day), false},
		{"string to reference", StringValue("party.patientpet:1"), KindReference, ReferenceValue(NewReference("party.patientpet", "1")), false},
		{"int to decimal", IntValue(3), KindDecimal, DecimalValue(3), false},
		{"int to string", IntValue(3), KindString, StringValue("3"), false},
		{"bool to string", BoolValue(false), KindString, StringValue("false"), false},
		{"none stays none", Value{}, KindInt, Value{}, false},
		{"bad int", StringValue("twelve"), KindInt, Value{}, true},
		{"decimal to int", DecimalValue(2.5), KindInt, Value{}, true},
		{"bool to int", BoolValue(true), KindInt, Value{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.Coerce(tt.kind)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v (%s), want %v (%s)", got, got.Kind(), tt.want, tt.want.Kind())
		})
	}
}

func TestValue_AsAccessorsCheckKind(t *testing.T) {
	_, err := StringValue("x").AsInt()
	assert.ErrorIs(t, err, ErrValueKind)

	f, err := IntValue(4).AsDecimal()
	require.NoError(t, err)
	assert.Equal(t, 4.0, f)
}

func TestValue_JSONKeepsKind(t *testing.T) {
	attrs := Attributes{
		"weight":  DecimalValue(12),
		"count":   IntValue(12),
		"owner":   ReferenceValue(NewReference("party.customerperson", "c1")),
		"desexed": BoolValue(true),
	}
	b, err := json.Marshal(attrs)
	require.NoError(t, err)

	var out Attributes
	require.NoError(t, json.Unmarshal(b, &out))
	for name, v := range attrs {
		assert.True(t, v.Equal(out[name]), "node %s", name)
		assert.Equal(t, v.Kind(), out[name].Kind(), "node %s", name)
	}
}

func TestValueFromAny(t *testing.T) {
	v, err := ValueFromAny(float64(3))
	require.NoError(t, err)
	assert.Equal(t, KindInt, v.Kind())

	v, err = ValueFromAny(json.Number("2.75"))
	require.NoError(t, err)
	assert.Equal(t, KindDecimal, v.Kind())

	v, err = ValueFromAny(nil)
	require.NoError(t, err)
	assert.True(t, v.IsNone())

	_, err = ValueFromAny([]string{"a"})
	assert.ErrorIs(t, err, ErrValueKind)
}

func TestAttributes_SetNoneDeletes(t *testing.T) {
	a := Attributes{}
	a.Set("breed", StringValue("Kelpie"))
	a.Set("colour", StringValue("red"))
	assert.Equal(t, []string{"breed", "colour"}, a.Names())

	a.Set("breed", Value{})
	_, ok := a.Get("breed")
	assert.False(t, ok)

	c := a.Clone()
	c.Delete("colour")
	_, ok = a.Get("colour")
	assert.True(t, ok)
}

func TestActivePeriod_UpperBoundExclusive(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)
	p := ActivePeriod{From: &from, To: &to}

	assert.False(t, p.ActiveAt(from.Add(-time.Second)))
	assert.True(t, p.ActiveAt(from))
	assert.True(t, p.ActiveAt(to.Add(-time.Second)))
	assert.False(t, p.ActiveAt(to))
	assert.True(t, ActivePeriod{}.ActiveAt(time.Now()))
}

func TestArchetypeID_ParseAndMatch(t *testing.T) {
	id, err := ParseArchetypeID("party.customerperson")
	require.NoError(t, err)
	assert.Equal(t, "party.customerperson.1.0", id.String())
	assert.Equal(t, "party.customerperson", id.ShortName())

	id, err = ParseArchetypeID("entity.department.2.1")
	require.NoError(t, err)
	assert.Equal(t, "2.1", id.Version)

	_, err = ParseArchetypeID("department")
	assert.ErrorIs(t, err, ErrInvalidArchetypeID)

	assert.True(t, MatchShortName("party.*", "party.patientpet"))
	assert.True(t, MatchShortName("*", "entity.department"))
	assert.False(t, MatchShortName("party.*", "entity.department"))
	assert.True(t, MatchAny([]string{"contact.*", "party.patient*"}, "party.patientpet"))
}
