package metadata

import (
	"encoding/json"
	"math"
	"testing"
)

func TestFromAny_Kinds(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want Kind
	}{
		{"nil", nil, KindNull},
		{"string", "rock", KindString},
		{"int", 42, KindInt},
		{"float", 0.5, KindFloat},
		{"integral float stays float", 3.0, KindFloat},
		{"bool", true, KindBool},
		{"map", map[string]any{"a": 1}, KindMap},
		{"list", []any{"a", 1}, KindList},
		{"json integer", json.Number("7"), KindInt},
		{"json float", json.Number("7.5"), KindFloat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := FromAny(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if v.Kind() != tt.want {
				t.Errorf("Kind() = %s, want %s", v.Kind(), tt.want)
			}
		})
	}
}

func TestFromAny_Rejects(t *testing.T) {
	for _, in := range []any{math.NaN(), math.Inf(1), struct{}{}, []any{make(chan int)}} {
		if _, err := FromAny(in); err == nil {
			t.Errorf("FromAny(%T) expected error", in)
		}
	}
}

func TestUnmarshal_IntegersStayIntegers(t *testing.T) {
	var m Metadata
	if err := json.Unmarshal([]byte(`{"bpm":120,"energy":0.8,"tags":["a"],"nested":{"k":null}}`), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["bpm"].Kind() != KindInt {
		t.Errorf("bpm kind = %s, want int", m["bpm"].Kind())
	}
	if m["energy"].Kind() != KindFloat {
		t.Errorf("energy kind = %s, want float", m["energy"].Kind())
	}
	nested, ok := m["nested"].AsMap()
	if !ok || !nested["k"].IsNull() {
		t.Errorf("nested = %+v", m["nested"])
	}

	out, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Metadata
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("unmarshal back: %v", err)
	}
	if !back.Equal(m) {
		t.Errorf("decoded %s differs from original", out)
	}
}

func TestValue_Equal_NumericAcrossKinds(t *testing.T) {
	if !Int(3).Equal(Float(3)) {
		t.Error("Int(3) should equal Float(3)")
	}
	if Int(3).Equal(String("3")) {
		t.Error("Int(3) should not equal String(\"3\")")
	}
	if !List(String("a"), Int(1)).Equal(List(String("a"), Int(1))) {
		t.Error("equal lists reported different")
	}
}

func TestMetadata_CopyHelpers(t *testing.T) {
	m := Metadata{"title": String("Song"), "vector_id": String("x")}

	w := m.With("genre", String("rock"))
	if _, ok := m["genre"]; ok {
		t.Error("With mutated the receiver")
	}
	if w.Text("genre") != "rock" {
		t.Errorf("With result genre = %q", w.Text("genre"))
	}

	stripped := m.Without("vector_id")
	if _, ok := stripped["vector_id"]; ok {
		t.Error("Without kept vector_id")
	}
	if _, ok := m["vector_id"]; !ok {
		t.Error("Without mutated the receiver")
	}

	var empty Metadata
	if got := empty.With("a", Bool(true)); len(got) != 1 {
		t.Errorf("With on nil map len = %d", len(got))
	}
}

func TestValue_Text(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{String("abc"), "abc"},
		{Int(120), "120"},
		{Float(0.5), "0.5"},
		{Bool(true), "true"},
		{Null(), ""},
		{List(String("a")), ""},
	}
	for _, tt := range tests {
		if got := tt.v.Text(); got != tt.want {
			t.Errorf("Text(%s) = %q, want %q", tt.v.Kind(), got, tt.want)
		}
	}
}
