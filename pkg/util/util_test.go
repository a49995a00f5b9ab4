// pkg/util/util_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"slices"
	"strings"
	"testing"
)

func TestRingBuffer(t *testing.T) {
	rb := NewRingBuffer[int](10)

	if rb.Size() != 0 {
		t.Errorf("empty should have zero size")
	}

	rb.Add(0, 1, 2, 3, 4)
	if rb.Size() != 5 {
		t.Errorf("expected size 5; got %d", rb.Size())
	}
	for i := 0; i < 5; i++ {
		if rb.Get(i) != i {
			t.Errorf("returned unexpected value")
		}
	}

	for i := 5; i < 18; i++ {
		rb.Add(i)
	}
	if rb.Size() != 10 {
		t.Errorf("expected size 10")
	}
	for i := 0; i < 10; i++ {
		if rb.Get(i) != 8+i {
			t.Errorf("after filling, at %d got %d, expected %d", i, rb.Get(i), 8+i)
		}
	}

	if s := rb.Slice(); !slices.Equal(s, []int{8, 9, 10, 11, 12, 13, 14, 15, 16, 17}) {
		t.Errorf("unexpected Slice() result %v", s)
	}
}

func TestSortedMapKeys(t *testing.T) {
	m := map[string]int{"c": 3, "a": 1, "b": 2}
	if k := SortedMapKeys(m); !slices.Equal(k, []string{"a", "b", "c"}) {
		t.Errorf("expected [a b c], got %v", k)
	}
}

func TestErrorLogger(t *testing.T) {
	var e ErrorLogger
	if e.HaveErrors() || e.Err() != nil {
		t.Errorf("fresh ErrorLogger reports errors")
	}

	e.Push("settings")
	e.Push("position 3")
	e.ErrorString("bad mode %q", "Sport")
	e.Pop()
	e.ErrorString("second")
	e.Pop()

	if !e.HaveErrors() {
		t.Fatalf("expected errors")
	}
	expected := "settings / position 3: bad mode \"Sport\"\nsettings: second"
	if e.String() != expected {
		t.Errorf("expected %q, got %q", expected, e.String())
	}
	if e.Err() == nil || !strings.Contains(e.Err().Error(), "second") {
		t.Errorf("Err() didn't include all errors: %v", e.Err())
	}
	if e.CurrentDepth() != 0 {
		t.Errorf("expected depth 0, got %d", e.CurrentDepth())
	}
}

type testEnum int

func (t *testEnum) UnmarshalText(b []byte) error {
	*t = testEnum(len(b))
	return nil
}

type testConfig struct {
	Name     string      `json:"name"`
	Period   int         `json:"period_ms"`
	Enabled  bool        `json:"enabled"`
	Modes    [2]testEnum `json:"modes"`
	Internal struct {
		Value float32 `json:"value"`
	} `json:"internal"`
}

func TestCheckJSON(t *testing.T) {
	for _, test := range []struct {
		json   string
		errors []string
	}{
		{json: `{"name": "x", "period_ms": 20, "enabled": true, "modes": ["a", "bb"], "internal": {"value": 1.5}}`},
		{json: `{"nmae": "x"}`, errors: []string{`"nmae" is not an expected JSON object`}},
		{json: `{"period_ms": "20"}`, errors: []string{"period_ms: expected a number, got string"}},
		{json: `{"modes": [1]}`, errors: []string{"modes: expected a string"}},
		{json: `{"modes": ["a", "b", "c"]}`, errors: []string{"modes: too many entries"}},
		{json: `{"internal": {"value": true}}`, errors: []string{"internal / value: expected a number, got boolean"}},
		{json: `{"name": }`, errors: []string{"Error at line 1, character"}},
	} {
		var e ErrorLogger
		CheckJSON[testConfig]([]byte(test.json), &e)

		if len(test.errors) == 0 && e.HaveErrors() {
			t.Errorf("%s: unexpected errors: %s", test.json, e.String())
		}
		for _, expected := range test.errors {
			if !strings.Contains(e.String(), expected) {
				t.Errorf("%s: expected error containing %q, got %q", test.json, expected, e.String())
			}
		}
	}
}

func TestUnmarshalJSONLineNumbers(t *testing.T) {
	var c testConfig
	err := UnmarshalJSON([]byte("{\n  \"period_ms\": \"fast\"\n}"), &c)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("expected line 2 in error, got %v", err)
	}
}
