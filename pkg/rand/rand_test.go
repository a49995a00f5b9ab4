// pkg/rand/rand_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package rand

import (
	"testing"
)

func TestSeedReproducible(t *testing.T) {
	a, b := Make(42), Make(42)
	for i := range 1000 {
		if va, vb := a.Uint32(), b.Uint32(); va != vb {
			t.Fatalf("%d: sequences diverged: %d vs %d", i, va, vb)
		}
	}
}

func TestAxis(t *testing.T) {
	r := Make(7)
	centered := 0
	for range 10000 {
		v := r.Axis(0.25)
		if v < -1 || v > 1 {
			t.Errorf("%f: axis value out of range", v)
		}
		if v == 0 {
			centered++
		}
	}
	// Loose bounds; we just want to know that centering happens at
	// roughly the requested rate.
	if centered < 2000 || centered > 3000 {
		t.Errorf("expected ~2500 centered values, got %d", centered)
	}
}

func TestIntnBounds(t *testing.T) {
	r := Make(1)
	for n := 1; n < 50; n++ {
		for range 100 {
			if v := r.Intn(n); v < 0 || v >= n {
				t.Errorf("Intn(%d) returned %d", n, v)
			}
		}
	}
}
