// pkg/rand/rand.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package rand

import (
	"github.com/MichaelTJones/pcg"
)

///////////////////////////////////////////////////////////////////////////
// Random numbers.

// Rand is a small PCG-based generator. A seeded Rand produces the same
// sequence on every platform, which keeps the stick simulator and the
// randomized tests reproducible.
type Rand struct {
	r *pcg.PCG32
}

func New() Rand {
	return Rand{r: pcg.NewPCG32()}
}

// Make returns a generator seeded with s.
func Make(s int64) Rand {
	r := New()
	r.Seed(s)
	return r
}

func (r *Rand) Seed(s int64) {
	r.r.Seed(uint64(s), 0xda3e39cb94b95bdb)
}

func (r *Rand) Intn(n int) int {
	return int(r.r.Bounded(uint32(n)))
}

func (r *Rand) Float32() float32 {
	return float32(r.r.Random()) / (1<<32 - 1)
}

func (r *Rand) Uint32() uint32 {
	return r.r.Random()
}

// Bool returns true with probability p.
func (r *Rand) Bool(p float32) bool {
	return r.Float32() < p
}

// Axis returns a stick deflection in [-1,1]; with probability pCentered
// it returns exactly zero, as the receiver does for sticks within the
// deadband.
func (r *Rand) Axis(pCentered float32) float32 {
	if r.Bool(pCentered) {
		return 0
	}
	return 2*r.Float32() - 1
}
