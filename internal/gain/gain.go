// Package gain provides decibel-controlled volume scaling.
package gain

import (
	"math"
)

const (
	// MinDecibels and below are treated as silence.
	MinDecibels = -100.0
	MaxDecibels = 24.0
)

// DecibelsToLinear converts dB to a linear factor. Values at or below
// MinDecibels, -Inf and NaN map to 0; values above MaxDecibels are clamped.
func DecibelsToLinear(db float64) float64 {
	if math.IsNaN(db) || db <= MinDecibels {
		return 0
	}
	if db > MaxDecibels {
		db = MaxDecibels
	}
	return math.Pow(10, db/20)
}

// Gain scales samples by a factor set in decibels.
type Gain struct {
	db     float64
	linear float64
}

// New returns a gain stage at the given level.
func New(db float64) *Gain {
	g := &Gain{}
	g.SetDecibels(db)
	return g
}

func (g *Gain) SetDecibels(db float64) {
	switch {
	case math.IsNaN(db), db <= MinDecibels:
		db = math.Inf(-1)
	case db > MaxDecibels:
		db = MaxDecibels
	}
	g.db = db
	g.linear = DecibelsToLinear(db)
}

func (g *Gain) Decibels() float64 { return g.db }
func (g *Gain) Linear() float64   { return g.linear }

func (g *Gain) Process(sample float64) float64 {
	return sample * g.linear
}
