/*
Copyright © 2024 the isisengine authors.
This file is part of isisengine.

isisengine is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

isisengine is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with isisengine.  If not, see <http://www.gnu.org/licenses/>.*/

// Package plasma is the plasma model record of spec.md §4.6 (component
// C6): an ordered list of thermal components, each with its own (T, nₑ,
// norm, abundance, redshift, turbulent velocity) and a scratch per-line
// flux record owned exclusively by that component, following the
// teacher's linked-component convention (list.go's cellList) adapted to a
// single-owner singly linked list of components instead of a spatial grid.
package plasma

import "github.com/specmodel/isisengine/specunits"

// Component is one thermal plasma slab contributing to a Model's spectrum.
type Component struct {
	ID int

	Temperature float64 // K
	Density     float64 // cm^-3
	Norm        float64 // already scaled by 1e14, per spec.md §4.6
	MetalAbund  float64 // relative abundance applied to Z=3..MaxProtonNumber by default
	Redshift    float64
	Vturb       float64 // cm/s, already scaled from km/s, per spec.md §4.6

	// RelAbund holds the per-element relative-abundance multiplier, indexed
	// by Z. RelAbund[1] and RelAbund[2] default to 1 and RelAbund[3:] to
	// MetalAbund; an override replaces the default for any Z.
	RelAbund [specunits.MaxProtonNumber + 1]float64

	// LineFlux is this component's scratch per-line flux record, keyed by
	// atomdb line index. It is overwritten on every Eval call; callers that
	// want to retain it across evaluations must copy it out first, per
	// spec.md §5's ownership rule.
	LineFlux map[int]float64

	// DerivedFlux holds the named expression variables computed from
	// LineFlux by a model.DerivedSet, if the evaluator was given one. It is
	// nil unless an evaluation supplied derived-variable expressions.
	DerivedFlux map[string]float64

	next *Component
}

// Model is an ordered list of components, evaluated in list order (though
// their contributions are additive and commutative, per spec.md §5).
type Model struct {
	head, tail *Component
	nextID     int
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{nextID: 1}
}

// Components returns the model's components in list order.
func (m *Model) Components() []*Component {
	var out []*Component
	for c := m.head; c != nil; c = c.next {
		out = append(out, c)
	}
	return out
}

// AddComponent appends a new component, applying the unit conventions of
// spec.md §4.6: norm is multiplied by 1e14, vturb (given in km/s) is
// converted to cm/s. overrides replaces the default metal-abundance
// relative scaling for specific elements, keyed by proton number.
func (m *Model) AddComponent(t, ne, norm, metalAbund, redshift, vturbKmPerSec float64, overrides map[int]float64) *Component {
	c := &Component{
		ID:          m.nextID,
		Temperature: t,
		Density:     ne,
		Norm:        norm * 1e14,
		MetalAbund:  metalAbund,
		Redshift:    redshift,
		Vturb:       specunits.VelocityKmPerSecToCmPerSec(vturbKmPerSec),
		LineFlux:    make(map[int]float64),
	}
	c.RelAbund[1] = 1
	c.RelAbund[2] = 1
	for z := 3; z <= specunits.MaxProtonNumber; z++ {
		c.RelAbund[z] = metalAbund
	}
	for z, v := range overrides {
		if z >= 1 && z <= specunits.MaxProtonNumber {
			c.RelAbund[z] = v
		}
	}
	m.nextID++
	if m.head == nil {
		m.head = c
	} else {
		m.tail.next = c
	}
	m.tail = c
	return c
}
