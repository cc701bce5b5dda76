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

// Package tablesrc is the abstract "table source" of spec.md §6: a
// collaborator yielding per-extension keyword metadata and typed columns,
// standing in for the FITS decoding this engine deliberately does not own
// (spec.md §1). A concrete github.com/ctessum/cdf-backed implementation is
// provided so the rest of the engine has something real to read from and
// exercise, grounded on how the teacher (sr/srreader.go) reads its own
// gridded NetCDF inputs through the same library rather than a bespoke
// format.
package tablesrc

import (
	"context"

	"github.com/specmodel/isisengine/atomdb"
)

// Locator names where in a table source a single (T, nₑ) grid point's data
// lives: a file plus an extension/variable-group index within it.
type Locator struct {
	File      string
	Extension int
}

// FilemapRowData is one row of the emissivity filemap extension.
type FilemapRowData struct {
	KtKeV    float64 // temperature, keV
	EDensity float64 // electron density, cm^-3
	Locator  Locator
}

// FilemapData is the full emissivity filemap extension.
type FilemapData struct {
	NumTemps     int
	NumDensities int
	AbundSource  string
	Rows         []FilemapRowData
}

// LineEmisData is one line-emissivity extension (one grid point).
type LineEmisData struct {
	Temperature, Density          float64
	Lambda, Epsilon               []float64
	Element, Ion, UpperLev, LowerLev []int
}

// ContinuumRecordData is one per-ion record of a continuum-emissivity
// extension. Q is the ion charge (the "rmJ" column in the original ISIS
// FITS layout); Q=-1 marks a sentinel "sum over ions/elements" row per
// spec.md §3.
type ContinuumRecordData struct {
	Z, Q               int
	ECont, Continuum   []float64
	EPseudo, Pseudo    []float64
}

// ContinuumEmisData is one continuum-emissivity extension (one grid point).
type ContinuumEmisData struct {
	Temperature, Density float64
	Records              []ContinuumRecordData
}

// AbundanceData is one row of the abundance extension: a named source and
// one log10-relative-to-H=12.00 value per element symbol column.
type AbundanceData struct {
	Source string
	Abund  map[string]float64
}

// IonFractionData is the ion-fraction extension.
type IonFractionData struct {
	NumTemps, NumDensities, NumElements, NumIons int
	Temperature, Density                         []float64
	ZElement                                      []int
	XIonPop                                       [][]float64 // one row per grid point, packed per NumIons
}

// Source is the full table-source contract the emissivity store and atomic
// database consume. A concrete implementation need not support every
// method, per spec.md §4.1/§4.3's partial-load tolerance: emisstore.Open
// logs a warning and continues when OpenAbundance or OpenIonFraction fails,
// and atomdb.Open does the same for a failing level or line source. An
// OpenFilemap error fails emisstore.Open, and an OpenLineEmissivity or
// OpenContinuumEmissivity error is returned by the block lookup that made
// the call.
type Source interface {
	atomdb.LevelSource
	atomdb.LineSource

	OpenFilemap(ctx context.Context) (FilemapData, error)
	OpenLineEmissivity(ctx context.Context, loc Locator) (LineEmisData, error)
	OpenContinuumEmissivity(ctx context.Context, loc Locator) (ContinuumEmisData, error)
	OpenAbundance(ctx context.Context) ([]AbundanceData, error)
	OpenIonFraction(ctx context.Context) (IonFractionData, error)
}
