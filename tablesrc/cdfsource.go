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

package tablesrc

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/ctessum/cdf"
	"github.com/specmodel/isisengine/atomdb"
	"github.com/specmodel/isisengine/specunits"
)

// CDFSource reads the spec.md §6 table-source layout from a NetCDF file
// opened through github.com/ctessum/cdf, the same library the teacher uses
// for its own gridded inputs (sr/srreader.go's Reader). FITS HDUs have no
// direct NetCDF analog, so each logical extension is addressed by an
// integer suffix on a family of variable names (e.g. "Wavelen_3",
// "Upper_Lev_3" for line-list extension 3); per-extension keywords
// (ELEMENT, ION_STAT, TEMPERATURE, ...) are stored as attributes on a
// sentinel "ext_<n>" variable. This convention is local to CDFSource; nothing
// elsewhere in the engine depends on it.
type CDFSource struct {
	File *cdf.File
	// Path is recorded for Locator.File so cache keys and error messages
	// name the originating file.
	Path string

	// LineExtensions/LevelExtensions/LineEmisExtensions/ContinuumEmisExtensions
	// list the extension suffixes present in File, discovered at
	// construction time (e.g. by NewCDFSource scanning variable names).
	LineExtensions           []int
	LevelExtensions          []int
	LineEmisExtensions       []int
	ContinuumEmisExtensions  []int
}

func extVar(base string, ext int) string {
	return fmt.Sprintf("%s_%d", base, ext)
}

// NewCDFSource opens path with github.com/ctessum/cdf and discovers the
// extension suffixes present in it by scanning variable names for the
// "<base>_<n>" convention documented on CDFSource: any "Upper_Lev_<n>"
// marks a line-list extension, any "Energy_<n>" a level extension, any
// "Epsilon_<n>" a line-emissivity block, and any "Continuum_0_<n>" a
// continuum-emissivity block.
func NewCDFSource(path string) (*CDFSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tablesrc: opening %s: %w", path, err)
	}
	cf, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("tablesrc: reading CDF header of %s: %w", path, err)
	}

	s := &CDFSource{File: cf, Path: path}
	for _, v := range cf.Header.Variables() {
		switch {
		case extSuffix(v, "Upper_Lev", &s.LineExtensions):
		case extSuffix(v, "Energy", &s.LevelExtensions):
		case extSuffix(v, "Epsilon", &s.LineEmisExtensions):
		case extSuffix(v, "Continuum_0", &s.ContinuumEmisExtensions):
		}
	}
	sort.Ints(s.LineExtensions)
	sort.Ints(s.LevelExtensions)
	sort.Ints(s.LineEmisExtensions)
	sort.Ints(s.ContinuumEmisExtensions)
	return s, nil
}

// extSuffix appends the trailing "_<n>" integer of v to *into and reports
// true if v has the form base+"_"+n.
func extSuffix(v, base string, into *[]int) bool {
	prefix := base + "_"
	if !strings.HasPrefix(v, prefix) {
		return false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(v, prefix))
	if err != nil {
		return false
	}
	*into = append(*into, n)
	return true
}

func (s *CDFSource) attrInt(varName, attr string) (int, error) {
	v := s.File.Header.GetAttribute(varName, attr)
	switch t := v.(type) {
	case []int32:
		if len(t) == 0 {
			break
		}
		return int(t[0]), nil
	case []float64:
		if len(t) == 0 {
			break
		}
		return int(t[0]), nil
	}
	return 0, fmt.Errorf("tablesrc: attribute %s on %s not found or wrong type", attr, varName)
}

func (s *CDFSource) attrString(varName, attr string) (string, error) {
	v := s.File.Header.GetAttribute(varName, attr)
	if str, ok := v.(string); ok {
		return str, nil
	}
	return "", fmt.Errorf("tablesrc: attribute %s on %s not found or wrong type", attr, varName)
}

func (s *CDFSource) readFloats(varName string) ([]float64, error) {
	r := s.File.Reader(varName, nil, nil)
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("tablesrc: reading %s: %w", varName, err)
	}
	vals, ok := buf.([]float64)
	if !ok {
		return nil, fmt.Errorf("tablesrc: variable %s is not float64", varName)
	}
	return vals, nil
}

func (s *CDFSource) readInts(varName string) ([]int, error) {
	fs, err := s.readFloats(varName)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(fs))
	for i, f := range fs {
		out[i] = int(f)
	}
	return out, nil
}

// ReadLineExtensions implements atomdb.LineSource.
func (s *CDFSource) ReadLineExtensions(ctx context.Context) ([]atomdb.LineExtension, error) {
	var out []atomdb.LineExtension
	for _, ext := range s.LineExtensions {
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		default:
		}
		z, err := s.attrInt(extVar("ext", ext), "ELEMENT")
		if err != nil {
			return out, err
		}
		q, err := s.attrInt(extVar("ext", ext), "ION_STAT")
		if err != nil {
			return out, err
		}
		wavelen, err := s.readFloats(extVar("Wavelen", ext))
		if err != nil {
			return out, err
		}
		waveObs, _ := s.readFloats(extVar("Wave_Obs", ext))
		waveErr, _ := s.readFloats(extVar("Wave_Err", ext))
		a, err := s.readFloats(extVar("Einstein_A", ext))
		if err != nil {
			return out, err
		}
		aErr, _ := s.readFloats(extVar("Ein_A_err", ext))
		upper, err := s.readInts(extVar("Upper_Lev", ext))
		if err != nil {
			return out, err
		}
		lower, err := s.readInts(extVar("Lower_Lev", ext))
		if err != nil {
			return out, err
		}

		lines := make([]atomdb.RawLine, 0, len(wavelen))
		for i := range wavelen {
			wl := wavelen[i]
			if i < len(waveObs) && waveObs[i] > 0 {
				wl = waveObs[i]
			}
			if wl <= 0 || upper[i] == lower[i] {
				continue // negative/sentinel rows dropped, per spec.md §6
			}
			var we, av, ae float64
			if i < len(waveErr) {
				we = waveErr[i]
			}
			if i < len(a) {
				av = a[i]
			}
			if i < len(aErr) {
				ae = aErr[i]
			}
			lines = append(lines, atomdb.RawLine{
				Wavelength: wl, WavelengthErr: we,
				A: av, AErr: ae,
				Upper: upper[i], Lower: lower[i],
			})
		}
		out = append(out, atomdb.LineExtension{Z: z, Q: q, Lines: lines})
	}
	return out, nil
}

// ReadLevelExtensions implements atomdb.LevelSource.
func (s *CDFSource) ReadLevelExtensions(ctx context.Context) ([]atomdb.LevelExtension, error) {
	var out []atomdb.LevelExtension
	for _, ext := range s.LevelExtensions {
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		default:
		}
		z, err := s.attrInt(extVar("ext", ext), "ELEMENT")
		if err != nil {
			return out, err
		}
		q, err := s.attrInt(extVar("ext", ext), "ION_STAT")
		if err != nil {
			return out, err
		}
		energy, err := s.readFloats(extVar("Energy", ext))
		if err != nil {
			return out, err
		}
		deg, err := s.readFloats(extVar("Lev_Deg", ext))
		if err != nil {
			return out, err
		}
		n, _ := s.readInts(extVar("N_quan", ext))
		l, _ := s.readInts(extVar("L_quan", ext))
		sQuan, _ := s.readFloats(extVar("S_quan", ext))

		levels := make([]atomdb.RawLevel, len(energy))
		for i := range energy {
			lvl := atomdb.RawLevel{Energy: energy[i], StatWeight: deg[i], N: -1, L: -1, S: -1}
			if i < len(n) {
				lvl.N = n[i]
			}
			if i < len(l) {
				lvl.L = l[i]
			}
			if i < len(sQuan) {
				lvl.S = sQuan[i]
			}
			levels[i] = lvl
		}
		out = append(out, atomdb.LevelExtension{Z: z, Q: q, Levels: levels})
	}
	return out, nil
}

// OpenFilemap implements Source.
func (s *CDFSource) OpenFilemap(ctx context.Context) (FilemapData, error) {
	numTemps, err := s.attrInt("filemap", "INUM_TEMP")
	if err != nil {
		return FilemapData{}, err
	}
	numDens, err := s.attrInt("filemap", "INUM_DENSITIES")
	if err != nil {
		return FilemapData{}, err
	}
	abundSource, _ := s.attrString("filemap", "SABUND_SOURCE")

	kt, err := s.readFloats("filemap_kT")
	if err != nil {
		return FilemapData{}, err
	}
	ed, err := s.readFloats("filemap_EDensity")
	if err != nil {
		return FilemapData{}, err
	}

	const rowOffset = 3 // file-natural order starts at offset 3, per spec.md §6
	rows := make([]FilemapRowData, len(kt))
	for i := range kt {
		rows[i] = FilemapRowData{
			KtKeV:    kt[i],
			EDensity: ed[i],
			Locator:  Locator{File: s.Path, Extension: i + rowOffset},
		}
	}
	return FilemapData{NumTemps: numTemps, NumDensities: numDens, AbundSource: abundSource, Rows: rows}, nil
}

// KevToKelvin converts a temperature in keV (as tabulated by the filemap)
// to Kelvin: T = kT * 1000 * eV/k, per spec.md §6.
func KevToKelvin(ktKeV float64) float64 {
	return ktKeV * 1000 * specunits.EVToErg / specunits.BoltzmannK
}

// OpenLineEmissivity implements Source.
func (s *CDFSource) OpenLineEmissivity(ctx context.Context, loc Locator) (LineEmisData, error) {
	ext := loc.Extension
	t, err := s.attrInt(extVar("ext", ext), "TEMPERATURE")
	if err != nil {
		return LineEmisData{}, err
	}
	d, err := s.attrInt(extVar("ext", ext), "DENSITY")
	if err != nil {
		return LineEmisData{}, err
	}
	lambda, err := s.readFloats(extVar("Lambda", ext))
	if err != nil {
		return LineEmisData{}, err
	}
	eps, err := s.readFloats(extVar("Epsilon", ext))
	if err != nil {
		return LineEmisData{}, err
	}
	elem, err := s.readInts(extVar("Element", ext))
	if err != nil {
		return LineEmisData{}, err
	}
	ion, err := s.readInts(extVar("Ion", ext))
	if err != nil {
		return LineEmisData{}, err
	}
	upper, err := s.readInts(extVar("UpperLev", ext))
	if err != nil {
		return LineEmisData{}, err
	}
	lower, err := s.readInts(extVar("LowerLev", ext))
	if err != nil {
		return LineEmisData{}, err
	}
	return LineEmisData{
		Temperature: float64(t), Density: float64(d),
		Lambda: lambda, Epsilon: eps,
		Element: elem, Ion: ion, UpperLev: upper, LowerLev: lower,
	}, nil
}

// OpenContinuumEmissivity implements Source.
func (s *CDFSource) OpenContinuumEmissivity(ctx context.Context, loc Locator) (ContinuumEmisData, error) {
	ext := loc.Extension
	t, err := s.attrInt(extVar("ext", ext), "TEMPERATURE")
	if err != nil {
		return ContinuumEmisData{}, err
	}
	d, err := s.attrInt(extVar("ext", ext), "DENSITY")
	if err != nil {
		return ContinuumEmisData{}, err
	}
	z, err := s.readInts(extVar("Z", ext))
	if err != nil {
		return ContinuumEmisData{}, err
	}
	rmj, err := s.readInts(extVar("rmJ", ext))
	if err != nil {
		return ContinuumEmisData{}, err
	}

	records := make([]ContinuumRecordData, len(z))
	for i := range z {
		eCont, _ := s.readFloats(extVar(fmt.Sprintf("E_Cont_%d", i), ext))
		cont, _ := s.readFloats(extVar(fmt.Sprintf("Continuum_%d", i), ext))
		ePseudo, _ := s.readFloats(extVar(fmt.Sprintf("E_Pseudo_%d", i), ext))
		pseudo, _ := s.readFloats(extVar(fmt.Sprintf("Pseudo_%d", i), ext))
		records[i] = ContinuumRecordData{
			Z: z[i], Q: rmj[i],
			ECont: eCont, Continuum: cont,
			EPseudo: ePseudo, Pseudo: pseudo,
		}
	}
	return ContinuumEmisData{Temperature: float64(t), Density: float64(d), Records: records}, nil
}

// OpenAbundance implements Source.
func (s *CDFSource) OpenAbundance(ctx context.Context) ([]AbundanceData, error) {
	n, err := s.attrInt("abundance", "NAXIS2")
	if err != nil {
		return nil, err
	}
	var out []AbundanceData
	for i := 0; i < n; i++ {
		abund := make(map[string]float64, len(specunits.ElementSymbols))
		for _, sym := range specunits.ElementSymbols {
			if sym == "" {
				continue
			}
			vals, err := s.readFloats(sym)
			if err != nil || i >= len(vals) {
				continue
			}
			abund[sym] = vals[i]
		}
		out = append(out, AbundanceData{Abund: abund})
	}
	return out, nil
}

// OpenIonFraction implements Source.
func (s *CDFSource) OpenIonFraction(ctx context.Context) (IonFractionData, error) {
	tn, err := s.attrInt("ionfrac", "T_NUMBER")
	if err != nil {
		return IonFractionData{}, err
	}
	nn, _ := s.attrInt("ionfrac", "N_NUMBER")
	ne, err := s.attrInt("ionfrac", "N_ELEMEN")
	if err != nil {
		return IonFractionData{}, err
	}
	ni, err := s.attrInt("ionfrac", "N_IONS")
	if err != nil {
		return IonFractionData{}, err
	}
	temp, err := s.readFloats("Temperature")
	if err != nil {
		return IonFractionData{}, err
	}
	dens, _ := s.readFloats("Density")
	zElem, err := s.readInts("Z_ELEMENT")
	if err != nil {
		return IonFractionData{}, err
	}
	packed, err := s.readFloats("X_IONPOP")
	if err != nil {
		return IonFractionData{}, err
	}
	rows := len(temp)
	xIonPop := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		start := i * ni
		end := start + ni
		if end > len(packed) {
			end = len(packed)
		}
		xIonPop[i] = packed[start:end]
	}
	return IonFractionData{
		NumTemps: tn, NumDensities: nn, NumElements: ne, NumIons: ni,
		Temperature: temp, Density: dens, ZElement: zElem, XIonPop: xIonPop,
	}, nil
}
