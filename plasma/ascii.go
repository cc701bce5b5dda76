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

package plasma

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"
	"github.com/specmodel/isisengine/specunits"
)

// WriteASCII serializes m in the one-block-per-component format of
// spec.md §4.6:
//
//	# id  Temp  Dens  Abund  Norm  Vturb  redshift
//	  1   1e7   1e10  1.0    1.0   0      0
//	  Fe=0.5 Ni=0.3
//
// Norm and Vturb are written back out in their original (pre-scaling)
// units so the file round-trips through AddComponent's unit conventions.
func WriteASCII(w io.Writer, m *Model) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "# id  Temp  Dens  Abund  Norm  Vturb  redshift")
	for _, c := range m.Components() {
		fmt.Fprintf(bw, "%d %g %g %g %g %g %g\n",
			c.ID, c.Temperature, c.Density, c.MetalAbund,
			c.Norm/1e14, c.Vturb/1e5, c.Redshift)

		var overrides []string
		for z := 1; z <= specunits.MaxProtonNumber; z++ {
			def := c.MetalAbund
			if z <= 2 {
				def = 1
			}
			if c.RelAbund[z] != def {
				sym, _ := specunits.ElementSymbol(z)
				overrides = append(overrides, fmt.Sprintf("%s=%g", sym, c.RelAbund[z]))
			}
		}
		if len(overrides) > 0 {
			fmt.Fprintf(bw, "  %s\n", strings.Join(overrides, " "))
		}
	}
	return bw.Flush()
}

// ReadASCII parses the format WriteASCII produces. Blank lines and
// '#'-prefixed comment lines are ignored; a line beginning with a digit
// starts a new component; any non-digit-led, non-comment line is treated
// as zero or more "symbol=value" element overrides continuing the most
// recent component. Unrecognized element symbols produce a warning (via
// log, which defaults to logrus.StandardLogger() if nil) and are skipped.
func ReadASCII(r io.Reader, log logrus.FieldLogger) (*Model, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	m := NewModel()
	var current *Component

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if unicode.IsDigit(rune(line[0])) {
			fields := strings.Fields(line)
			if len(fields) != 7 {
				return nil, fmt.Errorf("plasma: line %d: expected 7 fields (id temp dens abund norm vturb redshift), got %d", lineNo, len(fields))
			}
			vals := make([]float64, 6)
			for i, f := range fields[1:] {
				v, err := strconv.ParseFloat(f, 64)
				if err != nil {
					return nil, fmt.Errorf("plasma: line %d: field %d: %w", lineNo, i+1, err)
				}
				vals[i] = v
			}
			current = m.AddComponent(vals[0], vals[1], vals[3], vals[2], vals[5], vals[4], nil)
			continue
		}
		if current == nil {
			return nil, fmt.Errorf("plasma: line %d: element overrides precede any component header", lineNo)
		}
		for _, pair := range strings.Fields(line) {
			parts := strings.SplitN(pair, "=", 2)
			if len(parts) != 2 {
				log.Warnf("plasma: line %d: ignoring malformed override %q", lineNo, pair)
				continue
			}
			z, ok := specunits.ElementZ(parts[0])
			if !ok {
				log.Warnf("plasma: line %d: unrecognized element symbol %q", lineNo, parts[0])
				continue
			}
			v, err := strconv.ParseFloat(parts[1], 64)
			if err != nil {
				log.Warnf("plasma: line %d: bad override value for %q: %v", lineNo, parts[0], err)
				continue
			}
			if z >= 1 && z <= specunits.MaxProtonNumber {
				current.RelAbund[z] = v
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("plasma: %w", err)
	}
	return m, nil
}
