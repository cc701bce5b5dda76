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

package model

import (
	"fmt"
	"math"

	"github.com/Knetic/govaluate"
)

// DerivedSet evaluates named user expressions over a component's per-line
// flux map, the same role the teacher's Outputter plays for its output
// variables (io.go's NewOutputter/checkForDerivatives): an expression may
// reference another derived variable's name, and is expanded transitively.
type DerivedSet struct {
	exprs     map[string]string
	funcs     map[string]govaluate.ExpressionFunction
	compiled  map[string]*govaluate.EvaluableExpression
}

// defaultDerivedFuncs mirrors the teacher's default output functions
// (io.go's NewOutputter): exp, log, log10. sum has no analog here since
// DerivedSet operates over a single component's scalar line fluxes, not a
// grid of per-cell values.
func defaultDerivedFuncs() map[string]govaluate.ExpressionFunction {
	return map[string]govaluate.ExpressionFunction{
		"exp": func(args ...interface{}) (interface{}, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("model: exp() takes 1 argument, got %d", len(args))
			}
			return math.Exp(args[0].(float64)), nil
		},
		"log": func(args ...interface{}) (interface{}, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("model: log() takes 1 argument, got %d", len(args))
			}
			return math.Log(args[0].(float64)), nil
		},
		"log10": func(args ...interface{}) (interface{}, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("model: log10() takes 1 argument, got %d", len(args))
			}
			return math.Log10(args[0].(float64)), nil
		},
	}
}

// NewDerivedSet compiles exprs (name -> expression text referencing line
// names such as "line_1234" or other derived names) against the default
// functions plus any caller-supplied extras.
func NewDerivedSet(exprs map[string]string, extraFuncs map[string]govaluate.ExpressionFunction) (*DerivedSet, error) {
	funcs := defaultDerivedFuncs()
	for k, v := range extraFuncs {
		funcs[k] = v
	}
	d := &DerivedSet{exprs: exprs, funcs: funcs, compiled: make(map[string]*govaluate.EvaluableExpression, len(exprs))}
	for name, expr := range exprs {
		ev, err := govaluate.NewEvaluableExpressionWithFunctions(expr, funcs)
		if err != nil {
			return nil, fmt.Errorf("model: derived variable %q: %w", name, err)
		}
		d.compiled[name] = ev
	}
	return d, nil
}

// Evaluate computes every compiled derived variable against vars (typically
// a component's LineFlux map keyed by "line_<index>"), returning the
// derived-name -> value map. A derived expression may reference another
// derived variable's name in addition to entries of vars.
func (d *DerivedSet) Evaluate(vars map[string]float64) (map[string]float64, error) {
	params := make(map[string]interface{}, len(vars)+len(d.compiled))
	for k, v := range vars {
		params[k] = v
	}

	out := make(map[string]float64, len(d.compiled))
	pending := make(map[string]bool, len(d.compiled))
	var resolve func(name string) (float64, error)
	resolve = func(name string) (float64, error) {
		if v, ok := out[name]; ok {
			return v, nil
		}
		ev, ok := d.compiled[name]
		if !ok {
			return 0, fmt.Errorf("model: derived variable %q is not defined", name)
		}
		if pending[name] {
			return 0, fmt.Errorf("model: derived variable %q has a circular definition", name)
		}
		pending[name] = true
		for _, ref := range ev.Vars() {
			if _, have := params[ref]; have {
				continue
			}
			if _, isDerived := d.compiled[ref]; isDerived {
				v, err := resolve(ref)
				if err != nil {
					return 0, err
				}
				params[ref] = v
			}
		}
		result, err := ev.Evaluate(params)
		if err != nil {
			return 0, fmt.Errorf("model: evaluating derived variable %q: %w", name, err)
		}
		f, ok := result.(float64)
		if !ok {
			return 0, fmt.Errorf("model: derived variable %q did not evaluate to a number", name)
		}
		pending[name] = false
		out[name] = f
		return f, nil
	}

	for name := range d.compiled {
		if _, err := resolve(name); err != nil {
			return nil, err
		}
	}
	return out, nil
}
