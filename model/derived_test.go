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
	"math"
	"testing"
)

func TestDerivedSetEvaluatesSimpleExpression(t *testing.T) {
	d, err := NewDerivedSet(map[string]string{
		"fe_total": "line_1 + line_2",
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	out, err := d.Evaluate(map[string]float64{"line_1": 1.5, "line_2": 2.5})
	if err != nil {
		t.Fatal(err)
	}
	if out["fe_total"] != 4 {
		t.Fatalf("fe_total = %v, want 4", out["fe_total"])
	}
}

func TestDerivedSetChainsThroughAnotherDerivedVariable(t *testing.T) {
	d, err := NewDerivedSet(map[string]string{
		"fe_total": "line_1 + line_2",
		"fe_log":   "log10(fe_total)",
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	out, err := d.Evaluate(map[string]float64{"line_1": 50, "line_2": 50})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(out["fe_log"]-2) > 1e-9 {
		t.Fatalf("fe_log = %v, want 2", out["fe_log"])
	}
}

func TestDerivedSetRejectsCircularDefinition(t *testing.T) {
	d, err := NewDerivedSet(map[string]string{
		"a": "b + 1",
		"b": "a + 1",
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Evaluate(nil); err == nil {
		t.Fatal("expected an error for a circular derived-variable definition")
	}
}

func TestDerivedSetUnknownVariableIsAnError(t *testing.T) {
	d, err := NewDerivedSet(map[string]string{
		"a": "line_missing * 2",
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Evaluate(nil); err == nil {
		t.Fatal("expected an error referencing an undefined variable")
	}
}
