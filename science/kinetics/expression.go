/*
Copyright © 2019 the Beaker authors.
This file is part of Beaker.

Beaker is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Beaker is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Beaker.  If not, see <http://www.gnu.org/licenses/>.
*/

package kinetics

import (
	"fmt"
	"io"
	"math"
	"strings"
	"unicode"

	"github.com/Knetic/govaluate"
	"github.com/spatialmodel/beaker/species"
)

// Variables available to every rate expression, in addition to the
// activities of the primary species.
const (
	VarArea           = "area"            // reactive surface area [m²]
	VarLnQK           = "lnQK"            // ln(Q/K)
	VarSI             = "SI"              // saturation index, log10(Q/K)
	VarOmega          = "Omega"           // saturation ratio Q/K
	VarVolumeFraction = "volume_fraction" // mineral volume fraction
)

// ActivityVar returns the expression variable holding the activity of the
// named species: "a_" followed by the species name with characters other
// than letters, digits and underscores removed, so that the activity of
// H+ is a_H. The unmodified name is also available in square brackets,
// e.g. [a_H+].
func ActivityVar(name string) string {
	return "a_" + strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return r
		}
		return -1
	}, name)
}

// Functions returns the functions available in rate and output
// expressions.
func Functions() map[string]govaluate.ExpressionFunction {
	unary := func(name string, f func(float64) float64) govaluate.ExpressionFunction {
		return func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 1 {
				return nil, fmt.Errorf("kinetics: got %d arguments for function '%s', but needs 1", len(arg), name)
			}
			x, ok := arg[0].(float64)
			if !ok {
				return nil, fmt.Errorf("kinetics: invalid argument %v for function '%s'", arg[0], name)
			}
			return f(x), nil
		}
	}
	return map[string]govaluate.ExpressionFunction{
		"exp":   unary("exp", math.Exp),
		"log":   unary("log", math.Log),
		"log10": unary("log10", math.Log10),
		"sqrt":  unary("sqrt", math.Sqrt),
		"abs":   unary("abs", math.Abs),
		"pow": func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 2 {
				return nil, fmt.Errorf("kinetics: got %d arguments for function 'pow', but needs 2", len(arg))
			}
			x, ok1 := arg[0].(float64)
			y, ok2 := arg[1].(float64)
			if !ok1 || !ok2 {
				return nil, fmt.Errorf("kinetics: invalid arguments %v for function 'pow'", arg)
			}
			return math.Pow(x, y), nil
		},
	}
}

// Expression is a rate law given as a formula, for example
//
//	area * pow(10, -9.5) * a_H * (1 - Omega)
type Expression struct {
	species.Reaction

	formula    string
	expression *govaluate.EvaluableExpression

	// activity variable name -> species identifier
	activityVars map[string]int
}

// NewExpression returns a rate law that evaluates formula.
func NewExpression(r species.Reaction, formula string) (*Expression, error) {
	if strings.TrimSpace(formula) == "" {
		return nil, fmt.Errorf("kinetics: empty rate expression for mineral %s", r.Name)
	}
	e, err := govaluate.NewEvaluableExpressionWithFunctions(formula, Functions())
	if err != nil {
		return nil, fmt.Errorf("kinetics: rate expression for mineral %s: %w", r.Name, err)
	}
	return &Expression{Reaction: r, formula: formula, expression: e}, nil
}

// SetSpeciesIds resolves the reactants against pool and checks that every
// variable in the formula can be evaluated.
func (e *Expression) SetSpeciesIds(pool *species.Registry, speciesType string, logf species.Logf) error {
	if err := e.Reaction.SetSpeciesIds(pool, speciesType, logf); err != nil {
		return err
	}
	e.activityVars = make(map[string]int)
	collisions := make(map[string]bool)
	for id, n := range pool.Names() {
		e.activityVars["a_"+n] = id
		v := ActivityVar(n)
		if v == "a_"+n {
			continue
		}
		if _, ok := e.activityVars[v]; ok {
			collisions[v] = true
		}
		e.activityVars[v] = id
	}
	for v := range collisions {
		delete(e.activityVars, v)
	}
	for _, v := range e.expression.Vars() {
		switch v {
		case VarArea, VarLnQK, VarSI, VarOmega, VarVolumeFraction:
			continue
		}
		if _, ok := e.activityVars[v]; !ok {
			return fmt.Errorf("kinetics: undefined variable '%s' in rate expression for mineral %s", v, e.Name)
		}
	}
	return nil
}

// Rate evaluates the formula at s.
func (e *Expression) Rate(s *State) float64 {
	lnQK := e.LnQK(s.LnActivity)
	params := map[string]interface{}{
		VarArea:           s.SpecificSurfaceArea * s.Volume,
		VarLnQK:           lnQK,
		VarSI:             lnQK / math.Ln10,
		VarOmega:          math.Exp(lnQK),
		VarVolumeFraction: s.VolumeFraction,
	}
	for v, id := range e.activityVars {
		params[v] = math.Exp(s.LnActivity[id])
	}
	result, err := e.expression.Evaluate(params)
	if err != nil {
		return math.NaN()
	}
	switch r := result.(type) {
	case float64:
		return r
	case bool:
		if r {
			return 1
		}
		return 0
	default:
		return math.NaN()
	}
}

// Display writes the reaction and rate formula to w.
func (e *Expression) Display(w io.Writer) {
	fmt.Fprintln(w, "    Rate law: expression")
	fmt.Fprint(w, "      ")
	e.DisplayReaction(w)
	fmt.Fprintf(w, "      log10 K: %.4f\n", e.Log10K)
	fmt.Fprintf(w, "      rate: %s\n", e.formula)
}
