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

package beaker

import (
	"math"

	"github.com/spatialmodel/beaker/science/activity"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	// Bounds on ln(free-ion concentration) that keep concentrations
	// representable.
	minLnC = -690.
	maxLnC = 23.

	// maxLineSearch is the maximum number of step halvings per iteration.
	maxLineSearch = 20
)

// newton solves
//
//	T(c) + f S(c) = target
//
// for ln c, where T is the aqueous total, S the sorbed concentration and
// f = V/W if withSorbed is true and 0 otherwise. The Jacobian is
//
//	∂Tⱼ/∂ln cₖ = δⱼₖ cⱼ + Σᵢ νᵢⱼ νᵢₖ xᵢ  (+ f ∂Sⱼ/∂ln cₖ)
//
// with the activity coefficients held fixed within each iteration.
// Updates are scaled so that no ln c changes by more than
// Parameters.MaxLnChange, and halved until the residual norm does not
// increase. The activity coefficients must be set before newton is called.
func (b *Beaker) newton(target []float64, withSorbed bool, status *SolverStatus) error {
	p := b.params
	norm := b.evaluate(target, withSorbed, status)
	status.ResidualNorms = append(status.ResidualNorms, norm)
	for iter := 0; ; iter++ {
		if norm < p.Tolerance {
			status.Converged = true
			return nil
		}
		if iter >= p.MaxIterations {
			return nil
		}
		b.jacobian(withSorbed)
		status.NumJacobianEvaluations++
		for j, r := range b.residual {
			b.rhs[j] = -r
		}
		var delta mat.VecDense
		if err := delta.SolveVec(b.jac, mat.NewVecDense(len(b.rhs), b.rhs)); err != nil {
			if _, ok := err.(mat.Condition); !ok {
				b.buf.Printf(DebugNewtonSolver, "newton iteration %d: %v", iter, err)
				return nil
			}
		}
		d := delta.RawVector().Data
		maxChange := floats.Norm(d, math.Inf(1))
		if math.IsNaN(maxChange) || math.IsInf(maxChange, 0) {
			b.buf.Printf(DebugNewtonSolver, "newton iteration %d: singular jacobian", iter)
			return nil
		}
		if maxChange > p.MaxLnChange {
			floats.Scale(p.MaxLnChange/maxChange, d)
		}

		copy(b.lnCOld, b.lnC)
		lambda := 1.
		for k := 0; ; k++ {
			for j := range b.lnC {
				b.lnC[j] = math.Max(minLnC, math.Min(maxLnC, b.lnCOld[j]+lambda*d[j]))
			}
			trial := b.evaluate(target, withSorbed, status)
			if trial <= norm || k == maxLineSearch {
				break
			}
			lambda /= 2
		}
		for _, v := range b.lnC {
			if math.IsNaN(v) {
				return ErrNumericalDomain
			}
		}
		status.NumNewtonIterations++

		// Update the ionic strength once per iteration.
		b.updateActivityCoefficients()
		norm = b.evaluate(target, withSorbed, status)
		status.ResidualNorms = append(status.ResidualNorms, norm)
		b.buf.Printf(DebugNewtonSolver, "newton iteration %d: max ln change %.4g, step %.4g, residual norm %.6g",
			iter, maxChange, lambda, norm)
	}
}

// updateActivityCoefficients computes the ionic strength from the current
// concentrations and updates the activity coefficients.
func (b *Beaker) updateActivityCoefficients() {
	for j, v := range b.lnC {
		b.c[j] = math.Exp(v)
	}
	b.setActivityCoefficients(activity.IonicStrength(b.primary, b.c) + activity.IonicStrength(b.complexes, b.x))
}

func (b *Beaker) setActivityCoefficients(ionicStrength float64) {
	b.ionicStrength = ionicStrength
	for j, sp := range b.primary {
		b.gamma[j] = b.activity.Evaluate(sp, b.ionicStrength)
		b.lnGamma[j] = math.Log(b.gamma[j])
	}
	for i, sp := range b.complexes {
		b.lnGammaX[i] = math.Log(b.activity.Evaluate(sp, b.ionicStrength))
	}
}

// evaluate computes the concentrations and the residual at the current
// ln c and returns the relative residual norm
//
//	maxⱼ |rⱼ| / max(|targetⱼ|, Σ|contributionsⱼ|)
//
// A species with a target of zero can only approach it, so its residual
// is scaled by at least the largest |target| instead.
func (b *Beaker) evaluate(target []float64, withSorbed bool, status *SolverStatus) float64 {
	status.NumRHSEvaluations++
	b.speciate()
	f := 0.
	if withSorbed {
		f = b.params.Volume / b.waterMass
	}
	var norm float64
	floor := floats.Norm(target, math.Inf(1))
	for j := range b.residual {
		b.residual[j] = b.total[j] + f*b.sorbed[j] - target[j]
		b.scale[j] = math.Max(math.Abs(target[j]), b.absTotal[j]+f*b.absSorbed[j])
		if target[j] == 0 {
			b.scale[j] = math.Max(b.scale[j], floor)
		}
		norm = math.Max(norm, math.Abs(b.residual[j])/b.scale[j])
	}
	if math.IsNaN(norm) {
		return math.Inf(1)
	}
	return norm
}

// speciate computes the free-ion, complex and sorbed concentrations and
// the aqueous totals at the current ln c.
func (b *Beaker) speciate() {
	for j, v := range b.lnC {
		b.c[j] = math.Exp(v)
		b.lnA[j] = v + b.lnGamma[j]
		b.total[j] = b.c[j]
		b.absTotal[j] = b.c[j]
	}
	for i := range b.net.Complexes {
		rxn := &b.net.Complexes[i].Reaction
		b.x[i] = math.Exp(rxn.LnQ(b.lnA) - rxn.LnK() - b.lnGammaX[i])
		for k, id := range rxn.IDs {
			v := rxn.Stoichiometry[k] * b.x[i]
			b.total[id] += v
			b.absTotal[id] += math.Abs(v)
		}
	}
	b.sorption()
}

// jacobian computes the Jacobian of the residual with respect to ln c.
func (b *Beaker) jacobian(withSorbed bool) {
	b.jac.Zero()
	for j, c := range b.c {
		b.jac.Set(j, j, c)
	}
	for i := range b.net.Complexes {
		rxn := &b.net.Complexes[i].Reaction
		for kj, j := range rxn.IDs {
			for kk, k := range rxn.IDs {
				b.jac.Set(j, k, b.jac.At(j, k)+rxn.Stoichiometry[kj]*rxn.Stoichiometry[kk]*b.x[i])
			}
		}
	}
	if withSorbed {
		b.sorptionJacobian(b.params.Volume/b.waterMass, b.jac)
	}
}
