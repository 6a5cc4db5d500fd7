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

	"gonum.org/v1/gonum/mat"
)

// sorption computes the sorbed concentrations [mol/m³ bulk] at the
// current activities.
func (b *Beaker) sorption() {
	for j := range b.sorbed {
		b.sorbed[j] = 0
		b.absSorbed[j] = 0
	}
	b.ionExchange()
	b.surfaceComplexation()
	for i := range b.net.Isotherms {
		iso := &b.net.Isotherms[i]
		s, ds := iso.sorbed(math.Exp(b.lnA[iso.Primary]))
		b.sorbed[iso.Primary] += s
		b.absSorbed[iso.Primary] += math.Abs(s)
		b.isoDeriv[i] = ds
	}
}

// ionExchange computes the Gaines-Thomas equivalent fractions
//
//	βᵢ = Kᵢ aᵢ y^zᵢ,  Σβ = 1
//
// of the complexes on each exchange site, and the sorbed concentrations
//
//	Sᵢ = βᵢ CEC / zᵢ
func (b *Beaker) ionExchange() {
	for s := range b.net.ExchangeSites {
		b.exchangeZ[s] = 0
		if b.cec[s] <= 0 {
			continue
		}
		lny := b.solveExchange(s)
		for i := range b.net.ExchangeComplexes {
			ex := &b.net.ExchangeComplexes[i]
			if ex.Site != s {
				continue
			}
			b.beta[i] = math.Exp(math.Log(ex.K) + b.lnA[ex.primary] + ex.charge*lny)
			v := b.beta[i] * b.cec[s] / ex.charge
			b.sorbed[ex.primary] += v
			b.absSorbed[ex.primary] += v
			b.exchangeZ[s] += ex.charge * b.beta[i]
		}
	}
}

// solveExchange returns ln y for exchange site s, the root of
//
//	g(u) = Σ exp(ln Kᵢ + ln aᵢ + zᵢ u) - 1
//
// g is increasing and convex, so Newton iterations started to the right
// of the root decrease monotonically to it.
func (b *Beaker) solveExchange(s int) float64 {
	const (
		maxIter = 100
		tol     = 1.e-14
	)
	u := math.Inf(-1)
	for i := range b.net.ExchangeComplexes {
		ex := &b.net.ExchangeComplexes[i]
		if ex.Site != s {
			continue
		}
		// All terms are at least 1 at u.
		u = math.Max(u, -(math.Log(ex.K)+b.lnA[ex.primary])/ex.charge)
	}
	if math.IsInf(u, -1) {
		return 0
	}
	for iter := 0; iter < maxIter; iter++ {
		g, dg := -1., 0.
		for i := range b.net.ExchangeComplexes {
			ex := &b.net.ExchangeComplexes[i]
			if ex.Site != s {
				continue
			}
			t := math.Exp(math.Log(ex.K) + b.lnA[ex.primary] + ex.charge*u)
			g += t
			dg += ex.charge * t
		}
		if math.Abs(g) < tol || dg == 0 {
			break
		}
		u -= g / dg
	}
	b.buf.Printf(DebugIonExchange, "exchange site %s: ln y = %g", b.net.ExchangeSites[s].Name, u)
	return u
}

// surfaceComplexation computes the concentrations of the surface
// complexes on each site,
//
//	xₖ = sᶠ Qₖ,  sᶠ = S_T / (1 + Σ Qₖ)
//
// where S_T is the site density and sᶠ the free site concentration.
func (b *Beaker) surfaceComplexation() {
	for s := range b.net.SurfaceSites {
		st := b.siteDensity[s]
		b.freeSites[s] = st
		if st <= 0 {
			continue
		}
		// Scale by the largest Q to avoid overflow.
		maxLnQ := 0.
		for k := range b.net.SurfaceComplexes {
			sc := &b.net.SurfaceComplexes[k]
			if sc.Site != s {
				continue
			}
			b.surfaceX[k] = sc.Reaction.LnQ(b.lnA) - sc.Reaction.LnK()
			maxLnQ = math.Max(maxLnQ, b.surfaceX[k])
		}
		d := math.Exp(-maxLnQ)
		for k := range b.net.SurfaceComplexes {
			if b.net.SurfaceComplexes[k].Site == s {
				d += math.Exp(b.surfaceX[k] - maxLnQ)
			}
		}
		b.freeSites[s] = st * math.Exp(-maxLnQ) / d
		for k := range b.net.SurfaceComplexes {
			sc := &b.net.SurfaceComplexes[k]
			if sc.Site != s {
				continue
			}
			b.surfaceX[k] = st * math.Exp(b.surfaceX[k]-maxLnQ) / d
			for i, id := range sc.Reaction.IDs {
				v := sc.Reaction.Stoichiometry[i] * b.surfaceX[k]
				b.sorbed[id] += v
				b.absSorbed[id] += math.Abs(v)
			}
		}
	}
}

// sorptionJacobian adds f ∂S/∂ln c to jac.
func (b *Beaker) sorptionJacobian(f float64, jac *mat.Dense) {
	add := func(j, k int, v float64) { jac.Set(j, k, jac.At(j, k)+f*v) }

	// Ion exchange:
	//   ∂Sᵢ/∂ln cₖ = CEC/zᵢ βᵢ (δᵢₖ - zᵢ βₖ / Σ zβ)
	for i := range b.net.ExchangeComplexes {
		ex := &b.net.ExchangeComplexes[i]
		s := ex.Site
		if b.cec[s] <= 0 || b.exchangeZ[s] == 0 {
			continue
		}
		add(ex.primary, ex.primary, b.cec[s]*b.beta[i]/ex.charge)
		for m := range b.net.ExchangeComplexes {
			exm := &b.net.ExchangeComplexes[m]
			if exm.Site != s {
				continue
			}
			add(ex.primary, exm.primary, -b.cec[s]*b.beta[i]*b.beta[m]/b.exchangeZ[s])
		}
	}

	// Surface complexation, per site:
	//   ∂Sⱼ/∂ln cₗ = Σₖ νₖⱼ νₖₗ xₖ - wⱼ wₗ / S_T
	// where wⱼ = Σₖ νₖⱼ xₖ is the sorbed concentration on the site.
	for s := range b.net.SurfaceSites {
		st := b.siteDensity[s]
		if st <= 0 {
			continue
		}
		w := make([]float64, len(b.primary))
		for k := range b.net.SurfaceComplexes {
			sc := &b.net.SurfaceComplexes[k]
			if sc.Site != s {
				continue
			}
			for ij, j := range sc.Reaction.IDs {
				w[j] += sc.Reaction.Stoichiometry[ij] * b.surfaceX[k]
				for il, l := range sc.Reaction.IDs {
					add(j, l, sc.Reaction.Stoichiometry[ij]*sc.Reaction.Stoichiometry[il]*b.surfaceX[k])
				}
			}
		}
		for j, wj := range w {
			if wj == 0 {
				continue
			}
			for l, wl := range w {
				if wl != 0 {
					add(j, l, -wj*wl/st)
				}
			}
		}
	}

	for i := range b.net.Isotherms {
		iso := &b.net.Isotherms[i]
		add(iso.Primary, iso.Primary, b.isoDeriv[i])
	}
}
