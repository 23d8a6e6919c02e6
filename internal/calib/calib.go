// Package calib fits distortion model coefficients from pinhole centroid
// observations using a differential construction: only differences between
// the same pinhole's observations across shift frames enter the fit, so the
// unknown manufacturing offset of each pinhole cancels exactly and never has
// to be estimated.
package calib

import (
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/jcranney/mavdac/internal/basis"
	"github.com/jcranney/mavdac/internal/centroid"
)

// NumericalError reports a singular or ill-conditioned fit. It is fatal to
// the calibration run and carries a diagnostic for the operator.
type NumericalError struct {
	Msg string
}

func (e *NumericalError) Error() string {
	return e.Msg
}

const illConditionedHint = "try more diverse shifts, more pinholes (lower the flux threshold), or a lower polynomial degree"

// accumulator holds one worker's partial normal equations: G (L x L, stored
// dense row-major) and H (L x 2). Partials merge by plain addition.
type accumulator struct {
	g []float64
	h []float64
}

func newAccumulator(terms int) *accumulator {
	return &accumulator{
		g: make([]float64, terms*terms),
		h: make([]float64, terms*2),
	}
}

func (a *accumulator) merge(b *accumulator) {
	for i, v := range b.g {
		a.g[i] += v
	}
	for i, v := range b.h {
		a.h[i] += v
	}
}

// addPinhole accumulates the contribution of one pinhole: every ordered pair
// (j, k) of its frames contributes the residual target
// (cog_k - cog_j) - (pos_k - pos_j) against the basis difference vector
// sample(pos_k) - sample(pos_j). The j == k rows are identically zero and
// harmless. samples is the pinhole's N x L basis sample table.
func (a *accumulator) addPinhole(cogs []centroid.Centroid, samples []float64, terms int) {
	n := len(cogs)
	f := make([]float64, terms)
	for j := 0; j < n; j++ {
		for k := 0; k < n; k++ {
			measured := cogs[k].COG.Sub(cogs[j].COG)
			nominal := cogs[k].Pos.Sub(cogs[j].Pos)
			r := measured.Sub(nominal)

			for l := 0; l < terms; l++ {
				f[l] = samples[k*terms+l] - samples[j*terms+l]
			}
			for l1 := 0; l1 < terms; l1++ {
				if f[l1] == 0 {
					continue
				}
				for l2 := 0; l2 < terms; l2++ {
					a.g[l1*terms+l2] += f[l1] * f[l2]
				}
				a.h[l1*2] += f[l1] * r.X
				a.h[l1*2+1] += f[l1] * r.Y
			}
		}
	}
}

// Fit estimates the coefficients of model from obs and installs them via
// model.SetCoeffs. The normal equations are accumulated in a streaming
// fashion, in parallel across pinholes; the reduction is associative so the
// result is independent of partitioning up to floating-point rounding.
//
// Basis terms that the differencing cannot observe (a constant term differs
// to exactly zero between any two positions) are excluded from the solve and
// their coefficients pinned to zero. If nothing remains, or the reduced
// system is singular or ill-conditioned, Fit returns a NumericalError.
func Fit(obs *centroid.ObservationSet, model basis.Model) error {
	if obs == nil || obs.Pinholes() == 0 {
		return &centroid.PreconditionError{Msg: "no valid observations"}
	}
	terms := model.Terms()

	total := newAccumulator(terms)
	var mu sync.Mutex

	workers := runtime.GOMAXPROCS(0)
	var grp errgroup.Group
	grp.SetLimit(workers)
	chunk := (obs.Pinholes() + workers - 1) / workers
	for start := 0; start < obs.Pinholes(); start += chunk {
		end := start + chunk
		if end > obs.Pinholes() {
			end = obs.Pinholes()
		}
		start := start
		grp.Go(func() error {
			part := newAccumulator(terms)
			samples := make([]float64, obs.Shifts()*terms)
			for i := start; i < end; i++ {
				cogs := obs.Pinhole(i)
				for j, cog := range cogs {
					for l := 0; l < terms; l++ {
						s, err := model.Sample(cog.Pos, l)
						if err != nil {
							return err
						}
						samples[j*terms+l] = s
					}
				}
				part.addPinhole(cogs, samples, terms)
			}
			mu.Lock()
			total.merge(part)
			mu.Unlock()
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return err
	}

	coeffs, err := solve(total, terms)
	if err != nil {
		return err
	}
	return model.SetCoeffs(coeffs)
}

// solve reduces the accumulated normal equations G C = H to the observable
// terms and solves by Cholesky factorization.
func solve(acc *accumulator, terms int) ([][2]float64, error) {
	// A term whose diagonal entry is exactly zero never varied across any
	// pair of observations; it is unobservable and pinned to zero.
	var active []int
	for l := 0; l < terms; l++ {
		if acc.g[l*terms+l] != 0 {
			active = append(active, l)
		}
	}
	if len(active) == 0 {
		return nil, &NumericalError{
			Msg: "no differencing information in observations (single shift frame?): " + illConditionedHint,
		}
	}

	na := len(active)
	g := mat.NewSymDense(na, nil)
	h := mat.NewDense(na, 2, nil)
	for a, la := range active {
		for b, lb := range active {
			if b >= a {
				g.SetSym(a, b, acc.g[la*terms+lb])
			}
		}
		h.Set(a, 0, acc.h[la*2])
		h.Set(a, 1, acc.h[la*2+1])
	}

	var chol mat.Cholesky
	if !chol.Factorize(g) {
		return nil, &NumericalError{
			Msg: "normal equations are singular or ill-conditioned: " + illConditionedHint,
		}
	}
	var c mat.Dense
	if err := chol.SolveTo(&c, h); err != nil {
		return nil, &NumericalError{
			Msg: "normal equations solve failed: " + illConditionedHint,
		}
	}

	coeffs := make([][2]float64, terms)
	for a, la := range active {
		coeffs[la] = [2]float64{c.At(a, 0), c.At(a, 1)}
	}
	return coeffs, nil
}
