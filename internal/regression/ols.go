package regression

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	apperrors "ridership/internal/errors"
)

// Model is a fitted linear model.
type Model struct {
	FitIntercept bool
	Coef         []float64
	Intercept    float64
	Rank         int
}

// Fit solves min ||y - Xb - c|| for b (and c when fitIntercept is set).
// Singular values below eps*max(rows, cols) times the largest are treated as
// zero, giving the minimum-norm solution for rank-deficient X.
func Fit(x mat.Matrix, y []float64, fitIntercept bool) (*Model, error) {
	r, c := x.Dims()
	if r == 0 || c == 0 {
		return nil, apperrors.NewFitError("fit", fmt.Errorf("empty design matrix %dx%d", r, c))
	}
	if len(y) != r {
		return nil, apperrors.NewFitError("fit", fmt.Errorf("target has %d rows, design matrix %d", len(y), r))
	}

	xs := mat.DenseCopyOf(x)
	ys := append([]float64(nil), y...)

	xMean := make([]float64, c)
	var yMean float64
	if fitIntercept {
		for j := 0; j < c; j++ {
			col := mat.Col(nil, j, xs)
			xMean[j] = floats.Sum(col) / float64(r)
			floats.AddConst(-xMean[j], col)
			xs.SetCol(j, col)
		}
		yMean = floats.Sum(ys) / float64(r)
		floats.AddConst(-yMean, ys)
	}

	var svd mat.SVD
	if ok := svd.Factorize(xs, mat.SVDThin); !ok {
		return nil, apperrors.NewFitError("svd", errors.New("factorization did not converge"))
	}

	rcond := math.Nextafter(1, 2) - 1
	rcond *= float64(max(r, c))
	rank := svd.Rank(rcond)

	coef := make([]float64, c)
	if rank > 0 {
		var b mat.VecDense
		svd.SolveVecTo(&b, mat.NewVecDense(r, ys), rank)
		copy(coef, b.RawVector().Data)
	}
	for _, v := range coef {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, apperrors.NewFitError("solve", errors.New("non-finite coefficient"))
		}
	}

	m := &Model{FitIntercept: fitIntercept, Coef: coef, Rank: rank}
	if fitIntercept {
		m.Intercept = yMean - floats.Dot(xMean, coef)
	}
	return m, nil
}

// Predict returns Xb + c for every row of x.
func (m *Model) Predict(x mat.Matrix) []float64 {
	r, _ := x.Dims()
	var out mat.VecDense
	out.MulVec(x, mat.NewVecDense(len(m.Coef), m.Coef))

	pred := make([]float64, r)
	for i := range pred {
		pred[i] = out.AtVec(i) + m.Intercept
	}
	return pred
}
