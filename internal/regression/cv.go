package regression

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Scoring names a cross-validation score. Higher is better.
type Scoring string

const (
	ScoringNegMSE Scoring = "neg_mse"
	ScoringR2     Scoring = "r2"
)

// ParseScoring validates a configured scoring name.
func ParseScoring(s string) (Scoring, error) {
	switch Scoring(s) {
	case ScoringNegMSE, ScoringR2:
		return Scoring(s), nil
	case "":
		return ScoringNegMSE, nil
	}
	return "", fmt.Errorf("unknown scoring %q", s)
}

// Score evaluates pred against y.
func (s Scoring) Score(y, pred []float64) float64 {
	if s == ScoringR2 {
		return R2(y, pred)
	}
	return -MSE(y, pred)
}

// Fold is one train/test split by row index.
type Fold struct {
	Train []int
	Test  []int
}

// KFold splits n rows into k contiguous folds without shuffling. The first
// n%k folds hold one extra row.
func KFold(n, k int) ([]Fold, error) {
	if k < 2 {
		return nil, fmt.Errorf("k-fold needs at least 2 folds, got %d", k)
	}
	if n < k {
		return nil, fmt.Errorf("cannot split %d rows into %d folds", n, k)
	}

	folds := make([]Fold, k)
	start := 0
	for i := 0; i < k; i++ {
		size := n / k
		if i < n%k {
			size++
		}
		stop := start + size

		test := make([]int, 0, size)
		train := make([]int, 0, n-size)
		for r := 0; r < n; r++ {
			if r >= start && r < stop {
				test = append(test, r)
			} else {
				train = append(train, r)
			}
		}
		folds[i] = Fold{Train: train, Test: test}
		start = stop
	}
	return folds, nil
}

// Candidate is the cross-validation outcome of one grid point.
type Candidate struct {
	FitIntercept bool      `json:"fit_intercept"`
	FoldScores   []float64 `json:"fold_scores"`
	MeanScore    float64   `json:"mean_score"`
}

// SearchResult is the outcome of GridSearch.
type SearchResult struct {
	Scoring    Scoring     `json:"scoring"`
	Folds      int         `json:"folds"`
	Candidates []Candidate `json:"candidates"`
	Best       Candidate   `json:"best"`
}

// GridSearch cross-validates every fit_intercept value of grid and returns the
// one with the highest mean score. Ties go to the earlier grid entry.
func GridSearch(ctx context.Context, x mat.Matrix, y []float64, grid []bool, k int, scoring Scoring) (*SearchResult, error) {
	if len(grid) == 0 {
		return nil, fmt.Errorf("empty parameter grid")
	}
	r, _ := x.Dims()
	folds, err := KFold(r, k)
	if err != nil {
		return nil, err
	}

	result := &SearchResult{Scoring: scoring, Folds: k}
	bestIdx := -1
	for _, fitIntercept := range grid {
		cand := Candidate{FitIntercept: fitIntercept}
		for _, fold := range folds {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			model, err := Fit(selectRows(x, fold.Train), pick(y, fold.Train), fitIntercept)
			if err != nil {
				return nil, err
			}
			pred := model.Predict(selectRows(x, fold.Test))
			cand.FoldScores = append(cand.FoldScores, scoring.Score(pick(y, fold.Test), pred))
		}
		cand.MeanScore = mean(cand.FoldScores)
		result.Candidates = append(result.Candidates, cand)

		if bestIdx < 0 || cand.MeanScore > result.Candidates[bestIdx].MeanScore {
			bestIdx = len(result.Candidates) - 1
		}
	}
	result.Best = result.Candidates[bestIdx]
	return result, nil
}

func selectRows(x mat.Matrix, rows []int) *mat.Dense {
	_, c := x.Dims()
	out := mat.NewDense(len(rows), c, nil)
	for i, r := range rows {
		for j := 0; j < c; j++ {
			out.Set(i, j, x.At(r, j))
		}
	}
	return out
}

func pick(y []float64, rows []int) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = y[r]
	}
	return out
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return math.NaN()
	}
	var s float64
	for _, x := range v {
		s += x
	}
	return s / float64(len(v))
}
