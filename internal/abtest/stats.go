package abtest

import (
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// chiSquareP runs a chi-square test for independence on a 2x2
// contingency table of successes/failures for two variants and returns
// the p-value. Degenerate tables (a zero marginal, so expected counts
// are undefined) report p=1: "not significant", never an error.
func chiSquareP(successA, failureA, successB, failureB int) float64 {
	obs := [2][2]float64{
		{float64(successA), float64(failureA)},
		{float64(successB), float64(failureB)},
	}

	rowTotals := [2]float64{obs[0][0] + obs[0][1], obs[1][0] + obs[1][1]}
	colTotals := [2]float64{obs[0][0] + obs[1][0], obs[0][1] + obs[1][1]}
	n := rowTotals[0] + rowTotals[1]

	if n == 0 || rowTotals[0] == 0 || rowTotals[1] == 0 || colTotals[0] == 0 || colTotals[1] == 0 {
		return 1
	}

	statistic := 0.0
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			expected := rowTotals[i] * colTotals[j] / n
			diff := obs[i][j] - expected
			statistic += diff * diff / expected
		}
	}

	dist := distuv.ChiSquared{K: 1}
	return 1 - dist.CDF(statistic)
}

// meanStd returns the mean and standard deviation of values, zeros
// for empty input
func meanStd(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}
	mean = stat.Mean(values, nil)
	if len(values) > 1 {
		std = stat.StdDev(values, nil)
	}
	return mean, std
}
