package analysis

import (
	"github.com/montanaflynn/stats"
)

type point struct {
	x, y float64
}

// y_hat = ax + b
func linearRegressionLSE(points []point) (float64, float64) {
	var sumX, sumY, sumXY, sumXX float64
	for _, p := range points {
		sumX += p.x
		sumY += p.y
		sumXY += p.x * p.y
		sumXX += p.x * p.x
	}
	n := float64(len(points))
	a := (n*sumXY - sumX*sumY) / (n*sumXX - sumX*sumX)
	b := (sumY - a*sumX) / n
	return a, b
}

// fit returns slope, intercept and the Pearson correlation coefficient of the points.
func fit(points []point) (float64, float64, float64, error) {
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i], ys[i] = p.x, p.y
	}

	// Center x first; raw timestamps make the normal equations badly conditioned.
	x0 := xs[0]
	centered := make([]point, len(points))
	for i, p := range points {
		centered[i] = point{x: p.x - x0, y: p.y}
	}
	a, b := linearRegressionLSE(centered)
	b -= a * x0

	r, err := stats.Correlation(xs, ys)
	if err != nil {
		return 0, 0, 0, err
	}
	return a, b, r, nil
}
