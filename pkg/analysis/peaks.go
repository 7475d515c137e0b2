package analysis

import (
	"math"
	"sort"
)

// localMaxima returns the indices of all local maxima of x. Flat tops are reported at
// their middle sample (rounded down); the first and the last samples are never maxima.
func localMaxima(x []float64) []int {
	var peaks []int
	n := len(x)
	i := 1
	for i < n-1 {
		if x[i-1] < x[i] {
			ahead := i + 1
			for ahead < n-1 && x[ahead] == x[i] {
				ahead++
			}
			if x[ahead] < x[i] {
				left, right := i, ahead-1
				peaks = append(peaks, (left+right)/2)
				i = ahead
			}
		}
		i++
	}
	return peaks
}

// selectByHeight keeps the peaks whose value is at least minHeight.
func selectByHeight(x []float64, peaks []int, minHeight float64) []int {
	var kept []int
	for _, p := range peaks {
		if x[p] >= minHeight {
			kept = append(kept, p)
		}
	}
	return kept
}

// selectByDistance removes peaks closer than distance samples to a higher peak.
// Higher peaks are processed first; among equal heights the later peak wins.
func selectByDistance(x []float64, peaks []int, distance int) []int {
	if distance <= 1 || len(peaks) < 2 {
		return peaks
	}

	n := len(peaks)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return x[peaks[order[i]]] < x[peaks[order[j]]]
	})

	keep := make([]bool, n)
	for i := range keep {
		keep[i] = true
	}
	for i := n - 1; i >= 0; i-- {
		j := order[i]
		if !keep[j] {
			continue
		}
		for k := j - 1; k >= 0 && peaks[j]-peaks[k] < distance; k-- {
			keep[k] = false
		}
		for k := j + 1; k < n && peaks[k]-peaks[j] < distance; k++ {
			keep[k] = false
		}
	}

	var kept []int
	for i, p := range peaks {
		if keep[i] {
			kept = append(kept, p)
		}
	}
	return kept
}

// PeakProperties are the auxiliary metrics of a detected peak, measured on the
// signal the detector searched (negated for inverted traces).
type PeakProperties struct {
	Height     float64
	Prominence float64
	// Width is the peak width in samples at half prominence.
	Width float64
	// WidthHeight is the level the width was evaluated at.
	WidthHeight float64
	LeftBase    int
	RightBase   int
	// LeftIP and RightIP are the interpolated positions of the width crossings.
	LeftIP  float64
	RightIP float64
}

// prominence measures how far a peak stands out from the higher of its two bases.
func prominence(x []float64, peak int) (float64, int, int) {
	leftBase, rightBase := peak, peak

	leftMin := x[peak]
	for i := peak; i >= 0 && x[i] <= x[peak]; i-- {
		if x[i] < leftMin {
			leftMin = x[i]
			leftBase = i
		}
	}

	rightMin := x[peak]
	for i := peak; i < len(x) && x[i] <= x[peak]; i++ {
		if x[i] < rightMin {
			rightMin = x[i]
			rightBase = i
		}
	}

	return x[peak] - math.Max(leftMin, rightMin), leftBase, rightBase
}

// width measures the peak width at relHeight of its prominence, with linear
// interpolation between the samples straddling the evaluation level.
func width(x []float64, peak int, prom float64, leftBase, rightBase int, relHeight float64) (float64, float64, float64, float64) {
	height := x[peak] - prom*relHeight

	i := peak
	for leftBase < i && x[i] > height {
		i--
	}
	leftIP := float64(i)
	if x[i] < height {
		leftIP += (height - x[i]) / (x[i+1] - x[i])
	}

	i = peak
	for i < rightBase && height < x[i] {
		i++
	}
	rightIP := float64(i)
	if x[i] < height {
		rightIP -= (height - x[i]) / (x[i-1] - x[i])
	}

	return rightIP - leftIP, height, leftIP, rightIP
}

func peakProperties(x []float64, peak int) PeakProperties {
	prom, leftBase, rightBase := prominence(x, peak)
	w, wh, leftIP, rightIP := width(x, peak, prom, leftBase, rightBase, 0.5)
	return PeakProperties{
		Height:      x[peak],
		Prominence:  prom,
		Width:       w,
		WidthHeight: wh,
		LeftBase:    leftBase,
		RightBase:   rightBase,
		LeftIP:      leftIP,
		RightIP:     rightIP,
	}
}

// selectByWidth keeps the peaks whose half-prominence width is at least minWidth samples.
func selectByWidth(x []float64, peaks []int, minWidth float64) []int {
	if minWidth <= 0 {
		return peaks
	}
	var kept []int
	for _, p := range peaks {
		if peakProperties(x, p).Width >= minWidth {
			kept = append(kept, p)
		}
	}
	return kept
}
