package analysis

import (
	"math"
	"math/rand"

	"github.com/neubio/neubio/pkg/common"
)

var (
	dt       = 1e-4 // second
	nSamples = 2000
)

type gaussian struct {
	t0, amplitude, sigma float64
}

func (g gaussian) at(t float64) float64 {
	return g.amplitude * math.Exp(-(t-g.t0)*(t-g.t0)/(2*g.sigma*g.sigma))
}

// synthesize sums the gaussians on a uniform time base and adds white noise of
// standard deviation noise drawn from a seeded source.
func synthesize(n int, noise float64, seed int64, gs ...gaussian) *common.Trace {
	r := rand.New(rand.NewSource(seed))
	t := make([]float64, n)
	y := make([]float64, n)
	for i := range t {
		t[i] = float64(i) * dt
		for _, g := range gs {
			y[i] += g.at(t[i])
		}
		if noise > 0 {
			y[i] += r.NormFloat64() * noise
		}
	}
	return common.NewTrace(t, y)
}

// ramp rises linearly by 0.5 per sample from 2.25 up to sample peak, then falls back.
func ramp(n, peak int) *common.Trace {
	t := make([]float64, n)
	y := make([]float64, n)
	for i := range t {
		t[i] = float64(i) * 1e-3
		if i <= peak {
			y[i] = 2.25 + 0.5*float64(i)
		} else {
			y[i] = 2.25 + 0.5*float64(peak) - float64(i-peak)
		}
	}
	return common.NewTrace(t, y)
}

func flat(n int) *common.Trace {
	t := make([]float64, n)
	for i := range t {
		t[i] = float64(i) * dt
	}
	return common.NewTrace(t, make([]float64, n))
}
