package recipe

import (
	"fmt"
	"io/ioutil"
	"path/filepath"

	"k8s.io/klog/v2"
	"sigs.k8s.io/yaml"

	"github.com/neubio/neubio/pkg/analysis"
	"github.com/neubio/neubio/pkg/batch"
	"github.com/neubio/neubio/pkg/filter"
	"github.com/neubio/neubio/pkg/providers"
)

// Recipe describes one experiment: where the frames are, how they are preprocessed and
// analyzed, and which frame ranges form the condition groups.
type Recipe struct {
	Input  string           `json:"input"`
	Format providers.Format `json:"format,omitempty"`

	Filter      Filter              `json:"filter,omitempty"`
	Baseline    Baseline            `json:"baseline,omitempty"`
	Crop        Crop                `json:"crop,omitempty"`
	PairedPulse PairedPulse         `json:"pairedPulse,omitempty"`
	Peak        analysis.PeakConfig `json:"peak,omitempty"`
	Slope       Slope               `json:"slope,omitempty"`
	Workers     int                 `json:"workers,omitempty"`

	Groups []Group `json:"groups"`
}

type Filter struct {
	// LowPass cutoff in hertz. Unset selects the default, zero disables the filter.
	LowPass  *float64 `json:"lowPass,omitempty"`
	HighPass float64  `json:"highPass,omitempty"`
	Order    int      `json:"order,omitempty"`
	Notch    float64  `json:"notch,omitempty"`
	NotchQ   float64  `json:"notchQ,omitempty"`
}

type Baseline struct {
	StimulusDelay float64 `json:"stimulusDelay,omitempty"`
}

type Crop struct {
	Start float64 `json:"start,omitempty"`
	End   float64 `json:"end,omitempty"`
}

type PairedPulse struct {
	Enabled bool `json:"enabled,omitempty"`
	// Mask is the number of samples hidden after the first stimulus.
	Mask int `json:"mask,omitempty"`
}

type Slope struct {
	WindowPercent float64 `json:"windowPercent,omitempty"`
	Search        string  `json:"search,omitempty"`
	// MinCorrelation is the acceptance threshold on |r|. Unset selects the default,
	// zero accepts every fit.
	MinCorrelation *float64 `json:"minCorrelation,omitempty"`
}

// Group is a condition group, e.g. one drug concentration, recorded in a frame range.
type Group struct {
	Name string `json:"name"`
	// Frames is the inclusive [start, end] range. A negative end means the last frame,
	// an empty range selects all frames.
	Frames  []int `json:"frames,omitempty"`
	Average bool  `json:"average,omitempty"`
}

// Range returns the first and the last frame number of the group.
func (g Group) Range() (int, int) {
	if len(g.Frames) == 0 {
		return 0, -1
	}
	return g.Frames[0], g.Frames[1]
}

// Load reads a YAML recipe. A relative input path is resolved against the recipe directory.
func Load(path string) (*Recipe, error) {
	if path == "" {
		return nil, fmt.Errorf("recipe path not specified")
	}
	buf, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe %q: %v", path, err)
	}

	r, err := Parse(buf)
	if err != nil {
		return nil, fmt.Errorf("%v: from file %v", err, path)
	}
	if r.Input != "" && !filepath.IsAbs(r.Input) {
		r.Input = filepath.Join(filepath.Dir(path), r.Input)
	}
	return r, nil
}

// Parse decodes a YAML recipe and applies the defaults.
func Parse(buf []byte) (*Recipe, error) {
	r := &Recipe{}
	if err := yaml.UnmarshalStrict(buf, r); err != nil {
		return nil, fmt.Errorf("failed unmarshal the recipe: %v", err)
	}
	r.SetDefaults()

	klog.V(4).InfoS("Loaded recipe", "input", r.Input, "groups", len(r.Groups))
	return r, nil
}

func (r *Recipe) SetDefaults() {
	if r.Format == "" {
		r.Format = providers.FormatSignal3
	}
	if r.Filter.LowPass == nil {
		cutoff := batch.DefaultLowPassCutoff
		r.Filter.LowPass = &cutoff
	}
	if r.Filter.Order == 0 {
		r.Filter.Order = filter.DefaultOrder
	}
	if r.Filter.NotchQ == 0 {
		r.Filter.NotchQ = filter.DefaultNotchQ
	}
	if r.Baseline.StimulusDelay == 0 {
		r.Baseline.StimulusDelay = batch.DefaultStimulusDelay
	}
	if r.PairedPulse.Mask == 0 {
		r.PairedPulse.Mask = batch.DefaultStimulusMask
	}

	if r.Peak.Mode == "" {
		r.Peak.Mode = analysis.PeakModeAdaptive
	}
	if r.Peak.HeightSigma == 0 {
		r.Peak.HeightSigma = analysis.DefaultHeightSigma
	}
	if r.Peak.MinDistance == 0 {
		r.Peak.MinDistance = analysis.DefaultMinDistance
	}
	if r.Peak.MinWidth == 0 {
		r.Peak.MinWidth = analysis.DefaultMinWidth
	}

	if r.Slope.WindowPercent == 0 {
		r.Slope.WindowPercent = analysis.DefaultWindowPercent
	}
	if r.Slope.Search == "" {
		r.Slope.Search = analysis.SearchZeroCrossing
	}
	if r.Slope.MinCorrelation == nil {
		rMin := analysis.DefaultMinCorrelation
		r.Slope.MinCorrelation = &rMin
	}
	if r.Workers == 0 {
		r.Workers = batch.DefaultWorkers
	}

	for i := range r.Groups {
		if r.Groups[i].Name == "" {
			r.Groups[i].Name = fmt.Sprintf("group_%d", i+1)
		}
	}
}

func (r *Recipe) Validate() error {
	if r.Input == "" {
		return fmt.Errorf("recipe has no input")
	}
	if _, err := providers.ParseFormat(string(r.Format)); err != nil {
		return err
	}
	if len(r.Groups) == 0 {
		return fmt.Errorf("recipe has no groups")
	}
	names := map[string]bool{}
	for _, g := range r.Groups {
		if names[g.Name] {
			return fmt.Errorf("duplicate group %q", g.Name)
		}
		names[g.Name] = true

		switch len(g.Frames) {
		case 0:
		case 2:
			if g.Frames[1] >= 0 && g.Frames[1] < g.Frames[0] {
				return fmt.Errorf("group %q: invalid frame range %v", g.Name, g.Frames)
			}
		default:
			return fmt.Errorf("group %q: frames must be [start, end], got %v", g.Name, g.Frames)
		}
	}

	config, err := r.BatchConfig()
	if err != nil {
		return err
	}
	return config.Validate()
}

// BatchConfig converts the recipe into the runner configuration.
func (r *Recipe) BatchConfig() (batch.Config, error) {
	search, err := analysis.ParseBoundarySearch(r.Slope.Search)
	if err != nil {
		return batch.Config{}, err
	}

	config := batch.Config{
		HighPassCutoff: r.Filter.HighPass,
		FilterOrder:    r.Filter.Order,
		NotchFrequency: r.Filter.Notch,
		NotchQ:         r.Filter.NotchQ,
		StimulusDelay:  r.Baseline.StimulusDelay,
		CropStart:      r.Crop.Start,
		CropEnd:        r.Crop.End,
		PairedPulse:    r.PairedPulse.Enabled,
		StimulusMask:   r.PairedPulse.Mask,
		Peak:           r.Peak,
		Slope: analysis.SlopeConfig{
			WindowPercent: r.Slope.WindowPercent,
			Search:        search,
		},
		Workers: r.Workers,
	}
	if r.Filter.LowPass != nil {
		config.LowPassCutoff = *r.Filter.LowPass
	}
	if r.Slope.MinCorrelation != nil {
		config.MinCorrelation = *r.Slope.MinCorrelation
	}
	return config, nil
}
