package options

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/neubio/neubio/pkg/analysis"
	"github.com/neubio/neubio/pkg/providers"
	"github.com/neubio/neubio/pkg/recipe"
)

// AnalyzeOptions runs a recipe. Flags that are set override the recipe values.
type AnalyzeOptions struct {
	Source *SourceOptions `json:"source"`

	RecipeFile     string   `json:"recipe"`
	Groups         []string `json:"groups"`
	LowPass        float64  `json:"lowPass"`
	PeakMode       string   `json:"peakMode"`
	Search         string   `json:"search"`
	WindowPercent  float64  `json:"windowPercent"`
	MinCorrelation float64  `json:"minCorrelation"`
	Workers        int      `json:"workers"`

	OutputFile  string `json:"output"`
	PlotFile    string `json:"plot"`
	MetricsFile string `json:"metrics"`

	Recipe *recipe.Recipe `json:"-"`
}

func NewAnalyzeOptions() *AnalyzeOptions {
	// Negative values leave the recipe settings untouched.
	return &AnalyzeOptions{
		Source:         NewSourceOptions(),
		LowPass:        -1,
		WindowPercent:  -1,
		MinCorrelation: -1,
		Workers:        -1,
	}
}

func (o *AnalyzeOptions) AddFlags(fs *pflag.FlagSet) {
	o.Source.AddFlags(fs)
	fs.StringVarP(&o.RecipeFile, "recipe", "r", o.RecipeFile, "YAML recipe describing the experiment")
	fs.StringSliceVar(&o.Groups, "group", o.Groups, "Only analyze the named groups")
	fs.Float64Var(&o.LowPass, "low-pass", o.LowPass, "Low-pass cutoff in Hz of the detection trace, 0 disables it")
	fs.StringVar(&o.PeakMode, "peak-mode", o.PeakMode, "Peak detection mode, adaptive or constrained")
	fs.StringVar(&o.Search, "search", o.Search, "Slope window boundary search, zero-crossing or nearest")
	fs.Float64Var(&o.WindowPercent, "window-percent", o.WindowPercent, "Single-sided intensity window, in (0, 0.5)")
	fs.Float64Var(&o.MinCorrelation, "min-correlation", o.MinCorrelation, "Discard slope fits with |r| below this value, 0 accepts every fit")
	fs.IntVar(&o.Workers, "workers", o.Workers, "Number of frames analyzed in parallel")
	fs.StringVarP(&o.OutputFile, "output", "o", o.OutputFile, "Write the per-pulse results to this CSV file")
	fs.StringVar(&o.PlotFile, "plot", o.PlotFile, "Render the analyzed traces into this HTML file")
	fs.StringVar(&o.MetricsFile, "metrics", o.MetricsFile, "Write prometheus metrics in textfile format to this file")
}

// Complete loads the recipe and applies the flag overrides.
func (o *AnalyzeOptions) Complete() error {
	r, err := recipe.Load(o.RecipeFile)
	if err != nil {
		return err
	}
	if err := o.ApplyTo(r); err != nil {
		return err
	}
	o.Recipe = r

	o.Source.Input = r.Input
	o.Source.Format = string(r.Format)
	return o.Source.Complete()
}

func (o *AnalyzeOptions) Validate() error {
	if o.Recipe == nil {
		return fmt.Errorf("recipe not loaded")
	}
	if err := o.Recipe.Validate(); err != nil {
		return err
	}
	if err := o.Source.Validate(); err != nil {
		return err
	}
	for _, name := range o.Groups {
		if !o.hasGroup(name) {
			return fmt.Errorf("recipe has no group %q", name)
		}
	}
	return nil
}

// ApplyTo overrides the recipe with the flags that were given.
func (o *AnalyzeOptions) ApplyTo(r *recipe.Recipe) error {
	if o.Source.Input != "" {
		r.Input = o.Source.Input
	}
	if o.Source.Format != "" {
		r.Format = providers.Format(o.Source.Format)
	}
	if o.LowPass >= 0 {
		cutoff := o.LowPass
		r.Filter.LowPass = &cutoff
	}
	if o.PeakMode != "" {
		mode, err := analysis.ParsePeakMode(o.PeakMode)
		if err != nil {
			return err
		}
		r.Peak.Mode = mode
	}
	if o.Search != "" {
		r.Slope.Search = o.Search
	}
	if o.WindowPercent >= 0 {
		r.Slope.WindowPercent = o.WindowPercent
	}
	if o.MinCorrelation >= 0 {
		rMin := o.MinCorrelation
		r.Slope.MinCorrelation = &rMin
	}
	if o.Workers >= 0 {
		r.Workers = o.Workers
	}
	return nil
}

// Selected returns the recipe groups to analyze.
func (o *AnalyzeOptions) Selected() []recipe.Group {
	if len(o.Groups) == 0 {
		return o.Recipe.Groups
	}
	var groups []recipe.Group
	for _, g := range o.Recipe.Groups {
		for _, name := range o.Groups {
			if g.Name == name {
				groups = append(groups, g)
			}
		}
	}
	return groups
}

func (o *AnalyzeOptions) hasGroup(name string) bool {
	for _, g := range o.Recipe.Groups {
		if g.Name == name {
			return true
		}
	}
	return false
}

// String return the json string of options
func (o *AnalyzeOptions) String() string {
	data, _ := json.Marshal(o)
	return string(data)
}
