package parser

// Options holds the plausibility windows used while extracting and merging
type Options struct {
	// Lap tokens outside [MinPlausibleLapMs, MaxPlausibleLapMs] are never stored
	MinPlausibleLapMs int `mapstructure:"min_plausible_lap_ms" validate:"required,min=1000"`
	MaxPlausibleLapMs int `mapstructure:"max_plausible_lap_ms" validate:"required,gtfield=MinPlausibleLapMs"`

	// Stint statistics prefer laps inside this tighter window
	MinRealisticLapMs int `mapstructure:"min_realistic_lap_ms" validate:"required,gtefield=MinPlausibleLapMs"`
	MaxRealisticLapMs int `mapstructure:"max_realistic_lap_ms" validate:"required,gtfield=MinRealisticLapMs,ltefield=MaxPlausibleLapMs"`

	CumulativeSectorRatio float64 `mapstructure:"cumulative_sector_ratio" validate:"required,gt=1"`
	AmbiguityToleranceMs  int     `mapstructure:"ambiguity_tolerance_ms" validate:"min=0"`
}

// DefaultOptions returns the windows used by the timing vendor's exports
func DefaultOptions() Options {
	return Options{
		MinPlausibleLapMs:     50000,
		MaxPlausibleLapMs:     180000,
		MinRealisticLapMs:     60000,
		MaxRealisticLapMs:     90000,
		CumulativeSectorRatio: 1.5,
		AmbiguityToleranceMs:  1000,
	}
}

// withDefaults fills the windows left at zero. A zero AmbiguityToleranceMs
// is a valid setting, so it is only defaulted along with an empty Options.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o == (Options{}) {
		return d
	}
	if o.MinPlausibleLapMs == 0 {
		o.MinPlausibleLapMs = d.MinPlausibleLapMs
	}
	if o.MaxPlausibleLapMs == 0 {
		o.MaxPlausibleLapMs = d.MaxPlausibleLapMs
	}
	if o.MinRealisticLapMs == 0 {
		o.MinRealisticLapMs = d.MinRealisticLapMs
	}
	if o.MaxRealisticLapMs == 0 {
		o.MaxRealisticLapMs = d.MaxRealisticLapMs
	}
	if o.CumulativeSectorRatio == 0 {
		o.CumulativeSectorRatio = d.CumulativeSectorRatio
	}
	return o
}
