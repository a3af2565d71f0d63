package config

// Settings are the host-tunable engine knobs. All fields are optional;
// a zero value defers to the engine default.
type Settings struct {
	// MarkerKey overrides the attribute-key prefix used for attachment
	// markers.
	MarkerKey string `yaml:"marker_key" json:"marker_key"`

	// JournalPath, when set, enables the SQLite lifecycle journal at
	// this file path.
	JournalPath string `yaml:"journal_path" json:"journal_path"`

	// RootMargin grows or shrinks the visibility observer's viewport
	// region ("50px").
	RootMargin string `yaml:"root_margin" json:"root_margin"`

	// Thresholds are the intersection ratios the visibility observer
	// reports at.
	Thresholds []float64 `yaml:"thresholds" json:"thresholds"`
}
