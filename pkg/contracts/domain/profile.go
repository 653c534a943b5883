package domain

// ColumnStats holds the descriptive statistic set for one numeric column,
// matching the conventional describe() output shape.
type ColumnStats struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q25    float64 `json:"q25"`
	Median float64 `json:"median"`
	Q75    float64 `json:"q75"`
	Max    float64 `json:"max"`
}

// QuantileRow is one probability point evaluated across all numeric columns.
type QuantileRow struct {
	Q      float64            `json:"q"`
	Values map[string]float64 `json:"values"`
}

// RangeFlag is the min/max span audit for one numeric column. Inverted
// (max < min) is definitionally impossible for valid data and signals an
// upstream computation or coercion defect. HighRange compares the span to
// the 95th percentile of sibling spans and is advisory only.
type RangeFlag struct {
	Column    string  `json:"column" csv:"column"`
	Min       float64 `json:"min" csv:"min"`
	Max       float64 `json:"max" csv:"max"`
	Range     float64 `json:"range" csv:"range"`
	Inverted  bool    `json:"inverted" csv:"flag_inverted"`
	HighRange bool    `json:"high_range" csv:"flag_high_range"`
}

// DuplicateReport counts fully duplicated rows plus the time the scan took.
type DuplicateReport struct {
	DuplicateRows int     `json:"duplicate_rows"`
	ElapsedSec    float64 `json:"elapsed_s"`
}

// ProfileReport is the complete statistical evidence for one dataset.
// All sections are independently optional: a dataset with no numeric
// columns yields empty slices, which is valid.
type ProfileReport struct {
	NumericColumns []string      `json:"numeric_columns"`
	Describe       []ColumnStats `json:"describe,omitempty"`
	Quantiles      []QuantileRow `json:"quantiles,omitempty"`
	RangeFlags     []RangeFlag   `json:"range_flags,omitempty"`
	SampledRows    int           `json:"sampled_rows,omitempty"`
	SampleSeed     int64         `json:"sample_seed,omitempty"`
}
