package domain

// ColumnSchema describes one column of a loaded dataset.
type ColumnSchema struct {
	Column    string `json:"column" csv:"column"`
	Type      string `json:"type" csv:"dtype"`
	NullCount int    `json:"null_count" csv:"nulls"`
}

// SchemaRecord is the structural fingerprint of one dataset encoding.
type SchemaRecord struct {
	Rows    int            `json:"rows"`
	Cols    int            `json:"cols"`
	Columns []ColumnSchema `json:"columns"`
}

// ColumnNames returns the column name sequence in declared order.
func (s SchemaRecord) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Column
	}
	return names
}

// TypeDrift records a per-column type difference between two encodings of
// the same logical dataset. Expected across encodings (e.g. int64 read from
// CSV vs int32 stored in Parquet) and therefore a finding, not an error.
type TypeDrift struct {
	Column  string `json:"column"`
	TypeA   string `json:"type_a"`
	TypeB   string `json:"type_b"`
	Missing bool   `json:"missing,omitempty"`
}

// SchemaComparison is the equivalence verdict for two encodings.
type SchemaComparison struct {
	SameShape   bool        `json:"same_shape"`
	SameColumns bool        `json:"same_columns"`
	Drift       []TypeDrift `json:"drift,omitempty"`
}
