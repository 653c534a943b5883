package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intColumn(name string, values ...int64) Column {
	return Column{Name: name, Type: TypeInt, Ints: values, Nulls: make([]bool, len(values))}
}

func stringColumn(name string, values ...string) Column {
	return Column{Name: name, Type: TypeString, Strings: values, Nulls: make([]bool, len(values))}
}

func TestNewTable_Validation(t *testing.T) {
	tests := []struct {
		name    string
		columns []Column
		wantErr string
	}{
		{
			name:    "valid table",
			columns: []Column{intColumn("a", 1, 2), stringColumn("b", "x", "y")},
		},
		{
			name:    "duplicate column name",
			columns: []Column{intColumn("a", 1), intColumn("a", 2)},
			wantErr: "duplicate column name",
		},
		{
			name:    "ragged columns",
			columns: []Column{intColumn("a", 1, 2), stringColumn("b", "x")},
			wantErr: "expected 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := NewTable(tt.columns)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 2, table.NumRows())
			assert.Equal(t, len(tt.columns), table.NumCols())
		})
	}
}

func TestTable_Reorder(t *testing.T) {
	table, err := NewTable([]Column{
		intColumn("id", 10, 20, 30),
		stringColumn("tag", "a", "b", "c"),
	})
	require.NoError(t, err)

	reordered, err := table.Reorder([]int{2, 0, 1})
	require.NoError(t, err)

	col, ok := reordered.Column("id")
	require.True(t, ok)
	assert.Equal(t, []int64{30, 10, 20}, col.Ints)

	tag, ok := reordered.Column("tag")
	require.True(t, ok)
	assert.Equal(t, []string{"c", "a", "b"}, tag.Strings)

	// The receiver stays untouched.
	original, _ := table.Column("id")
	assert.Equal(t, []int64{10, 20, 30}, original.Ints)
}

func TestTable_Take(t *testing.T) {
	table, err := NewTable([]Column{
		intColumn("id", 10, 20, 30, 40),
		stringColumn("tag", "a", "b", "c", "d"),
	})
	require.NoError(t, err)

	subset, err := table.Take([]int{0, 3})
	require.NoError(t, err)
	assert.Equal(t, 2, subset.NumRows())

	col, ok := subset.Column("id")
	require.True(t, ok)
	assert.Equal(t, []int64{10, 40}, col.Ints)

	tag, ok := subset.Column("tag")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "d"}, tag.Strings)

	// The receiver stays untouched.
	original, _ := table.Column("id")
	assert.Equal(t, []int64{10, 20, 30, 40}, original.Ints)
}

func TestTable_Take_OutOfRange(t *testing.T) {
	table, err := NewTable([]Column{intColumn("id", 1, 2)})
	require.NoError(t, err)

	_, err = table.Take([]int{0, 2})
	assert.Error(t, err)

	_, err = table.Take([]int{-1})
	assert.Error(t, err)
}

func TestTable_Reorder_WrongLength(t *testing.T) {
	table, err := NewTable([]Column{intColumn("id", 1, 2)})
	require.NoError(t, err)

	_, err = table.Reorder([]int{0})
	assert.Error(t, err)
}

func TestTable_ReplaceColumn(t *testing.T) {
	table, err := NewTable([]Column{
		stringColumn("when", "2024-01-01", "2024-01-02"),
		intColumn("v", 1, 2),
	})
	require.NoError(t, err)

	times := []time.Time{
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	replaced, err := table.ReplaceColumn("when", Column{
		Type:  TypeTimestamp,
		Times: times,
		Nulls: make([]bool, 2),
	})
	require.NoError(t, err)

	col, ok := replaced.Column("when")
	require.True(t, ok)
	assert.Equal(t, TypeTimestamp, col.Type)
	assert.Equal(t, "when", col.Name)
	assert.Equal(t, []string{"when", "v"}, replaced.ColumnNames())

	_, err = table.ReplaceColumn("missing", intColumn("x", 1, 2))
	assert.Error(t, err)
}

func TestColumn_NullCountAndFloat(t *testing.T) {
	col := Column{
		Name:   "v",
		Type:   TypeFloat,
		Floats: []float64{1.5, 0, 2.5},
		Nulls:  []bool{false, true, false},
	}
	assert.Equal(t, 1, col.NullCount())

	v, ok := col.Float(0)
	assert.True(t, ok)
	assert.Equal(t, 1.5, v)

	_, ok = col.Float(1)
	assert.False(t, ok)
}

func TestTable_HeadTail(t *testing.T) {
	table, err := NewTable([]Column{intColumn("id", 1, 2, 3)})
	require.NoError(t, err)

	head := table.Head(2)
	assert.Contains(t, head, "id")
	assert.Contains(t, head, "1")
	assert.NotContains(t, head, "3")

	tail := table.Tail(1)
	assert.Contains(t, tail, "3")
	assert.NotContains(t, tail, "2")

	empty, err := NewTable(nil)
	require.NoError(t, err)
	assert.Equal(t, "(no rows)", empty.Head(5))
}
