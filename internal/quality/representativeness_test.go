package quality

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/loanqa/internal/dataset"
)

func binaryColumn(t *testing.T, ones, zeros int) *dataset.Dataset {
	t.Helper()
	values := append(repeat(text("Y"), ones), repeat(text("N"), zeros)...)
	return column(t, "flag", values...)
}

func TestBinaryRepresentativeness(t *testing.T) {
	tests := []struct {
		name     string
		ones     int
		zeros    int
		minority float64
		well     bool
	}{
		{"98/2 skewed", 98, 2, 2, false},
		{"60/40 balanced", 60, 40, 40, true},
		{"exactly 5 percent", 95, 5, 5, true},
		{"single class", 10, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := CheckRepresentativeness(binaryColumn(t, tt.ones, tt.zeros), VariableClasses{Binary: []string{"flag"}})

			require.Len(t, rep.Variables, 1)
			v := rep.Variables[0]
			assert.Equal(t, ClassBinary, v.Class)
			assert.Equal(t, tt.minority, v.MinorityShare)
			assert.Equal(t, tt.well, v.WellRepresented)
		})
	}
}

func TestBinaryRepresentativeness_NumericFlagsAndNulls(t *testing.T) {
	values := append(numbers(1, 1, 1, 0), null(), null())
	rep := CheckRepresentativeness(column(t, "flag", values...), VariableClasses{Binary: []string{"flag"}})

	v := rep.Variables[0]
	assert.Equal(t, 75.0, v.Share1)
	assert.Equal(t, 25.0, v.Share0)
}

func TestCategoricalRepresentativeness(t *testing.T) {
	t.Run("dominant category", func(t *testing.T) {
		values := append(repeat(text("01"), 96), repeat(text("09"), 4)...)
		values = append(values, repeat(na(), 50)...)
		rep := CheckRepresentativeness(column(t, "code", values...), VariableClasses{Categorical: []string{"code"}})

		v := rep.Variables[0]
		assert.Equal(t, 2, v.Levels)
		assert.Equal(t, "01", v.TopCategory)
		assert.Equal(t, 96.0, v.TopShare)
		assert.False(t, v.WellRepresented)
	})

	t.Run("tie picks smallest label", func(t *testing.T) {
		values := append(repeat(text("09"), 5), repeat(text("03"), 5)...)
		rep := CheckRepresentativeness(column(t, "code", values...), VariableClasses{Categorical: []string{"code"}})

		v := rep.Variables[0]
		assert.Equal(t, "03", v.TopCategory)
		assert.Equal(t, 50.0, v.TopShare)
		assert.True(t, v.WellRepresented)
	})

	t.Run("nothing observed", func(t *testing.T) {
		rep := CheckRepresentativeness(column(t, "code", na(), null()), VariableClasses{Categorical: []string{"code"}})

		v := rep.Variables[0]
		assert.True(t, math.IsNaN(v.TopShare))
		assert.False(t, v.WellRepresented)
	})
}

func TestNumericRepresentativeness(t *testing.T) {
	t.Run("uniform values fill ten bins", func(t *testing.T) {
		values := make([]float64, 100)
		for i := range values {
			values[i] = float64(i + 1)
		}
		rep := CheckRepresentativeness(column(t, "upb", numbers(values...)...), VariableClasses{Numeric: []string{"upb"}})

		v := rep.Variables[0]
		assert.Equal(t, 10, v.Bins)
		assert.Equal(t, 10.0, v.LowestBin)
		assert.True(t, v.WellRepresented)
	})

	t.Run("ties collapse into a thin upper bin", func(t *testing.T) {
		values := numbers(1, 2, 3, 4, 5)
		values = append(values, repeat(num(50), 91)...)
		values = append(values, numbers(97, 98, 99, 100)...)
		rep := CheckRepresentativeness(column(t, "upb", values...), VariableClasses{Numeric: []string{"upb"}})

		v := rep.Variables[0]
		assert.Equal(t, 10, v.Bins)
		assert.Equal(t, 4.0, v.LowestBin)
		assert.False(t, v.WellRepresented)
	})

	t.Run("constant column", func(t *testing.T) {
		rep := CheckRepresentativeness(column(t, "upb", numbers(5, 5, 5)...), VariableClasses{Numeric: []string{"upb"}})

		v := rep.Variables[0]
		assert.Equal(t, 1, v.Bins)
		assert.True(t, math.IsNaN(v.LowestBin))
		assert.False(t, v.WellRepresented)
	})
}

func TestCheckRepresentativeness_OrderAndSkip(t *testing.T) {
	ds := build(t, "orig", []string{"z_num", "a_num", "flag"},
		row(num(1), num(1), text("Y")),
		row(num(2), num(2), text("N")),
	)
	classes := VariableClasses{
		Binary:  []string{"flag", "absent"},
		Numeric: []string{"z_num", "a_num"},
	}

	rep := CheckRepresentativeness(ds, classes)

	assert.Equal(t, "orig", rep.Dataset)
	assert.Equal(t, []string{"absent"}, rep.Skipped)
	require.Len(t, rep.Variables, 3)
	assert.Equal(t, "flag", rep.Variables[0].Column)
	assert.Equal(t, "a_num", rep.Variables[1].Column)
	assert.Equal(t, "z_num", rep.Variables[2].Column)

	table := rep.Table("representativeness_orig")
	assert.Len(t, table.Columns, 11)
	assert.Len(t, table.Rows, 3)
}

func TestOverallRepresentativeness(t *testing.T) {
	a := RepresentativenessReport{Variables: []VariableReport{{WellRepresented: true}, {WellRepresented: false}}}
	b := RepresentativenessReport{Variables: []VariableReport{{WellRepresented: true}, {WellRepresented: true}}}

	assert.Equal(t, 0.75, OverallRepresentativeness(a, b))
	assert.True(t, math.IsNaN(OverallRepresentativeness(RepresentativenessReport{})))
}
