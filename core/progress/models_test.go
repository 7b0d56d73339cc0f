package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortItems(t *testing.T) {
	items := []Item{
		{Code: "HM-010"}, {Code: "AD-100"}, {Code: "lixo"}, {Code: "HM-002"}, {Code: "AD-020"},
	}
	SortItems(items)

	got := make([]string, len(items))
	for i, it := range items {
		got[i] = it.Code
	}
	assert.Equal(t, []string{"AD-020", "AD-100", "HM-002", "HM-010", "lixo"}, got)
}

func TestDiffCodes(t *testing.T) {
	tests := []struct {
		name    string
		current []string
		wanted  []string
		want    Diff
	}{
		{name: "nothing", want: Diff{Added: []string{}, Removed: []string{}}},
		{name: "add all", wanted: []string{"B", "A"}, want: Diff{Added: []string{"A", "B"}, Removed: []string{}}},
		{name: "remove all", current: []string{"A", "B"}, want: Diff{Added: []string{}, Removed: []string{"A", "B"}}},
		{
			name: "mixed with repeats", current: []string{"A", "B"}, wanted: []string{"B", "C", "C"},
			want: Diff{Added: []string{"C"}, Removed: []string{"A"}},
		},
		{name: "same set", current: []string{"A"}, wanted: []string{"A"}, want: Diff{Added: []string{}, Removed: []string{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, diffCodes(tt.current, tt.wanted))
		})
	}
}

func TestParseImportRows(t *testing.T) {
	tests := []struct {
		name    string
		rows    [][]string
		want    []ImportRow
		wantErr bool
	}{
		{name: "empty sheet", wantErr: true},
		{name: "missing column", rows: [][]string{{"codigo", "descricao"}}, wantErr: true},
		{
			name: "columns in any order",
			rows: [][]string{
				{"Nome", "extra", " Código "},
				{"Nós e amarras", "x", "AD-001"},
				{},
				{"", "", ""},
				{"Primeiros socorros"},
			},
			want: []ImportRow{
				{Line: 2, Code: "AD-001", Name: "Nós e amarras"},
				{Line: 5, Code: "", Name: "Primeiros socorros"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseImportRows(tt.rows)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
