package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type row struct {
	Geo    string
	Device string
}

func geoOf(r row) string    { return r.Geo }
func deviceOf(r row) string { return r.Device }

func TestComputeOptions(t *testing.T) {
	rows := []row{
		{Geo: "uk"}, {Geo: " de "}, {Geo: ""}, {Geo: "   "}, {Geo: "uk"}, {Geo: "at"},
	}
	assert.Equal(t, []string{"at", "de", "uk"}, ComputeOptions(rows, geoOf))
}

func TestComputeOptions_Empty(t *testing.T) {
	assert.Empty(t, ComputeOptions(nil, geoOf))
	assert.Empty(t, ComputeOptions([]row{{}, {}}, geoOf))
}

func TestComputeOptions_OrdinalOrder(t *testing.T) {
	rows := []row{{Geo: "b"}, {Geo: "B"}, {Geo: "a"}, {Geo: "A"}}
	assert.Equal(t, []string{"A", "B", "a", "b"}, ComputeOptions(rows, geoOf))
}

func TestResolveFilter(t *testing.T) {
	tests := []struct {
		name      string
		options   []string
		current   string
		preferred string
		want      string
	}{
		{name: "no options keeps current", options: nil, current: "fr", preferred: "uk", want: "fr"},
		{name: "member kept", options: []string{"de", "fr", "uk"}, current: "fr", preferred: "uk", want: "fr"},
		{name: "preferred when stale", options: []string{"de", "uk"}, current: "fr", preferred: "uk", want: "uk"},
		{name: "first when preferred missing", options: []string{"de", "fr"}, current: "es", preferred: "uk", want: "de"},
		{name: "empty current coerced", options: []string{"desktop", "mobile"}, current: "", preferred: "mobile", want: "mobile"},
		{name: "no preferred", options: []string{"desktop", "mobile"}, current: "", preferred: "", want: "desktop"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveFilter(tt.options, tt.current, tt.preferred)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, ResolveFilter(tt.options, got, tt.preferred), "must be idempotent")
		})
	}
}

func TestSet_RequiredDimensionsCoerce(t *testing.T) {
	s := NewSet(
		Dimension[row]{Name: "geo", Value: geoOf, Required: true, Preferred: "uk"},
		Dimension[row]{Name: "device", Value: deviceOf, Required: true, Preferred: "mobile"},
	)
	rows := []row{
		{Geo: "de", Device: "desktop"},
		{Geo: "uk", Device: "desktop"},
		{Geo: "uk", Device: "tablet"},
	}
	s.Refresh(rows)
	assert.Equal(t, "uk", s.Active("geo"))
	assert.Equal(t, "desktop", s.Active("device"))
	assert.Equal(t, []row{{Geo: "uk", Device: "desktop"}}, s.Apply(rows))

	// a fresh fetch without the chosen geo re-resolves it
	s.Select("geo", "de")
	s.Refresh([]row{{Geo: "fr", Device: "mobile"}})
	assert.Equal(t, "fr", s.Active("geo"))
	assert.Equal(t, "mobile", s.Active("device"))
}

func TestSet_OptionalDimensionsResetToAll(t *testing.T) {
	s := NewSet(Dimension[row]{Name: "geo", Value: geoOf})
	rows := []row{{Geo: "de"}, {Geo: "uk"}}

	s.Refresh(rows)
	assert.Equal(t, "", s.Active("geo"))
	assert.Len(t, s.Apply(rows), 2)

	s.Select("geo", "nowhere")
	s.Refresh(rows)
	assert.Equal(t, "", s.Active("geo"))

	s.Select("geo", "uk")
	s.Refresh(rows)
	assert.Equal(t, []row{{Geo: "uk"}}, s.Apply(rows))
}

func TestSet_OptionsIgnoreOtherFilters(t *testing.T) {
	s := NewSet(
		Dimension[row]{Name: "geo", Value: geoOf},
		Dimension[row]{Name: "device", Value: deviceOf},
	)
	rows := []row{{Geo: "de", Device: "desktop"}, {Geo: "uk", Device: "mobile"}}
	s.Select("geo", "uk")
	s.Refresh(rows)
	assert.Equal(t, []string{"desktop", "mobile"}, s.Options("device"))
}
