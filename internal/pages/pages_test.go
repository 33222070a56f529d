package pages

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrickwarner/bidderadmin/internal/models"
	"github.com/patrickwarner/bidderadmin/internal/params"
)

func cfg(id int, bidder, slot, geo, device, pageType string) models.BidderConfig {
	return models.BidderConfig{
		ID: id, Bidder: bidder, Slot: slot, Geo: geo, Device: device, PageType: pageType,
		Params: params.FromMapping(params.NewMapping(params.Entry{Key: "id", Value: params.Int(int64(id))})),
	}
}

func TestProfileListFilters(t *testing.T) {
	store := models.NewTestConfigStore()
	rows, err := store.ListProfiles(context.Background())
	require.NoError(t, err)

	l := NewProfileList()
	l.SetRows(rows)
	assert.Len(t, l.Visible(), 2)

	l.Select(DimGeo, "us")
	visible := l.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, 2, visible[0].ID)

	// options come from all rows, not just visible ones
	views := l.Filters()
	require.Len(t, views, 4)
	assert.Equal(t, DimGeo, views[1].Name)
	assert.Equal(t, []string{"uk", "us"}, views[1].Options)
	assert.Equal(t, "us", views[1].Active)
	assert.True(t, views[1].AllowAll)

	// unknown value falls back to All
	l.Select(DimGeo, "fr")
	assert.Equal(t, "", l.Filters()[1].Active)
	assert.Len(t, l.Visible(), 2)
}

func TestProfileMatrix(t *testing.T) {
	ctx := context.Background()
	store := models.NewTestConfigStore()
	p, err := store.GetProfile(ctx, 1)
	require.NoError(t, err)
	slots, err := store.ListProfileSlots(ctx, 1)
	require.NoError(t, err)
	rows, err := store.ListBidderConfigs(ctx, models.BidderConfigFilter{ProfileID: 1})
	require.NoError(t, err)

	m := NewProfileMatrix(*p, slots)
	m.SetRows(rows)
	view := m.Matrix()

	assert.Equal(t, []string{"appnexus", "rubicon"}, view.RowKeys)
	assert.Equal(t, []string{"mpu", "top"}, view.ColKeys)

	// appnexus/mpu holds an empty mapping, not a missing one
	empty := view.Rows[0].Cells[0]
	assert.True(t, empty.Present)
	assert.Equal(t, 101, empty.BidderConfigID)
	assert.Equal(t, "", empty.Text)

	assert.Equal(t, "placementId: 123", view.Rows[0].Cells[1].Text)
	assert.False(t, view.Rows[1].Cells[0].Present)
	assert.Equal(t, "rubicon", view.Rows[1].Cells[0].RowKey)
	assert.Equal(t, "mpu", view.Rows[1].Cells[0].ColKey)
	assert.Equal(t, "accountId: 7\nzone: top-a", view.Rows[1].Cells[1].Text)

	id, ok := m.SlotConfigID("mpu")
	assert.True(t, ok)
	assert.Equal(t, 11, id)
	_, ok = m.SlotConfigID("leaderboard")
	assert.False(t, ok)
}

func TestProfileMatrixEmpty(t *testing.T) {
	m := NewProfileMatrix(models.Profile{ID: 9}, nil)
	assert.True(t, m.Matrix().Empty())
}

func TestBidderListSearchAndFilters(t *testing.T) {
	l := NewBidderList()
	l.SetRows([]models.BidderConfig{
		cfg(1, "appnexus", "top", "uk", "mobile", "index"),
		cfg(2, "AppNexusAlt", "top", "us", "mobile", "index"),
		cfg(3, "rubicon", "top", "uk", "desktop", "article"),
		cfg(4, "appnexus", "mpu", "us", "desktop", "article"),
	})
	assert.Equal(t, []string{"AppNexusAlt", "appnexus", "rubicon"}, l.Bidders())

	l.SetSearch("  nexus ")
	assert.Equal(t, "nexus", l.Search())
	assert.Equal(t, []string{"AppNexusAlt", "appnexus"}, l.Bidders())

	l.Select(DimGeo, "uk")
	assert.Equal(t, []string{"appnexus"}, l.Bidders())

	l.SetSearch("")
	l.Select(DimDevice, "desktop")
	assert.Equal(t, []string{"rubicon"}, l.Bidders())
}

func TestBidderMatrixDefaults(t *testing.T) {
	m := NewBidderMatrix("appnexus", Defaults{Geo: "uk", Device: "mobile", PageTypePriority: []string{"index", "article"}})
	m.SetRows([]models.BidderConfig{
		cfg(1, "appnexus", "top", "uk", "mobile", "blog"),
		cfg(2, "appnexus", "top", "uk", "mobile", "index"),
		cfg(3, "appnexus", "mpu", "uk", "mobile", "article"),
		cfg(4, "appnexus", "top", "us", "desktop", "index"),
	})

	assert.Equal(t, "uk", m.Active(DimGeo))
	assert.Equal(t, "mobile", m.Active(DimDevice))
	assert.True(t, m.HasData())

	view := m.Matrix()
	assert.Equal(t, []string{"mpu", "top"}, view.RowKeys)
	assert.Equal(t, []string{"index", "article", "blog"}, view.ColKeys)
	assert.False(t, view.Rows[0].Cells[0].Present)
	assert.Equal(t, "id: 3", view.Rows[0].Cells[1].Text)
	assert.Equal(t, 2, view.Rows[1].Cells[0].BidderConfigID)

	for _, f := range m.Filters() {
		assert.False(t, f.AllowAll)
	}
}

func TestBidderMatrixCoercesMissingPreference(t *testing.T) {
	m := NewBidderMatrix("rubicon", Defaults{Geo: "uk", Device: "mobile"})
	m.SetRows([]models.BidderConfig{
		cfg(1, "rubicon", "top", "de", "desktop", "index"),
		cfg(2, "rubicon", "top", "fr", "tablet", "index"),
	})
	assert.Equal(t, "de", m.Active(DimGeo))
	assert.Equal(t, "desktop", m.Active(DimDevice))

	// a user selection survives while it is still an option
	m.Select(DimGeo, "fr")
	m.Select(DimDevice, "tablet")
	assert.Equal(t, "fr", m.Active(DimGeo))
	require.Len(t, m.Filtered(), 1)
	assert.Equal(t, 2, m.Filtered()[0].ID)

	// a combination with no rows still renders, just empty
	m.Select(DimDevice, "desktop")
	assert.False(t, m.HasData())
	assert.True(t, m.Matrix().Empty())

	m.Select(DimGeo, "jp")
	assert.Equal(t, "de", m.Active(DimGeo))
}

func TestBidderMatrixNoRows(t *testing.T) {
	m := NewBidderMatrix("none", Defaults{Geo: "uk", Device: "mobile"})
	m.SetRows(nil)
	assert.Equal(t, "", m.Active(DimGeo))
	assert.False(t, m.HasData())
	assert.True(t, m.Matrix().Empty())
}
