package pages

import (
	"github.com/patrickwarner/bidderadmin/internal/logic/filters"
	"github.com/patrickwarner/bidderadmin/internal/logic/pivot"
	"github.com/patrickwarner/bidderadmin/internal/models"
)

// ProfileList is the state of the profile browser.
type ProfileList struct {
	rows    []models.Profile
	filters *filters.Set[models.Profile]
}

// NewProfileList returns a profile list with every filter on "All".
func NewProfileList() *ProfileList {
	return &ProfileList{
		filters: filters.NewSet(
			filters.Dimension[models.Profile]{Name: DimEnvironment, Value: func(p models.Profile) string { return p.Environment }},
			filters.Dimension[models.Profile]{Name: DimGeo, Value: func(p models.Profile) string { return p.Geo }},
			filters.Dimension[models.Profile]{Name: DimDevice, Value: func(p models.Profile) string { return p.Device }},
			filters.Dimension[models.Profile]{Name: DimPageType, Value: func(p models.Profile) string { return p.PageType }},
		),
	}
}

// Select sets a filter value; "" means All.
func (l *ProfileList) Select(name, value string) {
	l.filters.Select(name, value)
	l.filters.Refresh(l.rows)
}

// SetRows replaces the fetched profiles.
func (l *ProfileList) SetRows(rows []models.Profile) {
	l.rows = rows
	l.filters.Refresh(rows)
}

// Visible returns the profiles passing every filter.
func (l *ProfileList) Visible() []models.Profile {
	return l.filters.Apply(l.rows)
}

// Filters describes the filter controls.
func (l *ProfileList) Filters() []FilterView {
	return filterViews(l.filters, true, DimEnvironment, DimGeo, DimDevice, DimPageType)
}

// ProfileMatrix is the bidder x slot view of one profile.
type ProfileMatrix struct {
	Profile models.Profile
	Slots   []models.SlotConfig
	rows    []models.BidderConfig
}

// NewProfileMatrix creates the view for a profile and its slots.
func NewProfileMatrix(p models.Profile, slots []models.SlotConfig) *ProfileMatrix {
	return &ProfileMatrix{Profile: p, Slots: slots}
}

// SetRows replaces the profile's bidder configs.
func (m *ProfileMatrix) SetRows(rows []models.BidderConfig) {
	m.rows = rows
}

// Matrix pivots the configs by bidder and slot code.
func (m *ProfileMatrix) Matrix() MatrixView {
	return newMatrixView(pivot.Build(m.rows, pivot.Spec[models.BidderConfig, models.BidderConfig]{
		RowKey:  func(c models.BidderConfig) string { return c.Bidder },
		ColKey:  func(c models.BidderConfig) string { return c.Slot },
		Payload: configPayload,
	}))
}

// SlotConfigID resolves a slot code of this profile to its slot config.
func (m *ProfileMatrix) SlotConfigID(slotCode string) (int, bool) {
	for _, s := range m.Slots {
		if s.SlotCode == slotCode {
			return s.ID, true
		}
	}
	return 0, false
}
