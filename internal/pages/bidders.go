package pages

import (
	"slices"
	"strings"

	"github.com/hashicorp/go-set/v2"

	"github.com/patrickwarner/bidderadmin/internal/logic/filters"
	"github.com/patrickwarner/bidderadmin/internal/logic/pivot"
	"github.com/patrickwarner/bidderadmin/internal/models"
)

func geoOf(c models.BidderConfig) string      { return c.Geo }
func deviceOf(c models.BidderConfig) string   { return c.Device }
func pageTypeOf(c models.BidderConfig) string { return c.PageType }

// BidderList is the state of the bidder browser.
type BidderList struct {
	rows    []models.BidderConfig
	search  string
	filters *filters.Set[models.BidderConfig]
}

// NewBidderList returns a bidder list with every filter on "All".
func NewBidderList() *BidderList {
	return &BidderList{
		filters: filters.NewSet(
			filters.Dimension[models.BidderConfig]{Name: DimGeo, Value: geoOf},
			filters.Dimension[models.BidderConfig]{Name: DimDevice, Value: deviceOf},
			filters.Dimension[models.BidderConfig]{Name: DimPageType, Value: pageTypeOf},
		),
	}
}

// Select sets a filter value; "" means All.
func (l *BidderList) Select(name, value string) {
	l.filters.Select(name, value)
	l.filters.Refresh(l.rows)
}

// SetSearch sets the case-insensitive bidder code search.
func (l *BidderList) SetSearch(q string) {
	l.search = strings.TrimSpace(q)
}

// Search returns the current search text.
func (l *BidderList) Search() string { return l.search }

// SetRows replaces the fetched rows.
func (l *BidderList) SetRows(rows []models.BidderConfig) {
	l.rows = rows
	l.filters.Refresh(rows)
}

// Bidders returns the sorted distinct bidder codes with at least one row
// passing the filters and the search.
func (l *BidderList) Bidders() []string {
	q := strings.ToLower(l.search)
	seen := set.New[string](0)
	for _, r := range l.filters.Apply(l.rows) {
		if r.Bidder == "" {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(r.Bidder), q) {
			continue
		}
		seen.Insert(r.Bidder)
	}
	out := seen.Slice()
	slices.Sort(out)
	return out
}

// Filters describes the filter controls.
func (l *BidderList) Filters() []FilterView {
	return filterViews(l.filters, true, DimGeo, DimDevice, DimPageType)
}

// BidderMatrix is the slot x page type view of one bidder. Geo and device
// always hold a concrete option once rows exist.
type BidderMatrix struct {
	Bidder   string
	rows     []models.BidderConfig
	filters  *filters.Set[models.BidderConfig]
	priority []string
}

// NewBidderMatrix creates the view for a bidder with the deployment defaults.
func NewBidderMatrix(bidder string, d Defaults) *BidderMatrix {
	return &BidderMatrix{
		Bidder: bidder,
		filters: filters.NewSet(
			filters.Dimension[models.BidderConfig]{Name: DimGeo, Value: geoOf, Required: true, Preferred: d.Geo},
			filters.Dimension[models.BidderConfig]{Name: DimDevice, Value: deviceOf, Required: true, Preferred: d.Device},
		),
		priority: d.PageTypePriority,
	}
}

// Select sets a filter value. Values that are not options are coerced.
func (m *BidderMatrix) Select(name, value string) {
	m.filters.Select(name, value)
	m.filters.Refresh(m.rows)
}

// SetRows replaces the bidder's rows and re-resolves geo and device.
func (m *BidderMatrix) SetRows(rows []models.BidderConfig) {
	m.rows = rows
	m.filters.Refresh(rows)
}

// Active returns the resolved value of a filter.
func (m *BidderMatrix) Active(name string) string {
	return m.filters.Active(name)
}

// Filtered returns the rows passing geo and device.
func (m *BidderMatrix) Filtered() []models.BidderConfig {
	return m.filters.Apply(m.rows)
}

// HasData reports whether any row passes the filters.
func (m *BidderMatrix) HasData() bool {
	return len(m.Filtered()) > 0
}

// Matrix pivots the filtered rows by slot and page type.
func (m *BidderMatrix) Matrix() MatrixView {
	return newMatrixView(pivot.Build(m.Filtered(), pivot.Spec[models.BidderConfig, models.BidderConfig]{
		RowKey:         func(c models.BidderConfig) string { return c.Slot },
		ColKey:         pageTypeOf,
		Payload:        configPayload,
		ColumnPriority: m.priority,
	}))
}

// Filters describes the filter controls.
func (m *BidderMatrix) Filters() []FilterView {
	return filterViews(m.filters, false, DimGeo, DimDevice)
}
