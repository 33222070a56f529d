// Package pages holds the state behind each admin page: the fetched rows,
// the option sets derived from them and the active filters. Coercion is
// re-run whenever rows are replaced, so derived state is always a pure
// projection of the rows and the user's selections.
package pages

import (
	"github.com/patrickwarner/bidderadmin/internal/logic/filters"
	"github.com/patrickwarner/bidderadmin/internal/logic/pivot"
	"github.com/patrickwarner/bidderadmin/internal/models"
	"github.com/patrickwarner/bidderadmin/internal/params"
)

// Filter query parameter names.
const (
	DimEnvironment = "env"
	DimGeo         = "geo"
	DimDevice      = "device"
	DimPageType    = "page_type"
)

var dimensionLabels = map[string]string{
	DimEnvironment: "Env",
	DimGeo:         "Geo",
	DimDevice:      "Device",
	DimPageType:    "Page type",
}

// Defaults carries the per-deployment filter and ordering policy.
type Defaults struct {
	Geo              string
	Device           string
	PageTypePriority []string
}

// FilterView describes one filter control.
type FilterView struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Options  []string `json:"options"`
	Active   string   `json:"active"`
	AllowAll bool     `json:"allow_all"`
}

func filterViews[R any](s *filters.Set[R], allowAll bool, names ...string) []FilterView {
	out := make([]FilterView, 0, len(names))
	for _, n := range names {
		out = append(out, FilterView{
			Name:     n,
			Label:    dimensionLabels[n],
			Options:  s.Options(n),
			Active:   s.Active(n),
			AllowAll: allowAll,
		})
	}
	return out
}

// CellView is one rendered matrix cell.
type CellView struct {
	Present        bool          `json:"present"`
	BidderConfigID int           `json:"bidder_config_id,omitempty"`
	Params         params.Params `json:"params"`
	Text           string        `json:"text"`
	// RowKey and ColKey locate the cell; they let an absent cell be created.
	RowKey string `json:"row_key"`
	ColKey string `json:"col_key"`
}

// MatrixRowView is one rendered matrix row.
type MatrixRowView struct {
	Key   string     `json:"key"`
	Cells []CellView `json:"cells"`
}

// MatrixView is a rendered matrix of bidder configs.
type MatrixView struct {
	RowKeys []string        `json:"row_keys"`
	ColKeys []string        `json:"col_keys"`
	Rows    []MatrixRowView `json:"rows"`
}

// Empty reports whether the matrix had no data at all.
func (v MatrixView) Empty() bool {
	return len(v.RowKeys) == 0 && len(v.ColKeys) == 0
}

func newMatrixView(m pivot.Matrix[models.BidderConfig]) MatrixView {
	view := MatrixView{
		RowKeys: m.RowKeys,
		ColKeys: m.ColKeys,
		Rows:    make([]MatrixRowView, len(m.RowKeys)),
	}
	for i, line := range m.Grid() {
		cells := make([]CellView, len(line))
		for j, c := range line {
			cv := CellView{Present: c.Present, RowKey: m.RowKeys[i], ColKey: m.ColKeys[j]}
			if c.Present {
				cv.BidderConfigID = c.Payload.ID
				cv.Params = c.Payload.Params
				cv.Text = params.Encode(c.Payload.Params)
			}
			cells[j] = cv
		}
		view.Rows[i] = MatrixRowView{Key: m.RowKeys[i], Cells: cells}
	}
	return view
}

func configPayload(c models.BidderConfig) models.BidderConfig { return c }
