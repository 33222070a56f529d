// Package reporting summarizes the param edit audit trail stored in
// ClickHouse: edits per day by action, the most edited bidders and the
// bidder configs that change most often.
package reporting

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// DailyEdits counts edits on one day by action.
type DailyEdits struct {
	Date    time.Time `json:"date"`
	Creates int64     `json:"creates"`
	Updates int64     `json:"updates"`
	Deletes int64     `json:"deletes"`
}

// Total is the number of edits of any kind.
func (d DailyEdits) Total() int64 { return d.Creates + d.Updates + d.Deletes }

// BidderEdits counts edits for one bidder.
type BidderEdits struct {
	Bidder   string    `json:"bidder"`
	Edits    int64     `json:"edits"`
	Configs  int64     `json:"configs"`   // distinct bidder configs touched
	LastEdit time.Time `json:"last_edit"`
}

// ConfigEdits counts edits for one bidder config.
type ConfigEdits struct {
	BidderConfigID int    `json:"bidder_config_id"`
	Bidder         string `json:"bidder"`
	ProfileID      int    `json:"profile_id"`
	Slot           string `json:"slot"`
	Edits          int64  `json:"edits"`
}

// EditSummary is the edit activity over a reporting window.
type EditSummary struct {
	Bidder     string        `json:"bidder,omitempty"`
	Days       int           `json:"days"`
	Totals     DailyEdits    `json:"totals"`
	Daily      []DailyEdits  `json:"daily"`
	TopBidders []BidderEdits `json:"top_bidders"`
	HotConfigs []ConfigEdits `json:"hot_configs"`
}

type filter struct {
	where string
	args  []any
}

func newFilter(bidder string, days int) filter {
	f := filter{where: `ts >= now() - INTERVAL ? DAY`, args: []any{days}}
	if bidder = strings.TrimSpace(bidder); bidder != "" {
		f.where += ` AND bidder = ?`
		f.args = append(f.args, bidder)
	}
	return f
}

// GenerateEditReport queries the param_edits table for the last days days.
// An empty bidder covers every bidder.
func GenerateEditReport(ctx context.Context, db *sql.DB, bidder string, days, top int) (*EditSummary, error) {
	if days <= 0 {
		days = 7
	}
	if top <= 0 {
		top = 10
	}
	f := newFilter(bidder, days)
	summary := &EditSummary{Bidder: strings.TrimSpace(bidder), Days: days}

	daily, err := getDailyEdits(ctx, db, f)
	if err != nil {
		return nil, fmt.Errorf("get daily edits: %w", err)
	}
	summary.Daily = daily
	for _, d := range daily {
		summary.Totals.Creates += d.Creates
		summary.Totals.Updates += d.Updates
		summary.Totals.Deletes += d.Deletes
	}

	if summary.TopBidders, err = getTopBidders(ctx, db, f, top); err != nil {
		return nil, fmt.Errorf("get top bidders: %w", err)
	}
	if summary.HotConfigs, err = getHotConfigs(ctx, db, f, top); err != nil {
		return nil, fmt.Errorf("get hot configs: %w", err)
	}
	return summary, nil
}

func getDailyEdits(ctx context.Context, db *sql.DB, f filter) ([]DailyEdits, error) {
	query := `
		SELECT
			toDate(ts) AS date,
			toInt64(countIf(action = 'create')) AS creates,
			toInt64(countIf(action = 'update')) AS updates,
			toInt64(countIf(action = 'delete')) AS deletes
		FROM param_edits
		WHERE ` + f.where + `
		GROUP BY date
		ORDER BY date DESC`

	rows, err := db.QueryContext(ctx, query, f.args...)
	if err != nil {
		return nil, fmt.Errorf("query daily edits: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []DailyEdits
	for rows.Next() {
		var d DailyEdits
		if err := rows.Scan(&d.Date, &d.Creates, &d.Updates, &d.Deletes); err != nil {
			return nil, fmt.Errorf("scan daily edits: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func getTopBidders(ctx context.Context, db *sql.DB, f filter, limit int) ([]BidderEdits, error) {
	query := `
		SELECT
			bidder,
			toInt64(count()) AS edits,
			toInt64(uniqExact(bidder_config_id)) AS configs,
			max(ts) AS last_edit
		FROM param_edits
		WHERE ` + f.where + `
		GROUP BY bidder
		ORDER BY edits DESC, bidder
		LIMIT ?`

	rows, err := db.QueryContext(ctx, query, append(f.args, limit)...)
	if err != nil {
		return nil, fmt.Errorf("query top bidders: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []BidderEdits
	for rows.Next() {
		var b BidderEdits
		if err := rows.Scan(&b.Bidder, &b.Edits, &b.Configs, &b.LastEdit); err != nil {
			return nil, fmt.Errorf("scan bidder edits: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func getHotConfigs(ctx context.Context, db *sql.DB, f filter, limit int) ([]ConfigEdits, error) {
	query := `
		SELECT
			bidder_config_id,
			any(bidder) AS bidder,
			any(profile_id) AS profile_id,
			any(slot) AS slot,
			toInt64(count()) AS edits
		FROM param_edits
		WHERE ` + f.where + `
		GROUP BY bidder_config_id
		ORDER BY edits DESC, bidder_config_id
		LIMIT ?`

	rows, err := db.QueryContext(ctx, query, append(f.args, limit)...)
	if err != nil {
		return nil, fmt.Errorf("query hot configs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []ConfigEdits
	for rows.Next() {
		var c ConfigEdits
		var cfgID, profileID int32
		if err := rows.Scan(&cfgID, &c.Bidder, &profileID, &c.Slot, &c.Edits); err != nil {
			return nil, fmt.Errorf("scan config edits: %w", err)
		}
		c.BidderConfigID = int(cfgID)
		c.ProfileID = int(profileID)
		out = append(out, c)
	}
	return out, rows.Err()
}
