package analytics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	_ "github.com/ClickHouse/clickhouse-go/v2"
)

// EditRecorder stores an audit trail of params edits. Implementations return
// ErrUnavailable when the underlying storage is not configured.
type EditRecorder interface {
	RecordEdit(ctx context.Context, e EditRecord) error
}

// ErrUnavailable is returned when the analytics DB is not configured.
var ErrUnavailable = errors.New("analytics unavailable")

// EditRecord mirrors a row in the param_edits table.
type EditRecord struct {
	Timestamp      time.Time `json:"timestamp"`
	EditID         uuid.UUID `json:"edit_id"`
	Action         string    `json:"action"`
	BidderConfigID int       `json:"bidder_config_id"`
	Bidder         string    `json:"bidder"`
	ProfileID      int       `json:"profile_id"`
	Slot           string    `json:"slot"`
	// ParamsText is the cell text that was saved.
	ParamsText string `json:"params_text"`
}

// Analytics wraps a ClickHouse DB connection.
type Analytics struct {
	DB *sql.DB
}

const createEditsTable = `CREATE TABLE IF NOT EXISTS param_edits (
    ts               DateTime,
    edit_id          UUID,
    action           LowCardinality(String),
    bidder_config_id Int32,
    bidder           String,
    profile_id       Int32,
    slot             String,
    params_text      String
) ENGINE=MergeTree() ORDER BY (bidder, ts)`

// InitClickHouse connects to ClickHouse and ensures the param_edits table exists.
func InitClickHouse(ctx context.Context, dsn string, maxOpenConns, maxIdleConns int, connMaxLifetime time.Duration) (*Analytics, error) {
	db, err := sql.Open("clickhouse", dsn)
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, createEditsTable); err != nil {
		return nil, fmt.Errorf("clickhouse create table: %w", err)
	}

	zap.L().Info("Connected to ClickHouse")
	return &Analytics{DB: db}, nil
}

// RecordEdit inserts one audit row. A zero timestamp or edit id is filled in.
func (a *Analytics) RecordEdit(ctx context.Context, e EditRecord) error {
	if a == nil || a.DB == nil {
		return ErrUnavailable
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if e.EditID == uuid.Nil {
		e.EditID = uuid.New()
	}
	_, err := a.DB.ExecContext(ctx,
		`INSERT INTO param_edits (ts, edit_id, action, bidder_config_id, bidder, profile_id, slot, params_text) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Timestamp, e.EditID.String(), e.Action, int32(e.BidderConfigID), e.Bidder, int32(e.ProfileID), e.Slot, e.ParamsText)
	if err != nil {
		return fmt.Errorf("insert param edit: %w", err)
	}
	return nil
}

// RecentEdits returns the latest edits, newest first. An empty bidder
// returns edits for every bidder.
func (a *Analytics) RecentEdits(ctx context.Context, bidder string, limit int) ([]EditRecord, error) {
	if a == nil || a.DB == nil {
		return nil, ErrUnavailable
	}
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ts, edit_id, action, bidder_config_id, bidder, profile_id, slot, params_text FROM param_edits`
	args := []any{}
	if bidder != "" {
		query += ` WHERE bidder = ?`
		args = append(args, bidder)
	}
	query += ` ORDER BY ts DESC LIMIT ?`
	args = append(args, limit)

	rows, err := a.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query param edits: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			zap.L().Warn("rows close", zap.Error(err))
		}
	}()

	var edits []EditRecord
	for rows.Next() {
		var e EditRecord
		var editID string
		var cfgID, profileID int32
		if err := rows.Scan(&e.Timestamp, &editID, &e.Action, &cfgID, &e.Bidder, &profileID, &e.Slot, &e.ParamsText); err != nil {
			return nil, fmt.Errorf("scan param edit: %w", err)
		}
		if e.EditID, err = uuid.Parse(editID); err != nil {
			return nil, fmt.Errorf("parse edit id: %w", err)
		}
		e.BidderConfigID = int(cfgID)
		e.ProfileID = int(profileID)
		edits = append(edits, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return edits, nil
}

// Close terminates the ClickHouse connection.
func (a *Analytics) Close() {
	if a != nil && a.DB != nil {
		if err := a.DB.Close(); err != nil {
			zap.L().Error("clickhouse close", zap.Error(err))
		}
	}
}
