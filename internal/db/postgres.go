package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/XSAM/otelsql"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/patrickwarner/bidderadmin/internal/models"
	"github.com/patrickwarner/bidderadmin/internal/params"
)

// Postgres wraps a postgres DB connection and implements models.ConfigStore.
type Postgres struct {
	DB           *sql.DB
	queryBuilder squirrel.StatementBuilderType
}

// NewPostgres wraps an open connection.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{DB: db, queryBuilder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)}
}

// schemaSQL sets up the tables and views if they don't exist.
const schemaSQL = `CREATE TABLE IF NOT EXISTS environments (
    id SERIAL PRIMARY KEY,
    code TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS geos (
    id SERIAL PRIMARY KEY,
    code TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS devices (
    id SERIAL PRIMARY KEY,
    code TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS page_types (
    id SERIAL PRIMARY KEY,
    code TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS config_profiles (
    id SERIAL PRIMARY KEY,
    name TEXT,
    environment_id INT REFERENCES environments(id),
    geo_id INT REFERENCES geos(id),
    device_id INT REFERENCES devices(id),
    page_type_id INT REFERENCES page_types(id)
);

CREATE TABLE IF NOT EXISTS bidders (
    code TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS slots (
    id SERIAL PRIMARY KEY,
    code TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS slot_configs (
    id SERIAL PRIMARY KEY,
    profile_id INT NOT NULL REFERENCES config_profiles(id) ON DELETE CASCADE,
    slot_id INT NOT NULL REFERENCES slots(id),
    UNIQUE (profile_id, slot_id)
);

CREATE TABLE IF NOT EXISTS bidder_configs (
    id SERIAL PRIMARY KEY,
    bidder TEXT NOT NULL REFERENCES bidders(code),
    slot_config_id INT NOT NULL REFERENCES slot_configs(id) ON DELETE CASCADE,
    params JSONB,
    UNIQUE (bidder, slot_config_id)
);

CREATE OR REPLACE VIEW slot_configs_enriched AS
SELECT sc.id AS slot_config_id, sc.profile_id, s.code AS slot_code
FROM slot_configs sc
JOIN slots s ON s.id = sc.slot_id;

CREATE OR REPLACE VIEW bidder_configs_enriched AS
SELECT bc.id AS bidder_config_id,
       bc.bidder,
       bc.params,
       bc.slot_config_id,
       s.code AS slot,
       cp.id AS profile_id,
       cp.name AS profile_name,
       e.code AS environment,
       g.code AS geo,
       d.code AS device,
       pt.code AS page_type
FROM bidder_configs bc
JOIN slot_configs sc ON sc.id = bc.slot_config_id
JOIN slots s ON s.id = sc.slot_id
JOIN config_profiles cp ON cp.id = sc.profile_id
LEFT JOIN environments e ON e.id = cp.environment_id
LEFT JOIN geos g ON g.id = cp.geo_id
LEFT JOIN devices d ON d.id = cp.device_id
LEFT JOIN page_types pt ON pt.id = cp.page_type_id;

CREATE INDEX IF NOT EXISTS idx_bidder_configs_bidder ON bidder_configs (bidder);
CREATE INDEX IF NOT EXISTS idx_slot_configs_profile_id ON slot_configs (profile_id);
`

const profileSelect = `SELECT cp.id, COALESCE(cp.name, ''), COALESCE(e.code, ''), COALESCE(g.code, ''), COALESCE(d.code, ''), COALESCE(pt.code, '')
FROM config_profiles cp
LEFT JOIN environments e ON e.id = cp.environment_id
LEFT JOIN geos g ON g.id = cp.geo_id
LEFT JOIN devices d ON d.id = cp.device_id
LEFT JOIN page_types pt ON pt.id = cp.page_type_id`

var bidderConfigColumns = []string{
	"bidder_config_id", "bidder", "params", "slot_config_id", "slot", "profile_id",
	"profile_name", "environment", "geo", "device", "page_type",
}

// Postgres error codes surfaced as model errors.
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// InitPostgres connects to Postgres with connection pooling configuration.
// When ensureSchema is set the tables and views are created.
func InitPostgres(dsn string, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration, ensureSchema bool) (*Postgres, error) {
	driverName, err := otelsql.Register("postgres",
		otelsql.WithAttributes(
			attribute.String("db.system", "postgresql"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("register otelsql: %w", err)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetConnMaxIdleTime(connMaxIdleTime)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	p := NewPostgres(db)
	if ensureSchema {
		if err := p.EnsureSchema(ctx); err != nil {
			return nil, err
		}
	}
	zap.L().Info("Connected to Postgres with connection pooling",
		zap.Int("max_open_conns", maxOpenConns),
		zap.Int("max_idle_conns", maxIdleConns),
		zap.Duration("conn_max_lifetime", connMaxLifetime))
	return p, nil
}

// Close terminates the Postgres connection.
func (p *Postgres) Close() {
	if p != nil && p.DB != nil {
		if err := p.DB.Close(); err != nil {
			zap.L().Error("postgres close", zap.Error(err))
		}
	}
}

// EnsureSchema creates the required tables and views if they do not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.DB.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBidderConfig(row rowScanner) (models.BidderConfig, error) {
	var c models.BidderConfig
	var raw []byte
	var profileName, env, geo, device, pageType sql.NullString
	if err := row.Scan(&c.ID, &c.Bidder, &raw, &c.SlotConfigID, &c.Slot, &c.ProfileID,
		&profileName, &env, &geo, &device, &pageType); err != nil {
		return c, err
	}
	p, err := params.ParseJSON(raw)
	if err != nil {
		return c, fmt.Errorf("parse params of bidder config %d: %w", c.ID, err)
	}
	c.Params = p
	c.ProfileName = profileName.String
	c.Environment = env.String
	c.Geo = geo.String
	c.Device = device.String
	c.PageType = pageType.String
	return c, nil
}

// ListBidderConfigs returns enriched rows ordered by profile and slot.
func (p *Postgres) ListBidderConfigs(ctx context.Context, f models.BidderConfigFilter) ([]models.BidderConfig, error) {
	q := p.queryBuilder.Select(bidderConfigColumns...).From("bidder_configs_enriched")
	if f.Bidder != "" {
		q = q.Where(squirrel.Eq{"bidder": f.Bidder})
	}
	if f.ProfileID != 0 {
		q = q.Where(squirrel.Eq{"profile_id": f.ProfileID})
	}
	query, args, err := q.OrderBy("profile_id", "slot").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build bidder configs query: %w", err)
	}

	rows, err := p.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query bidder configs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []models.BidderConfig
	for rows.Next() {
		c, err := scanBidderConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bidder config: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

// GetBidderConfig returns one enriched row.
func (p *Postgres) GetBidderConfig(ctx context.Context, id int) (*models.BidderConfig, error) {
	query, args, err := p.queryBuilder.Select(bidderConfigColumns...).
		From("bidder_configs_enriched").
		Where(squirrel.Eq{"bidder_config_id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build bidder config query: %w", err)
	}
	c, err := scanBidderConfig(p.DB.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get bidder config %d: %w", id, err)
	}
	return &c, nil
}

// ListProfiles returns every profile with its dimension codes, ordered by id.
func (p *Postgres) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	rows, err := p.DB.QueryContext(ctx, profileSelect+` ORDER BY cp.id`)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var out []models.Profile
	for rows.Next() {
		var pr models.Profile
		if err := rows.Scan(&pr.ID, &pr.Name, &pr.Environment, &pr.Geo, &pr.Device, &pr.PageType); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

// GetProfile returns one profile.
func (p *Postgres) GetProfile(ctx context.Context, id int) (*models.Profile, error) {
	var pr models.Profile
	err := p.DB.QueryRowContext(ctx, profileSelect+` WHERE cp.id = $1`, id).
		Scan(&pr.ID, &pr.Name, &pr.Environment, &pr.Geo, &pr.Device, &pr.PageType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %d: %w", id, err)
	}
	return &pr, nil
}

// ListProfileSlots returns the profile's slot configs sorted by slot code.
func (p *Postgres) ListProfileSlots(ctx context.Context, profileID int) ([]models.SlotConfig, error) {
	rows, err := p.DB.QueryContext(ctx, `SELECT DISTINCT slot_config_id, profile_id, slot_code FROM slot_configs_enriched WHERE profile_id = $1 ORDER BY slot_code`, profileID)
	if err != nil {
		return nil, fmt.Errorf("query profile slots: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var out []models.SlotConfig
	for rows.Next() {
		var sc models.SlotConfig
		if err := rows.Scan(&sc.ID, &sc.ProfileID, &sc.SlotCode); err != nil {
			return nil, fmt.Errorf("scan slot config: %w", err)
		}
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

// SaveParams stores params on a bidder config, or deletes the row when the
// params are Absent.
func (p *Postgres) SaveParams(ctx context.Context, id int, prm params.Params) error {
	var (
		res sql.Result
		err error
	)
	if prm.IsAbsent() {
		res, err = p.DB.ExecContext(ctx, `DELETE FROM bidder_configs WHERE id = $1`, id)
	} else {
		payload, jerr := prm.JSON()
		if jerr != nil {
			return fmt.Errorf("encode params: %w", jerr)
		}
		res, err = p.DB.ExecContext(ctx, `UPDATE bidder_configs SET params = $1::jsonb WHERE id = $2`, string(payload), id)
	}
	if err != nil {
		return fmt.Errorf("save params of bidder config %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// CreateBidderConfig registers the bidder if needed and inserts its params
// for a slot config.
func (p *Postgres) CreateBidderConfig(ctx context.Context, bidder string, slotConfigID int, prm params.Params) (int, error) {
	if prm.IsAbsent() {
		return 0, nil
	}
	payload, err := prm.JSON()
	if err != nil {
		return 0, fmt.Errorf("encode params: %w", err)
	}
	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `INSERT INTO bidders (code) VALUES ($1) ON CONFLICT DO NOTHING`, bidder); err != nil {
		return 0, fmt.Errorf("insert bidder %s: %w", bidder, err)
	}
	var id int
	err = tx.QueryRowContext(ctx,
		`INSERT INTO bidder_configs (bidder, slot_config_id, params) VALUES ($1, $2, $3::jsonb) RETURNING id`,
		bidder, slotConfigID, string(payload)).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case pqUniqueViolation:
				return 0, models.ErrDuplicate
			case pqForeignKeyViolation:
				return 0, models.ErrNotFound
			}
		}
		return 0, fmt.Errorf("insert bidder config: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}
