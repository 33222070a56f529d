package db

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/patrickwarner/bidderadmin/internal/models"
)

var dimensionTables = map[string]bool{
	"environments": true,
	"geos":         true,
	"devices":      true,
	"page_types":   true,
	"slots":        true,
}

// EnsureCode inserts a code into a lookup table if missing and returns its id.
func (p *Postgres) EnsureCode(ctx context.Context, table, code string) (int, error) {
	if !dimensionTables[table] {
		return 0, fmt.Errorf("unknown lookup table %q", table)
	}
	var id int
	err := p.DB.QueryRowContext(ctx,
		`INSERT INTO `+table+` (code) VALUES ($1) ON CONFLICT (code) DO UPDATE SET code = EXCLUDED.code RETURNING id`,
		code).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ensure %s %s: %w", table, code, err)
	}
	return id, nil
}

// EnsureProfile returns the id of the profile matching the dimension codes,
// creating it (and any missing codes) when absent.
func (p *Postgres) EnsureProfile(ctx context.Context, pr models.Profile) (int, error) {
	envID, err := p.EnsureCode(ctx, "environments", pr.Environment)
	if err != nil {
		return 0, err
	}
	geoID, err := p.EnsureCode(ctx, "geos", pr.Geo)
	if err != nil {
		return 0, err
	}
	deviceID, err := p.EnsureCode(ctx, "devices", pr.Device)
	if err != nil {
		return 0, err
	}
	pageTypeID, err := p.EnsureCode(ctx, "page_types", pr.PageType)
	if err != nil {
		return 0, err
	}

	var id int
	err = p.DB.QueryRowContext(ctx,
		`SELECT id FROM config_profiles WHERE environment_id = $1 AND geo_id = $2 AND device_id = $3 AND page_type_id = $4`,
		envID, geoID, deviceID, pageTypeID).Scan(&id)
	if err == nil {
		return id, nil
	}
	err = p.DB.QueryRowContext(ctx,
		`INSERT INTO config_profiles (name, environment_id, geo_id, device_id, page_type_id) VALUES (NULLIF($1, ''), $2, $3, $4, $5) RETURNING id`,
		pr.Name, envID, geoID, deviceID, pageTypeID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert profile: %w", err)
	}
	return id, nil
}

// EnsureSlotConfigs attaches slot codes to a profile and returns the
// profile's slot configs.
func (p *Postgres) EnsureSlotConfigs(ctx context.Context, profileID int, slotCodes []string) ([]models.SlotConfig, error) {
	if _, err := p.DB.ExecContext(ctx,
		`INSERT INTO slots (code) SELECT unnest($1::text[]) ON CONFLICT (code) DO NOTHING`,
		pq.Array(slotCodes)); err != nil {
		return nil, fmt.Errorf("insert slots: %w", err)
	}
	if _, err := p.DB.ExecContext(ctx,
		`INSERT INTO slot_configs (profile_id, slot_id)
         SELECT $1, s.id FROM slots s WHERE s.code = ANY($2::text[])
         ON CONFLICT (profile_id, slot_id) DO NOTHING`,
		profileID, pq.Array(slotCodes)); err != nil {
		return nil, fmt.Errorf("insert slot configs: %w", err)
	}
	return p.ListProfileSlots(ctx, profileID)
}
