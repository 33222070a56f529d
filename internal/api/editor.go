package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/patrickwarner/bidderadmin/internal/analytics"
	"github.com/patrickwarner/bidderadmin/internal/db"
	"github.com/patrickwarner/bidderadmin/internal/models"
	"github.com/patrickwarner/bidderadmin/internal/observability"
	"github.com/patrickwarner/bidderadmin/internal/params"
)

// Notifier announces bidder config changes to downstream consumers.
type Notifier interface {
	Publish(ctx context.Context, action string, bidderConfigID int, bidder string) (db.UpdateMessage, error)
}

// ErrBlankBidder is returned when a mapping is created without a bidder code.
var ErrBlankBidder = errors.New("bidder code is required")

// EditResult describes what a save did. Action is empty when nothing was
// written; Config is nil after a delete.
type EditResult struct {
	Action string               `json:"action,omitempty"`
	Config *models.BidderConfig `json:"config,omitempty"`
}

// Editor turns cell text into stored params. After every write it notifies
// subscribers and appends to the audit trail; failures of either are logged
// and counted but never fail the save.
type Editor struct {
	Store    models.ConfigStore
	Notifier Notifier
	Audit    analytics.EditRecorder
	Metrics  observability.MetricsRegistry
	Logger   *zap.Logger
}

// SaveCellText decodes text and stores it on an existing bidder config.
// Blank text deletes the mapping.
func (e *Editor) SaveCellText(ctx context.Context, bidderConfigID int, text string) (EditResult, error) {
	cur, err := e.Store.GetBidderConfig(ctx, bidderConfigID)
	if err != nil {
		e.storeError("get_bidder_config", err)
		return EditResult{}, err
	}

	p := params.Decode(text)
	if err := e.Store.SaveParams(ctx, bidderConfigID, p); err != nil {
		e.storeError("save_params", err)
		return EditResult{}, err
	}

	res := EditResult{Action: db.ActionDelete}
	if !p.IsAbsent() {
		cur.Params = p
		res = EditResult{Action: db.ActionUpdate, Config: cur}
	}
	e.afterSave(ctx, res.Action, *cur, text)
	return res, nil
}

// CreateCell stores text as a new mapping of bidder to a slot config. Blank
// text creates nothing.
func (e *Editor) CreateCell(ctx context.Context, bidder string, slotConfigID int, text string) (EditResult, error) {
	bidder = strings.TrimSpace(bidder)
	if bidder == "" {
		return EditResult{}, ErrBlankBidder
	}
	p := params.Decode(text)
	if p.IsAbsent() {
		return EditResult{}, nil
	}

	id, err := e.Store.CreateBidderConfig(ctx, bidder, slotConfigID, p)
	if err != nil {
		e.storeError("create_bidder_config", err)
		return EditResult{}, err
	}
	cfg, err := e.Store.GetBidderConfig(ctx, id)
	if err != nil {
		e.storeError("get_bidder_config", err)
		return EditResult{}, fmt.Errorf("reload created bidder config %d: %w", id, err)
	}
	e.afterSave(ctx, db.ActionCreate, *cfg, text)
	return EditResult{Action: db.ActionCreate, Config: cfg}, nil
}

func (e *Editor) storeError(op string, err error) {
	if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrDuplicate) {
		return
	}
	e.Metrics.IncrementStoreErrors(op)
}

func (e *Editor) afterSave(ctx context.Context, action string, cfg models.BidderConfig, text string) {
	e.Metrics.IncrementParamSaves(action)
	logger := e.Logger.With(
		zap.String("action", action),
		zap.Int("bidder_config_id", cfg.ID),
		zap.String("bidder", cfg.Bidder),
	)
	logger.Info("bidder params saved")

	rec := analytics.EditRecord{
		Action:         action,
		BidderConfigID: cfg.ID,
		Bidder:         cfg.Bidder,
		ProfileID:      cfg.ProfileID,
		Slot:           cfg.Slot,
		ParamsText:     strings.TrimSpace(text),
	}

	if e.Notifier != nil {
		msg, err := e.Notifier.Publish(ctx, action, cfg.ID, cfg.Bidder)
		if err != nil {
			e.Metrics.IncrementNotifications("failed")
			logger.Error("failed to publish update message", zap.Error(err))
		} else {
			e.Metrics.IncrementNotifications("published")
			rec.EditID = msg.ID
		}
	}

	if e.Audit != nil {
		if err := e.Audit.RecordEdit(ctx, rec); err != nil {
			e.Metrics.IncrementAuditWrites("failed")
			logger.Warn("failed to record param edit", zap.Error(err))
		} else {
			e.Metrics.IncrementAuditWrites("recorded")
		}
	}
}
