package api

import (
	"context"
	"errors"
	"html/template"

	"go.uber.org/zap"

	"github.com/patrickwarner/bidderadmin/internal/analytics"
	"github.com/patrickwarner/bidderadmin/internal/models"
	"github.com/patrickwarner/bidderadmin/internal/observability"
	"github.com/patrickwarner/bidderadmin/internal/pages"
)

// Server groups dependencies for HTTP handlers.
type Server struct {
	Logger   *zap.Logger
	Store    models.ConfigStore
	Editor   *Editor
	Metrics  observability.MetricsRegistry
	Defaults pages.Defaults
	views    map[string]*template.Template
}

// NewServer constructs a Server. notifier and audit may be nil.
func NewServer(logger *zap.Logger, store models.ConfigStore, notifier Notifier, audit analytics.EditRecorder, metrics observability.MetricsRegistry, defaults pages.Defaults) *Server {
	return &Server{
		Logger: logger,
		Store:  store,
		Editor: &Editor{
			Store:    store,
			Notifier: notifier,
			Audit:    audit,
			Metrics:  metrics,
			Logger:   logger,
		},
		Metrics:  metrics,
		Defaults: defaults,
		views:    parseViews(),
	}
}

// Selection is the raw filter query of a list page, keyed by dimension.
type Selection map[string]string

// LoadProfileList fetches profiles and applies the selection.
func (s *Server) LoadProfileList(ctx context.Context, sel Selection) (*pages.ProfileList, error) {
	rows, err := s.Store.ListProfiles(ctx)
	if err != nil {
		s.Metrics.IncrementStoreErrors("list_profiles")
		return nil, err
	}
	l := pages.NewProfileList()
	l.SetRows(rows)
	for name, v := range sel {
		l.Select(name, v)
	}
	return l, nil
}

// LoadProfileMatrix fetches a profile, its slots and its bidder configs.
func (s *Server) LoadProfileMatrix(ctx context.Context, profileID int) (*pages.ProfileMatrix, error) {
	p, err := s.Store.GetProfile(ctx, profileID)
	if err != nil {
		return nil, s.readError("get_profile", err)
	}
	slots, err := s.Store.ListProfileSlots(ctx, profileID)
	if err != nil {
		return nil, s.readError("list_profile_slots", err)
	}
	rows, err := s.Store.ListBidderConfigs(ctx, models.BidderConfigFilter{ProfileID: profileID})
	if err != nil {
		return nil, s.readError("list_bidder_configs", err)
	}
	m := pages.NewProfileMatrix(*p, slots)
	m.SetRows(rows)
	return m, nil
}

// LoadBidderList fetches every bidder config and applies search and selection.
func (s *Server) LoadBidderList(ctx context.Context, search string, sel Selection) (*pages.BidderList, error) {
	rows, err := s.Store.ListBidderConfigs(ctx, models.BidderConfigFilter{})
	if err != nil {
		return nil, s.readError("list_bidder_configs", err)
	}
	l := pages.NewBidderList()
	l.SetRows(rows)
	l.SetSearch(search)
	for name, v := range sel {
		l.Select(name, v)
	}
	return l, nil
}

// LoadBidderMatrix fetches a bidder's configs and resolves geo and device.
// Empty geo or device keep the configured defaults.
func (s *Server) LoadBidderMatrix(ctx context.Context, bidder, geo, device string) (*pages.BidderMatrix, error) {
	rows, err := s.Store.ListBidderConfigs(ctx, models.BidderConfigFilter{Bidder: bidder})
	if err != nil {
		return nil, s.readError("list_bidder_configs", err)
	}
	m := pages.NewBidderMatrix(bidder, s.Defaults)
	m.SetRows(rows)
	if geo != "" {
		m.Select(pages.DimGeo, geo)
	}
	if device != "" {
		m.Select(pages.DimDevice, device)
	}
	return m, nil
}

func (s *Server) readError(op string, err error) error {
	if !errors.Is(err, models.ErrNotFound) {
		s.Metrics.IncrementStoreErrors(op)
	}
	return err
}

// checkProfileSlot reports ErrNotFound unless slotConfigID belongs to the profile.
func (s *Server) checkProfileSlot(ctx context.Context, profileID, slotConfigID int) error {
	slots, err := s.Store.ListProfileSlots(ctx, profileID)
	if err != nil {
		return s.readError("list_profile_slots", err)
	}
	for _, sc := range slots {
		if sc.ID == slotConfigID {
			return nil
		}
	}
	return models.ErrNotFound
}
