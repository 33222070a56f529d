package models

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/patrickwarner/bidderadmin/internal/params"
)

// ErrNotFound is returned when a profile or bidder config does not exist.
var ErrNotFound = errors.New("entity not found")

// ConfigStore is the data-store collaborator behind every page. Writes are
// last-write-wins; no concurrency check is made against other editors.
type ConfigStore interface {
	ListBidderConfigs(ctx context.Context, f BidderConfigFilter) ([]BidderConfig, error)
	GetBidderConfig(ctx context.Context, id int) (*BidderConfig, error)
	ListProfiles(ctx context.Context) ([]Profile, error)
	GetProfile(ctx context.Context, id int) (*Profile, error)
	ListProfileSlots(ctx context.Context, profileID int) ([]SlotConfig, error)

	// SaveParams replaces the params of a bidder config. Absent params
	// delete the row.
	SaveParams(ctx context.Context, bidderConfigID int, p params.Params) error
	// CreateBidderConfig adds a mapping for an absent cell and returns its id.
	// Absent params create nothing and return 0.
	CreateBidderConfig(ctx context.Context, bidder string, slotConfigID int, p params.Params) (int, error)
}

// InMemoryConfigStore implements ConfigStore over plain slices.
type InMemoryConfigStore struct {
	mu       sync.RWMutex
	profiles []Profile
	slots    []SlotConfig
	configs  []BidderConfig
	nextID   int
}

// NewInMemoryConfigStore creates an empty store.
func NewInMemoryConfigStore() *InMemoryConfigStore {
	return &InMemoryConfigStore{nextID: 1}
}

// SetProfiles replaces all profiles.
func (s *InMemoryConfigStore) SetProfiles(ps []Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles = append([]Profile(nil), ps...)
}

// SetSlots replaces all slot configs.
func (s *InMemoryConfigStore) SetSlots(slots []SlotConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots = append([]SlotConfig(nil), slots...)
}

// SetBidderConfigs replaces all bidder configs. Profile and slot fields are
// taken as given; rows without an ID are numbered.
func (s *InMemoryConfigStore) SetBidderConfigs(cs []BidderConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs = make([]BidderConfig, len(cs))
	for i, c := range cs {
		if c.ID == 0 {
			c.ID = s.nextID
		}
		if c.ID >= s.nextID {
			s.nextID = c.ID + 1
		}
		s.configs[i] = c
	}
}

// ListBidderConfigs returns matching rows ordered by profile id, then slot.
func (s *InMemoryConfigStore) ListBidderConfigs(_ context.Context, f BidderConfigFilter) ([]BidderConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []BidderConfig
	for _, c := range s.configs {
		if f.Matches(c) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ProfileID != out[j].ProfileID {
			return out[i].ProfileID < out[j].ProfileID
		}
		return out[i].Slot < out[j].Slot
	})
	return out, nil
}

// GetBidderConfig returns a copy of the row with the given id.
func (s *InMemoryConfigStore) GetBidderConfig(_ context.Context, id int) (*BidderConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.configs {
		if c.ID == id {
			cp := c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// ListProfiles returns all profiles ordered by id.
func (s *InMemoryConfigStore) ListProfiles(_ context.Context) ([]Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]Profile(nil), s.profiles...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetProfile returns the profile with the given id.
func (s *InMemoryConfigStore) GetProfile(_ context.Context, id int) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.profiles {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// ListProfileSlots returns the profile's slot configs sorted by slot code.
func (s *InMemoryConfigStore) ListProfileSlots(_ context.Context, profileID int) ([]SlotConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[int]bool)
	var out []SlotConfig
	for _, sc := range s.slots {
		if sc.ProfileID != profileID || seen[sc.ID] {
			continue
		}
		seen[sc.ID] = true
		out = append(out, sc)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SlotCode < out[j].SlotCode })
	return out, nil
}

// SaveParams updates or, for Absent params, deletes a bidder config.
func (s *InMemoryConfigStore) SaveParams(_ context.Context, id int, p params.Params) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.configs {
		if c.ID != id {
			continue
		}
		if p.IsAbsent() {
			s.configs = append(s.configs[:i:i], s.configs[i+1:]...)
			return nil
		}
		s.configs[i].Params = p
		return nil
	}
	return ErrNotFound
}

// CreateBidderConfig inserts a config for a slot config, copying the
// profile's dimension codes onto the row the way the enriched view does.
func (s *InMemoryConfigStore) CreateBidderConfig(_ context.Context, bidder string, slotConfigID int, p params.Params) (int, error) {
	if p.IsAbsent() {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var slot *SlotConfig
	for i := range s.slots {
		if s.slots[i].ID == slotConfigID {
			slot = &s.slots[i]
			break
		}
	}
	if slot == nil {
		return 0, ErrNotFound
	}
	for _, c := range s.configs {
		if c.Bidder == bidder && c.SlotConfigID == slotConfigID {
			return 0, ErrDuplicate
		}
	}

	row := BidderConfig{
		ID:           s.nextID,
		Bidder:       bidder,
		Params:       p,
		SlotConfigID: slotConfigID,
		Slot:         slot.SlotCode,
		ProfileID:    slot.ProfileID,
	}
	for _, prof := range s.profiles {
		if prof.ID == slot.ProfileID {
			row.ProfileName = prof.Name
			row.Environment = prof.Environment
			row.Geo = prof.Geo
			row.Device = prof.Device
			row.PageType = prof.PageType
			break
		}
	}
	s.nextID++
	s.configs = append(s.configs, row)
	return row.ID, nil
}

// ErrDuplicate is returned when a bidder already has a config for a slot config.
var ErrDuplicate = errors.New("bidder config already exists")
