package models

import (
	"fmt"

	"github.com/patrickwarner/bidderadmin/internal/params"
)

// Profile is a named combination of environment, geo, device and page type.
// Slots are configured per profile.
type Profile struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Environment string `json:"environment"`
	Geo         string `json:"geo"`
	Device      string `json:"device"`
	PageType    string `json:"page_type"`
}

// Label is the profile name, or its dimension codes when it has none.
func (p Profile) Label() string {
	if p.Name != "" {
		return p.Name
	}
	return fmt.Sprintf("%s | %s | %s | %s", p.Environment, p.Geo, p.Device, p.PageType)
}

// SlotConfig places an ad slot within a profile.
type SlotConfig struct {
	ID        int    `json:"slot_config_id"`
	ProfileID int    `json:"profile_id"`
	SlotCode  string `json:"slot_code"`
}

// BidderConfig is one row of the bidder_configs_enriched view: the params a
// bidder uses for a slot within a profile, flattened with the profile's
// dimension codes.
type BidderConfig struct {
	ID           int           `json:"bidder_config_id"`
	Bidder       string        `json:"bidder"`
	Params       params.Params `json:"params"`
	SlotConfigID int           `json:"slot_config_id"`
	Slot         string        `json:"slot"`
	ProfileID    int           `json:"profile_id"`
	ProfileName  string        `json:"profile_name"`
	Environment  string        `json:"environment"`
	Geo          string        `json:"geo"`
	Device       string        `json:"device"`
	PageType     string        `json:"page_type"`
}

// BidderConfigFilter narrows ListBidderConfigs. Zero fields impose no constraint.
type BidderConfigFilter struct {
	Bidder    string
	ProfileID int
}

// Matches reports whether c passes the filter.
func (f BidderConfigFilter) Matches(c BidderConfig) bool {
	if f.Bidder != "" && c.Bidder != f.Bidder {
		return false
	}
	if f.ProfileID != 0 && c.ProfileID != f.ProfileID {
		return false
	}
	return true
}
