package models

import "github.com/patrickwarner/bidderadmin/internal/params"

// NewTestConfigStore creates an in-memory store seeded with two profiles,
// their slots and a handful of bidder configs.
//
// Profile 1 is prod | uk | mobile | index with slots top and mpu.
// Profile 2 is prod | us | desktop | article with slot top.
func NewTestConfigStore() *InMemoryConfigStore {
	s := NewInMemoryConfigStore()
	s.SetProfiles([]Profile{
		{ID: 1, Name: "UK mobile index", Environment: "prod", Geo: "uk", Device: "mobile", PageType: "index"},
		{ID: 2, Environment: "prod", Geo: "us", Device: "desktop", PageType: "article"},
	})
	s.SetSlots([]SlotConfig{
		{ID: 10, ProfileID: 1, SlotCode: "top"},
		{ID: 11, ProfileID: 1, SlotCode: "mpu"},
		{ID: 20, ProfileID: 2, SlotCode: "top"},
	})

	row := func(id int, bidder string, slot SlotConfig, p params.Params) BidderConfig {
		c := BidderConfig{ID: id, Bidder: bidder, Params: p, SlotConfigID: slot.ID, Slot: slot.SlotCode, ProfileID: slot.ProfileID}
		for _, prof := range s.profiles {
			if prof.ID == slot.ProfileID {
				c.ProfileName = prof.Name
				c.Environment = prof.Environment
				c.Geo = prof.Geo
				c.Device = prof.Device
				c.PageType = prof.PageType
			}
		}
		return c
	}
	top1, mpu1, top2 := s.slots[0], s.slots[1], s.slots[2]
	s.SetBidderConfigs([]BidderConfig{
		row(100, "appnexus", top1, params.FromMapping(params.NewMapping(params.Entry{Key: "placementId", Value: params.Int(123)}))),
		row(101, "appnexus", mpu1, params.Empty()),
		row(102, "rubicon", top1, params.FromMapping(params.NewMapping(
			params.Entry{Key: "accountId", Value: params.Int(7)},
			params.Entry{Key: "zone", Value: params.String("top-a")},
		))),
		row(103, "appnexus", top2, params.FromMapping(params.NewMapping(params.Entry{Key: "placementId", Value: params.Int(456)}))),
	})
	return s
}
