package main

import (
	"fmt"
	"math/rand"

	"github.com/patrickwarner/bidderadmin/internal/models"
	"github.com/patrickwarner/bidderadmin/internal/params"
)

// demoProfiles returns one profile per combination of the dimension codes.
// Production index pages get a readable name; the rest stay unnamed.
func demoProfiles(envs, geos, devices, pageTypes []string) []models.Profile {
	var out []models.Profile
	for _, env := range envs {
		for _, geo := range geos {
			for _, device := range devices {
				for _, pt := range pageTypes {
					p := models.Profile{Environment: env, Geo: geo, Device: device, PageType: pt}
					if env == "prod" && pt == "index" {
						p.Name = fmt.Sprintf("%s %s homepage", geo, device)
					}
					out = append(out, p)
				}
			}
		}
	}
	return out
}

// demoParams builds bidder-shaped params for a slot.
func demoParams(r *rand.Rand, bidder string, p models.Profile, slot string) params.Params {
	var m params.Mapping
	switch bidder {
	case "appnexus":
		m.Set("placementId", params.Int(int64(10000000+r.Intn(9000000))))
	case "rubicon":
		m.Set("accountId", params.Int(int64(1000+r.Intn(9000))))
		m.Set("siteId", params.Int(int64(100000+r.Intn(900000))))
		m.Set("zoneId", params.Int(int64(1000000+r.Intn(9000000))))
	case "ix":
		m.Set("siteId", params.String(fmt.Sprintf("%d", 100000+r.Intn(900000))))
	case "pubmatic":
		m.Set("publisherId", params.String(fmt.Sprintf("%d", 150000+r.Intn(10000))))
		m.Set("adSlot", params.String(fmt.Sprintf("%s_%s_%s@300x250", p.Geo, p.PageType, slot)))
	default:
		m.Set("placement", params.String(fmt.Sprintf("%s-%s-%s-%s", p.Geo, p.Device, p.PageType, slot)))
	}
	// a few mappings are left as placeholders to be filled in later
	if r.Intn(20) == 0 {
		return params.Empty()
	}
	return params.FromMapping(m)
}
