package main

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrickwarner/bidderadmin/internal/models"
	"github.com/patrickwarner/bidderadmin/internal/params"
)

func TestSplitCodes(t *testing.T) {
	assert.Equal(t, []string{"uk", "us"}, splitCodes(" uk, ,us,"))
	assert.Nil(t, splitCodes(""))
}

func TestDemoProfiles(t *testing.T) {
	ps := demoProfiles([]string{"prod", "staging"}, []string{"uk"}, []string{"mobile", "desktop"}, []string{"index", "article"})
	require.Len(t, ps, 8)
	assert.Equal(t, "uk mobile homepage", ps[0].Name)
	assert.Equal(t, "", ps[1].Name)
	assert.Equal(t, "staging | uk | desktop | article", ps[7].Label())
}

func TestDemoParams(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	p := models.Profile{Geo: "uk", Device: "mobile", PageType: "index"}
	for i := 0; i < 50; i++ {
		got := demoParams(r, "rubicon", p, "top")
		if got.State() == params.StateEmpty {
			continue
		}
		require.Equal(t, params.StatePresent, got.State())
		v, ok := got.Mapping().Get("accountId")
		require.True(t, ok)
		assert.Equal(t, params.KindInt, v.Kind())
		assert.Equal(t, 3, got.Mapping().Len())
	}
}
