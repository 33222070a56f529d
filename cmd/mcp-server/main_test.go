package main

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/patrickwarner/bidderadmin/internal/analytics"
	"github.com/patrickwarner/bidderadmin/internal/api"
	"github.com/patrickwarner/bidderadmin/internal/db"
	"github.com/patrickwarner/bidderadmin/internal/models"
	"github.com/patrickwarner/bidderadmin/internal/observability"
	"github.com/patrickwarner/bidderadmin/internal/pages"
)

func newTestTools(t *testing.T) (*AdminTools, *models.InMemoryConfigStore, *analytics.MockAnalytics) {
	t.Helper()
	store := models.NewTestConfigStore()
	audit := analytics.NewMockAnalytics()
	srv := api.NewServer(zap.NewNop(), store, nil, audit, observability.NewMockMetricsRegistry(), pages.Defaults{
		Geo:              "uk",
		Device:           "mobile",
		PageTypePriority: []string{"index", "article"},
	})
	return &AdminTools{srv: srv, logger: zap.NewNop()}, store, audit
}

func TestListBiddersTool(t *testing.T) {
	tools, _, _ := newTestTools(t)

	_, out, err := tools.ListBidders(context.Background(), nil, ListBiddersInput{})
	require.NoError(t, err)
	assert.Equal(t, []string{"appnexus", "rubicon"}, out.Bidders)

	_, out, err = tools.ListBidders(context.Background(), nil, ListBiddersInput{Geo: "us"})
	require.NoError(t, err)
	assert.Equal(t, []string{"appnexus"}, out.Bidders)

	_, out, err = tools.ListBidders(context.Background(), nil, ListBiddersInput{Search: "zzz"})
	require.NoError(t, err)
	assert.NotNil(t, out.Bidders)
	assert.Empty(t, out.Bidders)
}

func TestGetBidderMatrixTool(t *testing.T) {
	tools, _, _ := newTestTools(t)

	_, out, err := tools.GetBidderMatrix(context.Background(), nil, GetBidderMatrixInput{Bidder: "appnexus"})
	require.NoError(t, err)
	assert.Equal(t, "uk", out.Geo)
	assert.Equal(t, "mobile", out.Device)
	assert.True(t, out.HasData)
	assert.Equal(t, []string{"mpu", "top"}, out.Matrix.RowKeys)
	require.Len(t, out.Matrix.Rows, 2)
	assert.Equal(t, "placementId: 123", out.Matrix.Rows[1].Cells[0].Text)

	_, _, err = tools.GetBidderMatrix(context.Background(), nil, GetBidderMatrixInput{Bidder: " "})
	assert.ErrorIs(t, err, api.ErrBlankBidder)
}

func TestProfileTools(t *testing.T) {
	tools, _, _ := newTestTools(t)

	_, list, err := tools.ListProfiles(context.Background(), nil, ListProfilesInput{Device: "desktop"})
	require.NoError(t, err)
	require.Len(t, list.Profiles, 1)
	assert.Equal(t, "prod | us | desktop | article", list.Profiles[0].Label)

	_, m, err := tools.GetProfileMatrix(context.Background(), nil, GetProfileMatrixInput{ProfileID: 1})
	require.NoError(t, err)
	assert.Equal(t, "UK mobile index", m.Profile.Label)
	assert.Len(t, m.Slots, 2)
	assert.Equal(t, []string{"appnexus", "rubicon"}, m.Matrix.RowKeys)
	assert.Equal(t, []string{"mpu", "top"}, m.Matrix.ColKeys)
	// rubicon has no mpu mapping
	assert.False(t, m.Matrix.Rows[1].Cells[0].Present)

	_, _, err = tools.GetProfileMatrix(context.Background(), nil, GetProfileMatrixInput{ProfileID: 42})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUpdateCellParamsTool(t *testing.T) {
	tools, store, audit := newTestTools(t)
	ctx := context.Background()

	_, out, err := tools.UpdateCellParams(ctx, nil, UpdateCellParamsInput{BidderConfigID: 102, Text: "accountId: 9\nmediatypes: video"})
	require.NoError(t, err)
	assert.Equal(t, db.ActionUpdate, out.Action)
	assert.Equal(t, "accountId: 9", out.Text)

	_, out, err = tools.UpdateCellParams(ctx, nil, UpdateCellParamsInput{BidderConfigID: 102, Text: ""})
	require.NoError(t, err)
	assert.Equal(t, db.ActionDelete, out.Action)
	_, err = store.GetBidderConfig(ctx, 102)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Len(t, audit.Edits(), 2)
}

func TestServerListsTools(t *testing.T) {
	ctx := context.Background()
	tools, _, _ := newTestTools(t)
	server := newMCPServer(tools)

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer func() { _ = ss.Close() }()

	client := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "1.0.0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer func() { _ = cs.Close() }()

	res, err := cs.ListTools(ctx, nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"list_bidders", "get_bidder_matrix", "list_profiles", "get_profile_matrix", "update_cell_params",
	}, names)

	call, err := cs.CallTool(ctx, &mcp.CallToolParams{
		Name:      "get_profile_matrix",
		Arguments: map[string]any{"profile_id": 2},
	})
	require.NoError(t, err)
	assert.False(t, call.IsError)
}
