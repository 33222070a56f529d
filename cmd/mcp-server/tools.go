package main

import (
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/patrickwarner/bidderadmin/internal/api"
	"github.com/patrickwarner/bidderadmin/internal/models"
	"github.com/patrickwarner/bidderadmin/internal/pages"
	"github.com/patrickwarner/bidderadmin/internal/params"
)

type ListBiddersInput struct {
	Search   string `json:"search,omitempty"`
	Geo      string `json:"geo,omitempty"`
	Device   string `json:"device,omitempty"`
	PageType string `json:"page_type,omitempty"`
}

type ListBiddersOutput struct {
	Bidders []string           `json:"bidders"`
	Filters []pages.FilterView `json:"filters"`
}

type GetBidderMatrixInput struct {
	Bidder string `json:"bidder"`
	Geo    string `json:"geo,omitempty"`
	Device string `json:"device,omitempty"`
}

type GetBidderMatrixOutput struct {
	Bidder  string `json:"bidder"`
	Geo     string `json:"geo"`
	Device  string `json:"device"`
	HasData bool   `json:"has_data"`
	Matrix  Matrix `json:"matrix"`
}

type ListProfilesInput struct {
	Environment string `json:"env,omitempty"`
	Geo         string `json:"geo,omitempty"`
	Device      string `json:"device,omitempty"`
	PageType    string `json:"page_type,omitempty"`
}

type ListProfilesOutput struct {
	Profiles []ProfileSummary `json:"profiles"`
}

// ProfileSummary is a profile with its display label.
type ProfileSummary struct {
	ID          int    `json:"id"`
	Label       string `json:"label"`
	Environment string `json:"environment"`
	Geo         string `json:"geo"`
	Device      string `json:"device"`
	PageType    string `json:"page_type"`
}

type GetProfileMatrixInput struct {
	ProfileID int `json:"profile_id"`
}

type GetProfileMatrixOutput struct {
	Profile ProfileSummary      `json:"profile"`
	Slots   []models.SlotConfig `json:"slots"`
	Matrix  Matrix              `json:"matrix"`
}

type UpdateCellParamsInput struct {
	BidderConfigID int    `json:"bidder_config_id"`
	Text           string `json:"text"`
}

type UpdateCellParamsOutput struct {
	Action         string `json:"action"`
	BidderConfigID int    `json:"bidder_config_id"`
	Text           string `json:"text"`
}

// Matrix is a pivoted view whose cells carry only their editable text.
type Matrix struct {
	RowKeys []string    `json:"row_keys"`
	ColKeys []string    `json:"col_keys"`
	Rows    []MatrixRow `json:"rows"`
}

type MatrixRow struct {
	Key   string `json:"key"`
	Cells []Cell `json:"cells"`
}

type Cell struct {
	Present        bool   `json:"present"`
	BidderConfigID int    `json:"bidder_config_id,omitempty"`
	Text           string `json:"text"`
}

func toMatrix(v pages.MatrixView) Matrix {
	m := Matrix{
		RowKeys: append([]string{}, v.RowKeys...),
		ColKeys: append([]string{}, v.ColKeys...),
		Rows:    make([]MatrixRow, 0, len(v.Rows)),
	}
	for _, r := range v.Rows {
		cells := make([]Cell, 0, len(r.Cells))
		for _, c := range r.Cells {
			cells = append(cells, Cell{Present: c.Present, BidderConfigID: c.BidderConfigID, Text: c.Text})
		}
		m.Rows = append(m.Rows, MatrixRow{Key: r.Key, Cells: cells})
	}
	return m
}

func summarize(p models.Profile) ProfileSummary {
	return ProfileSummary{
		ID:          p.ID,
		Label:       p.Label(),
		Environment: p.Environment,
		Geo:         p.Geo,
		Device:      p.Device,
		PageType:    p.PageType,
	}
}

// AdminTools exposes the bidder admin browse and edit operations as MCP tools.
type AdminTools struct {
	srv    *api.Server
	logger *zap.Logger
}

func (t *AdminTools) ListBidders(ctx context.Context, _ *mcp.CallToolRequest, in ListBiddersInput) (*mcp.CallToolResult, ListBiddersOutput, error) {
	l, err := t.srv.LoadBidderList(ctx, in.Search, api.Selection{
		pages.DimGeo:      in.Geo,
		pages.DimDevice:   in.Device,
		pages.DimPageType: in.PageType,
	})
	if err != nil {
		return nil, ListBiddersOutput{}, err
	}
	bidders := l.Bidders()
	if bidders == nil {
		bidders = []string{}
	}
	return nil, ListBiddersOutput{Bidders: bidders, Filters: l.Filters()}, nil
}

func (t *AdminTools) GetBidderMatrix(ctx context.Context, _ *mcp.CallToolRequest, in GetBidderMatrixInput) (*mcp.CallToolResult, GetBidderMatrixOutput, error) {
	bidder := strings.TrimSpace(in.Bidder)
	if bidder == "" {
		return nil, GetBidderMatrixOutput{}, api.ErrBlankBidder
	}
	m, err := t.srv.LoadBidderMatrix(ctx, bidder, in.Geo, in.Device)
	if err != nil {
		return nil, GetBidderMatrixOutput{}, err
	}
	return nil, GetBidderMatrixOutput{
		Bidder:  bidder,
		Geo:     m.Active(pages.DimGeo),
		Device:  m.Active(pages.DimDevice),
		HasData: m.HasData(),
		Matrix:  toMatrix(m.Matrix()),
	}, nil
}

func (t *AdminTools) ListProfiles(ctx context.Context, _ *mcp.CallToolRequest, in ListProfilesInput) (*mcp.CallToolResult, ListProfilesOutput, error) {
	l, err := t.srv.LoadProfileList(ctx, api.Selection{
		pages.DimEnvironment: in.Environment,
		pages.DimGeo:         in.Geo,
		pages.DimDevice:      in.Device,
		pages.DimPageType:    in.PageType,
	})
	if err != nil {
		return nil, ListProfilesOutput{}, err
	}
	out := ListProfilesOutput{Profiles: []ProfileSummary{}}
	for _, p := range l.Visible() {
		out.Profiles = append(out.Profiles, summarize(p))
	}
	return nil, out, nil
}

func (t *AdminTools) GetProfileMatrix(ctx context.Context, _ *mcp.CallToolRequest, in GetProfileMatrixInput) (*mcp.CallToolResult, GetProfileMatrixOutput, error) {
	m, err := t.srv.LoadProfileMatrix(ctx, in.ProfileID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			t.logger.Info("profile not found", zap.Int("profile_id", in.ProfileID))
		}
		return nil, GetProfileMatrixOutput{}, err
	}
	slots := m.Slots
	if slots == nil {
		slots = []models.SlotConfig{}
	}
	return nil, GetProfileMatrixOutput{
		Profile: summarize(m.Profile),
		Slots:   slots,
		Matrix:  toMatrix(m.Matrix()),
	}, nil
}

// UpdateCellParams saves cell text on a bidder config. Blank text deletes it.
func (t *AdminTools) UpdateCellParams(ctx context.Context, _ *mcp.CallToolRequest, in UpdateCellParamsInput) (*mcp.CallToolResult, UpdateCellParamsOutput, error) {
	res, err := t.srv.Editor.SaveCellText(ctx, in.BidderConfigID, in.Text)
	if err != nil {
		return nil, UpdateCellParamsOutput{}, err
	}
	out := UpdateCellParamsOutput{Action: res.Action, BidderConfigID: in.BidderConfigID}
	if res.Config != nil {
		out.Text = params.Encode(res.Config.Params)
	}
	return nil, out, nil
}

func stringProp(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": desc}
}

// register adds every tool to server.
func (t *AdminTools) register(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_bidders",
		Description: "List bidder codes that have configurations, optionally filtered by search text, geo, device and page type",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"search":    stringProp("Case-insensitive substring of the bidder code"),
				"geo":       stringProp("Geo code filter (optional)"),
				"device":    stringProp("Device code filter (optional)"),
				"page_type": stringProp("Page type code filter (optional)"),
			},
		},
	}, t.ListBidders)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_bidder_matrix",
		Description: "Show a bidder's params as a slot by page type matrix for one geo and device",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"bidder": stringProp("Bidder code"),
				"geo":    stringProp("Geo code (optional, defaults to the configured geo when available)"),
				"device": stringProp("Device code (optional, defaults to the configured device when available)"),
			},
			"required": []string{"bidder"},
		},
	}, t.GetBidderMatrix)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_profiles",
		Description: "List profiles, optionally filtered by env, geo, device and page type",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"env":       stringProp("Environment code filter (optional)"),
				"geo":       stringProp("Geo code filter (optional)"),
				"device":    stringProp("Device code filter (optional)"),
				"page_type": stringProp("Page type code filter (optional)"),
			},
		},
	}, t.ListProfiles)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_profile_matrix",
		Description: "Show a profile's params as a bidder by slot matrix",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"profile_id": map[string]interface{}{
					"type":        "integer",
					"description": "Profile ID",
				},
			},
			"required": []string{"profile_id"},
		},
	}, t.GetProfileMatrix)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_cell_params",
		Description: "Replace a bidder config's params with \"key: value\" lines. Blank text deletes the mapping; mediatypes lines are ignored",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"bidder_config_id": map[string]interface{}{
					"type":        "integer",
					"description": "Bidder config ID",
				},
				"text": stringProp("Cell text, one key: value pair per line"),
			},
			"required": []string{"bidder_config_id", "text"},
		},
	}, t.UpdateCellParams)
}
