package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/patrickwarner/bidderadmin/internal/middleware"
	"github.com/patrickwarner/bidderadmin/internal/models"
	"github.com/patrickwarner/bidderadmin/internal/pages"
	"github.com/patrickwarner/bidderadmin/internal/params"
)

// maxParamsBody bounds the cell text accepted by the JSON API.
const maxParamsBody = 64 << 10

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrBlankBidder):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) failJSON(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		middleware.LoggerFromRequest(r, s.Logger).Error(msg, zap.Error(err))
	}
	writeError(w, status, err.Error())
}

// BidderConfigView is a bidder config with its params rendered as cell text.
type BidderConfigView struct {
	models.BidderConfig
	Text string `json:"text"`
}

func newBidderConfigView(c models.BidderConfig) BidderConfigView {
	return BidderConfigView{BidderConfig: c, Text: params.Encode(c.Params)}
}

// ListProfilesAPI returns filtered profiles and the filter state.
func (s *Server) ListProfilesAPI(w http.ResponseWriter, r *http.Request) {
	l, err := s.LoadProfileList(r.Context(), selection(r, pages.DimEnvironment, pages.DimGeo, pages.DimDevice, pages.DimPageType))
	if err != nil {
		s.failJSON(w, r, "load profiles", err)
		return
	}
	profiles := l.Visible()
	if profiles == nil {
		profiles = []models.Profile{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"filters":  l.Filters(),
		"profiles": profiles,
	})
}

// ProfileMatrixAPI returns the bidder x slot matrix of a profile.
func (s *Server) ProfileMatrixAPI(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, msgInvalidProfileID)
		return
	}
	m, err := s.LoadProfileMatrix(r.Context(), id)
	if err != nil {
		s.failJSON(w, r, "load profile matrix", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"profile": m.Profile,
		"label":   m.Profile.Label(),
		"slots":   m.Slots,
		"matrix":  m.Matrix(),
	})
}

// ListBiddersAPI returns bidder codes matching search and filters.
func (s *Server) ListBiddersAPI(w http.ResponseWriter, r *http.Request) {
	l, err := s.LoadBidderList(r.Context(), r.URL.Query().Get("q"), selection(r, pages.DimGeo, pages.DimDevice, pages.DimPageType))
	if err != nil {
		s.failJSON(w, r, "load bidders", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"search":  l.Search(),
		"filters": l.Filters(),
		"bidders": l.Bidders(),
	})
}

// BidderMatrixAPI returns the slot x page type matrix of a bidder.
func (s *Server) BidderMatrixAPI(w http.ResponseWriter, r *http.Request) {
	bidder := mux.Vars(r)["code"]
	q := r.URL.Query()
	m, err := s.LoadBidderMatrix(r.Context(), bidder, q.Get(pages.DimGeo), q.Get(pages.DimDevice))
	if err != nil {
		s.failJSON(w, r, "load bidder matrix", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"bidder":   bidder,
		"geo":      m.Active(pages.DimGeo),
		"device":   m.Active(pages.DimDevice),
		"filters":  m.Filters(),
		"has_data": m.HasData(),
		"matrix":   m.Matrix(),
	})
}

// GetBidderConfigAPI returns one bidder config with its cell text.
func (s *Server) GetBidderConfigAPI(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidConfigID)
		return
	}
	c, err := s.Store.GetBidderConfig(r.Context(), id)
	if err != nil {
		s.failJSON(w, r, "get bidder config", s.readError("get_bidder_config", err))
		return
	}
	writeJSON(w, http.StatusOK, newBidderConfigView(*c))
}

// SaveParamsAPI saves the request body as cell text. Blank text deletes the
// mapping and answers 204.
func (s *Server) SaveParamsAPI(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidConfigID)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxParamsBody+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	if len(body) > maxParamsBody {
		writeError(w, http.StatusRequestEntityTooLarge, "params text too large")
		return
	}

	res, err := s.Editor.SaveCellText(r.Context(), id, string(body))
	if err != nil {
		s.failJSON(w, r, "save params", err)
		return
	}
	if res.Config == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, newBidderConfigView(*res.Config))
}

type createCellRequest struct {
	Bidder       string `json:"bidder"`
	SlotConfigID int    `json:"slot_config_id"`
	Text         string `json:"text"`
}

// CreateCellAPI maps a bidder to a slot config. Blank text creates nothing
// and answers 204.
func (s *Server) CreateCellAPI(w http.ResponseWriter, r *http.Request) {
	profileID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidProfileID)
		return
	}
	var req createCellRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxParamsBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := s.checkProfileSlot(r.Context(), profileID, req.SlotConfigID); err != nil {
		s.failJSON(w, r, "check profile slot", err)
		return
	}
	res, err := s.Editor.CreateCell(r.Context(), req.Bidder, req.SlotConfigID, req.Text)
	if err != nil {
		s.failJSON(w, r, "create bidder config", err)
		return
	}
	if res.Config == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusCreated, newBidderConfigView(*res.Config))
}
