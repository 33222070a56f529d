package api

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/patrickwarner/bidderadmin/internal/middleware"
	"github.com/patrickwarner/bidderadmin/internal/models"
	"github.com/patrickwarner/bidderadmin/internal/pages"
)

const (
	msgInvalidProfileID = "Invalid profile id"
	msgInvalidConfigID  = "Invalid bidder config id"
	msgInvalidSlotID    = "Invalid slot config id"
)

type page struct {
	Title string
	Error string
}

type profilesPage struct {
	page
	Filters  []pages.FilterView
	Profiles []models.Profile
}

type profilePage struct {
	page
	Matrix  *pages.ProfileMatrix
	View    pages.MatrixView
	SlotIDs map[string]int
}

type biddersPage struct {
	page
	Search  string
	Filters []pages.FilterView
	Bidders []string
}

type bidderPage struct {
	page
	Bidder   string
	HasRows  bool
	Filters  []pages.FilterView
	Geo      string
	Device   string
	View     pages.MatrixView
	ReturnTo string
}

func selection(r *http.Request, names ...string) Selection {
	q := r.URL.Query()
	sel := make(Selection, len(names))
	for _, n := range names {
		if v := strings.TrimSpace(q.Get(n)); v != "" {
			sel[n] = v
		}
	}
	return sel
}

// IndexHandler redirects to the profile list.
func (s *Server) IndexHandler(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/profiles", http.StatusFound)
}

// ProfilesPage lists profiles filtered by env, geo, device and page type.
func (s *Server) ProfilesPage(w http.ResponseWriter, r *http.Request) {
	data := profilesPage{page: page{Title: "Profiles", Error: r.URL.Query().Get("error")}}
	l, err := s.LoadProfileList(r.Context(), selection(r, pages.DimEnvironment, pages.DimGeo, pages.DimDevice, pages.DimPageType))
	if err != nil {
		middleware.LoggerFromRequest(r, s.Logger).Error("load profiles", zap.Error(err))
		data.Error = err.Error()
		s.render(w, http.StatusInternalServerError, "profiles", data)
		return
	}
	data.Filters = l.Filters()
	data.Profiles = l.Visible()
	s.render(w, http.StatusOK, "profiles", data)
}

// ProfilePage shows the bidder x slot matrix of one profile.
func (s *Server) ProfilePage(w http.ResponseWriter, r *http.Request) {
	data := profilePage{page: page{Title: "Profile", Error: r.URL.Query().Get("error")}}
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		data.Error = msgInvalidProfileID
		s.render(w, http.StatusBadRequest, "profile", data)
		return
	}

	m, err := s.LoadProfileMatrix(r.Context(), id)
	if errors.Is(err, models.ErrNotFound) {
		data.Error = "Profile not found"
		s.render(w, http.StatusNotFound, "profile", data)
		return
	}
	if err != nil {
		middleware.LoggerFromRequest(r, s.Logger).Error("load profile matrix", zap.Int("profile_id", id), zap.Error(err))
		data.Error = err.Error()
		s.render(w, http.StatusInternalServerError, "profile", data)
		return
	}

	data.Title = m.Profile.Label()
	data.Matrix = m
	data.View = m.Matrix()
	data.SlotIDs = make(map[string]int, len(m.Slots))
	for _, sc := range m.Slots {
		data.SlotIDs[sc.SlotCode] = sc.ID
	}
	s.render(w, http.StatusOK, "profile", data)
}

// BiddersPage lists bidder codes matching the search and filters.
func (s *Server) BiddersPage(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("q")
	data := biddersPage{page: page{Title: "Bidders", Error: r.URL.Query().Get("error")}, Search: search}
	l, err := s.LoadBidderList(r.Context(), search, selection(r, pages.DimGeo, pages.DimDevice, pages.DimPageType))
	if err != nil {
		middleware.LoggerFromRequest(r, s.Logger).Error("load bidders", zap.Error(err))
		data.Error = err.Error()
		s.render(w, http.StatusInternalServerError, "bidders", data)
		return
	}
	data.Search = l.Search()
	data.Filters = l.Filters()
	data.Bidders = l.Bidders()
	s.render(w, http.StatusOK, "bidders", data)
}

// BidderPage shows the slot x page type matrix of one bidder for the
// resolved geo and device.
func (s *Server) BidderPage(w http.ResponseWriter, r *http.Request) {
	bidder := mux.Vars(r)["code"]
	q := r.URL.Query()
	data := bidderPage{page: page{Title: bidder, Error: q.Get("error")}, Bidder: bidder}

	m, err := s.LoadBidderMatrix(r.Context(), bidder, q.Get(pages.DimGeo), q.Get(pages.DimDevice))
	if err != nil {
		middleware.LoggerFromRequest(r, s.Logger).Error("load bidder matrix", zap.String("bidder", bidder), zap.Error(err))
		data.Error = err.Error()
		s.render(w, http.StatusInternalServerError, "bidder", data)
		return
	}

	data.Geo = m.Active(pages.DimGeo)
	data.Device = m.Active(pages.DimDevice)
	data.HasRows = data.Geo != "" || data.Device != ""
	data.Filters = m.Filters()
	data.View = m.Matrix()
	data.ReturnTo = (&url.URL{
		Path:     "/bidders/" + bidder,
		RawQuery: url.Values{pages.DimGeo: {data.Geo}, pages.DimDevice: {data.Device}}.Encode(),
	}).String()
	s.render(w, http.StatusOK, "bidder", data)
}

// SaveParamsForm handles the cell edit form: the text is decoded and saved,
// blank text deletes the mapping.
func (s *Server) SaveParamsForm(w http.ResponseWriter, r *http.Request) {
	returnTo := safeReturnTo(r.FormValue("return_to"), "/profiles")
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		redirectWithError(w, r, returnTo, msgInvalidConfigID)
		return
	}
	if _, err := s.Editor.SaveCellText(r.Context(), id, r.FormValue("text")); err != nil {
		middleware.LoggerFromRequest(r, s.Logger).Error("save params", zap.Int("bidder_config_id", id), zap.Error(err))
		redirectWithError(w, r, returnTo, err.Error())
		return
	}
	http.Redirect(w, r, returnTo, http.StatusSeeOther)
}

// CreateCellForm handles the form that maps a bidder to a slot of the profile.
func (s *Server) CreateCellForm(w http.ResponseWriter, r *http.Request) {
	profileID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		redirectWithError(w, r, "/profiles", msgInvalidProfileID)
		return
	}
	returnTo := "/profiles/" + strconv.Itoa(profileID)
	slotConfigID, err := strconv.Atoi(r.FormValue("slot_config_id"))
	if err != nil {
		redirectWithError(w, r, returnTo, msgInvalidSlotID)
		return
	}
	if err := s.checkProfileSlot(r.Context(), profileID, slotConfigID); err != nil {
		redirectWithError(w, r, returnTo, msgInvalidSlotID)
		return
	}
	if _, err := s.Editor.CreateCell(r.Context(), r.FormValue("bidder"), slotConfigID, r.FormValue("text")); err != nil {
		middleware.LoggerFromRequest(r, s.Logger).Error("create bidder config",
			zap.Int("profile_id", profileID), zap.Int("slot_config_id", slotConfigID), zap.Error(err))
		redirectWithError(w, r, returnTo, err.Error())
		return
	}
	http.Redirect(w, r, returnTo, http.StatusSeeOther)
}

// safeReturnTo accepts only same-site absolute paths.
func safeReturnTo(v, def string) string {
	if !strings.HasPrefix(v, "/") || strings.HasPrefix(v, "//") || strings.HasPrefix(v, "/\\") {
		return def
	}
	return v
}

func redirectWithError(w http.ResponseWriter, r *http.Request, target, msg string) {
	u, err := url.Parse(target)
	if err != nil {
		u = &url.URL{Path: "/profiles"}
	}
	q := u.Query()
	q.Set("error", msg)
	u.RawQuery = q.Encode()
	http.Redirect(w, r, u.String(), http.StatusSeeOther)
}
