package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/patrickwarner/bidderadmin/internal/middleware"
)

// NewRouter wires every page, API route and operational endpoint.
func NewRouter(s *Server) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestMetrics(s.Metrics))
	r.Use(mux.MiddlewareFunc(middleware.WithTraceLogger(s.Logger)))

	r.HandleFunc("/", s.IndexHandler).Methods(http.MethodGet)
	r.HandleFunc("/profiles", s.ProfilesPage).Methods(http.MethodGet)
	r.HandleFunc("/profiles/{id}", s.ProfilePage).Methods(http.MethodGet)
	r.HandleFunc("/profiles/{id}/cells", s.CreateCellForm).Methods(http.MethodPost)
	r.HandleFunc("/bidders", s.BiddersPage).Methods(http.MethodGet)
	r.HandleFunc("/bidders/{code}", s.BidderPage).Methods(http.MethodGet)
	r.HandleFunc("/bidder_configs/{id}/params", s.SaveParamsForm).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/profiles", s.ListProfilesAPI).Methods(http.MethodGet)
	api.HandleFunc("/profiles/{id}/matrix", s.ProfileMatrixAPI).Methods(http.MethodGet)
	api.HandleFunc("/profiles/{id}/cells", s.CreateCellAPI).Methods(http.MethodPost)
	api.HandleFunc("/bidders", s.ListBiddersAPI).Methods(http.MethodGet)
	api.HandleFunc("/bidders/{code}/matrix", s.BidderMatrixAPI).Methods(http.MethodGet)
	api.HandleFunc("/bidder_configs/{id}", s.GetBidderConfigAPI).Methods(http.MethodGet)
	api.HandleFunc("/bidder_configs/{id}/params", s.SaveParamsAPI).Methods(http.MethodPut)

	r.HandleFunc("/health", s.HealthHandler).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler())

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		s.Logger.Debug("route not found", zap.String("path", req.URL.Path))
		http.NotFound(w, req)
	})
	return r
}
