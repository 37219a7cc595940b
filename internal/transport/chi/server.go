// Package chi exposes the resolution engine over HTTP.
package chi

import (
	"context"
	"net/http"
	"time"

	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/postalgeo/internal/domain"
	"github.com/kailas-cloud/postalgeo/internal/domain/postal"
	"github.com/kailas-cloud/postalgeo/internal/domain/style"
	"github.com/kailas-cloud/postalgeo/internal/metrics"
	"github.com/kailas-cloud/postalgeo/internal/usecase/format"
	healthuc "github.com/kailas-cloud/postalgeo/internal/usecase/health"
	reloaduc "github.com/kailas-cloud/postalgeo/internal/usecase/reload"
	resolveuc "github.com/kailas-cloud/postalgeo/internal/usecase/resolve"
)

// Request defaults applied when a parameter is omitted.
const (
	DefaultMaxRows  = 10
	DefaultRadiusKm = 5.0
)

// Reloader rebuilds the served dataset.
type Reloader interface {
	Reload(ctx context.Context) (reloaduc.Result, error)
}

// Defaults are the values used for omitted query parameters.
type Defaults struct {
	MaxRows  int
	RadiusKm float64
}

// Server holds the HTTP handlers.
type Server struct {
	resolve       *resolveuc.Service
	health        *healthuc.Service
	reload        Reloader
	defaults      Defaults
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. reload can be nil, in which case
// POST /admin/reload answers 501.
func NewServer(
	resolve *resolveuc.Service,
	health *healthuc.Service,
	reload Reloader,
	logger *zap.Logger,
) *Server {
	return &Server{
		resolve:       resolve,
		health:        health,
		reload:        reload,
		defaults:      Defaults{MaxRows: DefaultMaxRows, RadiusKm: DefaultRadiusKm},
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// WithDefaults overrides the request defaults. Zero fields keep the current value.
func (s *Server) WithDefaults(d Defaults) *Server {
	if d.MaxRows > 0 {
		s.defaults.MaxRows = d.MaxRows
	}
	if d.RadiusKm > 0 {
		s.defaults.RadiusKm = d.RadiusKm
	}
	return s
}

// SearchParams are the query parameters of GET /v1/search.
type SearchParams struct {
	PostalCode           *string
	PostalCodeStartsWith *string
	MaxRows              *int
	Style                *string
}

// ReverseParams are the query parameters of GET /v1/reverse.
type ReverseParams struct {
	Latitude   float64
	Longitude  float64
	RadiusKm   *float64
	MaxResults *int
	Style      *string
}

// Search handles GET /v1/search. An exact code takes precedence over a prefix.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var p SearchParams
	if err := bindQuery(r, []queryParam{
		{name: "postalCode", dest: &p.PostalCode},
		{name: "postalCodeStartsWith", dest: &p.PostalCodeStartsWith},
		{name: "maxRows", dest: &p.MaxRows},
		{name: "style", dest: &p.Style},
	}); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	st, err := parseStyle(p.Style)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	view := s.resolve.Snapshot()
	switch {
	case derefString(p.PostalCode) != "":
		rec, ok, err := view.ExactSearch(*p.PostalCode)
		if err != nil {
			s.handleDomainError(w, r, err)
			return
		}
		if !ok {
			writeJSON(w, http.StatusOK, format.Empty())
			return
		}
		s.writeRecords(w, r, view, []postal.Record{rec}, st)
	case derefString(p.PostalCodeStartsWith) != "":
		recs, err := view.PrefixSearch(*p.PostalCodeStartsWith, s.maxRows(p.MaxRows))
		if err != nil {
			s.handleDomainError(w, r, err)
			return
		}
		s.writeRecords(w, r, view, recs, st)
	default:
		s.handleDomainError(w, r, domain.NewValidationError("postalCode", "postalCode or postalCodeStartsWith is required"))
	}
}

// Geocode handles GET /v1/geocode. A known code yields a single entry; an
// unknown one the empty envelope.
func (s *Server) Geocode(w http.ResponseWriter, r *http.Request) {
	var (
		code   string
		styleP *string
	)
	if err := bindQuery(r, []queryParam{
		{name: "postalCode", required: true, dest: &code},
		{name: "style", dest: &styleP},
	}); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	st, err := parseStyle(styleP)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	view := s.resolve.Snapshot()
	rec, ok, err := view.ExactSearch(code)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, format.Empty())
		return
	}
	f, err := formatter(view)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f.Entry(&rec, st, nil))
}

// Reverse handles GET /v1/reverse.
func (s *Server) Reverse(w http.ResponseWriter, r *http.Request) {
	var p ReverseParams
	if err := bindQuery(r, []queryParam{
		{name: "latitude", required: true, dest: &p.Latitude},
		{name: "longitude", required: true, dest: &p.Longitude},
		{name: "radiusKm", dest: &p.RadiusKm},
		{name: "maxResults", dest: &p.MaxResults},
		{name: "style", dest: &p.Style},
	}); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	st, err := parseStyle(p.Style)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	radius := s.defaults.RadiusKm
	if p.RadiusKm != nil {
		radius = *p.RadiusKm
	}
	view := s.resolve.Snapshot()
	res, err := view.ProximitySearch(p.Latitude, p.Longitude, radius, s.maxRows(p.MaxResults))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	metrics.ProximityExpansionsTotal.Add(float64(res.Expansions))
	if len(res.Matches) == 0 {
		metrics.ProximityEmptyTotal.Inc()
	}
	f, err := formatter(view)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f.Matches(res.Matches, st))
}

// Validate handles GET /v1/validate.
func (s *Server) Validate(w http.ResponseWriter, r *http.Request) {
	var code string
	if err := bindQuery(r, []queryParam{
		{name: "postalCode", required: true, dest: &code},
	}); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	v, err := s.resolve.Validate(code)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, format.Validation(v))
}

// Stats handles GET /v1/stats.
func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {
	sum, err := s.resolve.Stats()
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, format.Stats(sum))
}

// ReloadResponse is the result of POST /admin/reload.
type ReloadResponse struct {
	Records    int       `json:"records"`
	Regions    int       `json:"regions"`
	Source     string    `json:"source"`
	BuiltAt    time.Time `json:"builtAt"`
	DurationMs int64     `json:"durationMs"`
}

// Reload handles POST /admin/reload.
func (s *Server) Reload(w http.ResponseWriter, r *http.Request) {
	if s.reload == nil {
		writeError(w, http.StatusNotImplemented, CodeReloadDisabled, "reload is not configured")
		return
	}
	res, err := s.reload.Reload(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ReloadResponse{
		Records:    res.Records,
		Regions:    res.Regions,
		Source:     res.Source,
		BuiltAt:    res.BuiltAt,
		DurationMs: res.Duration.Milliseconds(),
	})
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  healthuc.Status                 `json:"status"`
	Checks  map[string]healthuc.CheckResult `json:"checks"`
	Records int                             `json:"records"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:  report.Status,
		Checks:  report.Checks,
		Records: report.Records,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) writeRecords(
	w http.ResponseWriter, r *http.Request, view *resolveuc.Service, recs []postal.Record, st style.Style,
) {
	f, err := formatter(view)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f.Records(recs, st))
}

// formatter stamps entries with the provenance of the snapshot the query ran on.
func formatter(view *resolveuc.Service) (format.Formatter, error) {
	src, builtAt, err := view.Provenance()
	if err != nil {
		return format.Formatter{}, err
	}
	return format.New(src, builtAt), nil
}

func (s *Server) maxRows(p *int) int {
	if p == nil {
		return s.defaults.MaxRows
	}
	return *p
}

// queryParam binds one form-style query parameter into dest.
type queryParam struct {
	name     string
	required bool
	dest     any
}

func bindQuery(r *http.Request, params []queryParam) error {
	q := r.URL.Query()
	for _, p := range params {
		if err := runtime.BindQueryParameter("form", true, p.required, p.name, q, p.dest); err != nil {
			if p.required && !q.Has(p.name) {
				return domain.NewValidationError(p.name, "is required")
			}
			return domain.NewValidationError(p.name, "has an invalid value")
		}
	}
	return nil
}

func parseStyle(raw *string) (style.Style, error) {
	st, err := style.Parse(derefString(raw))
	if err != nil {
		return "", domain.NewValidationError("style", "must be SHORT, MEDIUM, LONG or FULL")
	}
	return st, nil
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
