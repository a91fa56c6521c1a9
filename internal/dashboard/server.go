package dashboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/wine-cli/internal/config"
	"github.com/sells-group/wine-cli/internal/explore"
	"github.com/sells-group/wine-cli/internal/model"
	"github.com/sells-group/wine-cli/internal/normalize"
	"github.com/sells-group/wine-cli/internal/table"
)

// Server exposes the per-country datasets as a JSON API.
type Server struct {
	cfg   *config.Config
	src   Source
	cache *Cache
}

// NewServer creates a Server reading tables from src.
func NewServer(cfg *config.Config, src Source, cache *Cache) *Server {
	return &Server{cfg: cfg, src: src, cache: cache}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/countries", func(r chi.Router) {
		r.Get("/", s.handleCountries)
		r.Route("/{country}", func(r chi.Router) {
			r.Get("/wines", s.handleWines)
			r.Get("/options", s.handleOptions)
			r.Get("/views", s.handleViews)
			r.Get("/describe", s.handleDescribe)
			r.Get("/raw", s.handleRaw)
			r.Get("/export.xlsx", s.handleExport)
			r.Post("/reload", s.handleReload)
		})
	})
	return r
}

type countryInfo struct {
	Name      string `json:"name"`
	Display   string `json:"display"`
	PageLimit int    `json:"page_limit"`
	Loaded    bool   `json:"loaded"`
}

func (s *Server) handleCountries(w http.ResponseWriter, _ *http.Request) {
	loaded := make(map[string]bool)
	for _, c := range s.cache.Loaded() {
		loaded[c] = true
	}

	out := make([]countryInfo, 0, len(s.cfg.Countries))
	for _, c := range s.cfg.Countries {
		name := strings.ToLower(c.Name)
		out = append(out, countryInfo{
			Name:      name,
			Display:   config.DisplayName(name),
			PageLimit: c.PageLimit,
			Loaded:    loaded[name],
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type winesResponse struct {
	Country string       `json:"country"`
	Count   int          `json:"count"`
	Total   int          `json:"total"`
	Columns []string     `json:"columns"`
	Wines   []model.Wine `json:"wines"`
}

func (s *Server) handleWines(w http.ResponseWriter, r *http.Request) {
	ds, wines, ok := s.selection(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, winesResponse{
		Country: ds.Country,
		Count:   len(wines),
		Total:   len(ds.Wines),
		Columns: ds.Columns,
		Wines:   wines,
	})
}

type optionsResponse struct {
	Country    string              `json:"country"`
	Options    map[string][]string `json:"options"`
	Vocabulary []string            `json:"vocabulary"`
	Alcohol    explore.Range       `json:"alcohol"`
	Vintage    explore.Range       `json:"vintage"`
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}

	opts := make(map[string][]string, len(s.cfg.Fill))
	for _, rule := range s.cfg.Fill {
		opts[rule.Column] = explore.Options(ds, rule.Column)
	}
	alcohol, vintage := explore.FullRange(ds.Wines)

	writeJSON(w, http.StatusOK, optionsResponse{
		Country:    ds.Country,
		Options:    opts,
		Vocabulary: ds.Vocabulary,
		Alcohol:    alcohol,
		Vintage:    vintage,
	})
}

func (s *Server) handleViews(w http.ResponseWriter, r *http.Request) {
	_, wines, ok := s.selection(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, explore.BuildViews(wines, s.cfg.Dashboard.Views))
}

func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	_, wines, ok := s.selection(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, explore.Describe(wines))
}

func (s *Server) handleRaw(w http.ResponseWriter, r *http.Request) {
	country, ok := s.country(w, r)
	if !ok {
		return
	}
	data, err := s.src.Raw(country)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", table.FileName(country)))
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ds, wines, ok := s.selection(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, ds.Columns, wines); err != nil {
		writeError(w, err)
		return
	}
	name := strings.TrimSuffix(table.FileName(ds.Country), ".csv") + ".xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	country, ok := s.country(w, r)
	if !ok {
		return
	}
	ds, err := s.cache.Reload(r.Context(), country)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"country": ds.Country,
		"wines":   len(ds.Wines),
	})
}

// country resolves the {country} path parameter against the configuration.
func (s *Server) country(w http.ResponseWriter, r *http.Request) (string, bool) {
	cc, err := s.cfg.Country(chi.URLParam(r, "country"))
	if err != nil {
		writeError(w, err)
		return "", false
	}
	return strings.ToLower(cc.Name), true
}

func (s *Server) dataset(w http.ResponseWriter, r *http.Request) (*model.Dataset, bool) {
	country, ok := s.country(w, r)
	if !ok {
		return nil, false
	}
	ds, err := s.cache.Get(r.Context(), country)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return ds, true
}

// selection loads the dataset and applies the query filter.
func (s *Server) selection(w http.ResponseWriter, r *http.Request) (*model.Dataset, []model.Wine, bool) {
	ds, ok := s.dataset(w, r)
	if !ok {
		return nil, nil, false
	}
	f, err := ParseFilter(r.URL.Query(), ds.Wines)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return nil, nil, false
	}
	return ds, explore.Apply(ds.Wines, f), true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// writeError maps domain errors onto status codes.
func writeError(w http.ResponseWriter, err error) {
	var malformed *normalize.MalformedAttributeError
	switch {
	case errors.Is(err, table.ErrTableNotFound), errors.Is(err, config.ErrUnknownCountry):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.As(err, &malformed):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": malformed.Error()})
	default:
		zap.L().Error("dashboard: request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
