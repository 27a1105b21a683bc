// Package web serves the dashboard page, chart images, exports and the live log.
package web

import (
	"BikeShareInsight/src/chart"
	"BikeShareInsight/src/config"
	"BikeShareInsight/src/datasource/file"
	"BikeShareInsight/src/processor"
	"BikeShareInsight/src/report"
	"BikeShareInsight/src/storage"
	"BikeShareInsight/src/utils"
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-gota/gota/dataframe"
)

//go:embed templates/*.html
var templates embed.FS

// Server is the dashboard HTTP server.
type Server struct {
	cfg       *config.Config
	dcfg      *config.DataConfig
	data      *file.Dataset
	logger    *storage.Logger
	page      *template.Template
	narrative map[string]template.HTML
}

// NewServer prepares templates and narrative. logger may be nil, in which
// case requests are not logged and /logs is unavailable.
func NewServer(cfg *config.Config, dcfg *config.DataConfig, data *file.Dataset, logger *storage.Logger) (*Server, error) {
	page, err := template.ParseFS(templates, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}
	narrative, err := report.NewHTMLRenderer().Sections()
	if err != nil {
		return nil, err
	}
	return &Server{
		cfg:       cfg,
		dcfg:      dcfg,
		data:      data,
		logger:    logger,
		page:      page,
		narrative: narrative,
	}, nil
}

// Handler returns the routed handler with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /chart/{name}", s.handleChart)
	mux.HandleFunc("GET /export.xlsx", s.handleExportXLSX)
	mux.HandleFunc("GET /export.csv", s.handleExportCSV)
	mux.HandleFunc("GET /logs", s.handleLogs)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return s.logRequests(mux)
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  time.Duration(s.cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(s.cfg.Server.WriteTimeout),
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	s.info(fmt.Sprintf("dashboard listening on %s", s.cfg.Server.Addr))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// request is the parsed state shared by every data endpoint.
type request struct {
	snap   *file.Snapshot
	filter processor.Filter
	view   dataframe.DataFrame
}

// parse resolves the filter of r against the current snapshot. It writes the
// error response itself and returns false when the request cannot proceed.
func (s *Server) parse(w http.ResponseWriter, r *http.Request) (request, bool) {
	snap := s.data.Snapshot()
	if snap == nil {
		http.Error(w, "data not loaded yet", http.StatusServiceUnavailable)
		return request{}, false
	}
	minDate, maxDate, err := processor.DateBounds(snap.Day)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return request{}, false
	}
	f, err := processor.ParseFilter(r.URL.Query(), minDate, maxDate)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return request{}, false
	}
	return request{snap: snap, filter: f, view: processor.ApplyFilter(snap.Day, f)}, true
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	req, ok := s.parse(w, r)
	if !ok {
		return
	}
	p, err := s.buildPage(req)
	if err != nil {
		s.fail(w, "build page", err)
		return
	}

	var buf bytes.Buffer
	if err := s.page.Execute(&buf, p); err != nil {
		s.fail(w, "execute page template", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if _, ok := chart.Lookup(name); !ok {
		http.NotFound(w, r)
		return
	}
	req, ok := s.parse(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	in := chart.Input{View: req.view, Clean: req.snap.Clean, Filter: req.filter, Labels: s.dcfg}
	if err := chart.Render(name, &buf, in); err != nil {
		s.fail(w, "chart", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	buf.WriteTo(w)
}

const exportName = "bike_share_filtered"

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	req, ok := s.parse(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	sheets := map[string]dataframe.DataFrame{"Data": req.view}
	if err := utils.SaveToExcel(&buf, []string{"Data"}, sheets); err != nil {
		s.fail(w, "export xlsx", err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportName+`.xlsx"`)
	buf.WriteTo(w)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	req, ok := s.parse(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := req.view.WriteCSV(&buf); err != nil {
		s.fail(w, "export csv", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportName+`.csv"`)
	buf.WriteTo(w)
}

// handleLogs streams log lines to the client until it disconnects.
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	if s.logger == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	// the stream outlives the server's WriteTimeout
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		s.error("logs: clear write deadline: " + err.Error())
	}

	logChan := s.logger.Subscribe()
	defer s.logger.Unsubscribe(logChan)

	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}
	for {
		select {
		case msg, ok := <-logChan:
			if !ok {
				return
			}
			if _, err := fmt.Fprint(w, msg); err != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		case <-r.Context().Done():
			return
		}
	}
}

type health struct {
	Status    string    `json:"status"`
	DayRows   int       `json:"day_rows"`
	CleanRows int       `json:"clean_rows"`
	LoadedAt  time.Time `json:"loaded_at"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	snap := s.data.Snapshot()
	if snap == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(health{Status: "loading"})
		return
	}
	json.NewEncoder(w).Encode(health{
		Status:    "ok",
		DayRows:   snap.Day.Nrow(),
		CleanRows: snap.Clean.Nrow(),
		LoadedAt:  snap.LoadedAt,
	})
}

func (s *Server) fail(w http.ResponseWriter, what string, err error) {
	s.error(fmt.Sprintf("%s: %v", what, err))
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func (s *Server) info(msg string) {
	if s.logger != nil {
		s.logger.Info(msg)
	}
}

func (s *Server) error(msg string) {
	if s.logger != nil {
		s.logger.Error(msg)
	}
}

// statusRecorder captures the response code for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the connection's writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		// the log stream would otherwise echo its own request
		if r.URL.Path != "/logs" {
			s.info(fmt.Sprintf("%s %s %d %v", r.Method, r.URL.RequestURI(), rec.status, time.Since(start).Round(time.Millisecond)))
		}
	})
}
