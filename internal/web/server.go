package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/san-kum/bungeesim/internal/config"
	"github.com/san-kum/bungeesim/internal/jump"
	"github.com/san-kum/bungeesim/internal/logging"
	"github.com/san-kum/bungeesim/internal/render"
)

//go:embed templates/bungee.html
var templateFS embed.FS

var page = template.Must(template.ParseFS(templateFS, "templates/bungee.html"))

// The web form fixes both drag coefficients.
const (
	formDragLinear    = 1.0
	formDragQuadratic = 1.0
)

type field struct {
	Name  string
	Label string
	Unit  string
	Value string
	Error string
}

type diagnostic struct {
	Text  string
	Class string
}

type pageData struct {
	Fields      []field
	Result      bool
	Diagnostics []diagnostic
	Image       string
}

// Server serves the jump form, runs submitted jumps and serves the chart of
// the latest one.
type Server struct {
	sim        *jump.Simulator
	images     *render.ImageDir
	logger     *slog.Logger
	httpServer *http.Server
	mu         sync.Mutex
	addr       string
}

func NewServer(sim *jump.Simulator, images *render.ImageDir, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Server{sim: sim, images: images, logger: logger}
}

// Addr returns the address the server is listening on, or "" before it
// started.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleForm)
	mux.HandleFunc("POST /{$}", s.handleSimulate)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(s.images.Dir()))))
	return mux
}

// ListenAndServe serves on addr until ctx is cancelled. A clean shutdown
// returns nil.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.httpServer = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	s.mu.Unlock()

	s.logger.Info("serving", "addr", s.Addr(), "images", s.images.Dir())

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	err = s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func defaultFields() []field {
	def := config.DefaultInputs()
	return []field{
		{Name: "starting_height", Label: "Starting height", Unit: "(m)", Value: formatValue(def.StartHeight)},
		{Name: "time", Label: "Time", Unit: "(s)", Value: formatValue(def.Duration)},
		{Name: "k", Label: "k", Unit: "(N/m)", Value: formatValue(def.K)},
		{Name: "bungee_length", Label: "Bungee length", Unit: "(m)", Value: formatValue(def.RopeLength)},
		{Name: "jumper_mass", Label: "Jumper mass", Unit: "(kg)", Value: formatValue(def.Mass)},
	}
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, http.StatusOK, pageData{Fields: defaultFields()})
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form: "+err.Error(), http.StatusBadRequest)
		return
	}

	fields, values, ok := parseFields(r)
	if !ok {
		s.renderPage(w, http.StatusOK, pageData{Fields: fields})
		return
	}

	in := jump.Inputs{
		StartHeight:   values[0],
		Duration:      values[1],
		K:             values[2],
		RopeLength:    values[3],
		Mass:          values[4],
		DragLinear:    formDragLinear,
		DragQuadratic: formDragQuadratic,
	}

	res, err := s.sim.Run(r.Context(), in)
	if err != nil {
		s.logger.Error("simulation failed", "error", err, "inputs", in)
		http.Error(w, "simulation failed", http.StatusInternalServerError)
		return
	}

	image, err := s.images.Publish(res)
	if err != nil {
		s.logger.Error("publishing chart failed", "error", err)
		http.Error(w, "rendering failed", http.StatusInternalServerError)
		return
	}

	s.logger.Info("jump simulated", "outcome", res.Outcome, "image", image)

	data := pageData{Fields: fields, Result: true, Image: image}
	for _, d := range res.Diagnostics {
		data.Diagnostics = append(data.Diagnostics, diagnostic{Text: d, Class: diagnosticClass(d)})
	}
	s.renderPage(w, http.StatusOK, data)
}

// parseFields reads the five form values. Fields keep what was submitted so
// the form can be shown again with errors next to the bad entries.
func parseFields(r *http.Request) ([]field, []float64, bool) {
	fields := defaultFields()
	values := make([]float64, len(fields))
	ok := true

	for i := range fields {
		raw := strings.TrimSpace(r.PostFormValue(fields[i].Name))
		fields[i].Value = raw
		if raw == "" {
			fields[i].Error = "This field is required."
			ok = false
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			fields[i].Error = "Not a valid float value."
			ok = false
			continue
		}
		values[i] = v
	}
	return fields, values, ok
}

func diagnosticClass(d string) string {
	switch {
	case strings.HasPrefix(d, "OUTCOME: A safe"):
		return "outcome-safe"
	case strings.HasPrefix(d, "OUTCOME:"):
		return "outcome-impact"
	case strings.HasPrefix(d, "WARNING:"):
		return "warning"
	case strings.HasPrefix(d, "REASON:"):
		return "reason"
	}
	return ""
}

func (s *Server) renderPage(w http.ResponseWriter, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := page.Execute(w, data); err != nil {
		s.logger.Error("template failed", "error", err)
	}
}
