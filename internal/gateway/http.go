package gateway

import (
	"bufio"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/muurk/wifiprov/internal/logging"
)

//go:embed static/index.html
var staticFiles embed.FS

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /scan", s.handleScan)
	mux.HandleFunc("POST /configure", s.handleConfigure)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /events", s.handleEvents)
	mux.Handle("GET /metrics", s.metrics.Handler())
	return s.logRequests(mux)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := s.readPage()
	if err != nil {
		logging.Error("Failed to read provisioning page", zap.String("path", s.pageSource()), zap.Error(err))
		http.Error(w, "Failed to read file", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	_, _ = w.Write(page)
}

func (s *Server) readPage() ([]byte, error) {
	if s.config.PagePath != "" {
		return os.ReadFile(s.config.PagePath)
	}
	return staticFiles.ReadFile("static/index.html")
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	// errors are reported in the body with 200, as the page expects
	writeJSON(w, http.StatusOK, s.gateway.ListNetworks(r.Context()))
}

func (s *Server) handleConfigure(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > MaxConfigureBody {
		http.Error(w, "Content too long", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, MaxConfigureBody+1))
	if err != nil {
		logging.Error("Failed to read configure body", zap.Error(err))
		http.Error(w, "Failed to receive data", http.StatusInternalServerError)
		return
	}
	if len(body) > MaxConfigureBody {
		http.Error(w, "Content too long", http.StatusBadRequest)
		return
	}

	if err := s.gateway.Submit(r.Context(), body); err != nil {
		var ce *CredentialsError
		if errors.As(err, &ce) {
			http.Error(w, ce.Message, http.StatusBadRequest)
			return
		}
		logging.Error("Failed to queue credentials", zap.Error(err))
		http.Error(w, "Provisioning unavailable", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, ConfigureResponse{Status: StatusSuccess, Message: SubmittedMessage})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.gateway.Status())
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		logging.Error("Failed to encode response", zap.Error(err))
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}

// statusRecorder captures the status code for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// Hijack lets the websocket upgrader take over the connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logging.LogHTTPRequest(r.RemoteAddr, r.Method, r.URL.Path, r.ContentLength)

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}

		logging.LogHTTPResponse(r.RemoteAddr, r.URL.Path, rec.status)
		s.metrics.HTTPRequest(routeLabel(r), rec.status)
	})
}

// routeLabel keeps the metric's path label bounded to registered routes.
func routeLabel(r *http.Request) string {
	if r.Pattern == "" {
		return "unmatched"
	}
	return r.Pattern
}
