package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/muurk/escconf/internal/escsettings"
	"github.com/muurk/escconf/internal/logging"
	"github.com/muurk/escconf/internal/version"
	"go.uber.org/zap"
)

// maxBodySize bounds POST bodies
const maxBodySize = 4096

// CommitRequest is the body of POST /api/settings/{name}
type CommitRequest struct {
	Display string `json:"display"`
}

// ErrorResponse is the body of every non-2xx API response
type ErrorResponse struct {
	Error string `json:"error"`
	Hint  string `json:"hint,omitempty"`
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/settings", s.handleListSettings).Methods(http.MethodGet)
	api.HandleFunc("/settings/{name}", s.handleCommitSetting).Methods(http.MethodPost)
	api.HandleFunc("/view", s.handleView).Methods(http.MethodGet)

	r.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": version.Version})
	}).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "not found"})
	})
	return r
}

// fieldView presents a numeric field. Display is the field's own display,
// so out-of-sync settings show their sentinel.
func fieldView(ff *escsettings.FormField) escsettings.SettingView {
	d := ff.Desc
	return escsettings.SettingView{
		Name:    d.Name,
		Label:   d.Label,
		Kind:    d.Kind.String(),
		Value:   ff.Field.Value(),
		Display: ff.Field.Display(),
		InSync:  ff.Field.InSync(),
		Min:     d.Min,
		Max:     d.Max,
		Step:    d.Step,
		Unit:    d.Unit,
	}
}

func fieldViews(form *escsettings.Form) []escsettings.SettingView {
	fields := form.Fields()
	views := make([]escsettings.SettingView, 0, len(fields))
	for _, ff := range fields {
		views = append(views, fieldView(ff))
	}
	return views
}

// GET /api/settings
func (s *Server) handleListSettings(w http.ResponseWriter, r *http.Request) {
	s.formMu.Lock()
	s.form.Refresh()
	views := fieldViews(s.form)
	s.formMu.Unlock()

	writeJSON(w, http.StatusOK, views)
}

// POST /api/settings/{name}
func (s *Server) handleCommitSetting(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var req CommitRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err == nil {
		err = json.Unmarshal(body, &req)
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	s.formMu.Lock()
	applied, err := s.form.Set(name, req.Display)
	s.formMu.Unlock()

	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, applied)
}

// GET /api/view
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, escsettings.BuildView(s.store))
}

func statusFor(err error) int {
	switch {
	case escsettings.IsUnknownSettingError(err):
		return http.StatusNotFound
	case escsettings.IsValidationError(err), escsettings.IsParseError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), ErrorResponse{
		Error: err.Error(),
		Hint:  escsettings.GetTroubleshootingHint(err),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug("Failed to write response", zap.Error(err))
	}
}

// statusRecorder captures the response status for request logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Unwrap lets http.ResponseController and the WebSocket upgrader reach the
// underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", version.ServerHeader())
		if r.URL.Path == "/ws" {
			// The upgrader hijacks the connection.
			logging.LogHTTPRequest(r.RemoteAddr, r.Method, r.URL.Path, http.StatusSwitchingProtocols)
			next.ServeHTTP(w, r)
			return
		}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logging.LogHTTPRequest(r.RemoteAddr, r.Method, r.URL.Path, rec.status)
	})
}
