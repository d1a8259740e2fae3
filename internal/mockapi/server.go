package mockapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/Makepad-fr/skillbox/internal/model"
)

// Server serves the backend endpoints from a Store.
type Server struct {
	store  *Store
	logger *slog.Logger
	delay  time.Duration
	calls  atomic.Int64
}

func NewServer(store *Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{store: store, logger: logger}
}

// SetDelay makes every response wait d, to exercise loading states.
func (s *Server) SetDelay(d time.Duration) { s.delay = d }

// Calls returns how many API requests have been served.
func (s *Server) Calls() int64 { return s.calls.Load() }

// Handler returns the routed handler. Access logs go to accessLog when it is
// not nil.
func (s *Server) Handler(accessLog io.Writer) http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.count)
	api.HandleFunc("/business-specifications", s.listSpecifications).Methods(http.MethodGet)
	api.HandleFunc("/business-specifications", s.createSpecification).Methods(http.MethodPost)
	api.HandleFunc("/business-specifications/{id}", s.getSpecification).Methods(http.MethodGet)
	api.HandleFunc("/business-specifications/{id}", s.updateSpecification).Methods(http.MethodPut)
	api.HandleFunc("/requirements", s.listRequirements).Methods(http.MethodGet)
	api.HandleFunc("/tests", s.createTest).Methods(http.MethodPost)
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	var h http.Handler = r
	if accessLog != nil {
		h = handlers.LoggingHandler(accessLog, h)
	}
	return handlers.RecoveryHandler()(h)
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.calls.Add(1)
		if s.delay > 0 {
			select {
			case <-time.After(s.delay):
			case <-r.Context().Done():
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) listSpecifications(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, model.SpecificationList{Specifications: s.store.Specifications()})
}

func (s *Server) getSpecification(w http.ResponseWriter, r *http.Request) {
	id, ok := routeID(w, r)
	if !ok {
		return
	}
	sp, found := s.store.Specification(id)
	if !found {
		writeJSON(w, http.StatusNotFound, model.FieldErrors{model.MessageKey: "Specification not found."})
		return
	}
	writeJSON(w, http.StatusOK, sp)
}

func (s *Server) createSpecification(w http.ResponseWriter, r *http.Request) {
	var in model.Specification
	if !decode(w, r, &in) || !validate(w, in.Validate()) {
		return
	}
	sp, err := s.store.CreateSpecification(in)
	if err != nil {
		s.internal(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sp)
}

func (s *Server) updateSpecification(w http.ResponseWriter, r *http.Request) {
	id, ok := routeID(w, r)
	if !ok {
		return
	}
	var in model.Specification
	if !decode(w, r, &in) || !validate(w, in.Validate()) {
		return
	}
	sp, found, err := s.store.UpdateSpecification(id, in)
	if err != nil {
		s.internal(w, err)
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, model.FieldErrors{model.MessageKey: "Specification not found."})
		return
	}
	writeJSON(w, http.StatusOK, sp)
}

func (s *Server) listRequirements(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, model.RequirementList{Requirements: s.store.Requirements()})
}

func (s *Server) createTest(w http.ResponseWriter, r *http.Request) {
	var in model.Test
	if !decode(w, r, &in) || !validate(w, in.Validate()) {
		return
	}
	t, err := s.store.CreateTest(in)
	if err != nil {
		s.internal(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) internal(w http.ResponseWriter, err error) {
	s.logger.Error("Mock store write failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, model.FieldErrors{model.MessageKey: err.Error()})
}

func routeID(w http.ResponseWriter, r *http.Request) (model.ID, bool) {
	id, err := model.ParseID(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, model.FieldErrors{"id": "Invalid id."})
		return model.ID{}, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, model.FieldErrors{model.MessageKey: "Invalid JSON body."})
		return false
	}
	return true
}

// validate answers 400 with a purely field-keyed body, as real backends do.
func validate(w http.ResponseWriter, err error) bool {
	fe, ok := err.(model.FieldErrors)
	if !ok || len(fe) == 0 {
		return true
	}
	body := model.FieldErrors{}
	for k, v := range fe {
		if k != model.MessageKey {
			body[k] = v
		}
	}
	writeJSON(w, http.StatusBadRequest, body)
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	res, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(res)
}
