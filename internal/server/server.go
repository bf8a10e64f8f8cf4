// Package server exposes the evaluation pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/scrutinium/scrutinium/infrastructure/judge"
	"github.com/scrutinium/scrutinium/infrastructure/storage"
	"github.com/scrutinium/scrutinium/internal/application"
	"github.com/scrutinium/scrutinium/internal/domain"
	"github.com/scrutinium/scrutinium/internal/ports"
)

const shutdownGrace = 10 * time.Second

// Server serves the evaluation API: submitting evaluations, browsing
// stored results, CSV export, and shared result lookup.
type Server struct {
	orchestrator *application.Orchestrator
	store        ports.ResultStore
	report       *judge.ReportWriter
	port         int

	// showJudgeAnswerDefault applies when a request does not say whether
	// the judge should write its own answer.
	showJudgeAnswerDefault bool
}

// New creates a Server.
func New(orchestrator *application.Orchestrator, store ports.ResultStore, port int) *Server {
	return &Server{
		orchestrator: orchestrator,
		store:        store,
		report:       judge.NewReportWriter(),
		port:         port,
	}
}

// WithShowJudgeAnswerDefault sets the judge-answer behavior for requests
// that leave show_judge_answer unset.
func (s *Server) WithShowJudgeAnswerDefault(enabled bool) *Server {
	s.showJudgeAnswerDefault = enabled
	return s
}

// Routes builds the HTTP router.
func (s *Server) Routes() *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	router.Use(s.logRequests)

	router.HandleFunc("/api/evaluate", s.handleEvaluate).Methods(http.MethodPost)
	router.HandleFunc("/api/results", s.handleListResults).Methods(http.MethodGet)
	router.HandleFunc("/api/results/{scid:[0-9]+}", s.handleGetResult).Methods(http.MethodGet)
	router.HandleFunc("/api/results/{scid:[0-9]+}", s.handleDeleteResult).Methods(http.MethodDelete)
	router.HandleFunc("/api/results/{scid:[0-9]+}/csv", s.handleResultCSV).Methods(http.MethodGet)
	router.HandleFunc("/api/results/{scid:[0-9]+}/report", s.handleResultReport).Methods(http.MethodGet)
	router.HandleFunc("/api/share/{share_id}", s.handleShare).Methods(http.MethodGet)
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return router
}

// Run serves HTTP until the context is canceled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		clog.FromContext(ctx).Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		clog.FromContext(r.Context()).Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	})
}

// evaluateRequest is the wire shape of an evaluation submission. The
// caller credential arrives in a header, never the body, so it cannot
// leak through request logging or echoes.
type evaluateRequest struct {
	Question string              `json:"question"`
	Judge    string              `json:"judge,omitempty"`
	Tools    []domain.ToolAnswer `json:"tools"`
	// ShowJudgeAnswer is a pointer so an absent field falls back to the
	// server default instead of false.
	ShowJudgeAnswer *bool `json:"show_judge_answer,omitempty"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var body evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, domain.NewEvalError(domain.KindInvalidRequest,
			fmt.Sprintf("invalid request body: %v", err), err))
		return
	}

	showJudgeAnswer := s.showJudgeAnswerDefault
	if body.ShowJudgeAnswer != nil {
		showJudgeAnswer = *body.ShowJudgeAnswer
	}

	req := domain.EvaluationRequest{
		Question:        body.Question,
		Judge:           body.Judge,
		Tools:           body.Tools,
		ShowJudgeAnswer: showJudgeAnswer,
		UserCredential:  r.Header.Get("X-Api-Key"),
	}

	stored, err := s.orchestrator.EvaluateAndStore(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	results, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	scid, ok := parseSCID(w, r)
	if !ok {
		return
	}
	stored, err := s.store.Get(r.Context(), scid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) handleDeleteResult(w http.ResponseWriter, r *http.Request) {
	scid, ok := parseSCID(w, r)
	if !ok {
		return
	}
	if err := s.store.Delete(r.Context(), scid); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResultCSV(w http.ResponseWriter, r *http.Request) {
	scid, ok := parseSCID(w, r)
	if !ok {
		return
	}
	stored, err := s.store.Get(r.Context(), scid)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=benchmark_%d.csv", stored.SCID))
	if err := s.report.WriteCSV(w, &stored.EvaluationResult); err != nil {
		clog.FromContext(r.Context()).Error("csv export failed", "error", err)
	}
}

// handleResultReport renders a stored result as a plain-text table, the
// terminal-friendly counterpart of the CSV export.
func (s *Server) handleResultReport(w http.ResponseWriter, r *http.Request) {
	scid, ok := parseSCID(w, r)
	if !ok {
		return
	}
	stored, err := s.store.Get(r.Context(), scid)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := s.report.WriteTable(w, &stored.EvaluationResult); err != nil {
		clog.FromContext(r.Context()).Error("report rendering failed", "error", err)
	}
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	shareID := mux.Vars(r)["share_id"]
	stored, err := s.store.GetByShareID(r.Context(), shareID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func parseSCID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	raw := mux.Vars(r)["scid"]
	scid, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		writeError(w, domain.NewEvalError(domain.KindInvalidRequest,
			fmt.Sprintf("invalid scid %q", raw), err))
		return 0, false
	}
	return uint(scid), true
}

// errorResponse is the wire shape of a failed request.
type errorResponse struct {
	Kind      domain.ErrorKind `json:"kind"`
	Message   string           `json:"message"`
	Retryable bool             `json:"retryable"`
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{
			Kind:    "not_found",
			Message: err.Error(),
		})
		return
	}

	evalErr, ok := domain.AsEvalError(err)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Kind:    domain.KindUnavailable,
			Message: err.Error(),
		})
		return
	}

	writeJSON(w, statusForKind(evalErr.Kind), errorResponse{
		Kind:      evalErr.Kind,
		Message:   evalErr.Message,
		Retryable: evalErr.Retryable(),
	})
}

func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindInvalidRequest:
		return http.StatusBadRequest
	case domain.KindAuthRejected:
		return http.StatusUnauthorized
	case domain.KindQuotaExceeded:
		return http.StatusTooManyRequests
	case domain.KindMalformedResponse:
		return http.StatusBadGateway
	default:
		return http.StatusServiceUnavailable
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
