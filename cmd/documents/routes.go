package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/tenantrls/pkg/jwtauth"
	"github.com/dmitrymomot/tenantrls/pkg/logger"
	"github.com/dmitrymomot/tenantrls/pkg/queue"
	"github.com/dmitrymomot/tenantrls/pkg/tenant"
)

type api struct {
	store    documentStore
	enqueuer *queue.Enqueuer
	logger   *slog.Logger
}

type routerDeps struct {
	api      api
	guard    *tenant.Guard
	verifier *jwtauth.Verifier
	probes   map[string]http.Handler
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	for path, h := range d.probes {
		r.Method(http.MethodGet, path, h)
	}

	r.Group(func(r chi.Router) {
		r.Use(jwtauth.Middleware(d.verifier, jwtauth.WithLogger(d.api.logger)))
		r.Use(tenant.Middleware(d.guard,
			tenant.WithValues(jwtauth.Values),
			tenant.WithCurrentUser(jwtauth.Subject),
		))
		r.Use(tenant.RequireTenant(nil))

		r.Get("/documents", d.api.listDocuments)
		r.Post("/documents", d.api.createDocument)
		r.Post("/documents/export", d.api.exportDocuments)
		r.Post("/documents/reindex", d.api.reindexDocuments)
	})
	return r
}

func (a api) listDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := a.store.List(r.Context())
	if err != nil {
		a.fail(w, r, "failed to list documents", err)
		return
	}
	a.writeJSON(w, r, http.StatusOK, docs)
}

type createDocumentRequest struct {
	Title string `json:"title"`
}

func (a api) createDocument(w http.ResponseWriter, r *http.Request) {
	var req createDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		http.Error(w, "title is required", http.StatusUnprocessableEntity)
		return
	}

	id, _ := tenant.CurrentTenantID(r.Context())
	doc, err := a.store.Create(r.Context(), int64(id), strings.TrimSpace(req.Title))
	if err != nil {
		a.fail(w, r, "failed to create document", err)
		return
	}
	a.writeJSON(w, r, http.StatusCreated, doc)
}

func (a api) exportDocuments(w http.ResponseWriter, r *http.Request) {
	job := exportJob{RequestedBy: subject(r)}
	if err := a.enqueuer.Enqueue(r.Context(), job, queue.WithTenant()); err != nil {
		a.fail(w, r, "failed to enqueue export", err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (a api) reindexDocuments(w http.ResponseWriter, r *http.Request) {
	if err := a.enqueuer.EnqueueArgs(r.Context(), reindexTask, []any{subject(r)}, queue.WithTenant()); err != nil {
		a.fail(w, r, "failed to enqueue reindex", err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (a api) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	a.logger.ErrorContext(r.Context(), msg,
		logger.RequestID(middleware.GetReqID(r.Context())),
		logger.Error(err),
	)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func subject(r *http.Request) string {
	s, _ := jwtauth.Subject(r).(string)
	return s
}

func (a api) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.ErrorContext(r.Context(), "failed to encode response",
			logger.RequestID(middleware.GetReqID(r.Context())),
			logger.Error(err),
		)
	}
}
