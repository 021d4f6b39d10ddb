package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantrls/pkg/jwtauth"
	"github.com/dmitrymomot/tenantrls/pkg/queue"
	"github.com/dmitrymomot/tenantrls/pkg/tenant"
)

// memoryStore filters by the tenant bound to ctx, the way the RLS policy does.
type memoryStore struct {
	mu   sync.Mutex
	docs []document
}

func (s *memoryStore) List(ctx context.Context) ([]document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := tenant.CurrentTenantID(ctx)
	out := []document{}
	for _, d := range s.docs {
		if ok && d.CompanyID == int64(id) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *memoryStore) Create(_ context.Context, companyID int64, title string) (document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := document{ID: int64(len(s.docs) + 1), CompanyID: companyID, Title: title, CreatedAt: time.Now()}
	s.docs = append(s.docs, d)
	return d, nil
}

func (s *memoryStore) Count(ctx context.Context) (int64, error) {
	docs, err := s.List(ctx)
	return int64(len(docs)), err
}

type testApp struct {
	router   http.Handler
	verifier *jwtauth.Verifier
	storage  *queue.MemoryStorage
	guard    *tenant.Guard
	store    *memoryStore
	log      *slog.Logger
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	cfg := defaultConfig().Tenant

	guard, err := tenant.NewGuard(tenant.NopBinder{},
		tenant.WithLogger(log),
		tenant.WithConfigSource(func() tenant.Config { return cfg }),
	)
	require.NoError(t, err)

	verifier, err := jwtauth.NewVerifier([]byte("documents-secret"))
	require.NoError(t, err)

	storage := queue.NewMemoryStorage()
	enqueuer, err := queue.NewEnqueuer(storage, queue.WithTenantConfig(func() tenant.Config { return cfg }))
	require.NoError(t, err)

	store := &memoryStore{docs: []document{
		{ID: 1, CompanyID: 1, Title: "first invoice"},
		{ID: 2, CompanyID: 2, Title: "contract"},
	}}

	return &testApp{
		router: newRouter(routerDeps{
			api:      api{store: store, enqueuer: enqueuer, logger: log},
			guard:    guard,
			verifier: verifier,
		}),
		verifier: verifier,
		storage:  storage,
		guard:    guard,
		store:    store,
		log:      log,
	}
}

func (a *testApp) do(t *testing.T, method, path, body string, claims jwtauth.Claims) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if claims != nil {
		token, err := a.verifier.Sign(claims)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func TestDocumentsAPI(t *testing.T) {
	t.Parallel()

	t.Run("lists only the token tenant", func(t *testing.T) {
		t.Parallel()
		app := newTestApp(t)
		rec := app.do(t, http.MethodGet, "/documents", "", jwtauth.Claims{"sub": "jane", "company_id": 1})
		require.Equal(t, http.StatusOK, rec.Code)

		var docs []document
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docs))
		require.Len(t, docs, 1)
		assert.Equal(t, "first invoice", docs[0].Title)
	})

	t.Run("rejects tokens without a tenant", func(t *testing.T) {
		t.Parallel()
		app := newTestApp(t)
		rec := app.do(t, http.MethodGet, "/documents", "", jwtauth.Claims{"sub": "jane"})
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = app.do(t, http.MethodGet, "/documents", "", jwtauth.Claims{"sub": "jane", "company_id": "1"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("rejects anonymous requests", func(t *testing.T) {
		t.Parallel()
		app := newTestApp(t)
		rec := app.do(t, http.MethodGet, "/documents", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("creates in the token tenant", func(t *testing.T) {
		t.Parallel()
		app := newTestApp(t)
		rec := app.do(t, http.MethodPost, "/documents", `{"title":" memo "}`, jwtauth.Claims{"sub": "jane", "company_id": 2})
		require.Equal(t, http.StatusCreated, rec.Code)

		var doc document
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
		assert.Equal(t, int64(2), doc.CompanyID)
		assert.Equal(t, "memo", doc.Title)

		rec = app.do(t, http.MethodPost, "/documents", `{}`, jwtauth.Claims{"sub": "jane", "company_id": 2})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("export carries the tenant into the job", func(t *testing.T) {
		t.Parallel()
		app := newTestApp(t)
		rec := app.do(t, http.MethodPost, "/documents/export", "", jwtauth.Claims{"sub": "jane", "company_id": 2})
		require.Equal(t, http.StatusAccepted, rec.Code)

		tasks := app.storage.Tasks(queue.TaskStatusPending)
		require.Len(t, tasks, 1)
		assert.Equal(t, queue.TaskKindJob, tasks[0].Kind)
		assert.JSONEq(t, `{"company_id":2,"requested_by":"jane"}`, string(tasks[0].Payload))
	})

	t.Run("reindex appends the tenant argument", func(t *testing.T) {
		t.Parallel()
		app := newTestApp(t)
		rec := app.do(t, http.MethodPost, "/documents/reindex", "", jwtauth.Claims{"sub": "jane", "company_id": 1})
		require.Equal(t, http.StatusAccepted, rec.Code)

		tasks := app.storage.Tasks(queue.TaskStatusPending)
		require.Len(t, tasks, 1)
		assert.Equal(t, queue.TaskKindWorker, tasks[0].Kind)
		assert.Equal(t, reindexTask, tasks[0].TaskName)
		assert.JSONEq(t, `["jane",1]`, string(tasks[0].Payload))
	})
}

func TestJobHandlers(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	handlers := jobHandlers(app.store, app.log)
	require.Len(t, handlers, 2)
	assert.Equal(t, queue.TaskKindJob, handlers[0].Kind())
	assert.Equal(t, queue.TaskKindWorker, handlers[1].Kind())

	err := app.guard.RunWithTenant(context.Background(), 1, func(ctx context.Context) error {
		if err := handlers[0].Handle(ctx, json.RawMessage(`{"company_id":1,"requested_by":"jane"}`)); err != nil {
			return err
		}
		return handlers[1].Handle(ctx, json.RawMessage(`["jane",1]`))
	})
	assert.NoError(t, err)

	assert.NoError(t, handlers[1].Handle(context.Background(), json.RawMessage(`["jane"]`)))
}

func TestWorkerRunsQueuedTasksInTheirTenant(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	rec := app.do(t, http.MethodPost, "/documents/reindex", "", jwtauth.Claims{"sub": "jane", "company_id": 1})
	require.Equal(t, http.StatusAccepted, rec.Code)
	rec = app.do(t, http.MethodPost, "/documents/export", "", jwtauth.Claims{"sub": "jane", "company_id": 2})
	require.Equal(t, http.StatusAccepted, rec.Code)

	type binding struct {
		id tenant.ID
		ok bool
	}
	var (
		mu   sync.Mutex
		seen = map[string]binding{}
	)
	record := func(ctx context.Context, name string) {
		id, ok := tenant.CurrentTenantID(ctx)
		mu.Lock()
		seen[name] = binding{id: id, ok: ok}
		mu.Unlock()
	}

	cfg := backgroundTenant(defaultConfig().Tenant)
	workerGuard, err := tenant.NewGuard(tenant.NopBinder{},
		tenant.WithLogger(app.log),
		tenant.WithConfigSource(func() tenant.Config { return cfg }),
	)
	require.NoError(t, err)

	worker, err := queue.NewWorker(app.storage, workerGuard,
		queue.WithPullInterval(5*time.Millisecond),
		queue.WithLogger(app.log),
	)
	require.NoError(t, err)
	require.NoError(t, worker.RegisterHandlers(
		queue.NewTaskHandler(func(ctx context.Context, _ exportJob) error {
			record(ctx, "export")
			return nil
		}),
		queue.NewArgsHandler(reindexTask, func(ctx context.Context, _ []any) error {
			record(ctx, "reindex")
			return nil
		}),
	))

	require.NoError(t, worker.Start(context.Background()))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 2
	}, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, worker.Stop())

	assert.Equal(t, binding{id: 1, ok: true}, seen["reindex"])
	assert.Equal(t, binding{id: 2, ok: true}, seen["export"])

	t.Run("request guard cannot resolve queued tasks", func(t *testing.T) {
		t.Parallel()
		var ok bool
		err := app.guard.Run(context.Background(), tenant.JobOrigin{Payload: `{"company_id":2}`}, func(ctx context.Context) error {
			_, ok = tenant.CurrentTenantID(ctx)
			return nil
		})
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestWriteJSONLogsEncodeErrors(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	a := api{logger: slog.New(slog.NewJSONHandler(&buf, nil))}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/documents", nil)

	a.writeJSON(rec, req, http.StatusOK, map[string]any{"bad": make(chan int)})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, buf.String(), "failed to encode response")
	assert.Contains(t, buf.String(), "unsupported type")
}

func TestAppConfig(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	assert.Equal(t, tenant.StrategyExternalPrincipal, cfg.Tenant.Strategy)
	assert.Error(t, cfg.Validate())

	bg := backgroundTenant(cfg.Tenant)
	assert.Equal(t, tenant.StrategyJobPayload, bg.Strategy)
	assert.Equal(t, cfg.Tenant.TenantColumn, bg.TenantColumn)
	assert.Equal(t, tenant.StrategyExternalPrincipal, cfg.Tenant.Strategy, "source config is not mutated")
}
