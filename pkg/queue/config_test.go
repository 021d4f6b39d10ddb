package queue_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantrls/pkg/config"
	"github.com/dmitrymomot/tenantrls/pkg/queue"
	"github.com/dmitrymomot/tenantrls/pkg/tenant"
)

func TestConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		var cfg queue.Config
		require.NoError(t, config.Load(&cfg, config.WithPrefix("QUEUE_TEST_DEFAULTS_")))
		assert.Equal(t, queue.Config{
			PollInterval:       5 * time.Second,
			LockTimeout:        5 * time.Minute,
			MaxConcurrentTasks: 10,
			Queues:             []string{"default"},
		}, cfg)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("QUEUE_TEST_QUEUE_POLL_INTERVAL", "250ms")
		t.Setenv("QUEUE_TEST_QUEUE_NAMES", "billing,reports")

		var cfg queue.Config
		require.NoError(t, config.Load(&cfg, config.WithPrefix("QUEUE_TEST_")))
		assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
		assert.Equal(t, []string{"billing", "reports"}, cfg.Queues)
	})

	t.Run("worker options", func(t *testing.T) {
		cfg := queue.Config{PollInterval: time.Second, MaxConcurrentTasks: 2, Queues: []string{"billing"}}
		w, err := queue.NewWorker(queue.NewMemoryStorage(), newGuard(t, tenant.NopBinder{}), cfg.WorkerOptions()...)
		require.NoError(t, err)
		assert.NotNil(t, w)
	})
}
