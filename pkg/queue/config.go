package queue

import "time"

// Config holds the configuration for the task queue
type Config struct {
	PollInterval       time.Duration `env:"QUEUE_POLL_INTERVAL" envDefault:"5s" yaml:"poll_interval"`
	LockTimeout        time.Duration `env:"QUEUE_LOCK_TIMEOUT" envDefault:"5m" yaml:"lock_timeout"`
	MaxConcurrentTasks int           `env:"QUEUE_MAX_CONCURRENT_TASKS" envDefault:"10" yaml:"max_concurrent_tasks"`
	Queues             []string      `env:"QUEUE_NAMES" envDefault:"default" envSeparator:"," yaml:"queues"`
}

// WorkerOptions turns the configuration into worker options.
func (c Config) WorkerOptions() []WorkerOption {
	return []WorkerOption{
		WithPullInterval(c.PollInterval),
		WithLockTimeout(c.LockTimeout),
		WithMaxConcurrentTasks(c.MaxConcurrentTasks),
		WithQueues(c.Queues...),
	}
}
