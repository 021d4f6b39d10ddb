package main

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/tenantrls/pkg/queue"
	"github.com/dmitrymomot/tenantrls/pkg/tenant"
)

const reindexTask = "documents.reindex"

// exportJob gets company_id stamped by the enqueuer from the request tenant.
type exportJob struct {
	CompanyID   int64  `json:"company_id,omitempty"`
	RequestedBy string `json:"requested_by"`
}

func jobHandlers(store documentStore, log *slog.Logger) []queue.Handler {
	return []queue.Handler{
		queue.NewTaskHandler(func(ctx context.Context, job exportJob) error {
			n, err := store.Count(ctx)
			if err != nil {
				return err
			}
			log.InfoContext(ctx, "documents exported",
				slog.String("requested_by", job.RequestedBy),
				slog.Int64("documents", n),
			)
			return nil
		}),
		queue.NewArgsHandler(reindexTask, func(ctx context.Context, args []any) error {
			if _, ok := tenant.CurrentTenantID(ctx); !ok {
				return nil
			}
			n, err := store.Count(ctx)
			if err != nil {
				return err
			}
			log.InfoContext(ctx, "documents reindexed",
				slog.Any("args", args),
				slog.Int64("documents", n),
			)
			return nil
		}),
	}
}
