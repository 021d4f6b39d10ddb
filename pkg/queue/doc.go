// Package queue is a small task queue whose worker runs every task as a
// tenant-bound unit of work.
//
// Two task kinds exist. Job tasks carry one JSON document and reach the
// tenant guard as tenant.JobOrigin; worker tasks carry a JSON array of
// positional arguments and reach it as tenant.WorkerOrigin. The job payload
// strategy then finds the tenant in the payload column, the nested tenant
// object or the trailing argument.
//
// The enqueuer can carry the tenant of the enqueueing context into the task:
//
//	// inside a guarded request
//	err := enqueuer.Enqueue(ctx, SendInvoice{Number: "A-1"}, queue.WithTenant())
//	err = enqueuer.EnqueueArgs(ctx, "reports.generate", []any{"monthly"}, queue.WithTenant())
//
// The first stores {"number":"A-1","company_id":42}, the second
// ["monthly",42].
//
// Handlers:
//
//	worker, err := queue.NewWorker(storage, guard)
//	if err != nil {
//		return err
//	}
//	worker.RegisterHandlers(
//		queue.NewTaskHandler(func(ctx context.Context, p SendInvoice) error {
//			return invoices.Send(ctx, p.Number) // scoped to the payload tenant
//		}),
//		queue.NewArgsHandler("reports.generate", func(ctx context.Context, args []any) error {
//			return reports.Generate(ctx, args[0].(string))
//		}),
//	)
//	g.Go(worker.Run(ctx))
//
// When a job payload type implements one of the tenant capability interfaces
// the decoded value is used for resolution instead of the raw JSON.
//
// Storage is behind EnqueuerRepository and WorkerRepository. MemoryStorage
// implements both for tests and local development. Failed tasks are retried
// with a linear backoff and moved to the dead letter queue once their retries
// are exhausted; tasks without a registered handler go there directly.
package queue
