// Package logger builds the *slog.Logger used across the module.
//
// New creates a JSON or text handler from a set of Option functions and wraps
// it in LogHandlerDecorator, which runs the registered ContextExtractor
// callbacks on every record. This is how the tenant bound to a unit of work
// reaches log records that were produced deep inside the work without passing
// attributes around:
//
//	log := logger.New(
//		logger.WithProduction("billing"),
//		logger.WithContextExtractors(tenant.LoggerExtractor()),
//		logger.WithContextValue("request_id", middleware.RequestIDKey),
//	)
//	logger.SetAsDefault(log)
//
// Config carries the same settings with env and yaml tags so it can be
// loaded with pkg/config and turned into options with Config.Options.
//
// Attribute helpers (TenantID, Strategy, Origin, Error, RequestID, ...) keep
// key names consistent. Error and Errors return an empty Attr for nil errors,
// so they can be passed unconditionally.
package logger
