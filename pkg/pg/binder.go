package pg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/tenantrls/pkg/logger"
	"github.com/dmitrymomot/tenantrls/pkg/tenant"
)

// custom settings must be qualified: <prefix>.<name>
var settingPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*\.[a-z_][a-z0-9_]*$`)

// DBTX is the query surface shared by *pgxpool.Pool, *pgxpool.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// session is the connection pinned to one execution unit.
type session struct {
	mu   sync.Mutex
	conn *pgxpool.Conn
	id   tenant.ID
}

// take hands the connection to exactly one caller.
func (s *session) take() *pgxpool.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	conn := s.conn
	s.conn = nil
	return conn
}

func (s *session) current() *pgxpool.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

type sessionKey struct{}

// Binder implements tenant.SessionBinder on a pgx pool.
//
// BindTenant acquires a connection, sets the tenant setting on it and pins it
// to the returned context until ClearTenant. Every query of the unit must go
// through Querier (or ConnFromContext) to be scoped. The setting is session
// level, so it also covers statements outside an explicit transaction.
//
// ClearTenant resets the setting and returns the connection to the pool. If
// the reset fails the connection is closed instead, so a stale tenant is never
// handed to another unit.
type Binder struct {
	pool    *pgxpool.Pool
	setting string
	logger  *slog.Logger
}

// BinderOption configures a Binder.
type BinderOption func(*Binder)

// WithSettingName sets the session variable name. It must be a qualified
// lowercase identifier such as app.current_tenant.
func WithSettingName(name string) BinderOption {
	return func(b *Binder) {
		b.setting = name
	}
}

// WithLogger sets a custom logger for the binder.
func WithLogger(l *slog.Logger) BinderOption {
	return func(b *Binder) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBinder creates a session binder on pool.
func NewBinder(pool *pgxpool.Pool, opts ...BinderOption) (*Binder, error) {
	if pool == nil {
		return nil, ErrNilPool
	}
	b := &Binder{
		pool:    pool,
		setting: DefaultTenantSetting,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if !settingPattern.MatchString(b.setting) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSettingName, b.setting)
	}
	return b, nil
}

// Setting returns the session variable name.
func (b *Binder) Setting() string {
	return b.setting
}

func (b *Binder) BindTenant(ctx context.Context, id tenant.ID) (context.Context, error) {
	conn, err := b.pool.Acquire(ctx)
	if err != nil {
		return ctx, errors.Join(ErrAcquireConn, err)
	}
	if _, err := conn.Exec(ctx, "SELECT set_config($1, $2, false)", b.setting, id.String()); err != nil {
		b.discard(ctx, conn)
		return ctx, errors.Join(ErrBindTenant, err)
	}
	return context.WithValue(ctx, sessionKey{}, &session{conn: conn, id: id}), nil
}

// ClearTenant is a no-op for a context without a bound session, and for a
// session that was already cleared.
func (b *Binder) ClearTenant(ctx context.Context) error {
	s, ok := ctx.Value(sessionKey{}).(*session)
	if !ok {
		return nil
	}
	conn := s.take()
	if conn == nil {
		return nil
	}
	// the name is validated in NewBinder; RESET takes no parameters
	if _, err := conn.Exec(ctx, "RESET "+b.setting); err != nil {
		b.discard(ctx, conn)
		return errors.Join(ErrClearTenant, err)
	}
	conn.Release()
	return nil
}

// CurrentTenant reads the setting from the session bound to ctx, or from any
// pooled connection when ctx has none.
func (b *Binder) CurrentTenant(ctx context.Context) (tenant.ID, bool, error) {
	var value *string
	if err := Querier(ctx, b.pool).QueryRow(ctx, "SELECT current_setting($1, true)", b.setting).Scan(&value); err != nil {
		return 0, false, err
	}
	if value == nil || *value == "" {
		return 0, false, nil
	}
	n, err := strconv.ParseInt(*value, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %q", ErrInvalidSessionValue, *value)
	}
	id, ok := tenant.ParseID(n)
	if !ok {
		return 0, false, fmt.Errorf("%w: %q", ErrInvalidSessionValue, *value)
	}
	return id, true, nil
}

// discard closes a connection whose session state is unknown.
func (b *Binder) discard(ctx context.Context, conn *pgxpool.Conn) {
	raw := conn.Hijack()
	if err := raw.Close(context.WithoutCancel(ctx)); err != nil {
		b.logger.WarnContext(ctx, "failed to close tenant session connection",
			logger.Component("pg"),
			logger.Error(err),
		)
	}
}

// ConnFromContext returns the connection pinned by BindTenant.
func ConnFromContext(ctx context.Context) (*pgxpool.Conn, bool) {
	s, ok := ctx.Value(sessionKey{}).(*session)
	if !ok {
		return nil, false
	}
	conn := s.current()
	return conn, conn != nil
}

// Querier returns the tenant-bound connection of ctx, or pool when the unit
// runs without a bound tenant.
func Querier(ctx context.Context, pool *pgxpool.Pool) DBTX {
	if conn, ok := ConnFromContext(ctx); ok {
		return conn
	}
	return pool
}
