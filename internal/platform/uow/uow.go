// Package uow binds one database transaction to one unit of work, usually one HTTP request,
// and hands the transaction to nested operations through context.Context.
package uow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"gorm.io/gorm"

	"sns_backend/internal/platform/metrics"
	"sns_backend/internal/shared/apperror"
)

// ErrHandleReleased is carried by any *gorm.DB obtained from a released handle.
var ErrHandleReleased = errors.New("transaction handle already released")

// Handle is one live transaction owned by a single unit of work.
type Handle interface {
	// DB returns the transaction-bound connection.
	DB() *gorm.DB
	Commit() error
	Rollback() error
	// Release ends the handle's lifetime. It rolls back if neither Commit nor Rollback ran.
	Release()
}

// Store opens transactions.
type Store interface {
	Begin(ctx context.Context) (Handle, error)
}

type gormStore struct {
	db *gorm.DB
}

// NewGormStore returns a Store that opens transactions on db's connection pool.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// Begin checks a connection out of the pool and starts a transaction on it.
func (s *gormStore) Begin(ctx context.Context) (Handle, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &gormHandle{tx: tx}, nil
}

type gormHandle struct {
	mu       sync.Mutex
	tx       *gorm.DB
	finished bool
	released bool
}

func (h *gormHandle) DB() *gorm.DB {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		db := h.tx.Session(&gorm.Session{})
		_ = db.AddError(ErrHandleReleased)
		return db
	}
	return h.tx
}

func (h *gormHandle) Commit() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.finished {
		return fmt.Errorf("commit: %w", ErrHandleReleased)
	}
	h.finished = true
	return h.tx.Commit().Error
}

func (h *gormHandle) Rollback() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.finished {
		return nil
	}
	h.finished = true
	return h.tx.Rollback().Error
}

func (h *gormHandle) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return
	}
	if !h.finished {
		h.finished = true
		_ = h.tx.Rollback().Error
	}
	h.released = true
}

// Tx is the view of a handle that nested operations see through the context.
type Tx struct {
	handle Handle

	mu    sync.Mutex
	hooks []func()
}

// DB returns the transaction-bound connection.
func (t *Tx) DB() *gorm.DB {
	return t.handle.DB()
}

// AfterCommit registers fn to run once the transaction has committed.
// Hooks are dropped on rollback.
func (t *Tx) AfterCommit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hooks = append(t.hooks, fn)
}

func (t *Tx) runHooks() {
	t.mu.Lock()
	hooks := t.hooks
	t.hooks = nil
	t.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}

type ctxKey struct{}

// WithHandle returns a copy of ctx carrying h, and the Tx wrapping it.
func WithHandle(ctx context.Context, h Handle) (context.Context, *Tx) {
	tx := &Tx{handle: h}
	return context.WithValue(ctx, ctxKey{}, tx), tx
}

// FromContext returns the transaction of the unit of work ctx belongs to, if any.
func FromContext(ctx context.Context) (*Tx, bool) {
	tx, ok := ctx.Value(ctxKey{}).(*Tx)
	return tx, ok
}

// Conn returns the transaction connection carried by ctx, or fallback bound to ctx.
// Every repository goes through Conn so that nested writes stay inside the request transaction.
func Conn(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := FromContext(ctx); ok {
		return tx.DB().WithContext(ctx)
	}
	return fallback.WithContext(ctx)
}

// AfterCommit runs fn once the unit of work in ctx commits, or right away when ctx has none.
func AfterCommit(ctx context.Context, fn func()) {
	if tx, ok := FromContext(ctx); ok {
		tx.AfterCommit(fn)
		return
	}
	fn()
}

// Manager runs operations inside a transaction.
type Manager struct {
	store Store
}

// NewManager creates a Manager on store.
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Do begins a transaction, runs fn with the handle attached to ctx, and commits.
// Any error from fn rolls back and is returned as an opaque internal error; the cause is logged.
// The handle is released exactly once on every path, panics included.
func (m *Manager) Do(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	h, err := m.store.Begin(ctx)
	if err != nil {
		metrics.ObserveTransaction("begin_failed")
		slog.Error("failed to begin transaction", "error", err)
		return apperror.Internal("failed to begin transaction", err)
	}
	defer h.Release()

	defer func() {
		if p := recover(); p != nil {
			_ = h.Rollback()
			metrics.ObserveTransaction("panic")
			panic(p)
		}
	}()

	txCtx, tx := WithHandle(ctx, h)
	if opErr := fn(txCtx); opErr != nil {
		if rbErr := h.Rollback(); rbErr != nil {
			slog.Error("rollback failed", "error", rbErr)
		}
		metrics.ObserveTransaction("rollback")
		slog.Warn("transaction rolled back", "error", opErr)
		return apperror.Internal("transaction failed", opErr)
	}

	if cErr := h.Commit(); cErr != nil {
		metrics.ObserveTransaction("commit_failed")
		slog.Error("transaction commit failed", "error", cErr)
		return apperror.Internal("transaction failed", cErr)
	}
	metrics.ObserveTransaction("commit")

	tx.runHooks()
	return nil
}
