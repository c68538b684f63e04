// Package database implements the focus document store on top of SQLite: the
// connection manager, the migration engine and the untyped record operations.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/sync/semaphore"

	"github.com/focus-md/focus/db/migrations"
	"github.com/focus-md/focus/internal/config"
	sqldb "github.com/focus-md/focus/internal/database/sqlc"
	"github.com/focus-md/focus/internal/logging"
	"github.com/focus-md/focus/internal/schema"

	// Import SQLite driver for database/sql
	_ "modernc.org/sqlite"
)

// minSQLiteVersion is the oldest engine with the upsert syntax the record layer uses.
var minSQLiteVersion = [3]int{3, 24, 0}

const (
	defaultBlockedTimeout = 5 * time.Second
	defaultBusyTimeout    = 5 * time.Second
	defaultMaxHandles     = 64
)

// Config describes how to open the store.
type Config struct {
	// Path of the SQLite file. Empty uses config.GetDBPath; ":memory:" keeps everything in memory.
	Path string
	// Registry declares the collections and indexes. Defaults to schema.Focus.
	Registry *schema.Registry
	// Version is the schema version handles open at. Zero means the registry's latest.
	Version int
	// BlockedTimeout bounds how long an open waits on the readiness gate.
	BlockedTimeout time.Duration
	// BusyTimeout is handed to SQLite for lock waits across processes.
	BusyTimeout time.Duration
	// MaxHandles caps concurrently open handles. An upgrade needs all of them.
	MaxHandles int64
}

// Context holds the database connection pool and the readiness gate shared by all handles.
type Context struct {
	DB      *sql.DB
	Queries *sqldb.Queries

	registry       *schema.Registry
	version        int
	blockedTimeout time.Duration
	maxHandles     int64
	gate           *semaphore.Weighted
	handles        *xsync.MapOf[uint64, *Handle]
	nextHandle     atomic.Uint64
	metrics        *storeMetrics
	log            logger.ILogger
}

// CreateDatabase opens the SQLite file, verifies the engine and lays out the
// engine tables. Collections are created later, when the first handle opens.
func CreateDatabase(cfg Config) (*Context, error) {
	const op = "create"

	path := cfg.Path
	if path == "" {
		path = config.GetDBPath()
	}
	registry := cfg.Registry
	if registry == nil {
		registry = schema.Focus
	}
	version := cfg.Version
	if version == 0 {
		version = registry.Latest()
	}
	if version < 0 || version > registry.Latest() {
		return nil, newError(CodeOpenFailed, op, "", fmt.Errorf("%w: %d (latest %d)", ErrUnknownVersion, version, registry.Latest()))
	}
	blockedTimeout := cfg.BlockedTimeout
	if blockedTimeout <= 0 {
		blockedTimeout = defaultBlockedTimeout
	}
	busyTimeout := cfg.BusyTimeout
	if busyTimeout <= 0 {
		busyTimeout = defaultBusyTimeout
	}
	maxHandles := cfg.MaxHandles
	if maxHandles <= 0 {
		maxHandles = defaultMaxHandles
	}

	useMemory := path == ":memory:"
	if useMemory {
		// A private in-memory database lives on exactly one connection.
		maxHandles = 1
	}

	if !useMemory {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, newError(CodeOpenFailed, op, "", fmt.Errorf("failed to create database directory: %w", err))
		}
	}

	var dsn string
	if useMemory {
		dsn = "file::memory:?_pragma=foreign_keys(ON)"
	} else {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, newError(CodeOpenFailed, op, "", fmt.Errorf("failed to resolve database path: %w", err))
		}
		dsn = fmt.Sprintf("file:%s?_pragma=foreign_keys(ON)&_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)",
			filepath.ToSlash(absPath), busyTimeout.Milliseconds())
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, newError(CodeEnvironmentUnsupported, op, "", fmt.Errorf("failed to open database: %w", err))
	}
	if useMemory {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(int(maxHandles))
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, newError(CodeOpenFailed, op, "", fmt.Errorf("failed to ping database: %w", err))
	}

	queries := sqldb.New(db)
	if err := checkEnvironment(queries); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, newError(CodeOpenFailed, op, "", err)
	}

	c := &Context{
		DB:             db,
		Queries:        queries,
		registry:       registry,
		version:        version,
		blockedTimeout: blockedTimeout,
		maxHandles:     maxHandles,
		gate:           semaphore.NewWeighted(maxHandles),
		handles:        xsync.NewMapOf[uint64, *Handle](),
		log:            logging.GetLogger("store"),
	}
	c.metrics = newStoreMetrics(func() float64 {
		return float64(c.handles.Size())
	})

	c.log.Debugf("opened %s (store %s, target version %d)", path, registry.Name(), version)
	return c, nil
}

// CloseDatabase closes the database connection.
func CloseDatabase(ctx *Context) error {
	if ctx == nil || ctx.DB == nil {
		return nil
	}
	ctx.handles.Range(func(_ uint64, h *Handle) bool {
		_ = h.Close()
		return true
	})
	return ctx.DB.Close()
}

// ClearDatabase removes every record of every collection in one transaction and
// reports how many were removed. Collections, indexes and key generators survive.
func ClearDatabase(ctx *Context) (int64, error) {
	if ctx == nil || ctx.DB == nil {
		return 0, nil
	}

	var removed int64
	err := ctx.Update(context.Background(), func(tx *Tx) error {
		if err := tx.q.DeleteAllIndexEntries(tx.ctx, tx.store); err != nil {
			return newError(CodeWriteError, "clear", "", fmt.Errorf("failed to delete index entries: %w", err))
		}
		n, err := tx.q.DeleteAllRecords(tx.ctx, tx.store)
		if err != nil {
			return newError(CodeWriteError, "clear", "", fmt.Errorf("failed to delete records: %w", err))
		}
		removed = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// Registry returns the schema registry the store opens against.
func (c *Context) Registry() *schema.Registry {
	return c.registry
}

// TargetVersion returns the version handles opened through View and Update use.
func (c *Context) TargetVersion() int {
	return c.version
}

// LiveHandles returns the number of open handles.
func (c *Context) LiveHandles() int {
	return c.handles.Size()
}

// PersistedVersion reads the store version without opening a handle.
func (c *Context) PersistedVersion(ctx context.Context) (int, error) {
	v, err := c.Queries.GetStoreVersion(ctx, c.registry.Name())
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, newError(CodeReadError, "version", "", err)
	}
	return int(v), nil
}

// WriteMetrics writes the store metrics in Prometheus text format.
func (c *Context) WriteMetrics(w io.Writer) {
	c.metrics.set.WritePrometheus(w)
}

// Open returns a handle at target, upgrading the store first when it is behind.
// A zero target uses the context's configured version.
func (c *Context) Open(ctx context.Context, target int) (*Handle, error) {
	const op = "open"

	if target == 0 {
		target = c.version
	}
	if target < 1 || target > c.registry.Latest() {
		err := newError(CodeOpenFailed, op, "", fmt.Errorf("%w: %d (latest %d)", ErrUnknownVersion, target, c.registry.Latest()))
		c.metrics.observe(op, "", time.Now(), err)
		return nil, err
	}

	var report UpgradeReport
	for {
		h, err := c.newHandle(ctx)
		if err != nil {
			c.metrics.observe(op, "", time.Now(), err)
			return nil, err
		}

		persisted, err := c.readVersion(ctx, h.queries)
		if err != nil {
			_ = h.Close()
			return nil, newError(CodeOpenFailed, op, "", err)
		}

		switch {
		case persisted == target:
			h.version = target
			h.upgrade = report
			return h, nil
		case persisted > target:
			_ = h.Close()
			return nil, newError(CodeOpenFailed, op, "", fmt.Errorf("%w: persisted %d, requested %d", ErrVersionTooNew, persisted, target))
		}

		// The slot is given back before waiting for the whole gate.
		_ = h.Close()
		if report, err = c.upgrade(ctx, target); err != nil {
			c.metrics.observe("upgrade", "", time.Now(), err)
			return nil, err
		}
	}
}

// View opens a handle, runs fn in a read-only transaction and closes the handle.
func (c *Context) View(ctx context.Context, fn func(tx *Tx) error) error {
	h, err := c.Open(ctx, 0)
	if err != nil {
		return err
	}
	defer h.Close()
	return h.View(ctx, fn)
}

// Update opens a handle, runs fn in a read-write transaction and closes the handle.
func (c *Context) Update(ctx context.Context, fn func(tx *Tx) error) error {
	h, err := c.Open(ctx, 0)
	if err != nil {
		return err
	}
	defer h.Close()
	return h.Update(ctx, fn)
}

// Describe returns the persisted catalog of collections and indexes.
func (c *Context) Describe(ctx context.Context) ([]CollectionInfo, error) {
	var infos []CollectionInfo
	err := c.View(ctx, func(tx *Tx) error {
		var err error
		infos, err = tx.Collections()
		return err
	})
	return infos, err
}

// acquireGate waits for weight slots of the readiness gate, bounded by the blocked timeout.
func (c *Context) acquireGate(ctx context.Context, weight int64) error {
	waitCtx, cancel := context.WithTimeout(ctx, c.blockedTimeout)
	defer cancel()

	if err := c.gate.Acquire(waitCtx, weight); err != nil {
		if ctx.Err() != nil {
			return newError(CodeOpenFailed, "open", "", ctx.Err())
		}
		return newError(CodeBlocked, "open", "", fmt.Errorf("readiness gate busy after %s (%d live handles)", c.blockedTimeout, c.handles.Size()))
	}
	return nil
}

func (c *Context) newHandle(ctx context.Context) (*Handle, error) {
	if err := c.acquireGate(ctx, 1); err != nil {
		return nil, err
	}

	conn, err := c.DB.Conn(ctx)
	if err != nil {
		c.gate.Release(1)
		return nil, newError(CodeOpenFailed, "open", "", fmt.Errorf("failed to acquire connection: %w", err))
	}

	h := &Handle{
		id:       c.nextHandle.Add(1),
		c:        c,
		conn:     conn,
		queries:  c.Queries.WithConn(conn),
		openedAt: time.Now(),
	}
	c.handles.Store(h.id, h)
	return h, nil
}

func (c *Context) readVersion(ctx context.Context, q *sqldb.Queries) (int, error) {
	v, err := q.GetStoreVersion(ctx, c.registry.Name())
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read store version: %w", err)
	}
	return int(v), nil
}

func checkEnvironment(q *sqldb.Queries) error {
	v, err := q.SQLiteVersion(context.Background())
	if err != nil {
		return newError(CodeEnvironmentUnsupported, "create", "", fmt.Errorf("failed to read sqlite version: %w", err))
	}
	if !versionAtLeast(v, minSQLiteVersion) {
		return newError(CodeEnvironmentUnsupported, "create", "",
			fmt.Errorf("sqlite %s is older than %d.%d.%d", v, minSQLiteVersion[0], minSQLiteVersion[1], minSQLiteVersion[2]))
	}
	return nil
}

func versionAtLeast(version string, want [3]int) bool {
	parts := strings.SplitN(version, ".", 3)
	for i := 0; i < 3; i++ {
		n := 0
		if i < len(parts) {
			var err error
			if n, err = strconv.Atoi(parts[i]); err != nil {
				return false
			}
		}
		if n != want[i] {
			return n > want[i]
		}
	}
	return true
}

func runMigrations(db *sql.DB) error {
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to initialise migrate driver: %w", err)
	}

	sourceDriver, err := iofs.New(migrations.Files, ".")
	if err != nil {
		return fmt.Errorf("failed to load embedded migrations: %w", err)
	}
	defer func() {
		_ = sourceDriver.Close()
	}()

	migrator, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}
