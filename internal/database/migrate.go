package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqldb "github.com/focus-md/focus/internal/database/sqlc"
	"github.com/focus-md/focus/internal/logging"
	"github.com/focus-md/focus/internal/schema"
)

// upgrade takes the whole readiness gate, so no handle is live while gates run.
func (c *Context) upgrade(ctx context.Context, target int) (UpgradeReport, error) {
	log := logging.GetLogger("migrate")

	if err := c.acquireGate(ctx, c.maxHandles); err != nil {
		if errors.Is(err, ErrBlocked) {
			log.Warningf("upgrade of %s to version %d blocked: %v", c.registry.Name(), target, err)
		}
		return UpgradeReport{}, err
	}
	defer c.gate.Release(c.maxHandles)

	conn, err := c.DB.Conn(ctx)
	if err != nil {
		return UpgradeReport{}, newError(CodeOpenFailed, "upgrade", "", fmt.Errorf("failed to acquire connection: %w", err))
	}
	defer conn.Close()

	start := time.Now()
	report, err := c.migrate(context.WithoutCancel(ctx), conn, target)
	if err != nil {
		log.Errorf("upgrade of %s to version %d failed: %v", c.registry.Name(), target, err)
		return UpgradeReport{}, err
	}
	if report.Upgraded() {
		c.metrics.upgraded(len(report.Gates), report.Steps)
		log.Infof("upgraded %s from version %d to %d (gates %v, %d steps) in %s",
			c.registry.Name(), report.From, report.To, report.Gates, report.Steps, time.Since(start))
	}
	return report, nil
}

// migrate runs every gate in (persisted, target] inside one IMMEDIATE transaction
// together with the version bump. Any failure rolls the whole upgrade back.
func (c *Context) migrate(ctx context.Context, conn *sql.Conn, target int) (UpgradeReport, error) {
	const op = "upgrade"

	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		if isBusy(err) {
			return UpgradeReport{}, newError(CodeBlocked, op, "", err)
		}
		return UpgradeReport{}, newError(CodeMigrationFailed, op, "", fmt.Errorf("failed to begin upgrade transaction: %w", err))
	}

	report, err := c.applyGates(ctx, sqldb.New(conn), target)
	if err != nil {
		if _, rbErr := conn.ExecContext(ctx, "ROLLBACK"); rbErr != nil {
			return UpgradeReport{}, newError(CodeMigrationFailed, op, "", fmt.Errorf("%w (rollback error: %w)", err, rbErr))
		}
		return UpgradeReport{}, newError(CodeMigrationFailed, op, "", err)
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		_, _ = conn.ExecContext(ctx, "ROLLBACK")
		return UpgradeReport{}, newError(CodeMigrationFailed, op, "", fmt.Errorf("failed to commit upgrade: %w", err))
	}
	return report, nil
}

func (c *Context) applyGates(ctx context.Context, q *sqldb.Queries, target int) (UpgradeReport, error) {
	store := c.registry.Name()

	// Another process may have upgraded between the version check and the lock.
	persisted, err := c.readVersion(ctx, q)
	if err != nil {
		return UpgradeReport{}, err
	}
	report := UpgradeReport{From: persisted, To: persisted}
	if persisted >= target {
		return report, nil
	}

	if err := q.InsertStore(ctx, store); err != nil {
		return UpgradeReport{}, fmt.Errorf("failed to register store: %w", err)
	}

	gates, err := c.registry.Gates(persisted, target)
	if err != nil {
		return UpgradeReport{}, err
	}

	for _, gate := range gates {
		steps := 0
		for _, step := range gate.Steps() {
			applied, err := applyStep(ctx, q, store, gate.Number, step)
			if err != nil {
				return UpgradeReport{}, fmt.Errorf("gate %d: %s: %w", gate.Number, step, err)
			}
			if applied {
				steps++
			}
		}
		if err := q.InsertMigrationLog(ctx, sqldb.InsertMigrationLogParams{
			Store: store, Version: int64(gate.Number), Steps: int64(steps),
		}); err != nil {
			return UpgradeReport{}, fmt.Errorf("gate %d: failed to log: %w", gate.Number, err)
		}
		report.Gates = append(report.Gates, gate.Number)
		report.Steps += steps
	}

	changed, err := q.SetStoreVersion(ctx, sqldb.SetStoreVersionParams{Name: store, Version: int64(target)})
	if err != nil {
		return UpgradeReport{}, fmt.Errorf("failed to set version: %w", err)
	}
	if !changed {
		return UpgradeReport{}, fmt.Errorf("%w: version did not advance to %d", ErrVersionTooNew, target)
	}
	report.To = target
	return report, nil
}

// applyStep diffs one registry step against the persisted catalog. It returns
// false when the catalog already holds an identical definition.
func applyStep(ctx context.Context, q *sqldb.Queries, store string, version int, step schema.Step) (bool, error) {
	switch step.Kind {
	case schema.StepCreateCollection:
		return createCollection(ctx, q, store, version, step.Collection)
	case schema.StepCreateIndex:
		return createIndex(ctx, q, store, version, step.Index)
	default:
		return false, fmt.Errorf("unknown step kind %d", step.Kind)
	}
}

func createCollection(ctx context.Context, q *sqldb.Queries, store string, version int, def schema.CollectionDef) (bool, error) {
	existing, err := q.GetCollection(ctx, sqldb.GetCollectionParams{Store: store, Name: def.Name})
	if err == nil {
		if existing.KeyPath != def.KeyPath || existing.AutoIncrement != def.AutoIncrement {
			return false, fmt.Errorf("%w: collection %s has key path %q auto=%t", ErrSchemaConflict, def.Name, existing.KeyPath, existing.AutoIncrement)
		}
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}

	err = q.InsertCollection(ctx, sqldb.InsertCollectionParams{
		Store:          store,
		Name:           def.Name,
		KeyPath:        def.KeyPath,
		AutoIncrement:  def.AutoIncrement,
		CreatedVersion: int64(version),
	})
	return err == nil, err
}

func createIndex(ctx context.Context, q *sqldb.Queries, store string, version int, def schema.IndexDef) (bool, error) {
	existing, err := q.GetIndex(ctx, sqldb.GetIndexParams{Store: store, Collection: def.Collection, Name: def.Name})
	if err == nil {
		if existing.KeyPath != def.KeyPath || existing.MultiEntry != def.MultiEntry || existing.IsUnique != def.Unique {
			return false, fmt.Errorf("%w: index %s.%s has key path %q multi=%t unique=%t",
				ErrSchemaConflict, def.Collection, def.Name, existing.KeyPath, existing.MultiEntry, existing.IsUnique)
		}
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}

	if _, err := q.GetCollection(ctx, sqldb.GetCollectionParams{Store: store, Name: def.Collection}); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, fmt.Errorf("%w: %s", ErrCollectionNotFound, def.Collection)
		}
		return false, err
	}

	idx := sqldb.CollectionIndex{
		Store:          store,
		Collection:     def.Collection,
		Name:           def.Name,
		KeyPath:        def.KeyPath,
		MultiEntry:     def.MultiEntry,
		IsUnique:       def.Unique,
		CreatedVersion: int64(version),
	}
	if err := q.InsertIndex(ctx, sqldb.InsertIndexParams{
		Store:          idx.Store,
		Collection:     idx.Collection,
		Name:           idx.Name,
		KeyPath:        idx.KeyPath,
		MultiEntry:     idx.MultiEntry,
		IsUnique:       idx.IsUnique,
		CreatedVersion: idx.CreatedVersion,
	}); err != nil {
		return false, err
	}

	if err := populateIndex(ctx, q, idx); err != nil {
		return false, err
	}
	return true, nil
}

// populateIndex indexes the records that already exist when an index is created.
func populateIndex(ctx context.Context, q *sqldb.Queries, idx sqldb.CollectionIndex) error {
	records, err := q.ListRecords(ctx, sqldb.CollectionParams{Store: idx.Store, Collection: idx.Collection})
	if err != nil {
		return err
	}
	for _, rec := range records {
		doc, err := decodeDoc([]byte(rec.Data))
		if err != nil {
			return fmt.Errorf("record %v: %w", rec.Pk, err)
		}
		for _, v := range indexValues(doc, idx) {
			entry := sqldb.InsertIndexEntryParams{
				Store: idx.Store, Collection: idx.Collection, IndexName: idx.Name, Value: v, Pk: rec.Pk,
			}
			if idx.IsUnique {
				other, err := q.FindIndexConflict(ctx, entry)
				if err == nil {
					return newError(CodeDuplicateKey, "index", idx.Collection,
						fmt.Errorf("unique index %s: value %v held by keys %v and %v", idx.Name, v, other, rec.Pk))
				}
				if !errors.Is(err, sql.ErrNoRows) {
					return err
				}
			}
			if err := q.InsertIndexEntry(ctx, entry); err != nil {
				return err
			}
		}
	}
	return nil
}
