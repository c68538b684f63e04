package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/focus-md/focus/internal/database"
	"github.com/focus-md/focus/internal/filesystem"
	"github.com/focus-md/focus/internal/logging"
	"github.com/focus-md/focus/internal/store"
)

// Backup creates, lists and restores exports of the store.
type Backup struct {
	db  *database.Context
	now func() time.Time
}

func NewBackup(dbCtx *database.Context) *Backup {
	return &Backup{db: dbCtx, now: time.Now}
}

type BackupResult struct {
	Path        string
	Hash        string
	Collections int
	Records     int
}

// Create exports the store into a new file in the backups directory.
func (u *Backup) Create(ctx context.Context) (*BackupResult, error) {
	b, err := store.Export(ctx, u.db)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}

	path, hash, err := filesystem.SaveBackup(data, u.now())
	if err != nil {
		return nil, fmt.Errorf("failed to save backup: %w", err)
	}

	logging.GetLogger("backup").Infof("saved %d records from %d collections to %s", b.Records(), len(b), path)
	return &BackupResult{Path: path, Hash: hash, Collections: len(b), Records: b.Records()}, nil
}

// List returns the saved backups, newest first.
func (u *Backup) List() ([]filesystem.BackupFile, error) {
	return filesystem.ListBackups()
}

// Load reads a backup file. Files carrying a recorded hash are verified first.
func (u *Backup) Load(path string) (store.Backup, error) {
	hash, err := filesystem.RecordedHash(path)
	if err != nil {
		return nil, err
	}
	if hash != "" {
		ok, err := filesystem.VerifyFile(path, hash)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("file integrity check failed for %s", path)
		}
	}

	data, err := filesystem.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return store.ParseBackup(data)
}

// Restore imports the backup at path, replacing every collection it contains.
func (u *Backup) Restore(ctx context.Context, path string) (*BackupResult, error) {
	b, err := u.Load(path)
	if err != nil {
		return nil, err
	}
	if err := store.Import(ctx, u.db, b); err != nil {
		return nil, err
	}

	logging.GetLogger("backup").Infof("restored %d records into %d collections from %s", b.Records(), len(b), path)
	return &BackupResult{Path: path, Collections: len(b), Records: b.Records()}, nil
}

// Prune keeps the newest keep backups and deletes the rest.
func (u *Backup) Prune(keep int) (int, error) {
	return filesystem.PruneBackups(keep)
}
