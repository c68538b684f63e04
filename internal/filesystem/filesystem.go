// Package filesystem stores exported backups as hashed files under the focus data directory.
package filesystem

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/focus-md/focus/internal/config"
)

const (
	backupPrefix = "focus-"
	backupExt    = ".json"
	hashExt      = ".sha256"
)

// BackupFile describes one backup on disk.
type BackupFile struct {
	Path      string
	Name      string
	Size      int64
	CreatedAt time.Time
	Hash      string
}

// ensureBackupsDir creates the backups directory when it is missing.
func ensureBackupsDir() (string, error) {
	dir := config.GetBackupsDir()
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", err
	}
	return dir, nil
}

// SaveBackup writes content to the backups directory and returns the file path and hash.
// The hash is also stored next to the file so the backup can be verified later.
func SaveBackup(content []byte, at time.Time) (string, string, error) {
	dir, err := ensureBackupsDir()
	if err != nil {
		return "", "", err
	}

	hash := calculateHash(content)
	path := filepath.Join(dir, backupName(at, hash))

	if err := os.WriteFile(path, content, 0o600); err != nil {
		return "", "", err
	}
	if err := os.WriteFile(path+hashExt, []byte(hash+"\n"), 0o600); err != nil {
		_ = os.Remove(path)
		return "", "", err
	}

	return path, hash, nil
}

// ReadFile reads a file from disk.
func ReadFile(path string) ([]byte, error) {
	//nolint:gosec // G304: path is chosen by the user or listed from the backups dir
	return os.ReadFile(path)
}

// DeleteFile removes a file if it exists.
func DeleteFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return os.Remove(path)
}

// FileExists reports whether the given path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// VerifyFile ensures the file exists and its SHA-256 hash matches the expected hash.
func VerifyFile(path, expectedHash string) (bool, error) {
	if !FileExists(path) {
		return false, nil
	}

	content, err := ReadFile(path)
	if err != nil {
		return false, err
	}

	return calculateHash(content) == expectedHash, nil
}

// RecordedHash returns the hash saved alongside a backup, or "" when there is none.
func RecordedHash(path string) (string, error) {
	data, err := ReadFile(path + hashExt)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// ListBackups returns the backups in the backups directory, newest first.
func ListBackups() ([]BackupFile, error) {
	var backups []BackupFile
	err := WalkBackups(func(path string, d fs.DirEntry) error {
		info, err := d.Info()
		if err != nil {
			return err
		}
		hash, err := RecordedHash(path)
		if err != nil {
			return err
		}
		backups = append(backups, BackupFile{
			Path:      path,
			Name:      d.Name(),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
			Hash:      hash,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Names embed the creation time, so reverse name order is newest first.
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Name > backups[j].Name
	})
	return backups, nil
}

// PruneBackups removes all but the newest keep backups and returns the number removed.
func PruneBackups(keep int) (int, error) {
	if keep < 0 {
		return 0, fmt.Errorf("keep must not be negative: %d", keep)
	}
	backups, err := ListBackups()
	if err != nil {
		return 0, err
	}

	count := 0
	for _, b := range backups[min(keep, len(backups)):] {
		if err := os.Remove(b.Path); err != nil {
			return count, err
		}
		if err := DeleteFile(b.Path + hashExt); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// WalkFunc explores each backup file.
type WalkFunc func(path string, d fs.DirEntry) error

// WalkBackups iterates over the backup files in the backups directory.
func WalkBackups(fn WalkFunc) error {
	dir := config.GetBackupsDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, backupPrefix) || !strings.HasSuffix(name, backupExt) {
			continue
		}
		if err := fn(filepath.Join(dir, name), entry); err != nil {
			return err
		}
	}

	return nil
}

func backupName(at time.Time, hash string) string {
	return backupPrefix + at.UTC().Format("20060102T150405.000Z") + "-" + hash[:12] + backupExt
}

func calculateHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
