package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aurorahq/aurora/internal/errors"
)

// BackupFileName is the backup snapshot file inside the data directory.
const BackupFileName = "messages_backup.json"

// backupEnvelope is the on-disk backup format.
type backupEnvelope struct {
	FetchedAt time.Time `json:"fetched_at"`
	Messages  []Message `json:"messages"`
}

// Backup reads and writes the durable backup snapshot.
// The backup is written after a successful cold-start index build and read
// only as a degraded-mode fallback when the upstream source is unreachable.
type Backup struct {
	path string
}

// NewBackup creates a backup handle inside the given data directory.
func NewBackup(dataDir string) *Backup {
	return &Backup{path: filepath.Join(dataDir, BackupFileName)}
}

// Path returns the backup file path.
func (b *Backup) Path() string {
	return b.path
}

// Exists reports whether a backup snapshot file is present.
func (b *Backup) Exists() bool {
	_, err := os.Stat(b.path)
	return err == nil
}

// Save writes the snapshot atomically (temp file + rename).
func (b *Backup) Save(snap *Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	data, err := json.MarshalIndent(backupEnvelope{
		FetchedAt: snap.FetchedAt,
		Messages:  snap.Messages,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal backup: %w", err)
	}

	tmp := b.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}
	if err := os.Rename(tmp, b.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to rename backup: %w", err)
	}
	return nil
}

// Load reads the backup snapshot from disk.
func (b *Backup) Load() (*Snapshot, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeBackupNotFound,
				fmt.Sprintf("no backup snapshot at %s", b.path), err)
		}
		return nil, fmt.Errorf("failed to read backup: %w", err)
	}

	var env backupEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.New(errors.ErrCodeBackupCorrupt,
			"backup snapshot is not valid JSON", err)
	}

	return &Snapshot{
		Messages:  env.Messages,
		FetchedAt: env.FetchedAt,
	}, nil
}
