package metrics

import (
	"path/filepath"

	"codeberg.org/mutker/servoctl/internal/errors"
)

const (
	// File system permissions and paths
	defaultDirPerm      = 0o755
	defaultDBPath       = "/var/lib/servoctl/metrics.db"
	defaultBatchSize    = 50
	defaultBatchTimeout = 5
)

type Config struct {
	DBPath string
	// BackupDir receives copies of databases with an outdated schema.
	// Defaults to a backups directory next to DBPath.
	BackupDir string
	// BatchSize is the number of snapshots buffered before a flush
	BatchSize int
	// BatchTimeout is the flush interval in seconds
	BatchTimeout int
	Enabled      bool
}

func DefaultConfig() Config {
	return Config{
		DBPath:       defaultDBPath,
		BatchSize:    defaultBatchSize,
		BatchTimeout: defaultBatchTimeout,
		Enabled:      false, // Disabled by default
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	// Only validate DBPath if metrics is enabled
	if c.Enabled && c.DBPath == "" {
		return errFactory.New(ErrInvalidDBPath)
	}
	if c.BatchSize < 0 || c.BatchTimeout < 0 {
		return errFactory.WithData(ErrInvalidConfig, c)
	}
	return nil
}

func (c Config) backupDir() string {
	if c.BackupDir != "" {
		return c.BackupDir
	}
	return filepath.Join(filepath.Dir(c.DBPath), "backups")
}
