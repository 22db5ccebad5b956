package flashcore

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/venueflash/flashcore/flashcore/database"
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

type Config struct {
	Log     LogConfig         `toml:"log"`
	DB      database.DBConfig `toml:"db"`
	Notify  NotifyConfig      `toml:"notify"`
	Archive ArchiveConfig     `toml:"archive"`
	Mongo   MongoConfig       `toml:"mongo"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

type NotifyConfig struct {
	AuditCapacity int           `toml:"audit_capacity"`
	WarnWindow    time.Duration `toml:"warn_window"`
	ScanInterval  time.Duration `toml:"scan_interval"`
}

// ArchiveConfig points at the DigitalOcean Spaces bucket that receives
// audit exports. Archiving is disabled when Key is empty.
type ArchiveConfig struct {
	Key      string        `toml:"key"`
	Secret   string        `toml:"secret"`
	Region   string        `toml:"region"`
	Bucket   string        `toml:"bucket"`
	Prefix   string        `toml:"prefix"`
	Interval time.Duration `toml:"interval"`
}

// MongoConfig locates the legacy deployment for one-shot imports.
type MongoConfig struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

func (c *Config) applyDefaults() {
	if c.Notify.AuditCapacity == 0 {
		c.Notify.AuditCapacity = 10000
	}
	if c.Notify.WarnWindow == 0 {
		c.Notify.WarnWindow = 15 * time.Minute
	}
	if c.Notify.ScanInterval == 0 {
		c.Notify.ScanInterval = time.Minute
	}
	if c.Archive.Interval == 0 {
		c.Archive.Interval = time.Hour
	}
}
