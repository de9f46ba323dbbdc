package journal

import (
	"fmt"
	"time"
)

const (
	defaultPeriod    = 24 * time.Hour
	defaultQueueSize = 4096
	defaultTick      = time.Minute

	// FileSuffix marks journal files in the data directory.
	FileSuffix = ".rm_save"

	// hourLayout names journal files by hour; lexicographic order is
	// chronological.
	hourLayout = "060102-15"
)

// Config controls the journal writer.
type Config struct {
	// Dir is the data directory. Empty means ./<FilePrefix>.data.
	Dir string `json:"dir"`
	// FilePrefix names journal files: <FilePrefix>.<yyMMdd-HH>.rm_save.
	FilePrefix string `json:"filePrefix"`
	// Period is the retention window; files falling out of it are deleted.
	Period time.Duration `json:"period"`
	// QueueSize bounds the pending append queue.
	QueueSize int `json:"queueSize"`
	// Tick drives flushing and retention expiry. Rotation happens on the
	// first write of a new hour.
	Tick time.Duration `json:"tick"`
}

// WithDefaults fills unset values. FilePrefix must already be set.
func (c Config) WithDefaults() Config {
	if c.Dir == "" && c.FilePrefix != "" {
		c.Dir = "./" + c.FilePrefix + ".data"
	}
	if c.Period == 0 {
		c.Period = defaultPeriod
	}
	if c.QueueSize == 0 {
		c.QueueSize = defaultQueueSize
	}
	if c.Tick == 0 {
		c.Tick = defaultTick
	}
	return c
}

// Validate checks if the configuration is usable.
func (c Config) Validate() error {
	if c.FilePrefix == "" {
		return fmt.Errorf("invalid journal config: FilePrefix is empty")
	}
	if c.Dir == "" {
		return fmt.Errorf("invalid journal config: Dir is empty")
	}
	if c.Period <= 0 {
		return fmt.Errorf("invalid journal config: Period must be > 0")
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("invalid journal config: QueueSize must be > 0")
	}
	if c.Tick <= 0 {
		return fmt.Errorf("invalid journal config: Tick must be > 0")
	}
	return nil
}
