package ops

import (
	"encoding/json"
	"os"

	"riskgate/internal/engine"
	"riskgate/internal/journal"
	"riskgate/internal/rule"
	"riskgate/internal/server"
	"riskgate/pkg/conn"
)

// FileConfig mirrors the JSON config layout. Every section is optional;
// zero values resolve to the documented defaults.
type FileConfig struct {
	Engine  engine.Config  `json:"engine"`
	Rules   rule.Config    `json:"rules"`
	Journal journal.Config `json:"journal"`
	Server  server.Config  `json:"server"`
	Audit   AuditConfig    `json:"audit"`
	Profile ProfileConfig  `json:"profile"`
}

// AuditConfig enables the rejected-order store.
type AuditConfig struct {
	Enabled  bool        `json:"enabled"`
	Postgres conn.Option `json:"postgres"`
}

// ProfileConfig enables continuous profiling.
type ProfileConfig struct {
	Enabled       bool   `json:"enabled"`
	ServerAddress string `json:"serverAddress"`
}

// Load reads a JSON config file. An empty path yields the defaults.
func Load(path string) (FileConfig, error) {
	var cfg FileConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return FileConfig{}, err
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return FileConfig{}, err
		}
	}
	return cfg, nil
}

// Resolve applies prog as the journal file prefix when the config leaves
// it unset, then fills all remaining defaults.
func (c FileConfig) Resolve(prog string) FileConfig {
	if c.Journal.FilePrefix == "" {
		c.Journal.FilePrefix = prog
	}
	c.Rules = c.Rules.WithDefaults()
	c.Journal = c.Journal.WithDefaults()
	c.Server = c.Server.WithDefaults()
	return c
}
