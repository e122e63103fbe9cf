package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	DataDir     string  `toml:"DataDir"`
	GenesisFile string  `toml:"GenesisFile"`
	JournalFile string  `toml:"JournalFile"`
	NetworkName string  `toml:"NetworkName"`
	Environment string  `toml:"Environment"`
	Staking     Staking `toml:"staking"`
	Pauses      Pauses  `toml:"pauses"`
}

// Load loads the configuration from the given path, writing a default file
// when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config file %s: unknown key %q", path, undecoded[0].String())
	}

	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "stakeledger-local"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./stakeledger-data"
	}
	if cfg.Staking == (Staking{}) {
		cfg.Staking = DefaultStaking()
	}
	if err := ValidateConfig(*cfg); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the configuration written for fresh installs.
func Default() *Config {
	return &Config{
		DataDir:     "./stakeledger-data",
		GenesisFile: "",
		JournalFile: "events.db",
		NetworkName: "stakeledger-local",
		Environment: "dev",
		Staking:     DefaultStaking(),
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := Default()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// JournalPath resolves the event journal location relative to DataDir. An
// empty JournalFile disables the journal.
func (c *Config) JournalPath() string {
	journal := strings.TrimSpace(c.JournalFile)
	if journal == "" {
		return ""
	}
	if filepath.IsAbs(journal) {
		return journal
	}
	return filepath.Join(c.DataDir, journal)
}
