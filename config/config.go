package config

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the escrowd daemon configuration.
type Config struct {
	RPCAddress    string   `toml:"RPCAddress"`
	DataDir       string   `toml:"DataDir"`
	Env           string   `toml:"Env"`
	NetworkName   string   `toml:"NetworkName"`
	ProgramID     string   `toml:"ProgramID"`
	PausedModules []string `toml:"PausedModules"`

	Tokens  []TokenConfig   `toml:"tokens"`
	Genesis []GenesisConfig `toml:"genesis"`
}

// TokenConfig registers one token mint in the custody ledger at startup.
type TokenConfig struct {
	Symbol   string `toml:"Symbol"`
	Name     string `toml:"Name"`
	Mint     string `toml:"Mint"`
	Decimals uint8  `toml:"Decimals"`
}

// GenesisConfig seeds one ledger balance the first time the daemon runs
// against an empty state.
type GenesisConfig struct {
	Account string `toml:"Account"`
	Mint    string `toml:"Mint"`
	Amount  string `toml:"Amount"`
}

// Load reads the configuration from path, creating a commented default file
// when none exists.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = ":8645"
	}
	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "swapescrow-local"
	}
	if cfg.PausedModules == nil {
		cfg.PausedModules = []string{}
	}
}

// Validate checks the fields the daemon cannot run without.
func (c *Config) Validate() error {
	if _, err := c.ProgramIDBytes(); err != nil {
		return err
	}
	for i := range c.Tokens {
		if _, err := ParseAddress(c.Tokens[i].Mint); err != nil {
			return fmt.Errorf("config: token %q mint: %w", c.Tokens[i].Symbol, err)
		}
	}
	for i := range c.Genesis {
		if _, err := ParseAddress(c.Genesis[i].Account); err != nil {
			return fmt.Errorf("config: genesis entry %d account: %w", i, err)
		}
		if _, err := ParseAddress(c.Genesis[i].Mint); err != nil {
			return fmt.Errorf("config: genesis entry %d mint: %w", i, err)
		}
		if _, err := ParseAmount(c.Genesis[i].Amount); err != nil {
			return fmt.Errorf("config: genesis entry %d amount: %w", i, err)
		}
	}
	return nil
}

// ProgramIDBytes decodes the configured program identity.
func (c *Config) ProgramIDBytes() ([20]byte, error) {
	id, err := ParseAddress(c.ProgramID)
	if err != nil {
		return [20]byte{}, fmt.Errorf("config: program id: %w", err)
	}
	return id, nil
}

// ParseAddress decodes a 20-byte hex address, with or without 0x prefix.
func ParseAddress(value string) ([20]byte, error) {
	var out [20]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return out, fmt.Errorf("invalid hex address %q", value)
	}
	if len(raw) != 20 {
		return out, fmt.Errorf("address must be 20 bytes, got %d", len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

// ParseAmount decodes a base-10 non-negative amount.
func ParseAmount(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	return amount, nil
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{
		RPCAddress:    ":8645",
		DataDir:       "./escrowd-data",
		Env:           "local",
		NetworkName:   "swapescrow-local",
		ProgramID:     "0x" + strings.Repeat("00", 19) + "01",
		PausedModules: []string{},
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
