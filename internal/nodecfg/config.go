// Package nodecfg loads and validates node configuration from TOML
// files and CLI flags, following the teacher's config-struct-with-
// Copy() idiom (params/oasys.go's EnvironmentValue.Copy()).
package nodecfg

import (
	"bufio"
	"fmt"
	"os"
	"reflect"
	"time"

	"github.com/naoina/toml"

	"github.com/nervosnetwork/ckb-go/consensus"
)

// tomlSettings follows the shape of the teacher's cmd/utils config
// loading: keys match Go field names exactly, and unknown fields are
// ignored (MissingField returns nil).
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		return nil
	},
}

// NetworkConfig holds the p2p/listen-address side of node config.
type NetworkConfig struct {
	ListenAddr     string   `toml:"listen-addr"`
	BootstrapPeers []string `toml:"bootstrap-peers"`
	MaxPeers       int      `toml:"max-peers"`
}

// StoreConfig holds on-disk data directory settings.
type StoreConfig struct {
	DataDir string `toml:"data-dir"`
}

// LoggingConfig holds the ambient logging sink configuration.
type LoggingConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max-size-mb"`
	MaxBackups int    `toml:"max-backups"`
	MaxAgeDays int    `toml:"max-age-days"`
}

// MetricsConfig holds the Prometheus exporter's listen address.
type MetricsConfig struct {
	Enabled    bool   `toml:"enabled"`
	ListenAddr string `toml:"listen-addr"`
}

// Config is the full node configuration, the union of the ambient
// sections plus consensus chain spec overrides.
type Config struct {
	Chain   string        `toml:"chain"`
	Network NetworkConfig `toml:"network"`
	Store   StoreConfig   `toml:"store"`
	Logging LoggingConfig `toml:"logging"`
	Metrics MetricsConfig `toml:"metrics"`

	ChainSyncTimeout time.Duration `toml:"chain-sync-timeout"`
}

// Defaults mirrors the teacher's ethconfig.Defaults package-level
// value: a ready-to-use Config for a node started with no flags.
var Defaults = Config{
	Chain: "mainnet",
	Network: NetworkConfig{
		ListenAddr: "/ip4/0.0.0.0/tcp/8115",
		MaxPeers:   125,
	},
	Store: StoreConfig{DataDir: "./data"},
	Logging: LoggingConfig{
		Level:      "info",
		MaxSizeMB:  100,
		MaxBackups: 7,
		MaxAgeDays: 28,
	},
	Metrics:          MetricsConfig{Enabled: true, ListenAddr: "127.0.0.1:9100"},
	ChainSyncTimeout: 12 * time.Minute,
}

// Copy deep-copies c, mirroring params.EnvironmentValue.Copy() so a
// runtime component can hold a private mutation-safe snapshot.
func (c *Config) Copy() *Config {
	cp := *c
	cp.Network.BootstrapPeers = append([]string{}, c.Network.BootstrapPeers...)
	return &cp
}

// Load reads a TOML config file from path, starting from Defaults and
// overlaying whatever the file sets.
func Load(path string) (*Config, error) {
	cfg := Defaults
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	if err := tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// ErrUnknownChain is returned by ResolveChainSpec for a chain name with
// no known spec (spec.md §7 "disallowed chain name → Fatal at startup").
var ErrUnknownChain = fmt.Errorf("unknown chain name")

// ResolveChainSpec maps a configured chain name to its ChainSpec,
// mirroring params.MainnetChainConfig/TestnetChainConfig selection.
// Only "mainnet" has a defined spec today; any other name is the
// "disallowed chain name" fatal-at-startup case from spec.md §7.
func ResolveChainSpec(name string) (*consensus.ChainSpec, error) {
	switch name {
	case "mainnet":
		return consensus.DefaultMainnet(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownChain, name)
	}
}
