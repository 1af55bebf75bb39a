package nodecfg

import (
	"flag"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/urfave/cli/v2"
)

func TestApplyFlagsOverlaysOnlySetFlags(t *testing.T) {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range Flags {
		assert.NoError(t, f.Apply(set))
	}
	assert.NoError(t, set.Parse([]string{
		"-network.listen-addr", "/ip4/127.0.0.1/tcp/9000",
		"-network.max-peers", "32",
		"-chain-sync-timeout", "5m",
	}))
	ctx := cli.NewContext(cli.NewApp(), set, nil)

	cfg := Defaults
	ApplyFlags(ctx, &cfg)

	assert.Equal(t, "/ip4/127.0.0.1/tcp/9000", cfg.Network.ListenAddr)
	assert.Equal(t, 32, cfg.Network.MaxPeers)
	assert.Equal(t, 5*time.Minute, cfg.ChainSyncTimeout)

	// Untouched flags keep their defaults.
	assert.Equal(t, Defaults.Chain, cfg.Chain)
	assert.Equal(t, Defaults.Metrics.Enabled, cfg.Metrics.Enabled)
}

func TestApplyFlagsLeavesDefaultsWhenNothingSet(t *testing.T) {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range Flags {
		assert.NoError(t, f.Apply(set))
	}
	assert.NoError(t, set.Parse(nil))
	ctx := cli.NewContext(cli.NewApp(), set, nil)

	cfg := Defaults
	ApplyFlags(ctx, &cfg)

	assert.Equal(t, Defaults, cfg)
}
