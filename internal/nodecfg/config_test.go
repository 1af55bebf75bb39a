package nodecfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreUsable(t *testing.T) {
	assert.Equal(t, "mainnet", Defaults.Chain)
	assert.NotEmpty(t, Defaults.Network.ListenAddr)
	assert.Positive(t, Defaults.Network.MaxPeers)
}

func TestCopyDeepCopiesBootstrapPeers(t *testing.T) {
	cfg := Defaults
	cfg.Network.BootstrapPeers = []string{"/ip4/1.2.3.4/tcp/8115"}

	cp := cfg.Copy()
	cp.Network.BootstrapPeers[0] = "mutated"

	assert.Equal(t, "/ip4/1.2.3.4/tcp/8115", cfg.Network.BootstrapPeers[0])
}

func TestResolveChainSpecKnownChain(t *testing.T) {
	spec, err := ResolveChainSpec("mainnet")
	require.NoError(t, err)
	assert.NotNil(t, spec)
}

func TestResolveChainSpecUnknownChainIsFatalConfigurationError(t *testing.T) {
	_, err := ResolveChainSpec("not-a-real-chain")
	assert.ErrorIs(t, err, ErrUnknownChain)
}
