package nodecfg

import (
	"github.com/urfave/cli/v2"
)

// Flag definitions only: cmd/utils/flags.go's family of package-level
// *cli.XxxFlag values, one per Config field, plus an ApplyFlags that
// overlays a parsed cli.Context onto a Config. Wiring these into an
// actual cli.App and running a node from them is a non-goal here;
// cmd/ckbnode binds these flags to a cli.App but does not go further.
var (
	ChainFlag = &cli.StringFlag{
		Name:  "chain",
		Usage: "Name of the chain to join",
		Value: Defaults.Chain,
	}
	ListenAddrFlag = &cli.StringFlag{
		Name:  "network.listen-addr",
		Usage: "libp2p multiaddr to listen for peer connections on",
		Value: Defaults.Network.ListenAddr,
	}
	BootstrapPeersFlag = &cli.StringSliceFlag{
		Name:  "network.bootstrap-peers",
		Usage: "Multiaddrs of bootstrap peers to dial at startup",
	}
	MaxPeersFlag = &cli.IntFlag{
		Name:  "network.max-peers",
		Usage: "Maximum number of peer connections",
		Value: Defaults.Network.MaxPeers,
	}
	DataDirFlag = &cli.StringFlag{
		Name:  "store.data-dir",
		Usage: "Directory for the chain and cell-set database",
		Value: Defaults.Store.DataDir,
	}
	LogLevelFlag = &cli.StringFlag{
		Name:  "logging.level",
		Usage: "Logging verbosity: crit, error, warn, info, debug, trace",
		Value: Defaults.Logging.Level,
	}
	LogFileFlag = &cli.StringFlag{
		Name:  "logging.file",
		Usage: "Write logs to this file instead of stderr",
	}
	MetricsEnabledFlag = &cli.BoolFlag{
		Name:  "metrics.enabled",
		Usage: "Enable the Prometheus metrics exporter",
		Value: Defaults.Metrics.Enabled,
	}
	MetricsAddrFlag = &cli.StringFlag{
		Name:  "metrics.listen-addr",
		Usage: "Listen address for the Prometheus metrics exporter",
		Value: Defaults.Metrics.ListenAddr,
	}
	ChainSyncTimeoutFlag = &cli.DurationFlag{
		Name:  "chain-sync-timeout",
		Usage: "How long a stalled header sync is tolerated before the peer is dropped",
		Value: Defaults.ChainSyncTimeout,
	}
)

// Flags is the full flag set a cmd/ bootstrap registers on its cli.App.
var Flags = []cli.Flag{
	ChainFlag,
	ListenAddrFlag,
	BootstrapPeersFlag,
	MaxPeersFlag,
	DataDirFlag,
	LogLevelFlag,
	LogFileFlag,
	MetricsEnabledFlag,
	MetricsAddrFlag,
	ChainSyncTimeoutFlag,
}

// ApplyFlags overlays flags set on ctx onto cfg, mirroring the
// teacher's cmd/utils.SetNodeConfig pattern of one IsSet check per
// flag rather than blindly copying every flag's value.
func ApplyFlags(ctx *cli.Context, cfg *Config) {
	if ctx.IsSet(ChainFlag.Name) {
		cfg.Chain = ctx.String(ChainFlag.Name)
	}
	if ctx.IsSet(ListenAddrFlag.Name) {
		cfg.Network.ListenAddr = ctx.String(ListenAddrFlag.Name)
	}
	if ctx.IsSet(BootstrapPeersFlag.Name) {
		cfg.Network.BootstrapPeers = ctx.StringSlice(BootstrapPeersFlag.Name)
	}
	if ctx.IsSet(MaxPeersFlag.Name) {
		cfg.Network.MaxPeers = ctx.Int(MaxPeersFlag.Name)
	}
	if ctx.IsSet(DataDirFlag.Name) {
		cfg.Store.DataDir = ctx.String(DataDirFlag.Name)
	}
	if ctx.IsSet(LogLevelFlag.Name) {
		cfg.Logging.Level = ctx.String(LogLevelFlag.Name)
	}
	if ctx.IsSet(LogFileFlag.Name) {
		cfg.Logging.File = ctx.String(LogFileFlag.Name)
	}
	if ctx.IsSet(MetricsEnabledFlag.Name) {
		cfg.Metrics.Enabled = ctx.Bool(MetricsEnabledFlag.Name)
	}
	if ctx.IsSet(MetricsAddrFlag.Name) {
		cfg.Metrics.ListenAddr = ctx.String(MetricsAddrFlag.Name)
	}
	if ctx.IsSet(ChainSyncTimeoutFlag.Name) {
		cfg.ChainSyncTimeout = ctx.Duration(ChainSyncTimeoutFlag.Name)
	}
}
