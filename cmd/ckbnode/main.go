// Command ckbnode is the thin wiring binary that assembles the
// verification and propagation cores into a running process: load
// config, open the store, stand up the libp2p transport, and dispatch
// inbound wire messages to the sync/relay/verify packages. Bootstrapping
// a production node (genesis import, graceful state migration, RPC/
// wallet surfaces) is an explicit non-goal; this wires just enough to
// show the cores running together, adapted from the teacher's
// constructor-validates-config / builds-chainstore / wires-handler
// shape in eth/backend.go.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/libp2p/go-libp2p"
	p2ppeer "github.com/libp2p/go-libp2p/core/peer"
	"github.com/rs/cors"
	"github.com/urfave/cli/v2"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/nervosnetwork/ckb-go/internal/logging"
	"github.com/nervosnetwork/ckb-go/internal/metrics"
	"github.com/nervosnetwork/ckb-go/internal/nodecfg"
	"github.com/nervosnetwork/ckb-go/p2p"
	"github.com/nervosnetwork/ckb-go/peer"
	"github.com/nervosnetwork/ckb-go/relay"
	"github.com/nervosnetwork/ckb-go/store"
	"github.com/nervosnetwork/ckb-go/sync"
	"github.com/nervosnetwork/ckb-go/txpool"
	"github.com/nervosnetwork/ckb-go/types"
	"github.com/nervosnetwork/ckb-go/verify"
)

func main() {
	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
		logging.Root.Debug(fmt.Sprintf(format, args...))
	})); err != nil {
		logging.Root.Warn("failed to set GOMAXPROCS", "err", err)
	}

	app := &cli.App{
		Name:  "ckbnode",
		Usage: "a minimal CKB-style full node",
		Flags: nodecfg.Flags,
		Action: func(ctx *cli.Context) error {
			return run(ctx)
		},
	}
	if err := app.Run(os.Args); err != nil {
		logging.Root.Crit("fatal startup error", "err", err)
	}
}

func run(ctx *cli.Context) error {
	cfg := nodecfg.Defaults
	nodecfg.ApplyFlags(ctx, &cfg)

	instanceID := uuid.NewString()
	log := logging.Root.New("instance", instanceID)
	if cfg.Logging.File != "" {
		log = logging.NewFileLogger(cfg.Logging.File, cfg.Logging.MaxSizeMB, cfg.Logging.MaxBackups, cfg.Logging.MaxAgeDays).New("instance", instanceID)
	}
	log.SetLevel(parseLevel(cfg.Logging.Level))

	spec, err := nodecfg.ResolveChainSpec(cfg.Chain)
	if err != nil {
		return err
	}
	log.Info("resolved chain spec", "chain", cfg.Chain)

	chainStore, err := store.OpenLevelDBStore(cfg.Store.DataDir)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	registry := peer.NewRegistry()
	syncEngine := sync.NewEngine(chainStore, registry)

	// The script VM is a stated black box; noopExecutor is the seam a
	// real implementation plugs into. See verify.ScriptExecutor.
	txVerifier, err := verify.NewBlockTxVerifier(spec, noopExecutor{}, 4096)
	if err != nil {
		return fmt.Errorf("build tx verifier: %w", err)
	}
	verifier := verify.NewVerifier(spec, chainStore, chainStore, noopHeaderResolver{}, txVerifier)
	_ = verifier // wired into block-acceptance, which is outside this minimal main's scope

	pool := txpool.New(spec, chainStore, noopHeaderResolver{}, noopExecutor{})
	cbRelayer, err := relay.NewCompactBlockRelayer(pool, chainStore, 1024)
	if err != nil {
		return fmt.Errorf("build compact block relayer: %w", err)
	}
	txRelayer := relay.NewTransactionRelayer(pool, log)

	reg := metrics.New()
	if cfg.Metrics.Enabled {
		handler := cors.New(cors.Options{AllowedMethods: []string{http.MethodGet}}).Handler(reg.Handler())
		go func() {
			log.Info("starting metrics exporter", "addr", cfg.Metrics.ListenAddr)
			if err := http.ListenAndServe(cfg.Metrics.ListenAddr, handler); err != nil {
				log.Error("metrics exporter stopped", "err", err)
			}
		}()
	}

	h, err := libp2p.New(libp2p.ListenAddrStrings(cfg.Network.ListenAddr))
	if err != nil {
		return fmt.Errorf("start libp2p host: %w", err)
	}
	defer h.Close()

	host := p2p.NewHost(h, registry)
	wireHandlers(host, syncEngine, cbRelayer, txRelayer, registry, chainStore, log)

	log.Info("ckbnode listening", "id", h.ID(), "addr", cfg.Network.ListenAddr)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("shutting down")
	return nil
}

// wireHandlers registers the p2p dispatch glue connecting each
// MessageType to its sync/relay handler, encoding/decoding payloads via
// p2p.EncodePayload/DecodePayload.
func wireHandlers(host *p2p.Host, se *sync.Engine, cb *relay.CompactBlockRelayer, tr *relay.TransactionRelayer, registry *peer.Registry, chainStore store.ChainStore, log *logging.Logger) {
	host.OnMessage(p2p.MsgGetHeaders, func(from p2ppeer.ID, env p2p.Envelope) error {
		var req p2p.GetHeadersPayload
		if err := p2p.DecodePayload(env.Payload, &req); err != nil {
			return err
		}
		p, ok := registry.Get(from)
		if !ok {
			return nil
		}
		result, err := se.HandleGetHeaders(p, req.Locator)
		if err != nil {
			return err
		}
		raw, err := p2p.EncodePayload(p2p.HeadersPayload{Headers: result.Headers})
		if err != nil {
			return err
		}
		return host.Send(context.Background(), from, p2p.ProtocolSync, p2p.Envelope{Type: p2p.MsgHeaders, Payload: raw})
	})

	host.OnMessage(p2p.MsgCompactBlock, func(from p2ppeer.ID, env p2p.Envelope) error {
		var req p2p.CompactBlockPayload
		if err := p2p.DecodePayload(env.Payload, &req); err != nil {
			return err
		}
		_, missing, err := cb.HandleCompactBlock(from, req.Block)
		if errors.Is(err, relay.ErrUnknownParentView) {
			locator := types.BlockLocator{Hashes: types.BuildLocator(chainStore.TipNumber(), chainStore.HashByNumber)}
			raw, err := p2p.EncodePayload(p2p.GetHeadersPayload{Locator: locator})
			if err != nil {
				return err
			}
			return host.Send(context.Background(), from, p2p.ProtocolSync, p2p.Envelope{Type: p2p.MsgGetHeaders, Payload: raw})
		}
		if err != nil {
			if p, ok := registry.Get(from); ok {
				switch {
				case errors.Is(err, relay.ErrStaleCompactBlock):
					p.Misbehave(peer.MisbehaviorStaleCompactBlock)
				case errors.Is(err, verify.ErrShortIDCollision):
					p.Misbehave(peer.MisbehaviorShortIDCollision)
				default:
					p.Misbehave(peer.MisbehaviorInvalidHeader)
				}
			}
			return err
		}
		if len(missing) == 0 {
			return nil
		}
		raw, err := p2p.EncodePayload(p2p.GetBlockTransactionsPayload{BlockHash: req.Block.Hash(), Indices: missing})
		if err != nil {
			return err
		}
		return host.Send(context.Background(), from, p2p.ProtocolRelay, p2p.Envelope{Type: p2p.MsgGetBlockTransactions, Payload: raw})
	})

	host.OnMessage(p2p.MsgBlockTransactions, func(from p2ppeer.ID, env p2p.Envelope) error {
		var req p2p.BlockTransactionsPayload
		if err := p2p.DecodePayload(env.Payload, &req); err != nil {
			return err
		}
		_, err := cb.HandleBlockTransactions(from, req.BlockHash, req.Transactions)
		return err
	})

	host.OnMessage(p2p.MsgBlockProposal, func(from p2ppeer.ID, env p2p.Envelope) error {
		var req p2p.BlockProposalPayload
		if err := p2p.DecodePayload(env.Payload, &req); err != nil {
			return err
		}
		tr.HandleBlockProposal(req.Transactions)
		return nil
	})

	host.OnMessage(p2p.MsgGetBlockProposal, func(from p2ppeer.ID, env p2p.Envelope) error {
		var req p2p.GetBlockProposalPayload
		if err := p2p.DecodePayload(env.Payload, &req); err != nil {
			return err
		}
		found, _ := tr.HandleGetBlockProposal(from, req.ShortIDs)
		if len(found) == 0 {
			return nil
		}
		raw, err := p2p.EncodePayload(p2p.BlockProposalPayload{Transactions: found})
		if err != nil {
			return err
		}
		return host.Send(context.Background(), from, p2p.ProtocolRelay, p2p.Envelope{Type: p2p.MsgBlockProposal, Payload: raw})
	})

	log.Info("wired message handlers")
}

func parseLevel(s string) logging.Level {
	switch s {
	case "crit":
		return logging.LevelCrit
	case "error":
		return logging.LevelError
	case "warn":
		return logging.LevelWarn
	case "debug":
		return logging.LevelDebug
	case "trace":
		return logging.LevelTrace
	default:
		return logging.LevelInfo
	}
}
