// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Command visionnoded runs a Vision Node: VisionX proof-of-work
// consensus, the critical/bulk mempool, headers-first P2P sync, and
// (when eligible) block mining.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/visionchain/visiond/addrmgr"
	"github.com/visionchain/visiond/chaincfg"
	"github.com/visionchain/visiond/connmgr"
	"github.com/visionchain/visiond/internal/blockalloc"
	"github.com/visionchain/visiond/internal/chain"
	"github.com/visionchain/visiond/internal/chainhash"
	"github.com/visionchain/visiond/internal/genesis"
	"github.com/visionchain/visiond/internal/identity"
	"github.com/visionchain/visiond/internal/mempool"
	"github.com/visionchain/visiond/internal/mining"
	"github.com/visionchain/visiond/internal/p2p"
	"github.com/visionchain/visiond/internal/pow/visionx"
	"github.com/visionchain/visiond/internal/store"
	"github.com/visionchain/visiond/internal/supervisor"
	"github.com/visionchain/visiond/internal/wire"
)

// nodeVersion is advertised in the HELLO acknowledgement.
const nodeVersion = "visionnoded/0.1.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := initLogRotator(filepath.Join(cfg.LogDir, defaultLogFilename)); err != nil {
		return fmt.Errorf("initializing log rotator: %w", err)
	}
	useLoggers(cfg.logLevel())

	params, err := cfg.netParams()
	if err != nil {
		return err
	}
	chainLog.Infof("%s starting on %s", nodeVersion, params.Name)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := store.Open(filepath.Join(cfg.DataDir, "chain.db"))
	if err != nil {
		return fmt.Errorf("opening data store: %w", err)
	}
	defer db.Close()

	id, err := identity.Init(db)
	if err != nil {
		return fmt.Errorf("initializing node identity: %w", err)
	}
	chainLog.Infof("node identity %s (%s)", id.NodeID, identity.PubKeyFingerprint(id.KeyPair.Public))

	if err := checkGenesisFingerprint(db); err != nil {
		return fmt.Errorf("genesis fingerprint check: %w", err)
	}
	if _, err := genesis.ValidateEconHash(params); err != nil {
		return fmt.Errorf("economics fingerprint check: %w", err)
	}

	c := chain.New(params, db, genesis.Header())
	c.SetPoWChecker(powChecker(params))
	chainLog.Infof("chain tip: height %d hash %s", c.BestHeight(), c.BestHash())
	chainLog.Infof("visionx params: %s", params.VisionX.Fingerprint())

	pool := mempool.New(cfg.mempoolConfig())
	alloc := blockalloc.NewAllocator(mining.MaxBlockWeight, 0.10)

	peerMemory, err := addrmgr.New(db)
	if err != nil {
		return fmt.Errorf("loading peer memory: %w", err)
	}

	dialTracker := connmgr.New(params.Seeds)
	if err := dialTracker.LoadSnapshot(db); err != nil {
		connmgrLog.Warnf("loading dial-tracker snapshot: %v", err)
	}
	dialer := connmgr.NewDialer(proxyConfig(cfg))

	handshaker := p2p.NewHandshaker(params)
	defer handshaker.Close()

	limiter := p2p.NewLimiter(float64(cfg.RateLimitCapacity), cfg.RateLimitRefillPerSec)
	defer limiter.Close()

	sup := supervisor.New([]supervisor.Task{
		{
			Name:     "mempool-ttl-sweep",
			Interval: cfg.mempoolSweepInterval(),
			Run: func(ctx context.Context) error {
				n := pool.PruneExpired()
				if n > 0 {
					mempoolLog.Debugf("pruned %d expired mempool entries", n)
				}
				return nil
			},
		},
		{
			Name:     "peer-memory-flush",
			Interval: 2 * time.Minute,
			Run: func(ctx context.Context) error {
				if err := peerMemory.FlushToDB(); err != nil {
					return err
				}
				return dialTracker.SaveSnapshot(db)
			},
		},
		{
			Name:     "dial-tracker-decay",
			Interval: time.Hour,
			Run: func(ctx context.Context) error {
				dialTracker.DecayAll()
				peerMemory.DecayAll()
				return nil
			},
		},
		{
			Name:     "peer-reconnect",
			Interval: time.Minute,
			Run: func(ctx context.Context) error {
				reconnectBestPeers(peerMemory, dialTracker, dialer)
				return nil
			},
		},
	})
	sup.Start(ctx)

	if cfg.Mine {
		go runMiner(ctx, params, c, pool, alloc, id, cfg.SubsidyDuringIsolation)
	}

	<-ctx.Done()
	chainLog.Infof("shutting down")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	return sup.Stop(stopCtx)
}

// powChecker builds the VisionX verifier chain.AppendBlock runs on
// every candidate header: the nonce is extracted from its fixed offset
// within the sealed header bytes and the digest is checked against the
// target the header's own difficulty implies.
func powChecker(params *chaincfg.Params) chain.PoWChecker {
	return func(h wire.BlockHeader) error {
		if h.Height == 0 {
			return nil
		}
		target := mining.TargetFromDifficulty(h.Difficulty)
		_, err := visionx.VerifySealed(params.VisionX, h.Height, h.PrevHash,
			h.Bytes(), wire.HeaderNonceOffset, target)
		return err
	}
}

// genesisHashKey is the chain-meta key under which the canonical
// genesis fingerprint is stamped on first run, so a datadir written by
// a build with drifted genesis constants is caught at startup instead
// of silently corrupting the chain state.
var genesisHashKey = []byte("genesis_hash")

// checkGenesisFingerprint compares the stored genesis hash (if any)
// against the canonical computed one, writing it on first run.
func checkGenesisFingerprint(db *store.Store) error {
	want := genesis.ComputeHash()

	stored, err := db.Get(store.TreeChainMeta, genesisHashKey)
	if err != nil {
		return err
	}
	if stored == nil {
		return db.Put(store.TreeChainMeta, genesisHashKey, want[:])
	}

	var storedHash chainhash.Hash
	copy(storedHash[:], stored)
	return genesis.ValidateStored(storedHash)
}

func proxyConfig(cfg *config) *connmgr.ProxyConfig {
	if cfg.Proxy == "" {
		return nil
	}
	return &connmgr.ProxyConfig{
		Addr:         cfg.Proxy,
		Username:     cfg.ProxyUser,
		Password:     cfg.ProxyPass,
		TorIsolation: cfg.TorIsolation,
	}
}

// reconnectBestPeers runs one dial round over the constellation's
// best-remembered peers, skipping anything cooled down, quarantined, or
// blocked by the IP guardrails, and feeding every outcome back into the
// dial tracker and peer memory.
func reconnectBestPeers(peerMemory *addrmgr.Memory, dialTracker *connmgr.DialTracker, dialer connmgr.Dialer) {
	for _, pm := range peerMemory.GetBestPeers(8) {
		port := strconv.Itoa(int(pm.LastPort))
		if !p2p.AllowDial(pm.LastIP, port) {
			continue
		}
		addr := net.JoinHostPort(pm.LastIP, port)
		if dialTracker.IsInCooldown(addr) || dialTracker.ShouldQuarantine(addr) {
			continue
		}

		conn, err := dialer("tcp", addr)
		if err != nil {
			dialTracker.Record(addr, connmgr.ClassifyError(err))
			peerMemory.FailPeer(pm.PeerID)
			connmgrLog.Debugf("dial %s failed: %v", addr, err)
			continue
		}
		conn.Close()
		dialTracker.RecordSuccess(addr)
		peerMemory.TouchPeer(pm.PeerID)
		connmgrLog.Debugf("peer %s reachable", addr)
	}
}

// runMiner repeatedly assembles a template and solves it until ctx is
// canceled, appending each solved block to the chain and dropping its
// transactions from the pool. The eligibility gate decides only the
// coinbase reward, not whether a block is mined.
func runMiner(ctx context.Context, params *chaincfg.Params, c *chain.Chain, pool *mempool.Pool, alloc *blockalloc.Allocator, id *identity.Identity, subsidyDuringIsolation bool) {
	startedAt := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		// With no network layer attached the miner reports itself
		// isolated since startup; the quorum-timeout escape is the only
		// path to eligibility, exactly as it would be for the first
		// node of a new network.
		decision := mining.EvaluateEligibility(params, mining.EligibilityInput{
			Height:            c.BestHeight() + 1,
			PeerCount:         0,
			Health:            mining.HealthIsolated,
			IsolatedSince:     startedAt,
			SawQuorumRecently: false,
			Now:               time.Now(),
		}, subsidyDuringIsolation)

		// A failed gate withholds the subsidy, not the block: the miner
		// keeps extending the chain with zero-reward coinbases until
		// every eligibility rule passes.
		reward := params.BaseSubsidy
		switch {
		case !decision.Eligible:
			chainLog.Debugf("reward withheld (%s); mining zero-subsidy block", decision.FailedRule)
			reward = 0
		case decision.FeesOnly:
			chainLog.Debugf("mining in isolation: blocks carry fees only, no subsidy")
			reward = 0
		}

		tmpl := mining.BuildTemplate(params, c, pool, alloc, id.KeyPair.Public, reward)
		sol, err := mining.Solve(ctx, params.VisionX, &tmpl)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			chainLog.Warnf("mining error: %v", err)
			continue
		}

		tmpl.Header.Nonce = sol.Nonce
		if err := c.AppendBlock(tmpl.Header, tmpl.Txs); err != nil {
			chainLog.Warnf("failed to append mined block: %v", err)
			continue
		}
		pool.RemoveConfirmed(tmpl.Txs)
		chainLog.Infof("mined block %d hash %s", tmpl.Header.Height, tmpl.Header.Hash())
	}
}
