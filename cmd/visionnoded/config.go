// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	flags "github.com/jessevdk/go-flags"

	"github.com/decred/slog"

	"github.com/visionchain/visiond/chaincfg"
	"github.com/visionchain/visiond/cointype"
	"github.com/visionchain/visiond/internal/mempool"
)

const (
	defaultConfigFilename  = "visiond.conf"
	defaultDataDirname     = "data"
	defaultLogDirname      = "logs"
	defaultLogFilename     = "visiond.log"
	defaultMaxPeers        = 64
	defaultRateLimitCap    = 64
	defaultRateLimitRefill = 8.0
)

// config defines the set of options the node accepts on the command
// line or in a config file, mirroring the fields documented in
// sample-vision.conf.
type config struct {
	ConfigFile string `short:"C" long:"configfile" description:"Path to configuration file"`

	Network string `long:"network" description:"Network to connect to {mainnet, testnet, regnet}"`
	DataDir string `short:"b" long:"datadir" description:"Directory to store data"`
	LogDir  string `long:"logdir" description:"Directory to log output"`

	Listen     string   `long:"listen" description:"Add an address to listen for P2P connections"`
	Connect    []string `long:"connect" description:"Connect only to these addresses, bypassing discovery"`
	AddPeer    []string `long:"addpeer" description:"Add a peer to the outbound rotation"`
	MaxPeers   int      `long:"maxpeers" description:"Maximum number of inbound+outbound peers"`
	SeedDelay  int      `long:"seeddelayseconds" description:"Seconds to delay initial seed dialing"`

	Proxy        string `long:"proxy" description:"SOCKS proxy to dial peers through"`
	ProxyUser    string `long:"proxyuser" description:"SOCKS proxy username"`
	ProxyPass    string `long:"proxypass" description:"SOCKS proxy password"`
	TorIsolation bool   `long:"torisolation" description:"Use a separate proxy circuit per connection"`

	Mine                   bool    `long:"mine" description:"Mine blocks; the eligibility gate decides whether they carry a reward"`
	SubsidyDuringIsolation bool    `long:"subsidyduringisolation" description:"Pay full subsidy while isolated from quorum"`
	RateLimitCapacity      int     `long:"ratelimitcapacity" description:"Per-IP token bucket capacity"`
	RateLimitRefillPerSec  float64 `long:"ratelimitrefillpersec" description:"Per-IP token bucket refill rate"`

	DebugLevel string `long:"debuglevel" description:"Logging level {trace, debug, info, warn, error, critical}"`
}

// defaultConfig returns a config populated with the documented
// defaults, before any config file or command line flags are applied.
func defaultConfig() *config {
	return &config{
		Network:               "mainnet",
		MaxPeers:              defaultMaxPeers,
		RateLimitCapacity:     defaultRateLimitCap,
		RateLimitRefillPerSec: defaultRateLimitRefill,
		DebugLevel:            "info",
	}
}

// loadConfig parses the command line twice: once to discover an
// explicit -C/--configfile path, then again (with the config file's
// values as defaults) to get the fully resolved config. This matches
// the two-pass pattern needed so a config file and command line flags
// can both override defaults, with the command line taking final
// precedence.
func loadConfig() (*config, error) {
	cfg := defaultConfig()

	preCfg := *cfg
	preParser := flags.NewParser(&preCfg, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := preParser.Parse(); err != nil {
		return nil, err
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	appDir := filepath.Join(homeDir, ".visiond")

	configFile := preCfg.ConfigFile
	if configFile == "" {
		configFile = filepath.Join(appDir, defaultConfigFilename)
	}

	if _, err := os.Stat(configFile); err == nil {
		fileParser := flags.NewIniParser(flags.NewParser(cfg, flags.Default))
		if err := fileParser.ParseFile(configFile); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", configFile, err)
		}
	}

	parser := flags.NewParser(cfg, flags.Default)
	if _, err := parser.Parse(); err != nil {
		return nil, err
	}

	if cfg.DataDir == "" {
		cfg.DataDir = filepath.Join(appDir, defaultDataDirname)
	}
	if cfg.LogDir == "" {
		cfg.LogDir = filepath.Join(appDir, defaultLogDirname)
	}

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.MkdirAll(cfg.LogDir, 0700); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	return cfg, nil
}

// netParams resolves the configured network name to its parameters.
func (c *config) netParams() (*chaincfg.Params, error) {
	switch c.Network {
	case "mainnet", "":
		return chaincfg.MainNetParams(), nil
	case "testnet":
		return chaincfg.TestNetParams(), nil
	case "regnet":
		return chaincfg.RegNetParams(), nil
	default:
		return nil, fmt.Errorf("unknown network %q", c.Network)
	}
}

// logLevel parses the configured debug level, falling back to Info on
// an unrecognized value.
func (c *config) logLevel() slog.Level {
	lvl, ok := slog.LevelFromString(c.DebugLevel)
	if !ok {
		return slog.LevelInfo
	}
	return lvl
}

// envInt64 returns the named environment variable parsed as an
// integer, or fallback when unset or unparseable.
func envInt64(name string, fallback int64) int64 {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return v
}

// mempoolConfig resolves the pool tuning: package defaults overridden
// by the VISION_MEMPOOL_TTL_SECS and VISION_CRITICAL_TIP_THRESHOLD
// environment flags.
func (c *config) mempoolConfig() mempool.Config {
	mc := mempool.DefaultConfig()
	if ttl := envInt64("VISION_MEMPOOL_TTL_SECS", 0); ttl > 0 {
		mc.TTL = time.Duration(ttl) * time.Second
	}
	if threshold := envInt64("VISION_CRITICAL_TIP_THRESHOLD", 0); threshold > 0 {
		mc.CriticalTipThreshold = cointype.Amount(threshold)
	}
	return mc
}

// mempoolSweepInterval resolves the TTL sweeper cadence from
// VISION_MEMPOOL_SWEEP_SECS, defaulting to 30 seconds.
func (c *config) mempoolSweepInterval() time.Duration {
	secs := envInt64("VISION_MEMPOOL_SWEEP_SECS", 30)
	if secs <= 0 {
		secs = 30
	}
	return time.Duration(secs) * time.Second
}
