// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"os"

	"github.com/decred/slog"
	"github.com/jrick/logrotate/rotator"

	"github.com/visionchain/visiond/addrmgr"
	"github.com/visionchain/visiond/connmgr"
	"github.com/visionchain/visiond/internal/blockalloc"
	"github.com/visionchain/visiond/internal/chain"
	"github.com/visionchain/visiond/internal/identity"
	"github.com/visionchain/visiond/internal/mempool"
	"github.com/visionchain/visiond/internal/p2p"
	"github.com/visionchain/visiond/internal/supervisor"
)

var logRotator *rotator.Rotator

// logWriter implements io.Writer so logged messages are written to
// both standard output and the rotating log file, without the two
// sinks needing to agree on anything but []byte.
type logWriter struct{}

func (logWriter) Write(p []byte) (n int, err error) {
	os.Stdout.Write(p)
	if logRotator != nil {
		logRotator.Write(p)
	}
	return len(p), nil
}

var backendLog = slog.NewBackend(logWriter{})

var (
	chainLog      = backendLog.Logger("CHAN")
	mempoolLog    = backendLog.Logger("MPOL")
	identityLog   = backendLog.Logger("IDEN")
	addrmgrLog    = backendLog.Logger("ADXR")
	connmgrLog    = backendLog.Logger("CONN")
	p2pLog        = backendLog.Logger("PEER")
	blockallocLog = backendLog.Logger("BALC")
	supervisorLog = backendLog.Logger("SUPV")
)

// initLogRotator opens the rotating log file at the given path, sized
// at 10 MiB per file with no retention cap.
func initLogRotator(path string) error {
	r, err := rotator.New(path, 10*1024, false, 0)
	if err != nil {
		return err
	}
	logRotator = r
	return nil
}

// useLoggers wires every package-level logger into its package, and
// sets the requested level on all of them.
func useLoggers(level slog.Level) {
	chainLog.SetLevel(level)
	mempoolLog.SetLevel(level)
	identityLog.SetLevel(level)
	addrmgrLog.SetLevel(level)
	connmgrLog.SetLevel(level)
	p2pLog.SetLevel(level)
	blockallocLog.SetLevel(level)
	supervisorLog.SetLevel(level)

	chain.UseLogger(chainLog)
	mempool.UseLogger(mempoolLog)
	identity.UseLogger(identityLog)
	addrmgr.UseLogger(addrmgrLog)
	connmgr.UseLogger(connmgrLog)
	p2p.UseLogger(p2pLog)
	blockalloc.UseLogger(blockallocLog)
	supervisor.UseLogger(supervisorLog)
}
