// Package main provides the TelTap daemon (teltap).
// The daemon maintains receive-only telnet connections to the configured
// links, strips telnet IAC control sequences from the inbound streams and
// forwards the clean payloads to a NATS subject per link (or to stdout in
// pipeline mode). Connections self-heal with exponential backoff.
//
// Key features:
// - Multiple independent links, one connection manager task each
// - Reconnect with exponential backoff and optional attempt budget
// - Per-link message size limit
// - Optional SSH jump-host dialing per link
// - Optional zstd-compressed capture spool per link
// - Signal handling for graceful shutdown
// - Built-in profiling support for diagnostics
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	flag "github.com/spf13/pflag"

	"github.com/64BitAsura/teltap/internal/capture"
	"github.com/64BitAsura/teltap/internal/config"
	"github.com/64BitAsura/teltap/internal/constants"
	"github.com/64BitAsura/teltap/internal/forwarder"
	"github.com/64BitAsura/teltap/internal/io/tlog"
	"github.com/64BitAsura/teltap/internal/provider"
	"github.com/64BitAsura/teltap/internal/telnet"
	"github.com/64BitAsura/teltap/internal/version"
)

// main parses command-line arguments, assembles the configuration,
// initializes logging and signal handling, and runs the provider until a
// termination signal arrives or startup fails.
func main() {
	var args config.Args
	var displayVersion bool
	var pprofAddr string

	flag.StringVarP(&args.ConfigFile, "cfg", "c", "", "Config file path")
	flag.StringVar(&args.LogLevel, "logLevel", "", "Log level (trace, debug, info, warn, error, none)")
	flag.StringVar(&args.NATSURL, "natsUrl", "", "NATS broker URL (empty = write payloads to stdout)")
	flag.StringVar(&args.CaptureDir, "captureDir", "", "Capture spool directory")
	flag.BoolVar(&args.NoCapture, "noCapture", false, "Disable the capture spool")
	flag.StringVar(&pprofAddr, "pprof", "", "Start PProf server on this address")
	flag.BoolVarP(&displayVersion, "version", "V", false, "Display version")
	flag.Parse()

	if displayVersion {
		version.PrintAndExit()
	}

	cfg, err := config.Setup(&args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "teltap: %v\n", err)
		os.Exit(1)
	}

	tlog.Start(cfg.LogLevel, os.Stderr)
	tlog.Common.Info(version.String())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 10)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			tlog.Common.Info("Received signal, shutting down", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	if pprofAddr != "" {
		tlog.Common.Info("Starting PProf", pprofAddr)
		go http.ListenAndServe(pprofAddr, nil)
	}

	status := run(ctx, cfg)
	cancel()
	os.Exit(status)
}

// run starts one link task per configured link and blocks until shutdown.
func run(ctx context.Context, cfg *config.ProviderConfig) int {
	if len(cfg.Links) == 0 {
		tlog.Common.Error("No links configured, nothing to do")
		return 1
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		var err error
		natsConn, err = forwarder.Connect(cfg.NATSURL)
		if err != nil {
			tlog.Common.Error("Broker connection failed", err)
			return 1
		}
		defer natsConn.Drain()
	}

	var spools []*capture.Spool
	defer func() {
		for _, spool := range spools {
			if err := spool.Close(); err != nil {
				tlog.Common.Warn("Closing capture spool failed", spool.Path(), err)
			}
		}
	}()

	prov := provider.New()
	for _, link := range cfg.Links {
		handler, spool, err := buildHandler(cfg, natsConn, link)
		if err != nil {
			tlog.Common.Error("Link setup failed", link.Name, err)
			return 1
		}
		if spool != nil {
			spools = append(spools, spool)
		}
		if err := prov.Start(ctx, link, handler); err != nil {
			tlog.Common.Error("Link start failed", link.Name, err)
			return 1
		}
	}

	<-ctx.Done()

	done := make(chan struct{})
	go func() {
		prov.Shutdown()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(constants.ShutdownGracePeriod):
		tlog.Common.Warn("Shutdown grace period expired, exiting anyway")
	}
	return 0
}

// buildHandler wires the delivery chain for one link: a NATS forwarder
// (or stdout writer in pipeline mode), teed into the capture spool when
// capturing is enabled.
func buildHandler(cfg *config.ProviderConfig, natsConn *nats.Conn,
	link config.LinkConfig) (telnet.Handler, *capture.Spool, error) {

	var handler telnet.Handler
	if natsConn != nil {
		natsForwarder := forwarder.NewNATSForwarder(natsConn, cfg.SubjectPrefix, link.Address())
		tlog.Common.Info("Forwarding link to subject", link.Name, natsForwarder.Subject())
		handler = natsForwarder
	} else {
		handler = forwarder.NewWriterForwarder(os.Stdout)
	}

	if cfg.CaptureDir == "" {
		return handler, nil, nil
	}

	name := link.Name
	if name == "" {
		name = link.Address()
	}
	spool, err := capture.NewSpool(cfg.CaptureDir, name)
	if err != nil {
		return nil, nil, err
	}
	tlog.Common.Info("Capturing link to spool", link.Name, spool.Path())
	return forwarder.NewTee(handler, telnet.HandlerFunc(spool.Append)), spool, nil
}
