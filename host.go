package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"vmrepl/buildinfo"
	"vmrepl/config"
	"vmrepl/console"
	"vmrepl/engine"
	"vmrepl/engine/shell"
	"vmrepl/interrupts"
	"vmrepl/logger"
	"vmrepl/metrics"
	"vmrepl/readline"
	"vmrepl/repl"
	"vmrepl/shutdown"
	"vmrepl/system"
	"vmrepl/teletype"
)

const shutdownTimeout = 5 * time.Second

// run starts the host described by cfg and blocks until the session ends
// or a signal arrives.
func run(ctx context.Context, cfg *config.Config) error {
	log, logCloser, err := logger.New(logger.Config{
		File:   cfg.Log.File,
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	hostDone := make(chan struct{})

	sh := shutdown.NewHandler(shutdownTimeout)
	sh.OnShutdown(func(context.Context) error {
		return logCloser.Close()
	})
	sh.OnShutdown(func(ctx context.Context) error {
		cancel()
		select {
		case <-hostDone:
			return nil
		case <-ctx.Done():
			return fmt.Errorf("host did not stop: %w", ctx.Err())
		}
	})
	waitErr := make(chan error, 1)
	go func() { waitErr <- sh.Wait() }()

	reg := metrics.New()
	if cfg.Metrics.Addr != "" {
		go func() {
			if err := reg.Serve(ctx, cfg.Metrics.Addr, logger.Component(log, "metrics")); err != nil {
				log.Error("metrics server failed", "error", err)
			}
		}()
	}

	history := readline.NewHistory(cfg.History.File, cfg.History.Size)
	if err := history.Load(); err != nil {
		log.Warn("load history", "file", cfg.History.File, "error", err)
	}

	opts := system.Options{
		FPS: cfg.FPS,
		Console: repl.Options{
			Banner: banner(cfg),
			PS1:    cfg.Prompt.Primary,
			PS2:    cfg.Prompt.Secondary,
		},
		History:    history,
		ShowTiming: cfg.Debug.Timing,
		Metrics:    reg,
	}
	newEngine := engineFactory(cfg.Engine, logger.Component(log, "engine"))

	log.Info("starting host", "version", buildinfo.Version, "ui", cfg.UI, "engine", cfg.Engine)
	var runErr error
	switch cfg.UI {
	case config.UIGui:
		runErr = runGui(ctx, newEngine, opts, log)
	default:
		runErr = runSimple(ctx, newEngine, opts, log)
	}
	if runErr != nil {
		log.Error("host failed", "error", runErr)
	}
	log.Info("host stopped")

	close(hostDone)
	sh.Trigger()
	if err := <-waitErr; err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func banner(cfg *config.Config) string {
	if cfg.Banner != "" {
		return cfg.Banner
	}
	return buildinfo.Banner(cfg.Engine) + "\r\nCtrl-D exits, Ctrl-C interrupts, Ctrl-B restarts."
}

// engineFactory returns the constructor of the configured interpreter.
func engineFactory(name string, log *slog.Logger) system.EngineFactory {
	return func(out io.Writer) (engine.Engine, error) {
		switch name {
		case config.EngineShell:
			return shell.New(out, log)
		}
		return nil, fmt.Errorf("unknown engine %q", name)
	}
}

// runSimple runs the console on the process terminal.
func runSimple(ctx context.Context, newEngine system.EngineFactory, opts system.Options, log *slog.Logger) error {
	out := console.NewSimple(os.Stdout, nil)
	sys := system.New(out, out, newEngine, opts, logger.Component(log, "system"))

	tty := teletype.NewSimple(os.Stdin, sys, logger.Component(log, "teletype"))
	if err := tty.Run(); err != nil {
		return err
	}
	defer tty.Close()

	sys.Post(interrupts.SysCreate)
	sys.Post(interrupts.SysActive)
	return sys.Run(ctx)
}
