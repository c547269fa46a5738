package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/SaikalyanLabhishetty/portfolio-agent/internal/config"
	"github.com/SaikalyanLabhishetty/portfolio-agent/internal/cron"
	"github.com/SaikalyanLabhishetty/portfolio-agent/internal/gateway"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	switch os.Args[1] {
	case "version":
		fmt.Printf("portfolio-agent v%s\n", version)
	case "serve":
		if err := serve(os.Args[2:]); err != nil {
			slog.Error("fatal", "error", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("portfolio-agent - chat assistant gateway")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  portfolio-agent serve [-config path]   Start the gateway server")
	fmt.Println("  portfolio-agent version                Show version info")
}

func serve(args []string) error {
	flags := flag.NewFlagSet("serve", flag.ExitOnError)
	flagConfig := flags.String("config", "", "path to config.yaml")
	flags.Parse(args)

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))
	slog.Info("portfolio-agent starting", "version", version)

	cfgPath := config.ResolveConfigPath(*flagConfig)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Warn("config file not found, using environment", "path", cfgPath, "error", err)
		cfg = config.FromEnv()
	}
	config.Set(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutdown signal received", "signal", sig)
		cancel()
	}()

	if err == nil {
		go config.Watch(ctx, cfgPath)
	}

	srv := gateway.NewServer(config.Get)

	janitor, jerr := cron.NewJanitor(cfg.Sessions.SweepSpec, cfg.Sessions.IdleTimeout.Std(), srv.Sessions.Sweep)
	if jerr != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", cfg.Sessions.SweepSpec, jerr)
	}
	janitor.Start()
	defer janitor.Stop()

	return srv.Start(ctx)
}
