package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fsgate/fsgate/internal/config"
	"github.com/fsgate/fsgate/internal/dispatch"
	"github.com/fsgate/fsgate/internal/fsops"
	"github.com/fsgate/fsgate/internal/logging"
	"github.com/fsgate/fsgate/internal/pathsec"
	"github.com/fsgate/fsgate/internal/script"
	"github.com/fsgate/fsgate/internal/transport"
	"github.com/fsgate/fsgate/internal/watch"
)

// stringSlice lets a flag be passed multiple times.
type stringSlice []string

func (s *stringSlice) String() string {
	return fmt.Sprintf("%v", *s)
}

func (s *stringSlice) Set(value string) error {
	*s = append(*s, value)
	return nil
}

func main() {
	var allowedDirs stringSlice
	flag.Var(&allowedDirs, "allowed-dir", "Directory the client may access; repeatable")
	configPath := flag.String("config", "", "Optional YAML config file")
	writeEnabled := flag.Bool("write", false, "Enable mutating operations")
	symlinksAllowed := flag.Bool("symlinks", false, "Allow operating on symbolic links")
	maxFileSizeMB := flag.Int("max-file-size", 0, "Max readable file size in MB (0 = config default)")
	logLevel := flag.String("log-level", "", "Log level override (debug, info, warn, error)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fatalf("failed to load configuration: %v", err)
	}
	if *configPath != "" {
		if err := cfg.ApplyFile(*configPath); err != nil {
			fatalf("failed to apply config file: %v", err)
		}
	}

	// Flags win over file and environment, but only when set.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "allowed-dir":
			cfg.AllowedDirs = allowedDirs
		case "write":
			cfg.WriteEnabled = *writeEnabled
		case "symlinks":
			cfg.SymlinksAllowed = *symlinksAllowed
		case "max-file-size":
			cfg.MaxFileSizeMB = *maxFileSizeMB
		case "log-level":
			cfg.Logging.Level = *logLevel
		}
	})

	if err := cfg.Validate(); err != nil {
		fatalf("invalid configuration: %v", err)
	}

	log, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		fatalf("failed to create logger: %v", err)
	}
	defer log.Sync() //nolint:errcheck

	policy, err := pathsec.NewPolicy(cfg.AllowedDirs, cfg.SymlinksAllowed)
	if err != nil {
		log.Fatal("failed to build path policy", zap.Error(err))
	}

	ops := fsops.New(policy, cfg, log)
	watches := watch.NewRegistry(policy, log)
	defer watches.Close()
	executor := script.New(policy, cfg, log)
	dispatcher := dispatch.New(ops, watches, executor, log)
	loop := transport.New(os.Stdin, os.Stdout, dispatcher, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- loop.Run(ctx)
	}()

	log.Info("fsgate ready",
		zap.Strings("allowed_dirs", policy.Roots()),
		zap.Bool("write_enabled", cfg.WriteEnabled),
		zap.Bool("symlinks_allowed", cfg.SymlinksAllowed))

	select {
	case sig := <-sigChan:
		log.Info("shutting down", zap.String("signal", sig.String()))
		cancel()
	case err := <-errChan:
		if err != nil && err != context.Canceled {
			log.Error("transport loop failed", zap.Error(err))
			os.Exit(1)
		}
		log.Info("input closed, exiting")
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
