package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ternarybob/serendib/internal/app"
	"github.com/ternarybob/serendib/internal/common"
	"github.com/ternarybob/serendib/internal/server"
)

const shutdownTimeout = 10 * time.Second

// defaultConfigPaths are tried in order when no -config flag is given
var defaultConfigPaths = []string{"serendib.toml", "deployments/local/serendib.toml"}

// stringList collects a repeatable flag
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(value string) error {
	*l = append(*l, value)
	return nil
}

type options struct {
	configFiles stringList
	port        int
	host        string
	version     bool
}

func parseFlags() options {
	var o options
	flag.Var(&o.configFiles, "config", "Config file; repeat to layer files, later ones win")
	flag.Var(&o.configFiles, "c", "Shorthand for -config")
	flag.IntVar(&o.port, "port", 0, "Listen port, overrides config")
	flag.IntVar(&o.port, "p", 0, "Shorthand for -port")
	flag.StringVar(&o.host, "host", "", "Listen host, overrides config")
	flag.BoolVar(&o.version, "version", false, "Print version and exit")
	flag.BoolVar(&o.version, "v", false, "Shorthand for -version")
	flag.Parse()

	if len(o.configFiles) == 0 {
		for _, path := range defaultConfigPaths {
			if _, err := os.Stat(path); err == nil {
				o.configFiles = append(o.configFiles, path)
				break
			}
		}
	}
	return o
}

func main() {
	opts := parseFlags()
	if opts.version {
		fmt.Println("serendib", common.CurrentVersion())
		return
	}

	config, err := common.LoadFromFiles(opts.configFiles...)
	if err != nil {
		common.GetLogger().Fatal().Strs("paths", opts.configFiles).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}
	common.ApplyFlagOverrides(config, opts.port, opts.host)
	if err := config.Validate(); err != nil {
		common.GetLogger().Fatal().Err(err).Msg("Invalid configuration")
		os.Exit(1)
	}

	logger := common.InitLogger(config)
	common.InstallCrashHandler(common.LogDirectory())
	defer common.RecoverWithCrashFile()

	common.PrintBanner(config, logger)
	logger.Debug().
		Strs("config_files", opts.configFiles).
		Str("badger_path", config.Storage.Badger.Path).
		Str("catalog_path", config.Catalog.Path).
		Str("dispatch_url", config.Planner.DispatchURL).
		Msg("Configuration resolved")

	if err := run(config); err != nil {
		logger.Error().Err(err).Msg("Serendib stopped with an error")
		os.Exit(1)
	}
}

// run serves until SIGINT/SIGTERM or a listener failure, then shuts down in order
func run(config *common.Config) error {
	logger := common.GetLogger()

	application, err := app.New(config, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer application.Close()

	srv := server.New(application)
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Start() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		logger.Info().Msg("Shutdown signal received")
	case err := <-serveErr:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
