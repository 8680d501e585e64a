package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jroosing/subzone/internal/config"
	"github.com/jroosing/subzone/internal/logging"
	"github.com/jroosing/subzone/internal/server"
)

func main() {
	var (
		configPath   = flag.String("config", "", "Path to YAML configuration file (or set SUBZONE_CONFIG)")
		host         = flag.String("host", "", "Override bind host")
		port         = flag.Int("port", 0, "Override bind port")
		importLedger = flag.String("import-ledger", "", "Copy a JSON ledger into the SQLite ledger at startup")
		jsonLogs     = flag.Bool("json-logs", false, "Enable JSON structured logging")
		debug        = flag.Bool("debug", false, "Enable debug logging")
	)
	flag.Parse()

	cfg, err := config.Load(config.ResolveConfigPath(*configPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *jsonLogs {
		cfg.Logging.Structured = true
		cfg.Logging.StructuredFormat = "json"
	}
	if *debug {
		cfg.Logging.Level = "DEBUG"
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Configure(logging.Config{
		Level:            cfg.Logging.Level,
		Structured:       cfg.Logging.Structured,
		StructuredFormat: cfg.Logging.StructuredFormat,
		IncludePID:       cfg.Logging.IncludePID,
		ExtraFields:      cfg.Logging.ExtraFields,
	})
	logger.Info("subzone starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"zones", cfg.Zones.Path,
		"ledger", cfg.Ledger.Driver,
	)

	runner := server.NewRunner(logger)
	if *importLedger != "" {
		runner.SetLedgerImport(*importLedger)
	}
	if err := runner.Run(cfg); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}
