// One-shot tool: import an instrument master CSV into the symbols database.
//
// The CSV must have a header row and columns: symbol, exchange, token.
//
// Usage:
//
//	go run cmd/tradeflow-symbols/main.go -csv instruments.csv
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"io"
	"log"
	"log/slog"
	"os"

	"tradeflow/internal/config"
	"tradeflow/internal/symbols"
	"tradeflow/internal/util"
)

func main() {
	csvPath := flag.String("csv", "", "instrument master CSV (required)")
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfgPath := "config/tradeflow.yaml"
	if p := os.Getenv("TRADEFLOW_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, "text")
	util.SetDefault(logger)

	resolver, err := symbols.NewSQLiteResolver(cfg.Storage.SymbolsPath)
	if err != nil {
		log.Fatalf("opening symbol master: %v", err)
	}
	defer resolver.Close()

	f, err := os.Open(*csvPath)
	if err != nil {
		log.Fatalf("opening %s: %v", *csvPath, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	if _, err := r.Read(); err != nil { // header
		log.Fatalf("reading header: %v", err)
	}

	ctx := context.Background()
	imported, skipped := 0, 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("reading row: %v", err)
		}
		if len(rec) < 3 || rec[0] == "" || rec[1] == "" || rec[2] == "" {
			skipped++
			continue
		}
		if err := resolver.Upsert(ctx, rec[0], rec[1], rec[2]); err != nil {
			log.Fatalf("importing %s: %v", rec[0], err)
		}
		imported++
	}

	slog.Info("instrument import complete", "imported", imported, "skipped", skipped)
}
