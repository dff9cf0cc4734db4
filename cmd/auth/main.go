// Package main provides the catalog credentials check tool.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	"github.com/tunecast/tunecast/internal/app/catalog"
	"github.com/tunecast/tunecast/internal/domain/track"
	"github.com/tunecast/tunecast/internal/infra/config"
	"github.com/tunecast/tunecast/internal/infra/logger"
)

var (
	app        = kingpin.New("tunecast-auth", "Catalog credentials check tool for tunecast")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	query      = app.Flag("query", "Probe query sent to each configured catalog").Default("Bohemian Rhapsody").String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	// Keep the tool's own output readable
	if err := logger.Init(logger.Config{Output: "stdout", Level: "warn"}); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	cat, err := catalog.NewFromConfig(cfg)
	if err != nil {
		fmt.Printf("Failed to create catalog providers: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	failed := false

	for _, svc := range []track.Service{track.ServiceSpotify, track.ServiceApple, track.ServiceYouTube} {
		p, ok := cat.Provider(svc)
		if !ok {
			continue
		}
		if !p.Configured() {
			fmt.Printf("%-8s skipped (no credentials)\n", svc)
			continue
		}

		searchCtx, cancel := context.WithTimeout(ctx, cfg.ProviderTimeout())
		t, err := p.SearchTrack(searchCtx, *query)
		cancel()

		switch {
		case err != nil:
			fmt.Printf("%-8s FAILED: %v\n", svc, err)
			failed = true
		case t == nil:
			fmt.Printf("%-8s ok (no match for %q)\n", svc, *query)
		default:
			fmt.Printf("%-8s ok: found %q by %s\n", svc, t.Name, t.Artist)
		}
	}

	if failed {
		os.Exit(1)
	}
}
