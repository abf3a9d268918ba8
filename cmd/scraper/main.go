package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"ridership/internal/app"
	"ridership/internal/config"
	"ridership/internal/exporter"
	"ridership/internal/operations"
	"ridership/internal/scraper"
)

func main() {
	var logger *slog.Logger
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("PANIC RECOVERED: %v\n", r)
			fmt.Printf("Stack trace:\n%s\n", debug.Stack())
			if logger != nil {
				logger.Error("Scraper panicked",
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())))
			}
			os.Exit(1)
		}
	}()

	configFile := flag.String("config", "", "path to the YAML configuration file")
	venueSlug := flag.String("venue", "", "only scrape this venue slug (default: all configured)")
	seasonList := flag.String("seasons", "", "comma separated seasons, e.g. 2022,2023 (overrides config)")
	browser := flag.Bool("browser", false, "load pages with headless Chrome instead of plain HTTP")
	headless := flag.Bool("headless", true, "run browser headless")
	flag.Parse()

	env, err := app.Bootstrap(*configFile, "scraper.log")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	logger = env.Logger

	seasons, err := parseSeasons(*seasonList)
	if err != nil {
		logger.Error("Invalid -seasons", slog.String("error", err.Error()))
		env.Close(context.Background())
		os.Exit(2)
	}
	if *browser {
		env.Config.Scraper.Browser = true
	}
	env.Config.Scraper.Headless = *headless

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := run(ctx, env, *venueSlug, seasons)
	env.Close(context.Background())
	os.Exit(code)
}

func run(ctx context.Context, env *app.Environment, venueSlug string, seasons []int) int {
	cfg := env.Config
	logger := env.Logger

	venues, err := selectVenues(cfg.Venues, venueSlug)
	if err != nil {
		logger.Error("Invalid venue selection", slog.String("error", err.Error()))
		return 2
	}

	fetcher, closeFetcher, err := newFetcher(cfg.Scraper, env)
	if err != nil {
		logger.Error("Failed to create fetcher", slog.String("error", err.Error()))
		return 1
	}
	defer closeFetcher()

	s, err := scraper.New(cfg.Scraper, fetcher, env.Providers.Metrics, logger)
	if err != nil {
		logger.Error("Failed to create scraper", slog.String("error", err.Error()))
		return 1
	}

	writer := exporter.NewCSVWriter(env.Paths)
	code := 0
	for _, venue := range venues {
		venueSeasons := seasons
		if len(venueSeasons) == 0 {
			venueSeasons = venue.Seasons
		}
		if len(venueSeasons) == 0 {
			logger.Warn("Venue has no seasons to scrape", slog.String("venue", venue.Slug))
			continue
		}

		results, err := s.ScrapeSeasons(ctx, venue, venueSeasons)
		for _, res := range results {
			if res.Err != nil {
				logger.Error("Season failed",
					slog.String("venue", venue.Slug),
					slog.Int("season", res.Season),
					slog.String("error", res.Err.Error()))
				code = 1
				continue
			}
			path, err := operations.SaveScorebox(writer, env.Paths, venue.Slug, res.Season, res.Records)
			if err != nil {
				logger.Error("Failed to save scorebox", slog.String("error", err.Error()))
				code = 1
				continue
			}
			logger.Info("Season saved",
				slog.String("venue", venue.Slug),
				slog.Int("season", res.Season),
				slog.Int("games", len(res.Records)),
				slog.String("path", path))
		}
		if err != nil {
			logger.Error("Scraping interrupted", slog.String("error", err.Error()))
			return 1
		}
	}

	ready := operations.VenuesWithScorebox(env.Paths, cfg.Venues)
	if len(ready) == 0 {
		logger.Warn("No scorebox files to normalize")
		return code
	}
	table, err := operations.NormalizeVenues(ctx, env.Paths, writer, ready, logger)
	if err != nil {
		logger.Error("Normalization failed", slog.String("error", err.Error()))
		return 1
	}
	logger.Info("Event table written",
		slog.String("path", env.Paths.EventCSV),
		slog.Int("rows", len(table.Rows)))
	operations.ReportEventCoverage(ctx, table, cfg.Stations, logger)
	return code
}

func newFetcher(cfg config.ScraperConfig, env *app.Environment) (scraper.Fetcher, func(), error) {
	if !cfg.Browser {
		return scraper.NewHTTPFetcher(cfg, env.Providers.Metrics, env.Logger), func() {}, nil
	}
	f, err := scraper.NewBrowserFetcher(cfg, env.Logger)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

// parseSeasons parses a comma separated list of years, sorted and deduplicated.
func parseSeasons(list string) ([]int, error) {
	seen := make(map[int]bool)
	var seasons []int
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		year, err := strconv.Atoi(part)
		if err != nil || year < 1871 || year > 2100 {
			return nil, fmt.Errorf("invalid season %q", part)
		}
		if !seen[year] {
			seen[year] = true
			seasons = append(seasons, year)
		}
	}
	sort.Ints(seasons)
	return seasons, nil
}

func selectVenues(all []config.VenueConfig, slug string) ([]config.VenueConfig, error) {
	if slug == "" {
		return all, nil
	}
	for _, v := range all {
		if v.Slug == slug {
			return []config.VenueConfig{v}, nil
		}
	}
	return nil, fmt.Errorf("unknown venue %q", slug)
}
