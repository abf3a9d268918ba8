package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"ridership/internal/config"
	apperrors "ridership/internal/errors"
	"ridership/internal/infrastructure"
	"ridership/pkg/contracts/domain"
)

// Scraper walks season schedules and collects box scores for one venue.
type Scraper struct {
	fetcher      Fetcher
	base         *url.URL
	schedulePath string
	seasonDelay  time.Duration
	metrics      *infrastructure.PipelineMetrics
	logger       *slog.Logger
}

// New creates a Scraper using fetcher for every page.
func New(cfg config.ScraperConfig, fetcher Fetcher, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) (*Scraper, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, apperrors.NewConfigError("invalid scraper base url", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scraper{
		fetcher:      fetcher,
		base:         base,
		schedulePath: cfg.SchedulePath,
		seasonDelay:  cfg.SeasonDelay,
		metrics:      metrics,
		logger:       infrastructure.WithComponent(logger, "scraper"),
	}, nil
}

// ScheduleURL returns the schedule page of a season.
func (s *Scraper) ScheduleURL(season int) string {
	ref := &url.URL{Path: fmt.Sprintf(s.schedulePath, season)}
	return s.base.ResolveReference(ref).String()
}

// ScrapeSeason returns the box scores of every home game of venue in season.
// Games without a box score link, and box scores that fail to download or
// parse, are logged and skipped.
func (s *Scraper) ScrapeSeason(ctx context.Context, venue config.VenueConfig, season int) ([]domain.GameRecord, error) {
	scheduleURL := s.ScheduleURL(season)
	page, err := s.fetcher.Fetch(ctx, scheduleURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %d schedule: %w", season, err)
	}

	entries, err := ParseSchedule(page, s.base, venue.HomeTeams)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Schedule parsed",
		slog.String("venue", venue.Slug),
		slog.Int("season", season),
		slog.Int("home_games", len(entries)))

	records := make([]domain.GameRecord, 0, len(entries))
	skipped := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return records, err
		}
		if entry.BoxScoreURL == "" {
			skipped++
			continue
		}

		rec, err := s.scrapeBoxScore(ctx, entry.BoxScoreURL)
		if err != nil {
			if ctx.Err() != nil {
				return records, ctx.Err()
			}
			s.logger.WarnContext(ctx, "Failed to retrieve the scorebox",
				slog.String("url", entry.BoxScoreURL),
				slog.String("error", err.Error()))
			skipped++
			continue
		}
		records = append(records, rec)
	}

	if s.metrics != nil {
		s.metrics.GamesScraped.Add(ctx, int64(len(records)), metric.WithAttributes(
			attribute.String("venue", venue.Slug),
			attribute.Int("season", season),
		))
	}
	s.logger.InfoContext(ctx, "Season scraped",
		slog.String("venue", venue.Slug),
		slog.Int("season", season),
		slog.String("games", humanize.Comma(int64(len(records)))),
		slog.Int("skipped", skipped))
	return records, nil
}

func (s *Scraper) scrapeBoxScore(ctx context.Context, link string) (domain.GameRecord, error) {
	page, err := s.fetcher.Fetch(ctx, link)
	if err != nil {
		return domain.GameRecord{}, err
	}
	rec, err := ParseScorebox(page)
	if err != nil {
		return domain.GameRecord{}, err
	}
	rec.Link = link
	return rec, nil
}

// SeasonResult is the outcome of one season of ScrapeSeasons.
type SeasonResult struct {
	Season  int
	Records []domain.GameRecord
	Err     error
}

// ScrapeSeasons scrapes seasons in order, pausing between them. A failed
// season is reported in its result and does not stop the others.
func (s *Scraper) ScrapeSeasons(ctx context.Context, venue config.VenueConfig, seasons []int) ([]SeasonResult, error) {
	results := make([]SeasonResult, 0, len(seasons))
	for i, season := range seasons {
		if i > 0 {
			if err := sleep(ctx, s.seasonDelay); err != nil {
				return results, err
			}
		}
		records, err := s.ScrapeSeason(ctx, venue, season)
		if err != nil && ctx.Err() != nil {
			return results, ctx.Err()
		}
		results = append(results, SeasonResult{Season: season, Records: records, Err: err})
	}
	return results, nil
}
