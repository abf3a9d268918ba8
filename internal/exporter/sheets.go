package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"ridership/internal/config"
	"ridership/pkg/contracts/domain"
)

// SheetsPublisher writes coefficient tables to a Google spreadsheet, one tab
// per station.
type SheetsPublisher struct {
	service       *sheets.Service
	spreadsheetID string
	logger        *slog.Logger

	// mu serialises tab creation between concurrent station jobs.
	mu sync.Mutex
}

// NewSheetsPublisher creates a publisher. Without client options the
// configured service account credentials file is used.
func NewSheetsPublisher(ctx context.Context, cfg config.SheetsConfig, logger *slog.Logger, opts ...option.ClientOption) (*SheetsPublisher, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("sheets publisher requires a spreadsheet id")
	}
	if len(opts) == 0 {
		opts = []option.ClientOption{option.WithCredentialsFile(cfg.CredentialsFile)}
	}
	if logger == nil {
		logger = slog.Default()
	}

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &SheetsPublisher{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// PublishCoefficients replaces the station tab with the intercept and
// coefficient table of result.
func (p *SheetsPublisher) PublishCoefficients(ctx context.Context, result domain.StationResult) error {
	if err := p.ensureTab(ctx, result.Station); err != nil {
		return err
	}

	values := make([][]interface{}, 0, len(result.Coefficients)+2)
	values = append(values, []interface{}{"Feature", "Coefficient"})
	values = append(values, []interface{}{"intercept", result.Intercept})
	for _, c := range result.Coefficients {
		values = append(values, []interface{}{c.Feature, c.Weight})
	}

	writeRange := sheetRange(result.Station, "A1")
	_, err := p.service.Spreadsheets.Values.Update(
		p.spreadsheetID,
		writeRange,
		&sheets.ValueRange{Values: values},
	).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", writeRange, err)
	}

	p.logger.InfoContext(ctx, "Coefficients published",
		slog.String("station", result.Station),
		slog.Int("rows", len(values)))
	return nil
}

func (p *SheetsPublisher) ensureTab(ctx context.Context, title string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	spreadsheet, err := p.service.Spreadsheets.Get(p.spreadsheetID).
		Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to read spreadsheet: %w", err)
	}
	for _, s := range spreadsheet.Sheets {
		if s.Properties != nil && s.Properties.Title == title {
			return nil
		}
	}

	_, err = p.service.Spreadsheets.BatchUpdate(p.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: title},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to add tab %s: %w", title, err)
	}
	p.logger.DebugContext(ctx, "Spreadsheet tab created", slog.String("tab", title))
	return nil
}

// sheetRange quotes a tab title for A1 notation.
func sheetRange(title, cell string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'!" + cell
}
