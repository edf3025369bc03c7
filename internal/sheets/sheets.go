// Package sheets reads the message schedule from a Google spreadsheet.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	logx "wisdombot/pkg/logx"
)

const DefaultRange = "A:B"

type Config struct {
	APIKey        string
	SpreadsheetID string
	Range         string
	Timeout       time.Duration
	// Endpoint overrides the API base URL. Tests point it at a local server.
	Endpoint string
}

// Configured reports whether both the key and the spreadsheet id are set.
func (c Config) Configured() bool {
	return strings.TrimSpace(c.APIKey) != "" && strings.TrimSpace(c.SpreadsheetID) != ""
}

// Client is a message.RowSource backed by the Sheets v4 values API.
type Client struct {
	svc     *gsheets.Service
	id      string
	rng     string
	timeout time.Duration
	log     logx.Logger
}

func New(ctx context.Context, cfg Config, log logx.Logger) (*Client, error) {
	if !cfg.Configured() {
		return nil, errors.New("sheets: api key and spreadsheet id are required")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if ep := strings.TrimSpace(cfg.Endpoint); ep != "" {
		opts = append(opts, option.WithEndpoint(ep))
	}
	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets: new service: %w", err)
	}
	rng := strings.TrimSpace(cfg.Range)
	if rng == "" {
		rng = DefaultRange
	}
	return &Client{
		svc:     svc,
		id:      strings.TrimSpace(cfg.SpreadsheetID),
		rng:     rng,
		timeout: cfg.Timeout,
		log:     log.With(logx.String("comp", "sheets")),
	}, nil
}

// Rows fetches the configured range with every cell rendered as text.
func (c *Client) Rows(ctx context.Context) ([][]string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	start := time.Now()
	resp, err := c.svc.Spreadsheets.Values.Get(c.id, c.rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("sheets: get %s: %w", c.rng, err)
	}
	out := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = cell(v)
		}
		out = append(out, cells)
	}
	c.log.Debug("rows fetched", logx.Int("rows", len(out)), logx.Duration("took", time.Since(start)))
	return out, nil
}

func cell(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
