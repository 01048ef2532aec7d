package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"zandaka/internal/core"
	ports "zandaka/internal/sheets"
)

// Ensure interface conformance
var (
	_ ports.SummaryWriter = (*Client)(nil)
	_ ports.HolidayWriter = (*Client)(nil)
)

const (
	DefaultSummarySheet = "Forecast"
	DefaultHolidaySheet = "Holidays"
)

// Config selects the spreadsheet and the credentials. A service account
// wins over an OAuth client when both are set.
type Config struct {
	SpreadsheetID      string
	SummarySheet       string
	HolidaySheet       string
	ServiceAccountJSON string
	ServiceAccountFile string
	OAuthClientJSON    string
	OAuthClientFile    string
	OAuthTokenFile     string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	summarySheet  string
	// Base name without year; the year is prefixed per write.
	holidayBase string
}

// New creates a Sheets client from cfg.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	opts, err := clientOptions(ctx, cfg)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created successfully",
		"spreadsheet_id", cfg.SpreadsheetID)
	return NewWithService(svc, cfg), nil
}

// NewWithService wraps an existing service.
func NewWithService(svc *gsheet.Service, cfg Config) *Client {
	summary := strings.TrimSpace(cfg.SummarySheet)
	if summary == "" {
		summary = DefaultSummarySheet
	}
	holidays := strings.TrimSpace(cfg.HolidaySheet)
	if holidays == "" {
		holidays = DefaultHolidaySheet
	}
	return &Client{
		svc:           svc,
		spreadsheetID: strings.TrimSpace(cfg.SpreadsheetID),
		summarySheet:  summary,
		holidayBase:   holidays,
	}
}

func clientOptions(ctx context.Context, cfg Config) ([]goption.ClientOption, error) {
	saJSON, err := readInlineOrFile(cfg.ServiceAccountJSON, cfg.ServiceAccountFile)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	if saJSON == nil {
		// Standard Google Cloud variable.
		if path := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")); path != "" && cfg.OAuthClientJSON == "" && cfg.OAuthClientFile == "" {
			if saJSON, err = os.ReadFile(path); err != nil {
				return nil, fmt.Errorf("read service account file: %w", err)
			}
		}
	}
	if saJSON != nil {
		slog.InfoContext(ctx, "Using service account credentials", "credentials_size", len(saJSON))
		return []goption.ClientOption{
			goption.WithCredentialsJSON(saJSON),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}, nil
	}

	clientJSON, err := readInlineOrFile(cfg.OAuthClientJSON, cfg.OAuthClientFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth client file: %w", err)
	}
	if clientJSON == nil {
		return nil, errors.New("missing credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_OAUTH_CLIENT_JSON/FILE)")
	}
	oauthCfg, err := OAuthConfigFromJSON(clientJSON)
	if err != nil {
		return nil, err
	}
	tokenFile := cfg.OAuthTokenFile
	if tokenFile == "" {
		tokenFile = "token.json"
	}
	tok, err := ReadToken(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("oauth token (run zandaka-oauth first): %w", err)
	}
	slog.InfoContext(ctx, "Using OAuth client credentials", "token_file", tokenFile)
	ctx = context.WithValue(ctx, oauth2.HTTPClient, newHTTPClientWithPooling())
	return []goption.ClientOption{goption.WithHTTPClient(oauthCfg.Client(ctx, tok))}, nil
}

func readInlineOrFile(inline, path string) ([]byte, error) {
	if s := strings.TrimSpace(inline); s != "" {
		return []byte(s), nil
	}
	if p := strings.TrimSpace(path); p != "" {
		return os.ReadFile(p)
	}
	return nil, nil
}

// newHTTPClientWithPooling creates an HTTP client for the Sheets API with
// connection pooling and bounded timeouts.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// WriteMonthlySummary clears the summary sheet and writes a header plus one
// row per month. It returns the updated range.
func (c *Client) WriteMonthlySummary(ctx context.Context, months []core.MonthSummary) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	return c.replace(ctx, c.summarySheet, "A:D", summaryRows(months))
}

// WriteHolidays writes the holidays of year to "<year> <holiday sheet>".
func (c *Client) WriteHolidays(ctx context.Context, year int, days []core.Date) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	_, err := c.replace(ctx, yearPrefixedName(c.holidayBase, year), "A:B", holidayRows(days))
	return err
}

func (c *Client) replace(ctx context.Context, sheet, cols string, rows [][]any) (string, error) {
	clearRange := a1Range(sheet, cols)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("failed to clear %s: %w", clearRange, err)
	}

	dataRange := a1Range(sheet, "A1")
	resp, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to update %s: %w", dataRange, err)
	}
	slog.DebugContext(ctx, "Sheet updated",
		"range", resp.UpdatedRange,
		"rows", resp.UpdatedRows)
	return resp.UpdatedRange, nil
}
