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
	goauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"hubtrack/internal/sheets"
)

// Client appends payment status changes to a Google Sheets ledger tab.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
}

var _ sheets.Ledger = (*Client)(nil)

// Options selects the spreadsheet and the credentials. Service account
// credentials win over an OAuth client/token pair when both are set.
type Options struct {
	SpreadsheetID      string
	Sheet              string
	ServiceAccountJSON string
	ServiceAccountFile string
	OAuthClientFile    string
	OAuthTokenFile     string
}

// New creates a ledger client authenticated with opts.
func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	ts, err := tokenSource(ctx, opts)
	if err != nil {
		return nil, err
	}
	// oauth2.NewClient reuses the pooled transport found in the context.
	pooled := context.WithValue(ctx, oauth2.HTTPClient, newHTTPClientWithPooling())
	svc, err := gsheet.NewService(ctx, goption.WithHTTPClient(oauth2.NewClient(pooled, ts)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets ledger client created",
		"spreadsheet_id", opts.SpreadsheetID, "sheet", sheetName(opts.Sheet))
	return NewWithService(svc, opts.SpreadsheetID, opts.Sheet), nil
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheet string) *Client {
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheet: sheetName(sheet)}
}

func sheetName(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "Payments"
	}
	return s
}

func tokenSource(ctx context.Context, opts Options) (oauth2.TokenSource, error) {
	serviceAccountJSON := strings.TrimSpace(opts.ServiceAccountJSON)
	serviceAccountFile := strings.TrimSpace(opts.ServiceAccountFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline service account credentials")
		return serviceAccountTokenSource(ctx, []byte(serviceAccountJSON))
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading service account credentials", "path", serviceAccountFile)
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return serviceAccountTokenSource(ctx, b)
	case opts.OAuthClientFile != "" && opts.OAuthTokenFile != "":
		slog.InfoContext(ctx, "Using OAuth client and token files",
			"client_file", opts.OAuthClientFile, "token_file", opts.OAuthTokenFile)
		return oauthTokenSource(ctx, opts.OAuthClientFile, opts.OAuthTokenFile)
	default:
		return nil, errors.New("missing Google credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_OAUTH_CLIENT_FILE with GOOGLE_OAUTH_TOKEN_FILE)")
	}
}

func serviceAccountTokenSource(ctx context.Context, credentialsJSON []byte) (oauth2.TokenSource, error) {
	creds, err := goauth.CredentialsFromJSON(ctx, credentialsJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("service account credentials: %w", err)
	}
	return creds.TokenSource, nil
}

func oauthTokenSource(ctx context.Context, clientFile, tokenFile string) (oauth2.TokenSource, error) {
	clientJSON, err := os.ReadFile(clientFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth client file: %w", err)
	}
	cfg, err := goauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	tok, err := readToken(tokenFile)
	if err != nil {
		return nil, err
	}
	return cfg.TokenSource(ctx, tok), nil
}

// newHTTPClientWithPooling creates an HTTP client for the Sheets API with
// connection pooling, timeouts and keep-alive.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext: dialer.DialContext,

		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     50,
		IdleConnTimeout:     90 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		ForceAttemptHTTP2: true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// EnsureHeader writes the column header when the ledger sheet is empty.
func (c *Client) EnsureHeader(ctx context.Context) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A1:I1", c.sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read ledger header: %w", err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}
	vr := &gsheet.ValueRange{Values: [][]any{ledgerHeader}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write ledger header: %w", err)
	}
	slog.InfoContext(ctx, "Ledger header written", "sheet", c.sheet)
	return nil
}

// AppendEntry appends one ledger row and returns the updated A1 range.
func (c *Client) AppendEntry(ctx context.Context, e sheets.Entry) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if e.ChangeID <= 0 {
		return "", fmt.Errorf("ledger entry without change id for payment %d", e.PaymentID)
	}
	rng := fmt.Sprintf("%s!A:I", c.sheet)
	vr := &gsheet.ValueRange{Values: [][]any{formatRow(e)}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.sheet, err)
	}
	if resp.Updates == nil {
		return rng, nil
	}
	return resp.Updates.UpdatedRange, nil
}

// ListChangeIDs reads column A of the ledger.
func (c *Client) ListChangeIDs(ctx context.Context) (map[int64]struct{}, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:A", c.sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return parseChangeIDs(resp.Values), nil
}
