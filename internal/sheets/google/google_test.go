package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/oauth2"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"hubtrack/internal/core"
	"hubtrack/internal/sheets"
)

// fakeSheets serves the subset of the Sheets values API the ledger uses.
type fakeSheets struct {
	mu      sync.Mutex
	rows    [][]any
	appends int
	updates int
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":append"):
		var vr gsheet.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.rows = append(f.rows, vr.Values...)
		f.appends++
		_ = json.NewEncoder(w).Encode(map[string]any{
			"updates": map[string]any{"updatedRange": fmt.Sprintf("Payments!A%d:I%d", len(f.rows), len(f.rows))},
		})
	case r.Method == http.MethodPut:
		var vr gsheet.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.rows = append(vr.Values, f.rows...)
		f.updates++
		_ = json.NewEncoder(w).Encode(map[string]any{"updatedRows": 1})
	case r.Method == http.MethodGet:
		_ = json.NewEncoder(w).Encode(map[string]any{"values": f.rows})
	default:
		http.Error(w, "unexpected "+r.Method+" "+r.URL.Path, http.StatusNotFound)
	}
}

func newTestClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return NewWithService(svc, "sheet-1", "")
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Options{})
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Options{SpreadsheetID: "id"})
	if err == nil || !strings.Contains(err.Error(), "missing Google credentials") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_InvalidOAuthClient(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	dir := t.TempDir()
	clientFile := filepath.Join(dir, "client.json")
	tokenFile := filepath.Join(dir, "token.json")
	if err := os.WriteFile(clientFile, []byte("invalid-json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := SaveToken(tokenFile, &oauth2.Token{AccessToken: "test"}); err != nil {
		t.Fatal(err)
	}

	_, err := New(context.Background(), Options{
		SpreadsheetID:   "id",
		OAuthClientFile: clientFile,
		OAuthTokenFile:  tokenFile,
	})
	if err == nil || !strings.Contains(err.Error(), "oauth config") {
		t.Fatalf("expected oauth config error, got: %v", err)
	}
}

func TestSaveTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	want := &oauth2.Token{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer"}
	if err := SaveToken(path, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := readToken(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.AccessToken != "a" || got.RefreshToken != "r" {
		t.Fatalf("token = %+v", got)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("token file mode = %o, want 600", perm)
	}
}

func TestAppendEntryAndListChangeIDs(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)
	ctx := context.Background()

	if err := c.EnsureHeader(ctx); err != nil {
		t.Fatalf("ensure header: %v", err)
	}
	if err := c.EnsureHeader(ctx); err != nil {
		t.Fatalf("ensure header again: %v", err)
	}
	if fake.updates != 1 {
		t.Fatalf("header written %d times, want 1", fake.updates)
	}

	for id := int64(1); id <= 2; id++ {
		ref, err := c.AppendEntry(ctx, sheets.Entry{
			ChangeID:  id,
			PaymentID: 10,
			Month:     3,
			Year:      2024,
			To:        core.StatusPending,
			Actor:     core.RoleEntrepreneur,
			ChangedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("append %d: %v", id, err)
		}
		if !strings.HasPrefix(ref, "Payments!A") {
			t.Errorf("ref = %q", ref)
		}
	}

	ids, err := c.ListChangeIDs(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("ids = %v, want 2 entries", ids)
	}
	if _, ok := ids[2]; !ok {
		t.Errorf("missing change 2 in %v", ids)
	}
}

func TestAppendEntry_RequiresChangeID(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)
	if _, err := c.AppendEntry(context.Background(), sheets.Entry{PaymentID: 1}); err == nil {
		t.Fatal("expected error for entry without change id")
	}
	if fake.appends != 0 {
		t.Fatalf("appends = %d, want 0", fake.appends)
	}
}

func TestNilServiceFails(t *testing.T) {
	c := &Client{sheet: "Payments"}
	if _, err := c.AppendEntry(context.Background(), sheets.Entry{ChangeID: 1}); err == nil {
		t.Error("append: expected error")
	}
	if _, err := c.ListChangeIDs(context.Background()); err == nil {
		t.Error("list: expected error")
	}
}
