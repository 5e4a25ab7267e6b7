package testutil

import (
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/theLastOfCats/mylibrary-server/internal/auth"
	"github.com/theLastOfCats/mylibrary-server/internal/db"
)

// TestSecret signs tokens minted by Token.
const TestSecret = "test-secret"

// SetupTestDB creates a migrated SQLite database in a per-test directory.
// A shared in-memory cache would leak rows between tests.
func SetupTestDB(t *testing.T) *db.DB {
	t.Helper()

	database, err := db.New(filepath.Join(t.TempDir(), "library.db"))
	if err != nil {
		t.Fatalf("Failed to init test db: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})
	return database
}

// SetNow pins the database clock.
func SetNow(database *db.DB, now time.Time) {
	database.Now = func() time.Time { return now }
}

func Verifier() *auth.Verifier {
	return auth.NewVerifier(TestSecret, "")
}

// Token mints a bearer token for userID signed with TestSecret.
func Token(t *testing.T, userID, email string) string {
	t.Helper()

	token, err := Verifier().Issue(userID, email, time.Hour)
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	return token
}

// Logger discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// MockMailSender captures emails for testing
type MockMailSender struct {
	mu         sync.Mutex
	SentEmails []SentEmail
}

type SentEmail struct {
	To       string
	Subject  string
	TextBody string
	HtmlBody string
}

func (m *MockMailSender) Send(to string, subject string, textBody string, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentEmails = append(m.SentEmails, SentEmail{to, subject, textBody, htmlBody})
	return nil
}

func (m *MockMailSender) Sent() []SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentEmail(nil), m.SentEmails...)
}
