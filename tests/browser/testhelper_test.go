package browser_test

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"

	emailPkg "seacomms/internal/adapters/email"
	web "seacomms/internal/adapters/http"
	"seacomms/internal/adapters/http/perf"
	sessionAdapter "seacomms/internal/adapters/session"
	"seacomms/internal/adapters/storage"
	accountStore "seacomms/internal/adapters/storage/account"
	categoryStore "seacomms/internal/adapters/storage/category"
	commendationStore "seacomms/internal/adapters/storage/commendation"
	progressStore "seacomms/internal/adapters/storage/progress"
	"seacomms/internal/application/orchestrators"
	"seacomms/internal/domain/account"
)

const (
	adminEmail   = "captain@example.com"
	testPassword = "TestPass123!"
)

var (
	categoryURL = regexp.MustCompile(`/category/\d+$`)
	savedURL    = regexp.MustCompile(`/category/\d+\?saved=\d+$`)
)

// testApp holds the running test server and Playwright handles.
type testApp struct {
	BaseURL string
	DB      *sql.DB
	Server  *http.Server
	PW      *playwright.Playwright
	Browser playwright.Browser
	Stores  *web.Stores
	Mailer  *emailPkg.NoopSender
}

// newTestApp creates a fully wired app with a temp SQLite DB, seeds the combat
// catalog and starts an HTTP server.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test DB: %v", err)
	}
	if err := storage.MigrateDB(db); err != nil {
		t.Fatalf("failed to migrate test DB: %v", err)
	}

	collector := perf.NewCollector(perf.DefaultRingSize)
	timed := storage.NewTimedDB(db, collector, 0)
	stores := &web.Stores{
		AccountStore:      accountStore.NewSQLiteStore(timed),
		CategoryStore:     categoryStore.NewSQLiteStore(timed),
		CommendationStore: commendationStore.NewSQLiteStore(timed),
		ProgressStore:     progressStore.NewSQLiteStore(timed),
	}

	catalog := orchestrators.Catalog{Categories: []orchestrators.CatalogCategory{{
		Name:        "Combat",
		Description: "Ship-to-ship fighting",
		Commendations: []orchestrators.CatalogCommendation{
			{Title: "Cannon Master", Subcategory: "Cannons", TotalAmount: 100, Description: "Land **cannons** hits"},
			{Title: "Boarder", Subcategory: "Boarding", TotalAmount: 50},
		},
	}}}
	if _, err := orchestrators.ExecuteSeedCatalog(context.Background(), catalog, orchestrators.SeedCatalogDeps{
		CategoryStore:     stores.CategoryStore,
		CommendationStore: stores.CommendationStore,
	}); err != nil {
		t.Fatalf("failed to seed catalog: %v", err)
	}

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()
	host := fmt.Sprintf("127.0.0.1:%d", port)

	mailer := emailPkg.NewNoopSender()
	handler := web.NewMux(stores, web.Options{
		Sessions:       sessionAdapter.NewManager(sessionAdapter.Config{Secret: []byte("browser-test-secret-browser-test")}),
		AllowList:      account.NewAllowList(adminEmail),
		CSRFKey:        []byte("0123456789abcdef0123456789abcdef"),
		TrustedOrigins: []string{host},
		Collector:      collector,
		RateLimit:      1000,
		Mailer:         mailer,
		BaseURL:        "http://" + host,
	})
	srv := &http.Server{Addr: host, Handler: handler}
	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("test server error: %v", err)
		}
	}()

	// Wait for server to be ready
	baseURL := "http://" + host
	for i := 0; i < 50; i++ {
		resp, err := http.Get(baseURL + "/healthz")
		if err == nil {
			resp.Body.Close()
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	pw, err := playwright.Run()
	if err != nil {
		t.Fatalf("failed to start Playwright: %v", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		t.Fatalf("failed to launch browser: %v", err)
	}

	app := &testApp{
		BaseURL: baseURL,
		DB:      db,
		Server:  srv,
		PW:      pw,
		Browser: browser,
		Stores:  stores,
		Mailer:  mailer,
	}

	t.Cleanup(func() {
		browser.Close()
		pw.Stop()
		srv.Close()
		db.Close()
	})

	return app
}

// newPage creates a page in a fresh browser context so cookies are not shared between tests.
func (a *testApp) newPage(t *testing.T) playwright.Page {
	t.Helper()
	bctx, err := a.Browser.NewContext()
	if err != nil {
		t.Fatalf("failed to create browser context: %v", err)
	}
	page, err := bctx.NewPage()
	if err != nil {
		t.Fatalf("failed to create page: %v", err)
	}
	t.Cleanup(func() { bctx.Close() })
	return page
}

var activationLinkPattern = regexp.MustCompile(`https?://\S+/activate\?token=[A-Za-z0-9-]+`)

// signUp registers email through the sign-up form, follows the mailed
// activation link and waits for the dashboard.
func (a *testApp) signUp(t *testing.T, page playwright.Page, email string) {
	t.Helper()
	if _, err := page.Goto(a.BaseURL + "/signup"); err != nil {
		t.Fatalf("failed to navigate to signup: %v", err)
	}
	fill(t, page, "input[name=Email]", email)
	fill(t, page, "input[name=Password]", testPassword)
	fill(t, page, "input[name=ConfirmPassword]", testPassword)
	click(t, page, "button[type=submit]")
	if err := page.Locator("p.notice").WaitFor(); err != nil {
		t.Fatalf("no sign-up confirmation: %v", err)
	}

	if _, err := page.Goto(a.activationLink(t, email)); err != nil {
		t.Fatalf("failed to open activation link: %v", err)
	}
	fill(t, page, "input[name=Password]", testPassword)
	click(t, page, "button[type=submit]")
	a.waitFor(t, page, a.BaseURL+"/")
}

// activationLink returns the link from the newest activation email sent to email.
func (a *testApp) activationLink(t *testing.T, email string) string {
	t.Helper()
	sent := a.Mailer.Sent()
	for i := len(sent) - 1; i >= 0; i-- {
		if sent[i].To[0] != email || sent[i].Tag != emailPkg.ActivationTag {
			continue
		}
		if link := activationLinkPattern.FindString(sent[i].Text); link != "" {
			return link
		}
	}
	t.Fatalf("no activation email for %s", email)
	return ""
}

// login signs in through the login form and waits for the dashboard.
func (a *testApp) login(t *testing.T, page playwright.Page, email, password string) {
	t.Helper()
	if _, err := page.Goto(a.BaseURL + "/login"); err != nil {
		t.Fatalf("failed to navigate to login: %v", err)
	}
	fill(t, page, "input[name=Email]", email)
	fill(t, page, "input[name=Password]", password)
	click(t, page, "button[type=submit]")
	a.waitFor(t, page, a.BaseURL+"/")
}

func (a *testApp) waitFor(t *testing.T, page playwright.Page, url string) {
	t.Helper()
	if err := page.WaitForURL(url, playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(10000),
	}); err != nil {
		t.Fatalf("did not reach %s (at %s): %v", url, page.URL(), err)
	}
}

func fill(t *testing.T, page playwright.Page, selector, value string) {
	t.Helper()
	if err := page.Locator(selector).Fill(value); err != nil {
		t.Fatalf("failed to fill %s: %v", selector, err)
	}
}

func click(t *testing.T, page playwright.Page, selector string) {
	t.Helper()
	if err := page.Locator(selector).Click(); err != nil {
		t.Fatalf("failed to click %s: %v", selector, err)
	}
}

// bodyText returns the visible text of the page body.
func bodyText(t *testing.T, page playwright.Page) string {
	t.Helper()
	text, err := page.Locator("body").InnerText()
	if err != nil {
		t.Fatalf("failed to read page text: %v", err)
	}
	return text
}
