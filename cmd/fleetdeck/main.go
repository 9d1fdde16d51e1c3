package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/fleetdeck/fleetdeck/internal/browser"
	"github.com/fleetdeck/fleetdeck/internal/config"
	"github.com/fleetdeck/fleetdeck/internal/observability"
	"github.com/fleetdeck/fleetdeck/internal/tui"
	"github.com/fleetdeck/fleetdeck/pkg/client"
	"github.com/fleetdeck/fleetdeck/pkg/live"
	"github.com/fleetdeck/fleetdeck/pkg/session"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// deps bundles the data layer the subcommands share.
type deps struct {
	cfg    *config.Config
	logger *zap.Logger
	client *client.Client
	sess   *session.Manager
}

// buildDeps wires config, logging, transport, storage tiers and the session
// manager together. The token source is bound in a second step because the
// manager authenticates through the transport it feeds.
func buildDeps() (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, err := observability.NewLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	c := client.New(cfg.APIBaseURL, client.WithTimeout(cfg.RequestTimeout))
	durable, err := session.DefaultFileStore()
	if err != nil {
		return nil, fmt.Errorf("open credential store: %w", err)
	}
	sess := session.NewManager(c, durable, session.NewMemStore(), logger)
	c.SetTokenSource(sess)

	return &deps{cfg: cfg, logger: logger, client: c, sess: sess}, nil
}

func run() error {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "version", "-v":
			fmt.Println("fleetdeck " + version)
			return nil
		case "help", "--help", "-h":
			printHelp()
			return nil
		case "login":
			remember, sso := parseLoginFlags(os.Args[2:])
			return runLogin(remember, sso)
		case "logout":
			return runLogout()
		}
	}

	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.logger.Sync() //nolint:errcheck

	d.sess.Rehydrate()
	if d.sess.State() != session.LoggedIn {
		printLoginHint()
		return nil
	}
	// Only force re-login on actual auth failures, not transient errors.
	if _, err := d.client.Me(context.Background()); err != nil {
		if client.IsAuth(err) {
			d.sess.Logout()
			printLoginHint()
			return nil
		}
		// Network/server error — launch the dashboard anyway, it retries.
	}

	return launchDashboard(d)
}

// launchDashboard opens the live channel and runs the TUI until exit.
func launchDashboard(d *deps) error {
	ch := live.NewChannel(live.Config{
		URL:    d.cfg.LiveURL,
		Tokens: d.sess,
		Logger: d.logger,
	})
	ch.EnsureConnected()
	defer ch.Close()

	app := tui.NewApp(d.client, d.sess, ch)
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

// parseLoginFlags reads the login subcommand's flags.
func parseLoginFlags(args []string) (remember, sso bool) {
	for _, a := range args {
		switch a {
		case "--remember", "-r":
			remember = true
		case "--sso":
			sso = true
		}
	}
	return remember, sso
}

func runLogin(remember, sso bool) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.logger.Sync() //nolint:errcheck

	if sso {
		if err := runSSOLogin(d); err != nil {
			return err
		}
	} else {
		if err := runPasswordLogin(d, remember); err != nil {
			return err
		}
	}

	if cred := d.sess.CurrentCredential(); cred != nil {
		fmt.Printf("Authenticated as %s\n\n", cred.Profile.Email)
	}
	return launchDashboard(d)
}

// runPasswordLogin prompts for credentials and authenticates through the
// session manager, which persists into the tier remember selects.
func runPasswordLogin(d *deps, remember bool) error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Email: ")
	email, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read email: %w", err)
	}
	fmt.Print("Password: ")
	password, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return d.sess.Login(ctx, strings.TrimSpace(email), strings.TrimSpace(password), remember)
}

// runSSOLogin runs the browser handoff: an ephemeral localhost callback
// server receives a one-time code, exchanges it for a token, deposits the
// token in the durable tier and refreshes the session from it.
func runSSOLogin(d *deps) error {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("start callback listener: %w", err)
	}
	defer listener.Close() //nolint:errcheck

	port := listener.Addr().(*net.TCPAddr).Port
	tokenCh := make(chan string, 1)
	errCh := make(chan error, 1)

	// CSRF state: the dashboard must echo it back on the callback.
	stateBytes := make([]byte, 16)
	if _, err := rand.Read(stateBytes); err != nil {
		return fmt.Errorf("generate sso state: %w", err)
	}
	expectedState := hex.EncodeToString(stateBytes)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != expectedState {
			http.Error(w, "invalid state", http.StatusForbidden)
			errCh <- fmt.Errorf("callback state mismatch (possible CSRF)")
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			errCh <- fmt.Errorf("callback received without code")
			return
		}
		resp, err := d.client.ExchangeCode(r.Context(), code)
		if err != nil {
			http.Error(w, "exchange failed", http.StatusInternalServerError)
			errCh <- fmt.Errorf("sso code exchange: %w", err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, callbackHTML) //nolint:errcheck
		tokenCh <- resp.Token
	})

	srv := &http.Server{Handler: mux}
	go func() {
		if srvErr := srv.Serve(listener); srvErr != nil && srvErr != http.ErrServerClosed {
			errCh <- srvErr
		}
	}()

	loginParams := url.Values{}
	loginParams.Set("cli_port", strconv.Itoa(port))
	loginParams.Set("state", expectedState)
	loginURL := dashboardBaseURL(d.cfg.APIBaseURL) + "/auth/cli/login?" + loginParams.Encode()

	fmt.Println("Opening browser to authenticate...")
	if err := browser.Open(loginURL); err != nil {
		fmt.Printf("Could not open browser. Visit this URL manually:\n  %s\n", loginURL)
	}

	select {
	case tok := <-tokenCh:
		shutCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutCtx) //nolint:errcheck

		// SSO tokens outlive the process; deposit in the durable tier.
		if err := d.sess.DepositDurableToken(tok); err != nil {
			return fmt.Errorf("save token: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := d.sess.RefreshFromToken(ctx); err != nil {
			return fmt.Errorf("verify sso token: %w", err)
		}
		return nil

	case srvErr := <-errCh:
		return fmt.Errorf("callback server error: %w", srvErr)

	case <-time.After(2 * time.Minute):
		return fmt.Errorf("login timed out — no callback received within 2 minutes")
	}
}

func runLogout() error {
	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.logger.Sync() //nolint:errcheck
	d.sess.Logout()
	fmt.Println("Logged out.")
	return nil
}

// dashboardBaseURL derives the browser-facing origin from the API URL by
// stripping a leading "api." host label.
func dashboardBaseURL(apiURL string) string {
	if base := os.Getenv("FLEETDECK_BASE_URL"); base != "" {
		return base
	}
	u, err := url.Parse(apiURL)
	if err != nil {
		return apiURL
	}
	host := u.Hostname()
	if strings.HasPrefix(host, "api.") {
		u.Host = strings.TrimPrefix(host, "api.")
		if u.Port() != "" {
			u.Host += ":" + u.Port()
		}
	}
	return u.String()
}

func printLoginHint() {
	fmt.Println("Not logged in. Run one of:")
	fmt.Println("  fleetdeck login             email/password login")
	fmt.Println("  fleetdeck login --remember  stay logged in across restarts")
	fmt.Println("  fleetdeck login --sso       authenticate in the browser")
}

func printHelp() {
	fmt.Println("fleetdeck " + version + " — fleet tracking dashboard")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  fleetdeck                   open the dashboard")
	fmt.Println("  fleetdeck login [flags]     authenticate")
	fmt.Println("      --remember, -r          persist the session across restarts")
	fmt.Println("      --sso                   authenticate in the browser")
	fmt.Println("  fleetdeck logout            clear stored credentials")
	fmt.Println("  fleetdeck version           print the version")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  FLEETDECK_API_URL           HTTP API root")
	fmt.Println("  FLEETDECK_LIVE_URL          live updates endpoint")
	fmt.Println("  FLEETDECK_LOG_FILE          diagnostics log file (off when empty)")
}

const callbackHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>Fleetdeck</title>
<style>
*{margin:0;padding:0;box-sizing:border-box}
body{
  background:#0b1017;color:#e2e8f0;
  font-family:'SF Mono','Consolas',monospace;
  height:100vh;display:flex;align-items:center;justify-content:center;
}
.card{text-align:center}
.logo{font-size:28px;font-weight:700;letter-spacing:8px;color:#4ade80;margin-bottom:20px}
.msg{font-size:14px;color:#4ade80;font-weight:600;margin-bottom:8px}
.sub{font-size:12px;color:#64748b}
</style>
</head>
<body>
<div class="card">
  <div class="logo">FLEETDECK</div>
  <div class="msg">authenticated</div>
  <div class="sub">return to your terminal</div>
</div>
</body>
</html>`
