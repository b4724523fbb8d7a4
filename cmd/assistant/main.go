// ABOUTME: Entry point for the ERPNext AI assistant client
// ABOUTME: Serves the local chat UI backed by a Frappe deployment

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/lympik/erpnext-chatgpt/internal/assist"
	"github.com/lympik/erpnext-chatgpt/internal/config"
	"github.com/lympik/erpnext-chatgpt/internal/frappe"
	"github.com/lympik/erpnext-chatgpt/internal/render"
	"github.com/lympik/erpnext-chatgpt/internal/session"
	"github.com/lympik/erpnext-chatgpt/internal/state"
	"github.com/lympik/erpnext-chatgpt/internal/webui"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
                                  _                    _
  ___ _ __ _ __  _ __   _____  __| |_       __ _  ___ (_)
 / _ \ '__| '_ \| '_ \ / _ \ \/ /| __|____ / _' |/ _ \| |
|  __/ |  | |_) | | | |  __/>  < | ||_____| (_| | (_) | |
 \___|_|  | .__/|_| |_|\___/_/\_\ \__|      \__,_|\___/|_|
          |_|
`

// getConfigPath returns the path to the assistant config file.
// Priority: ERPNEXT_ASSISTANT_CONFIG env var > XDG_CONFIG_HOME/erpnext-assistant/config.yaml > ~/.config/erpnext-assistant/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("ERPNEXT_ASSISTANT_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "erpnext-assistant", "config.yaml")
}

// getDataPath returns the path to the assistant data directory.
// Priority: XDG_DATA_HOME/erpnext-assistant > ~/.local/share/erpnext-assistant
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "erpnext-assistant")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: assistant <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve    Start the local chat UI")
		fmt.Println("  init     Write a starter config file")
		fmt.Println("  access   Check backend access for the configured account")
		fmt.Println("  health   Check local server health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "access":
		err = runAccess(ctx)
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	// Version info
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)

	// Startup info
	green := color.New(color.FgGreen)

	green.Print("    ▶ ")
	fmt.Printf("Config:  %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("Frappe:  %s\n", cfg.Frappe.BaseURL)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:    %s\n", cfg.Server.HTTPAddr)
	fmt.Println()

	logger.Info("starting assistant",
		"config", configPath,
		"frappe", cfg.Frappe.BaseURL,
		"http_addr", cfg.Server.HTTPAddr,
	)

	clientState, err := state.NewSQLiteState(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening state database: %w", err)
	}
	defer clientState.Close()

	opts := []frappe.Option{frappe.WithLogger(logger)}
	if cfg.Frappe.CSRFToken != "" {
		token := cfg.Frappe.CSRFToken
		opts = append(opts, frappe.WithCSRFToken(func() string { return token }))
	}
	if cfg.Frappe.Timeout > 0 {
		opts = append(opts, frappe.WithHTTPClient(&http.Client{Timeout: cfg.Frappe.Timeout}))
	}
	client := frappe.NewClient(cfg.Frappe.BaseURL, opts...)

	sessions := session.New(client, clientState, logger)
	if err := sessions.Resume(ctx); err != nil {
		logger.Warn("resuming last session failed", "error", err)
	}

	controller := assist.NewController(sessions, client, logger)
	ui := webui.New(client, client, sessions, controller, render.New(), logger)

	mux := http.NewServeMux()
	ui.RegisterRoutes(mux)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runInit() error {
	configPath := getConfigPath()
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config already exists at %s", configPath)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	content := fmt.Sprintf(`frappe:
  base_url: "https://erp.example.com"
  csrf_token: "${FRAPPE_CSRF_TOKEN}"
  timeout: "120s"

server:
  http_addr: "127.0.0.1:8090"

database:
  path: "%s"

logging:
  level: "info"
  format: "text"
`, filepath.Join(getDataPath(), "state.db"))

	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("Wrote %s\n", configPath)
	fmt.Println("Edit frappe.base_url before running 'assistant serve'.")
	return nil
}

func runAccess(ctx context.Context) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	opts := []frappe.Option{}
	if cfg.Frappe.CSRFToken != "" {
		token := cfg.Frappe.CSRFToken
		opts = append(opts, frappe.WithCSRFToken(func() string { return token }))
	}
	client := frappe.NewClient(cfg.Frappe.BaseURL, opts...)

	ok, err := client.CheckAccess(ctx)
	if err != nil {
		return fmt.Errorf("access check failed: %w", err)
	}
	if !ok {
		return fmt.Errorf("access denied for the configured account")
	}

	fmt.Println("access granted")
	return nil
}

func runHealth(ctx context.Context) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/health", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = &colorHandler{
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	// Format timestamp
	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	// Colorize level
	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	// Print message
	buf.WriteString(r.Message)

	// Print handler-level attrs first (from WithAttrs)
	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}

	// Print record attrs
	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}
