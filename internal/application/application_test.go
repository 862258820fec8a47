package application

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/binpacker/internal/config"
	"github.com/eugenenazirov/binpacker/internal/packer"
)

func TestNewInitializesDependencies(t *testing.T) {
	cfg := baseTestConfig(":8085")
	cfg.BinWidth, cfg.BinHeight = 40, 15
	logger := zaptest.NewLogger(t)

	app, err := New(cfg, logger)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	size, err := app.storage.GetBinSize()
	if err != nil {
		t.Fatalf("GetBinSize returned error: %v", err)
	}
	if size.Width != 40 || size.Height != 15 {
		t.Fatalf("expected bin size 40x15, got %gx%g", size.Width, size.Height)
	}
	if app.server == nil || app.router == nil || app.handler == nil || app.packer == nil {
		t.Fatalf("expected server, router, packer, and handler to be initialized")
	}
	if app.Server() != app.server {
		t.Fatalf("Server accessor did not return underlying instance")
	}
	if app.server.Addr != ":8085" {
		t.Fatalf("expected address :8085, got %s", app.server.Addr)
	}

	res, err := app.packer.Pack(packer.ExampleItems(), packer.ExampleBinWidth, packer.ExampleBinHeight)
	if err != nil {
		t.Fatalf("Pack returned error: %v", err)
	}
	if len(res.Bins) != 2 {
		t.Fatalf("expected 2 bins for the example, got %d", len(res.Bins))
	}
}

func TestNewServerAppliesConfig(t *testing.T) {
	cfg := baseTestConfig("9090")
	handler := http.NewServeMux()

	server := NewServer(cfg, handler)
	if server.Addr != ":9090" {
		t.Fatalf("expected address :9090, got %s", server.Addr)
	}
	if server.Handler != handler {
		t.Fatalf("expected handler to be applied")
	}
	if server.ReadHeaderTimeout != cfg.ReadHeaderTimeout ||
		server.WriteTimeout != cfg.WriteTimeout ||
		server.IdleTimeout != cfg.IdleTimeout {
		t.Fatalf("server timeouts do not match configuration")
	}
}

func TestNewReturnsErrorForInvalidBinSize(t *testing.T) {
	cfg := baseTestConfig(":0")
	cfg.BinWidth = 0

	if _, err := New(cfg, zaptest.NewLogger(t)); err == nil {
		t.Fatalf("expected error for invalid bin size")
	}
}

func TestBuildRootHandlerServesEmbeddedPage(t *testing.T) {
	api := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	root, err := BuildRootHandler(api)
	if err != nil {
		t.Fatalf("BuildRootHandler returned error: %v", err)
	}

	tests := []struct {
		path     string
		status   int
		contains string
	}{
		{path: "/", status: http.StatusOK, contains: "<title>Bin Packer</title>"},
		{path: "/static/app.js", status: http.StatusOK, contains: "/api/pack"},
		{path: "/static/style.css", status: http.StatusOK, contains: "font-family"},
		{path: "/api/health", status: http.StatusTeapot},
		{path: "/missing", status: http.StatusNotFound},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		root.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if rec.Code != tt.status {
			t.Fatalf("%s: expected status %d, got %d", tt.path, tt.status, rec.Code)
		}
		if tt.contains != "" && !strings.Contains(rec.Body.String(), tt.contains) {
			t.Fatalf("%s: expected body to contain %q", tt.path, tt.contains)
		}
	}
}

func baseTestConfig(port string) config.Config {
	return config.Config{
		Port:                 port,
		BinWidth:             20,
		BinHeight:            10,
		ShutdownGracePeriod:  50 * time.Millisecond,
		ReadHeaderTimeout:    20 * time.Millisecond,
		WriteTimeout:         30 * time.Millisecond,
		IdleTimeout:          40 * time.Millisecond,
		EnableRequestLogging: false,
		RateLimitRPS:         0,
		RateLimitBurst:       0,
		LogLevel:             "info",
	}
}
