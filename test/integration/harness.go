// Package integration provides a reusable test harness for end-to-end
// testing of the marketplace API server. It starts a full HTTP server with
// an in-memory record store, a static role directory, a running realtime
// hub, and a test JWT issuer.
package integration

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ghxstship/marketplace/internal/config"
	"github.com/ghxstship/marketplace/internal/crud"
	"github.com/ghxstship/marketplace/internal/dataview"
	"github.com/ghxstship/marketplace/internal/permission"
	"github.com/ghxstship/marketplace/internal/realtime"
	"github.com/ghxstship/marketplace/internal/schema"
	"github.com/ghxstship/marketplace/internal/store"
	"github.com/ghxstship/marketplace/internal/transfer"
	"github.com/ghxstship/marketplace/internal/transport"
)

const defaultDirectory = `
organizations:
  org-1:
    members:
      owner-1: owner
      admin-1: admin
      member-1: member
      member-2: member
    vendors:
      member-2: vend-9
  org-2:
    members:
      admin-2: admin
`

// TestHarness encapsulates a fully wired marketplace API instance for
// integration testing.
type TestHarness struct {
	t      *testing.T
	server *httptest.Server
	issuer *tokenIssuer

	// Internal components exposed for advanced test scenarios.
	Store    *store.MemoryStore
	Engine   *crud.Engine
	Resolver *permission.Resolver
	Hub      *realtime.Hub
	Bridge   *realtime.Bridge

	cfg *config.Config
}

// HarnessOption configures the test harness.
type HarnessOption func(*harnessConfig)

type harnessConfig struct {
	directoryYAML  string
	handlerTimeout time.Duration
	realtime       bool
}

// WithDirectory overrides the role directory YAML content.
func WithDirectory(yamlContent string) HarnessOption {
	return func(c *harnessConfig) {
		c.directoryYAML = yamlContent
	}
}

// WithHandlerTimeout sets the per-request handler timeout.
func WithHandlerTimeout(d time.Duration) HarnessOption {
	return func(c *harnessConfig) {
		c.handlerTimeout = d
	}
}

// WithoutRealtime disables the hub and the stream endpoint.
func WithoutRealtime() HarnessOption {
	return func(c *harnessConfig) {
		c.realtime = false
	}
}

// NewTestHarness creates and starts a full marketplace API test instance.
// The server is automatically cleaned up when the test completes.
func NewTestHarness(t *testing.T, opts ...HarnessOption) *TestHarness {
	t.Helper()

	hc := &harnessConfig{
		directoryYAML:  defaultDirectory,
		handlerTimeout: 10 * time.Second,
		realtime:       true,
	}
	for _, opt := range opts {
		opt(hc)
	}

	h := &TestHarness{t: t}

	// Role directory from a temp YAML file.
	dirPath := filepath.Join(t.TempDir(), "directory.yaml")
	if err := os.WriteFile(dirPath, []byte(hc.directoryYAML), 0o644); err != nil {
		t.Fatalf("write directory file: %v", err)
	}
	directory, err := permission.NewStaticDirectory(dirPath)
	if err != nil {
		t.Fatalf("load directory file: %v", err)
	}

	logger := zap.NewNop()

	h.Hub = realtime.NewHub(realtime.WithHubLogger(logger))
	h.Store = store.NewMemoryStore(h.Hub)
	h.Resolver = permission.NewResolver(directory, h.Store)
	h.Engine = crud.NewEngine(h.Store, h.Resolver, schema.DefaultTables(),
		crud.WithLogger(logger))

	if hc.realtime {
		ctx, cancel := context.WithCancel(context.Background())
		t.Cleanup(cancel)
		h.Hub.Start(ctx)
		h.Bridge = realtime.NewBridge(h.Hub, logger)
	}

	h.issuer = newTokenIssuer(t)

	cfg := config.Defaults()
	cfg.Server.HandlerTimeout = hc.handlerTimeout
	cfg.Server.CORS.AllowedOrigins = []string{"http://localhost:3000"}
	cfg.Identity = config.IdentityConfig{
		Issuer:       h.issuer.Issuer(),
		Audience:     h.issuer.Audience(),
		JWKSURL:      h.issuer.JWKSURL(),
		JWKSCacheTTL: 1 * time.Hour,
		Algorithms:   []string{"RS256"},
	}
	cfg.Realtime.Enabled = hc.realtime
	cfg.Realtime.PingInterval = 1 * time.Second
	h.cfg = cfg

	jwks := transport.NewJWKSClient(h.issuer.JWKSURL(), 1*time.Hour, logger)

	router := transport.NewRouter(transport.Dependencies{
		Config:       cfg,
		Logger:       logger,
		Engine:       h.Engine,
		Resolver:     h.Resolver,
		Views:        dataview.NewRegistry(schema.DefaultTables()),
		Exporter:     transfer.NewExporter(),
		Importer:     transfer.NewImporter(h.Engine),
		Bridge:       h.Bridge,
		Authenticate: transport.JWTAuthenticator(cfg.Identity, jwks),
	})

	h.server = httptest.NewServer(router)
	t.Cleanup(h.server.Close)

	return h
}

// BaseURL returns the test server's base URL.
func (h *TestHarness) BaseURL() string {
	return h.server.URL
}

// WSURL returns the websocket URL for the given path.
func (h *TestHarness) WSURL(path string) string {
	return strings.Replace(h.server.URL, "http", "ws", 1) + path
}

// GenerateToken creates a valid JWT token with the given claims.
func (h *TestHarness) GenerateToken(claims TestClaims) string {
	return h.issuer.GenerateToken(claims)
}

// GenerateExpiredToken creates a JWT that has already expired.
func (h *TestHarness) GenerateExpiredToken(claims TestClaims) string {
	return h.issuer.GenerateExpiredToken(claims)
}

// --- HTTP client helpers ---

// GET performs an authenticated GET request.
func (h *TestHarness) GET(path, token string) *http.Response {
	h.t.Helper()
	return h.doRequest("GET", path, nil, token)
}

// POST performs an authenticated POST request with a JSON body.
func (h *TestHarness) POST(path string, body any, token string) *http.Response {
	h.t.Helper()
	return h.doRequest("POST", path, body, token)
}

// PATCH performs an authenticated PATCH request with a JSON body.
func (h *TestHarness) PATCH(path string, body any, token string) *http.Response {
	h.t.Helper()
	return h.doRequest("PATCH", path, body, token)
}

// DELETE performs an authenticated DELETE request.
func (h *TestHarness) DELETE(path, token string) *http.Response {
	h.t.Helper()
	return h.doRequest("DELETE", path, nil, token)
}

func (h *TestHarness) doRequest(method, path string, body any, token string) *http.Response {
	h.t.Helper()

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			h.t.Fatalf("marshal request body: %v", err)
		}
		bodyReader = strings.NewReader(string(data))
	}

	req, err := http.NewRequestWithContext(context.Background(), method, h.server.URL+path, bodyReader)
	if err != nil {
		h.t.Fatalf("create request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		h.t.Fatalf("%s %s failed: %v", method, path, err)
	}
	return resp
}

// ParseJSON reads the response body and unmarshals it into the target.
func (h *TestHarness) ParseJSON(resp *http.Response, target any) {
	h.t.Helper()
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		h.t.Fatalf("read response body: %v", err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		h.t.Fatalf("unmarshal response body: %v\nbody: %s", err, string(data))
	}
}

// ReadBody reads and returns the response body as bytes.
func (h *TestHarness) ReadBody(resp *http.Response) []byte {
	h.t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		h.t.Fatalf("read response body: %v", err)
	}
	return data
}

// AssertStatus checks that the response has the expected status code.
func (h *TestHarness) AssertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Errorf("status = %d, want %d\nbody: %s", resp.StatusCode, expected, string(body))
	}
}

// AssertJSON checks that the response has the expected status and parses the
// body.
func (h *TestHarness) AssertJSON(t *testing.T, resp *http.Response, expected int, target any) {
	t.Helper()
	if resp.StatusCode != expected {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("status = %d, want %d\nbody: %s", resp.StatusCode, expected, string(body))
	}
	h.ParseJSON(resp, target)
}

// --- Default test claims ---

// OwnerClaims returns TestClaims for the organization owner.
func OwnerClaims() TestClaims {
	return TestClaims{
		UserID: "owner-1",
		OrgID:  "org-1",
		Email:  "owner@example.com",
		Roles:  []string{"owner"},
	}
}

// AdminClaims returns TestClaims for an org admin.
func AdminClaims() TestClaims {
	return TestClaims{
		UserID: "admin-1",
		OrgID:  "org-1",
		Email:  "admin@example.com",
		Roles:  []string{"admin"},
	}
}

// MemberClaims returns TestClaims for the given regular member.
func MemberClaims(userID string) TestClaims {
	return TestClaims{
		UserID: userID,
		OrgID:  "org-1",
		Email:  userID + "@example.com",
		Roles:  []string{"member"},
	}
}
