package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/artpar/larkin/config"
	"github.com/artpar/larkin/core/registry"
	"github.com/artpar/larkin/core/schema"
)

const greetingsRoute = `
path: /greetings
description: Static greetings
parameters:
  lang:
    type: text
    description: Language
    values: [en, fr]
  format:
    type: text
    description: Output format
    values: [json, csv, geojson]
fields:
  message:
    type: text
    description: The greeting
examples:
  - /greetings?lang=en
handler: static
config:
  data:
    - message: hello
      geometry: POINT(1 2)
`

const unitsRoute = `
path: /units
description: Units by name
parameters:
  name:
    type: text[]
    description: Unit names
requiredParameters: [name]
fields:
  id:
    type: integer
    description: Unit id
  name:
    type: text
    description: Unit name
examples:
  - /units?name=Dakota
handler: sql
config:
  query: SELECT id, name FROM units WHERE name IN (:name) ORDER BY id
`

const unitsMigration = `
CREATE TABLE units (id INTEGER PRIMARY KEY, name TEXT NOT NULL);
INSERT INTO units (id, name) VALUES (1, 'Morrison'), (2, 'Dakota'), (3, 'Pierre');
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "routes", "greetings.yaml"), greetingsRoute)
	writeFile(t, filepath.Join(dir, "routes", "db", "units.yml"), unitsRoute)
	writeFile(t, filepath.Join(dir, "migrations", "001_units.sql"), unitsMigration)

	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Routes.Dir = filepath.Join(dir, "routes")
	cfg.Database.DSN = ":memory:"
	cfg.Database.Migrations = filepath.Join(dir, "migrations")
	cfg.Geo.GeometryType = "wkt"
	cfg.API.License = "CC-BY-4.0"
	return &cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()

	a, err := New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	t.Cleanup(func() { a.Shutdown() })

	if _, err := a.LoadRoutes(cfg.Routes.Dir); err != nil {
		t.Fatalf("LoadRoutes error: %v", err)
	}
	return a
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestApp_ServesDeclaredRoutes(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	h := a.Handler()

	if a.Registry.Len() != 2 {
		t.Fatalf("routes = %v, want 2", a.Registry.Paths())
	}

	rec := get(t, h, "/units?name=Pierre,Dakota")
	if rec.Code != http.StatusOK {
		t.Fatalf("/units status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var body struct {
		V       int              `json:"v"`
		License string           `json:"license"`
		Data    []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.V != 1 || body.License != "CC-BY-4.0" {
		t.Errorf("envelope = %+v", body)
	}
	if len(body.Data) != 2 || body.Data[0]["name"] != "Dakota" || body.Data[1]["name"] != "Pierre" {
		t.Errorf("data = %v", body.Data)
	}

	rec = get(t, h, "/greetings?lang=en&format=csv")
	if rec.Code != http.StatusOK || rec.Body.String() != "geometry,message\nPOINT(1 2),hello\n" {
		t.Errorf("/greetings csv: status = %d, body = %q", rec.Code, rec.Body.String())
	}

	rec = get(t, h, "/greetings?lang=en&format=geojson")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "FeatureCollection") {
		t.Errorf("/greetings geojson: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = get(t, h, "/units?format=json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("/units without name: status = %d, want 400", rec.Code)
	}
}

func TestApp_MetricsEndpoint(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	h := a.Handler()

	get(t, h, "/greetings?lang=de")

	rec := get(t, h, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d", rec.Code)
	}
	for _, want := range []string{
		"larkin_routes_registered 2",
		`larkin_validation_failures_total{reason="invalid_enum_value",route="/greetings"} 1`,
	} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("scrape missing %q", want)
		}
	}
}

func TestApp_RegisterRoute(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	route := &schema.Route{
		Path:        "/greetings",
		Description: "duplicate",
		Parameters:  map[string]schema.Parameter{"x": {Type: schema.TypeText, Description: "x"}},
		Fields:      map[string]schema.Field{"x": {Type: schema.TypeText, Description: "x"}},
		Examples:    []string{"/greetings?x=1"},
		Handler: func(w schema.Responder, r *schema.Request, next schema.Next, p schema.Plugins) {
			w.Reply(nil)
		},
	}
	if err := a.RegisterRoute(route); !errors.Is(err, registry.ErrDuplicateRoute) {
		t.Errorf("duplicate RegisterRoute error = %v, want ErrDuplicateRoute", err)
	}

	route.Path = "/custom"
	route.Plugins = []string{"geocoder"}
	if err := a.RegisterRoute(route); !errors.Is(err, registry.ErrMissingPlugin) {
		t.Errorf("RegisterRoute error = %v, want ErrMissingPlugin", err)
	}

	if err := a.RegisterPlugin("geocoder", struct{}{}); err != nil {
		t.Fatalf("RegisterPlugin error: %v", err)
	}
	if err := a.RegisterRoute(route); err != nil {
		t.Errorf("RegisterRoute error = %v", err)
	}
	if err := a.RegisterPlugin("", nil); err == nil {
		t.Error("expected error for empty plugin name")
	}
}

func TestApp_LoadRoutesErrors(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer a.Shutdown()

	if _, err := a.LoadRoutes(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing routes dir")
	}

	bad := t.TempDir()
	writeFile(t, filepath.Join(bad, "nohandler.yaml"), "path: /x\ndescription: x\n")
	if _, err := a.LoadRoutes(bad); err == nil {
		t.Error("expected error for route without handler")
	}

	invalid := t.TempDir()
	writeFile(t, filepath.Join(invalid, "invalid.yaml"), "path: x\ndescription: x\nhandler: echo\n")
	if _, err := a.LoadRoutes(invalid); !errors.Is(err, schema.ErrBadPathPrefix) {
		t.Errorf("LoadRoutes error = %v, want ErrBadPathPrefix", err)
	}
}

func TestApp_WithoutDatabase(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.DSN = ""
	cfg.Metrics.Enabled = false

	a, err := New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer a.Shutdown()

	if a.DB != nil || a.Metrics != nil {
		t.Error("database and metrics should be disabled")
	}
	if _, err := a.LoadRoutes(cfg.Routes.Dir); !errors.Is(err, registry.ErrMissingPlugin) {
		t.Errorf("LoadRoutes error = %v, want ErrMissingPlugin for the sql route", err)
	}
}

func TestApp_StartShutdown(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start error: %v", err)
	}

	resp, err := http.Get("http://" + a.Addr() + "/")
	if err != nil {
		t.Fatalf("GET / error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	if err := a.Shutdown(); err != nil {
		t.Errorf("Shutdown error: %v", err)
	}
}

func TestNewWithHotReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "larkin.yaml")
	writeFile(t, path, `
server:
  host: 127.0.0.1
  port: 0
api:
  version: 1
  license: MIT
logging:
  level: error
`)

	a, err := NewWithHotReload(path)
	if err != nil {
		t.Fatalf("NewWithHotReload error: %v", err)
	}
	defer a.Shutdown()

	writeFile(t, path, `
server:
  host: 127.0.0.1
  port: 0
api:
  version: 2
  license: ODbL
logging:
  level: error
`)
	if err := a.holder.Reload(); err != nil {
		t.Fatalf("Reload error: %v", err)
	}

	info := a.Dispatcher.Info()
	if info.Version != 2 || info.License != "ODbL" {
		t.Errorf("dispatcher info = %+v, want version 2 ODbL", info)
	}
	if a.Config().API.Version != 2 {
		t.Errorf("Config().API.Version = %d, want 2", a.Config().API.Version)
	}
}

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
	}

	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)
	for _, tt := range tests {
		SetupLogger(config.LoggingConfig{Level: tt.level, Format: "console"})
		if got := zerolog.GlobalLevel(); got != tt.want {
			t.Errorf("SetupLogger(%q) level = %v, want %v", tt.level, got, tt.want)
		}
	}
}
