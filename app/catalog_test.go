package app_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/artpar/larkin/app"
	"github.com/artpar/larkin/core/capability"
	"github.com/artpar/larkin/core/schema"
)

type fakeResponder struct {
	*httptest.ResponseRecorder
	data []map[string]any
}

func (f *fakeResponder) Reply(data []map[string]any) { f.data = data }
func (f *fakeResponder) Error(message string, code int) {}

type fakeQuerier struct {
	query  string
	params map[string]any
	rows   []map[string]any
	err    error
}

func (f *fakeQuerier) Query(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	f.query = query
	f.params = params
	return f.rows, f.err
}

func serve(t *testing.T, route *schema.Route, params schema.Params, plugins schema.Plugins) (*fakeResponder, error) {
	t.Helper()

	w := &fakeResponder{ResponseRecorder: httptest.NewRecorder()}
	req := &schema.Request{
		Request: httptest.NewRequest("GET", route.Path, nil),
		Route:   route,
		Params:  params,
	}
	var nextErr error
	route.Handler(w, req, func(err error) { nextErr = err }, plugins)
	return w, nextErr
}

func TestCatalog_Names(t *testing.T) {
	c := app.NewCatalog()
	want := []string{"echo", "sql", "static"}
	if got := c.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestCatalog_BindErrors(t *testing.T) {
	c := app.NewCatalog()

	tests := []struct {
		name  string
		route schema.Route
		want  error
	}{
		{"no handler", schema.Route{Path: "/a"}, app.ErrNoHandler},
		{"unknown handler", schema.Route{Path: "/a", HandlerName: "nope"}, app.ErrUnknownHandler},
		{"static without data", schema.Route{Path: "/a", HandlerName: "static"}, app.ErrHandlerConfig},
		{"static with scalar data", schema.Route{Path: "/a", HandlerName: "static", Config: map[string]any{"data": "x"}}, app.ErrHandlerConfig},
		{"static with scalar record", schema.Route{Path: "/a", HandlerName: "static", Config: map[string]any{"data": []any{1}}}, app.ErrHandlerConfig},
		{"sql without query", schema.Route{Path: "/a", HandlerName: "sql"}, app.ErrHandlerConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			route := tt.route
			err := c.Bind(&route)
			if !errors.Is(err, tt.want) {
				t.Errorf("Bind() error = %v, want %v", err, tt.want)
			}
			if route.Handler != nil {
				t.Error("handler set on failed bind")
			}
		})
	}
}

func TestCatalog_BindKeepsExistingHandler(t *testing.T) {
	c := app.NewCatalog()
	called := false
	route := &schema.Route{
		Path:        "/a",
		HandlerName: "nope",
		Handler: func(w schema.Responder, r *schema.Request, next schema.Next, p schema.Plugins) {
			called = true
		},
	}

	if err := c.Bind(route); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	serve(t, route, nil, nil)
	if !called {
		t.Error("existing handler was replaced")
	}
}

func TestStaticHandler(t *testing.T) {
	c := app.NewCatalog()
	route := &schema.Route{
		Path:        "/units",
		HandlerName: "static",
		Config: map[string]any{"data": []any{
			map[string]any{"name": "Morrison"},
			map[string]any{"name": "Dakota"},
		}},
	}
	if err := c.Bind(route); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}

	w, err := serve(t, route, schema.Params{"x": "y"}, nil)
	if err != nil {
		t.Fatalf("next called with %v", err)
	}
	want := []map[string]any{{"name": "Morrison"}, {"name": "Dakota"}}
	if !reflect.DeepEqual(w.data, want) {
		t.Errorf("data = %v, want %v", w.data, want)
	}
}

func TestSQLHandler(t *testing.T) {
	c := app.NewCatalog()
	route := &schema.Route{
		Path:        "/units",
		HandlerName: "sql",
		Config:      map[string]any{"query": "SELECT * FROM units WHERE id IN (:id)"},
	}
	if err := c.Bind(route); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	if !reflect.DeepEqual(route.Plugins, []string{"sqlite"}) {
		t.Errorf("Plugins = %v, want [sqlite]", route.Plugins)
	}

	db := &fakeQuerier{rows: []map[string]any{{"id": int64(1)}}}
	plugins := capability.NewRegistry()
	plugins.Register(app.SQLPlugin, db)

	params := schema.Params{"id": []any{int64(1), int64(2)}}
	w, err := serve(t, route, params, plugins)
	if err != nil {
		t.Fatalf("next called with %v", err)
	}
	if db.query != "SELECT * FROM units WHERE id IN (:id)" {
		t.Errorf("query = %q", db.query)
	}
	if !reflect.DeepEqual(db.params, map[string]any(params)) {
		t.Errorf("params = %v, want %v", db.params, params)
	}
	if !reflect.DeepEqual(w.data, db.rows) {
		t.Errorf("data = %v, want %v", w.data, db.rows)
	}
}

func TestSQLHandler_Failures(t *testing.T) {
	c := app.NewCatalog()
	route := &schema.Route{
		Path:        "/units",
		HandlerName: "sql",
		Plugins:     []string{"sqlite"},
		Config:      map[string]any{"query": "SELECT 1"},
	}
	if err := c.Bind(route); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	if len(route.Plugins) != 1 {
		t.Errorf("Plugins = %v, want sqlite once", route.Plugins)
	}

	wrongType := capability.NewRegistry()
	wrongType.Register(app.SQLPlugin, "not a db")
	if _, err := serve(t, route, nil, wrongType); err == nil {
		t.Error("expected next(err) for a plugin of the wrong type")
	}

	boom := errors.New("boom")
	failing := capability.NewRegistry()
	failing.Register(app.SQLPlugin, &fakeQuerier{err: boom})
	w, err := serve(t, route, nil, failing)
	if !errors.Is(err, boom) {
		t.Errorf("next error = %v, want boom", err)
	}
	if w.data != nil {
		t.Error("replied after a failed query")
	}
}

func TestEchoHandler(t *testing.T) {
	c := app.NewCatalog()
	route := &schema.Route{Path: "/echo", HandlerName: "echo"}
	if err := c.Bind(route); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}

	w, _ := serve(t, route, schema.Params{"thing": []any{"a", "b"}}, nil)
	want := []map[string]any{{"thing": []any{"a", "b"}}}
	if !reflect.DeepEqual(w.data, want) {
		t.Errorf("data = %v, want %v", w.data, want)
	}
}

func TestCatalog_BindAll(t *testing.T) {
	c := app.NewCatalog()
	c.Register("custom", func(route *schema.Route) (schema.Handler, error) {
		return func(w schema.Responder, r *schema.Request, next schema.Next, p schema.Plugins) {
			w.Reply([]map[string]any{{"custom": true}})
		}, nil
	})

	routes := []schema.Route{
		{Path: "/a", HandlerName: "custom"},
		{Path: "/b", HandlerName: "echo"},
	}
	if err := c.BindAll(routes); err != nil {
		t.Fatalf("BindAll() error = %v", err)
	}
	for _, r := range routes {
		if r.Handler == nil {
			t.Errorf("%s: handler not bound", r.Path)
		}
	}

	routes = append(routes, schema.Route{Path: "/c", HandlerName: "missing"})
	if err := c.BindAll(routes); !errors.Is(err, app.ErrUnknownHandler) {
		t.Errorf("BindAll() error = %v, want ErrUnknownHandler", err)
	}
}
