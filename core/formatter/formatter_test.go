package formatter

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/artpar/larkin/core/geo"
)

type recordingObserver struct {
	mu          sync.Mutex
	responses   []string
	conversions []string
}

func (o *recordingObserver) ObserveResponse(format string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.responses = append(o.responses, format)
}

func (o *recordingObserver) ObserveConversionError(format string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.conversions = append(o.conversions, format)
}

type failingConverter struct{}

func (failingConverter) Convert(data []map[string]any, format geo.Format, cb geo.Callback) {
	go cb(nil, errors.New("database exploded at 10.0.0.3"))
}

func send(d *Dispatcher, format string, data []map[string]any) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/foo", nil)
	d.Send(rec, req, format, data)
	return rec
}

func TestDispatcher_JSONEnvelope(t *testing.T) {
	d := NewDispatcher(Info{Version: 2, License: "CC-BY"})

	for _, format := range []string{"", "json", "JSON", "xml"} {
		rec := send(d, format, []map[string]any{{"message": "hi"}})
		if rec.Code != http.StatusOK {
			t.Fatalf("format %q: status = %d", format, rec.Code)
		}

		var env struct {
			V       int              `json:"v"`
			License string           `json:"license"`
			Data    []map[string]any `json:"data"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("format %q: %v", format, err)
		}
		if env.V != 2 || env.License != "CC-BY" || env.Data[0]["message"] != "hi" {
			t.Errorf("format %q: envelope = %+v", format, env)
		}
	}
}

func TestDispatcher_EmptyDataIsArray(t *testing.T) {
	d := NewDispatcher(DefaultInfo())
	rec := send(d, "json", nil)
	if !strings.Contains(rec.Body.String(), `"data":[]`) {
		t.Errorf("body = %s, want empty data array", rec.Body.String())
	}
}

func TestDispatcher_CSV(t *testing.T) {
	obs := &recordingObserver{}
	d := NewDispatcher(DefaultInfo(), WithObserver(obs))

	rec := send(d, "csv", []map[string]any{
		{"name": "a, b", "n": int64(1)},
		{"name": "c", "tags": []any{"x"}},
	})

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	want := "n,name,tags\n1,\"a, b\",\n,c,\"[\"\"x\"\"]\"\n"
	if rec.Body.String() != want {
		t.Errorf("body = %q\nwant   %q", rec.Body.String(), want)
	}
	if len(obs.responses) != 1 || obs.responses[0] != "csv" {
		t.Errorf("observed responses = %v", obs.responses)
	}
}

func TestDispatcher_GeoJSON(t *testing.T) {
	d := NewDispatcher(DefaultInfo())
	rec := send(d, "geojson", []map[string]any{
		{"name": "a", "geometry": `{"type":"Point","coordinates":[1,2]}`},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"FeatureCollection"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestDispatcher_ConversionFailureIsGeneric(t *testing.T) {
	obs := &recordingObserver{}
	d := NewDispatcher(DefaultInfo(), WithConverter(failingConverter{}), WithObserver(obs))

	rec := send(d, "topojson", []map[string]any{{"geometry": "x"}})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	var body ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Error != InternalErrorMessage {
		t.Errorf("error = %q, want %q", body.Error, InternalErrorMessage)
	}
	if strings.Contains(rec.Body.String(), "10.0.0.3") {
		t.Error("conversion detail leaked into the response")
	}
	if len(obs.conversions) != 1 || obs.conversions[0] != "topojson" {
		t.Errorf("observed conversion errors = %v", obs.conversions)
	}
}

func TestDispatcher_ErrorDefaults(t *testing.T) {
	d := NewDispatcher(DefaultInfo())

	tests := []struct {
		message  string
		code     int
		wantMsg  string
		wantCode int
	}{
		{"", 0, "An error occurred", 500},
		{"Route not found", 404, "Route not found", 404},
		{"", 400, "An error occurred", 400},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		d.Error(rec, tt.message, tt.code)

		if rec.Code != tt.wantCode {
			t.Errorf("code = %d, want %d", rec.Code, tt.wantCode)
		}
		var body ErrorBody
		json.Unmarshal(rec.Body.Bytes(), &body)
		if body.Error != tt.wantMsg {
			t.Errorf("message = %q, want %q", body.Error, tt.wantMsg)
		}
	}
}

func TestDispatcher_SetInfo(t *testing.T) {
	d := NewDispatcher(DefaultInfo())
	d.SetInfo(Info{Version: 3, License: "MIT"})
	if got := d.Info(); got.Version != 3 || got.License != "MIT" {
		t.Errorf("Info() = %+v", got)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(NewJSONFormatter()); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(NewJSONFormatter()); err == nil {
		t.Error("duplicate registration should fail")
	}
	if _, ok := r.Get("json"); !ok {
		t.Error("Get(json) not found")
	}

	d := NewDispatcher(DefaultInfo())
	want := []string{"csv", "geojson", "json", "topojson"}
	got := d.Formats()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Formats() = %v, want %v", got, want)
	}
}
