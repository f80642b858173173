package formatter

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/artpar/larkin/core/geo"
)

const (
	// DefaultErrorMessage is used when Error is called without a message.
	DefaultErrorMessage = "An error occurred"

	// InternalErrorMessage replaces the detail of conversion failures.
	InternalErrorMessage = "An internal error occurred"

	tracerName = "github.com/artpar/larkin/core/formatter"
)

// Observer receives response events. adapters/metrics implements it.
type Observer interface {
	ObserveResponse(format string)
	ObserveConversionError(format string)
}

// ErrorBody is the error envelope.
type ErrorBody struct {
	Error string `json:"error"`
}

// Dispatcher selects a formatter for each response and writes the result.
type Dispatcher struct {
	mu   sync.RWMutex
	info Info

	formats   *Registry
	converter geo.Converter
	logger    zerolog.Logger
	observer  Observer
	tracer    trace.Tracer
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used for conversion failures.
func WithLogger(logger zerolog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithObserver sets the response observer.
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) {
		d.observer = o
	}
}

// WithConverter sets the geometry converter behind geojson and topojson.
func WithConverter(c geo.Converter) Option {
	return func(d *Dispatcher) {
		d.converter = c
	}
}

// NewDispatcher creates a dispatcher with the json, csv, geojson and
// topojson formats registered.
func NewDispatcher(info Info, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		info:    info,
		formats: NewRegistry(),
		logger:  zerolog.Nop(),
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.converter == nil {
		d.converter = geo.NewOrbConverter(geo.DefaultOptions())
	}

	d.formats.Register(NewJSONFormatter())
	d.formats.Register(NewCSVFormatter())
	d.formats.Register(NewGeoFormatter(geo.FormatGeoJSON, d.converter))
	d.formats.Register(NewGeoFormatter(geo.FormatTopoJSON, d.converter))

	return d
}

// Info returns the current API metadata.
func (d *Dispatcher) Info() Info {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.info
}

// SetInfo replaces the API metadata. Safe to call while serving.
func (d *Dispatcher) SetInfo(info Info) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.info = info
}

// Formats returns the registered format names.
func (d *Dispatcher) Formats() []string {
	return d.formats.List()
}

// Register adds a formatter.
func (d *Dispatcher) Register(f Formatter) error {
	return d.formats.Register(f)
}

// Resolve returns the formatter for name, falling back to json for an
// empty or unknown name.
func (d *Dispatcher) Resolve(name string) Formatter {
	if f, ok := d.formats.Get(strings.ToLower(name)); ok {
		return f
	}
	f, _ := d.formats.Get(DefaultFormat)
	return f
}

// Send renders data in the requested format. Output is buffered so a
// failed conversion never leaves a partial body; the failure is reported
// as a generic 500.
func (d *Dispatcher) Send(w http.ResponseWriter, r *http.Request, format string, data []map[string]any) {
	f := d.Resolve(format)

	ctx, span := d.tracer.Start(r.Context(), "formatter.Send",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("larkin.format", f.Name()),
			attribute.Int("larkin.records", len(data)),
		),
	)
	defer span.End()

	var buf bytes.Buffer
	if err := f.Format(ctx, &buf, d.Info(), data); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		event := d.logger.Error().Err(err).Str("format", f.Name())
		if errors.Is(err, ErrConversion) {
			event = event.Bool("conversion", true)
		}
		event.Msg("format response")

		if d.observer != nil {
			d.observer.ObserveConversionError(f.Name())
		}
		d.Error(w, InternalErrorMessage, http.StatusInternalServerError)
		return
	}
	span.SetStatus(codes.Ok, "")

	if d.observer != nil {
		d.observer.ObserveResponse(f.Name())
	}

	w.Header().Set("Content-Type", f.ContentType())
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// Error writes the {error} envelope. An empty message becomes "An error
// occurred" and a zero code becomes 500.
func (d *Dispatcher) Error(w http.ResponseWriter, message string, code int) {
	if message == "" {
		message = DefaultErrorMessage
	}
	if code == 0 {
		code = http.StatusInternalServerError
	}
	d.JSON(w, code, ErrorBody{Error: message})
}

// JSON writes v as a JSON body with the given status.
func (d *Dispatcher) JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		d.logger.Error().Err(err).Msg("encode json response")
	}
}
