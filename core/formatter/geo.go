package formatter

import (
	"context"
	"fmt"
	"io"

	"github.com/artpar/larkin/core/geo"
)

// GeoFormatter hands records to a geometry converter and writes the
// converted document.
type GeoFormatter struct {
	format    geo.Format
	converter geo.Converter
}

// NewGeoFormatter creates a formatter for one geometry output format.
func NewGeoFormatter(format geo.Format, converter geo.Converter) *GeoFormatter {
	return &GeoFormatter{format: format, converter: converter}
}

// Name returns the formatter name.
func (f *GeoFormatter) Name() string {
	return string(f.format)
}

// ContentType returns the response Content-Type.
func (f *GeoFormatter) ContentType() string {
	if f.format == geo.FormatGeoJSON {
		return "application/geo+json"
	}
	return "application/json"
}

type conversion struct {
	out []byte
	err error
}

// Format starts the conversion and waits for its single callback or for
// ctx to finish. Conversion failures wrap ErrConversion.
func (f *GeoFormatter) Format(ctx context.Context, w io.Writer, _ Info, data []map[string]any) error {
	done := make(chan conversion, 1)
	f.converter.Convert(data, f.format, func(out []byte, err error) {
		done <- conversion{out: out, err: err}
	})

	select {
	case res := <-done:
		if res.err != nil {
			return fmt.Errorf("%w: %s: %v", ErrConversion, f.format, res.err)
		}
		_, err := w.Write(res.out)
		return err
	case <-ctx.Done():
		return fmt.Errorf("%w: %s: %v", ErrConversion, f.format, ctx.Err())
	}
}
