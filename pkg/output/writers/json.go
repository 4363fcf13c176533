package writers

import (
	"io"

	"github.com/waftester/scanreport/pkg/jsonutil"
	"github.com/waftester/scanreport/pkg/report"
)

// JSONWriter writes the report as indented JSON, the same shape the
// store persists.
type JSONWriter struct{}

// NewJSONWriter creates a JSON writer.
func NewJSONWriter() *JSONWriter { return &JSONWriter{} }

func (jw *JSONWriter) Format() string      { return FormatJSON }
func (jw *JSONWriter) Extension() string   { return "json" }
func (jw *JSONWriter) ContentType() string { return "application/json" }

// Write renders r followed by a newline.
func (jw *JSONWriter) Write(w io.Writer, r *report.ScanReport) error {
	if err := checkReport(r); err != nil {
		return err
	}
	enc := jsonutil.NewStreamEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
