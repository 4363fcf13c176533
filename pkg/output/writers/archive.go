package writers

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/waftester/scanreport/pkg/defaults"
	"github.com/waftester/scanreport/pkg/jsonutil"
	"github.com/waftester/scanreport/pkg/report"
)

// ArchiveWriter writes the report as zstd-compressed JSON, suitable for
// long-term storage or moving reports between stores.
type ArchiveWriter struct{}

// NewArchiveWriter creates an archive writer.
func NewArchiveWriter() *ArchiveWriter { return &ArchiveWriter{} }

func (aw *ArchiveWriter) Format() string      { return FormatArchive }
func (aw *ArchiveWriter) Extension() string   { return "json.zst" }
func (aw *ArchiveWriter) ContentType() string { return "application/zstd" }

// Write compresses the JSON encoding of r into w.
func (aw *ArchiveWriter) Write(w io.Writer, r *report.ScanReport) error {
	if err := checkReport(r); err != nil {
		return err
	}
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return fmt.Errorf("zstd writer: %w", err)
	}
	if err := jsonutil.NewStreamEncoder(enc).Encode(r); err != nil {
		enc.Close()
		return fmt.Errorf("zstd write: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("zstd close: %w", err)
	}
	return nil
}

// ReadArchive decodes a report written by ArchiveWriter. The decompressed
// payload is capped at defaults.MaxImportSize.
func ReadArchive(r io.Reader) (*report.ScanReport, error) {
	dec, err := zstd.NewReader(r, zstd.WithDecoderMaxMemory(defaults.MaxImportSize))
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()

	var out report.ScanReport
	if err := jsonutil.ReadLimited(dec, defaults.MaxImportSize, &out); err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}
	return &out, nil
}
