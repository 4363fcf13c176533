package report

import (
	"bytes"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/waftester/scanreport/pkg/defaults"
	"github.com/waftester/scanreport/pkg/finding"
)

const (
	contentTypePDF  = "application/pdf"
	contentTypeHTML = "text/html"
)

// ImportTool is the single entry of ToolsUsed on imported reports.
const ImportTool = "Document Import"

// Import builds a placeholder report for an uploaded PDF or HTML document.
// The target URL is derived from the file name: the .html/.pdf extension is
// dropped and underscores become dots, so "example_com.pdf" imports as
// "example.com". PDFs must parse.
func Import(name string, data []byte, now time.Time) (*ScanReport, error) {
	if len(data) > defaults.MaxImportSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrImportTooLarge, len(data))
	}
	ct := importContentType(name, data)
	if ct == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImport, name)
	}

	file := &ImportedFile{
		Name:        filepath.Base(name),
		ContentType: ct,
		Size:        len(data),
	}
	if ct == contentTypePDF {
		pages, err := pdfapi.PageCount(bytes.NewReader(data), nil)
		if err != nil {
			return nil, fmt.Errorf("report: parse imported pdf: %w", err)
		}
		file.Pages = pages
	}

	target := strings.ReplaceAll(importExt.ReplaceAllString(file.Name, ""), "_", ".")
	return &ScanReport{
		SchemaVersion:      SchemaVersion,
		ID:                 fmt.Sprintf("imported-%d", now.UnixMilli()),
		TargetURL:          target,
		ScanType:           ImportedScanType,
		ScanDate:           now.UTC(),
		ToolsUsed:          []string{ImportTool},
		Vulnerabilities:    []finding.Vulnerability{},
		PortScan:           []finding.PortFinding{},
		SecurityHeaders:    []finding.SecurityHeader{},
		SuccessfulPayloads: []string{},
		Editable:           true,
		ReportStatus:       StatusDraft,
		ImportedFile:       file,
	}, nil
}

// importContentType resolves the document type from the extension first
// and falls back to content sniffing. Returns "" for unsupported files.
func importContentType(name string, data []byte) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return contentTypePDF
	case ".html", ".htm":
		return contentTypeHTML
	}
	sniffed := http.DetectContentType(data)
	switch {
	case strings.HasPrefix(sniffed, contentTypePDF):
		return contentTypePDF
	case strings.HasPrefix(sniffed, contentTypeHTML):
		return contentTypeHTML
	}
	return ""
}
