package synth

import (
	"github.com/waftester/scanreport/pkg/finding"
	"github.com/waftester/scanreport/pkg/seedrand"
)

// GenerateHeaders audits the 14 catalogue headers in catalogue order.
// Each header is present when a draw from src exceeds its threshold; the
// canonical value is reported only for present headers.
func GenerateHeaders(src seedrand.Source) []finding.SecurityHeader {
	out := make([]finding.SecurityHeader, 0, len(headerCatalogue))
	for _, h := range headerCatalogue {
		rec := finding.SecurityHeader{
			Name:           h.Name,
			Present:        src.Next() > h.Threshold,
			Description:    h.Description,
			Recommendation: h.Recommendation,
		}
		if rec.Present {
			rec.Value = h.Value
		}
		out = append(out, rec)
	}
	return out
}
