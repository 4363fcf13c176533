package scan

import (
	"fmt"
	"net"
	"net/url"

	"golang.org/x/net/idna"

	"github.com/waftester/scanreport/pkg/report"
)

// Request is one scan submission.
type Request struct {
	Target  string         `json:"target"`
	Profile report.Profile `json:"profile"`
	Tools   []string       `json:"tools"`
}

// WithDefaults returns req with the profile's preselected tools filled in
// when no tool was chosen.
func (r Request) WithDefaults() Request {
	if len(r.Tools) == 0 {
		r.Tools = r.Profile.DefaultTools()
	}
	return r
}

// ValidateURL checks a target the way the submission form does. Hosts are
// checked through IDNA so internationalised names are accepted; the target
// itself is left as typed.
func ValidateURL(target string) error {
	if target == "" {
		return ErrMissingURL
	}
	u, err := url.Parse(target)
	if err != nil || u.Hostname() == "" {
		return ErrInvalidURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrBadScheme
	}
	if host := u.Hostname(); net.ParseIP(host) == nil {
		if _, err := idna.Lookup.ToASCII(host); err != nil {
			return ErrInvalidURL
		}
	}
	return nil
}

// ValidateRequest checks a submission before it reaches the orchestrator.
// An empty tool list stands for the profile's default tools.
func ValidateRequest(req Request) error {
	if err := ValidateURL(req.Target); err != nil {
		return err
	}
	if !req.Profile.IsValid() {
		return fmt.Errorf("%w: %q", report.ErrInvalidProfile, req.Profile)
	}
	for _, id := range req.WithDefaults().Tools {
		if !knownTool(id) {
			return fmt.Errorf("%w: %q", ErrUnknownTool, id)
		}
	}
	return nil
}
