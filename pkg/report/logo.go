package report

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/waftester/scanreport/pkg/defaults"
)

// LoadLogo reads an image file and returns it as a data URI suitable for
// embedding in HTML exports.
func LoadLogo(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("report: read logo: %w", err)
	}
	return LogoDataURI(data)
}

// LogoDataURI validates raw image bytes and encodes them as a data URI.
func LogoDataURI(data []byte) (string, error) {
	if len(data) > defaults.MaxLogoSize {
		return "", fmt.Errorf("%w: %d bytes", ErrLogoTooLarge, len(data))
	}
	ct := http.DetectContentType(data)
	if !strings.HasPrefix(ct, "image/") {
		return "", fmt.Errorf("%w: detected %s", ErrInvalidLogo, ct)
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
