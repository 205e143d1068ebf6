package utils

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	caseNumberRegex = regexp.MustCompile(`^DMM-\d{8}-\d{3}$`)
	controlRegex    = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)
)

// ValidateCaseNumber validates the DMM-YYYYMMDD-NNN format
func ValidateCaseNumber(caseNumber string) error {
	if !caseNumberRegex.MatchString(caseNumber) {
		return fmt.Errorf("invalid case number format: %s", caseNumber)
	}
	return nil
}

// ValidateSourceURL accepts an empty value or an absolute http(s) URL
func ValidateSourceURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("invalid source URL: %s", raw)
	}
	return nil
}

// SanitizeString removes control characters except tab and newlines, and trims spaces
func SanitizeString(s string) string {
	return strings.TrimSpace(controlRegex.ReplaceAllString(s, ""))
}
