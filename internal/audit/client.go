package audit

import (
	"fmt"
	"strings"

	"github.com/mssola/useragent"
)

// DescribeClient renders the request origin stored with each entry, for
// example "203.0.113.7 (Firefox 121.0 on Linux x86_64)".
func DescribeClient(ip, userAgent string) string {
	device := ParseUserAgent(userAgent)
	if ip == "" {
		return device
	}
	return fmt.Sprintf("%s (%s)", ip, device)
}

// ParseUserAgent converts a raw User-Agent into a short display name.
func ParseUserAgent(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return "Unknown Device"
	}
	ua := useragent.New(userAgent)
	name, version := ua.Browser()
	browser := strings.TrimSpace(name + " " + version)
	if browser == "" {
		browser = "Unknown Browser"
	}
	os := ua.OS()
	if os == "" {
		os = "Unknown OS"
	}
	return fmt.Sprintf("%s on %s", browser, os)
}
