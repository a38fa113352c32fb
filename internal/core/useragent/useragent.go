// SPDX-License-Identifier: MIT

// Package useragent classifies User-Agent strings into a small, bounded set
// of families suitable for metric labels.
package useragent

import "strings"

// Browser families.
const (
	FamilyNone    = "none"
	FamilyBot     = "bot"
	FamilyCurl    = "curl"
	FamilyEdge    = "edge"
	FamilyChrome  = "chrome"
	FamilyFirefox = "firefox"
	FamilySafari  = "safari"
	FamilyOther   = "other"
)

// Families lists every value Family can return.
var Families = []string{
	FamilyNone, FamilyBot, FamilyCurl, FamilyEdge, FamilyChrome,
	FamilyFirefox, FamilySafari, FamilyOther,
}

// Family maps a User-Agent header value to a browser family.
// Order matters: Edge and Chrome both claim Safari, Edge also claims Chrome.
func Family(userAgent string) string {
	ua := strings.TrimSpace(userAgent)
	if ua == "" {
		return FamilyNone
	}
	lower := strings.ToLower(ua)
	switch {
	case strings.Contains(lower, "bot") || strings.Contains(lower, "spider") || strings.Contains(lower, "crawl"):
		return FamilyBot
	case strings.HasPrefix(lower, "curl/"):
		return FamilyCurl
	case strings.Contains(ua, "Edg/") || strings.Contains(ua, "Edge/"):
		return FamilyEdge
	case strings.Contains(ua, "Firefox/") || strings.Contains(ua, "FxiOS/"):
		return FamilyFirefox
	case strings.Contains(ua, "Chrome/") || strings.Contains(ua, "Chromium/") || strings.Contains(ua, "CriOS/"):
		return FamilyChrome
	case IsSafariBrowser(ua):
		return FamilySafari
	default:
		return FamilyOther
	}
}

// IsSafariBrowser detects Safari on macOS/iOS.
// Safari has "Safari/" and "AppleWebKit/", but not "Chrome/".
func IsSafariBrowser(userAgent string) bool {
	ua := userAgent
	hasSafari := strings.Contains(ua, "Safari/")
	hasChrome := strings.Contains(ua, "Chrome/") || strings.Contains(ua, "Chromium/")
	hasWebKit := strings.Contains(ua, "AppleWebKit/")
	return hasWebKit && hasSafari && !hasChrome
}
