package device

import (
	"regexp"
	"strings"
)

var mobileTokens = []string{
	"mobile", "android", "iphone", "ipad", "ipod", "blackberry",
	"windows phone", "opera mini", "iemobile", "mobile safari",
	"webos", "kindle", "silk", "fennec", "maemo", "tablet",
}

var mobilePattern = regexp.MustCompile(`(?i)android|webos|iphone|ipad|ipod|blackberry|iemobile|opera mini`)

// IsMobile reports whether userAgent looks like a phone or tablet.
// An empty user agent is treated as desktop.
func IsMobile(userAgent string) bool {
	if userAgent == "" {
		return false
	}

	lower := strings.ToLower(userAgent)
	for _, token := range mobileTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}

	return mobilePattern.MatchString(userAgent)
}
