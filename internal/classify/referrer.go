package classify

import (
	"net/url"
	"strings"
)

// The closed referrer taxonomy. Direct covers empty referrers, Other
// covers everything that matched no known brand.
const (
	ReferrerGoogle    = "Google"
	ReferrerFacebook  = "Facebook"
	ReferrerTwitter   = "Twitter"
	ReferrerLinkedIn  = "LinkedIn"
	ReferrerInstagram = "Instagram"
	ReferrerOther     = "Other"
	ReferrerDirect    = "Direct"
)

// ReferrerClasses lists every taxonomy value, useful for exhaustive
// reporting even when a class has zero clicks.
var ReferrerClasses = []string{
	ReferrerGoogle,
	ReferrerFacebook,
	ReferrerTwitter,
	ReferrerLinkedIn,
	ReferrerInstagram,
	ReferrerOther,
	ReferrerDirect,
}

var referrerBrands = []struct {
	substr string
	class  string
}{
	{"google", ReferrerGoogle},
	{"facebook", ReferrerFacebook},
	{"twitter", ReferrerTwitter},
	{"t.co", ReferrerTwitter},
	{"linkedin", ReferrerLinkedIn},
	{"instagram", ReferrerInstagram},
}

// ClassifyReferrer maps a raw referrer URL to one taxonomy value by
// case-insensitive substring matching against the referrer host. A
// referrer that does not parse as a URL is matched against the raw string
// instead of being treated as an error.
func ClassifyReferrer(referrer string) string {
	referrer = strings.TrimSpace(referrer)
	if referrer == "" {
		return ReferrerDirect
	}

	host := referrer
	if u, err := url.Parse(referrer); err == nil && u.Host != "" {
		host = u.Host
	}
	host = strings.ToLower(host)

	for _, brand := range referrerBrands {
		if strings.Contains(host, brand.substr) {
			return brand.class
		}
	}
	return ReferrerOther
}
