package classify

import "testing"

func TestClassifyReferrer(t *testing.T) {
	cases := []struct {
		name     string
		referrer string
		want     string
	}{
		{"empty is direct", "", ReferrerDirect},
		{"whitespace is direct", "   ", ReferrerDirect},
		{"google search", "https://www.google.com/search?q=short+links", ReferrerGoogle},
		{"google country domain", "https://www.google.co.uk/", ReferrerGoogle},
		{"facebook", "https://www.facebook.com/some/page", ReferrerFacebook},
		{"facebook mobile", "https://m.facebook.com/", ReferrerFacebook},
		{"twitter", "https://twitter.com/user/status/1", ReferrerTwitter},
		{"twitter shortener", "https://t.co/abcdef", ReferrerTwitter},
		{"linkedin", "https://www.linkedin.com/feed/", ReferrerLinkedIn},
		{"instagram", "https://www.instagram.com/p/xyz/", ReferrerInstagram},
		{"unknown site", "https://news.example.org/article", ReferrerOther},
		{"case insensitive", "https://WWW.GOOGLE.COM/", ReferrerGoogle},
		{"unparseable falls back to raw match", "not a url but google anyway", ReferrerGoogle},
		{"unparseable unknown", "::::", ReferrerOther},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyReferrer(tc.referrer); got != tc.want {
				t.Fatalf("ClassifyReferrer(%q) = %q, want %q", tc.referrer, got, tc.want)
			}
		})
	}
}
