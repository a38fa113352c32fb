// SPDX-License-Identifier: MIT

package useragent

import "testing"

func TestFamily(t *testing.T) {
	tests := []struct {
		name string
		ua   string
		want string
	}{
		{"empty", "", FamilyNone},
		{"blank", "   ", FamilyNone},
		{"curl", "curl/8.4.0", FamilyCurl},
		{"googlebot", "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)", FamilyBot},
		{"chrome", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36", FamilyChrome},
		{"edge", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0", FamilyEdge},
		{"firefox", "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0", FamilyFirefox},
		{"safari", "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_2) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15", FamilySafari},
		{"chrome ios", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_2 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) CriOS/120.0.6099.119 Mobile/15E148 Safari/604.1", FamilyChrome},
		{"unknown", "Lynx/2.9.0", FamilyOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Family(tt.ua); got != tt.want {
				t.Errorf("Family(%q) = %q, want %q", tt.ua, got, tt.want)
			}
		})
	}
}

func TestFamily_IsBounded(t *testing.T) {
	known := make(map[string]bool, len(Families))
	for _, f := range Families {
		known[f] = true
	}
	for _, ua := range []string{"", "x", "curl/1", "Firefox/1", "Chrome/1", "AppleWebKit/1 Safari/1", "bot"} {
		if f := Family(ua); !known[f] {
			t.Errorf("Family(%q) returned unlisted family %q", ua, f)
		}
	}
}
