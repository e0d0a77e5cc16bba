// Package harvest finds external profile links in resume text.
package harvest

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// MaxLinks bounds how many links a single resume contributes.
const MaxLinks = 5

var urlPattern = regexp.MustCompile("https?://[^\\s<>\"{}|\\\\^`\\[\\]()']*[^\\s<>\"{}|\\\\^`\\[\\]()',.]")

// profileMarkers are substrings that make a link worth fetching on their own.
var profileMarkers = []string{
	"github.com",
	"gitlab.com",
	"bitbucket.org",
	"linkedin.com",
	"stackoverflow.com",
	"medium.com",
	"dev.to",
	"hashnode.com",
	"behance.net",
	"dribbble.com",
	"kaggle.com",
	"huggingface.co",
	"portfolio",
	"personal",
}

// personalSuffixes are public suffixes commonly used for personal sites.
var personalSuffixes = map[string]struct{}{
	"io":   {},
	"dev":  {},
	"me":   {},
	"tech": {},
	"app":  {},
	"xyz":  {},
	"site": {},
	"co":   {},
}

// Links returns up to MaxLinks profile-like URLs from text in first-seen order.
func Links(text string) []string {
	links := make([]string, 0, MaxLinks)
	seen := make(map[string]struct{})

	for _, candidate := range urlPattern.FindAllString(text, -1) {
		candidate = strings.TrimRight(candidate, ".,;:!?)")

		host, ok := hostOf(candidate)
		if !ok {
			continue
		}

		key := strings.ToLower(candidate)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if !relevant(key, host) {
			continue
		}

		links = append(links, candidate)
		if len(links) == MaxLinks {
			break
		}
	}

	return links
}

func hostOf(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", false
	}
	return host, true
}

func relevant(lowered, host string) bool {
	for _, marker := range profileMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}

	suffix, _ := publicsuffix.PublicSuffix(host)
	_, ok := personalSuffixes[suffix]
	return ok
}
