package harvest

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"testing"
)

func TestLinks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		text   string
		expect []string
	}{
		{
			name:   "keeps profile domains and drops generic sites",
			text:   "Code: https://github.com/alice and CV at https://example.com/cv",
			expect: []string{"https://github.com/alice"},
		},
		{
			name:   "allow-listed personal suffix",
			text:   "Site: https://alice.dev/about, blog http://alice.me.",
			expect: []string{"https://alice.dev/about", "http://alice.me"},
		},
		{
			name:   "portfolio marker anywhere in the url",
			text:   "see https://example.com/portfolio/alice",
			expect: []string{"https://example.com/portfolio/alice"},
		},
		{
			name:   "trailing punctuation is trimmed",
			text:   "(https://www.linkedin.com/in/alice) and https://gitlab.com/alice;",
			expect: []string{"https://www.linkedin.com/in/alice", "https://gitlab.com/alice"},
		},
		{
			name:   "duplicates differing only by case collapse to the first",
			text:   "https://GitHub.com/Alice https://github.com/alice",
			expect: []string{"https://GitHub.com/Alice"},
		},
		{
			name:   "public suffix must match exactly",
			text:   "https://shop.co.uk https://alice.co",
			expect: []string{"https://alice.co"},
		},
		{
			name:   "no links",
			text:   "Seasoned engineer, no websites.",
			expect: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Links(tt.text)
			if !reflect.DeepEqual(got, tt.expect) {
				t.Fatalf("expected %v, got %v", tt.expect, got)
			}
		})
	}
}

func TestLinksBoundedAndOrdered(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&b, "project %d: https://github.com/alice/repo%d\n", i, i)
	}

	got := Links(b.String())
	if len(got) != MaxLinks {
		t.Fatalf("expected %d links, got %d", MaxLinks, len(got))
	}

	shape := regexp.MustCompile(`^https?://\S+$`)
	for i, link := range got {
		if want := fmt.Sprintf("https://github.com/alice/repo%d", i); link != want {
			t.Fatalf("link %d: expected %q, got %q", i, want, link)
		}
		if !shape.MatchString(link) {
			t.Fatalf("link %q does not look like a url", link)
		}
	}
}

func TestLinksIsPure(t *testing.T) {
	t.Parallel()

	text := "https://github.com/alice https://alice.io https://kaggle.com/alice"
	first := Links(text)
	second := Links(text)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical results, got %v and %v", first, second)
	}
}
