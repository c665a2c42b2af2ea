// Package canonical reduces page URLs to the stable form records are
// stored and compared under.
package canonical

import (
	"net/url"
	"regexp"
	"strings"
)

// Rule rewrites URLs matching a site's extract pattern into a fixed
// template form. Extract carries exactly one capturing group; Template
// references it as {1}.
type Rule struct {
	Extract  *regexp.Regexp
	Template string
}

// Apply runs the rule against rawURL. The second return is false when
// the pattern does not match.
func (r *Rule) Apply(rawURL string) (string, bool) {
	m := r.Extract.FindStringSubmatch(rawURL)
	if len(m) < 2 {
		return "", false
	}
	return strings.ReplaceAll(r.Template, "{1}", m[1]), true
}

// Canonicalize maps a page URL to its canonical form. A matching rule
// wins; without a rule, or when the pattern does not match, the URL is
// normalized generically. Output is stable: canonicalizing a canonical
// URL returns it unchanged.
func Canonicalize(rawURL string, rule *Rule) string {
	if rule != nil {
		if clean, ok := rule.Apply(rawURL); ok {
			return clean
		}
	}
	return Normalize(rawURL)
}

// Normalize applies the generic reduction:
// - lowercases scheme and host
// - removes default ports (80 for http, 443 for https)
// - drops the query string and fragment
// - removes trailing slashes from the path
func Normalize(rawURL string) string {
	trimmed := strings.TrimSpace(rawURL)
	u, err := url.Parse(trimmed)
	if err != nil {
		return trimmed
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	host := u.Hostname()
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		u.Host = host
	}

	u.RawQuery = ""
	u.Fragment = ""

	if strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimRight(u.Path, "/")
	}

	return u.String()
}
