package utils

import (
	"net/url"
	"strings"
)

// Share-link domains recognized by the pipeline. Subdomains of any entry
// are accepted as well.
var defaultLinkDomains = []string{
	"terabox.com",
	"1024terabox.com",
	"teraboxapp.com",
	"teraboxlink.com",
	"terasharelink.com",
	"terafileshare.com",
	"1024tera.com",
	"1024tera.cn",
	"teraboxdrive.com",
	"dubox.com",
}

// LinkValidator filters batch input down to recognized share-link domains.
type LinkValidator struct {
	domains []string
}

// NewLinkValidator creates a validator for the default domain list.
func NewLinkValidator() *LinkValidator {
	return &LinkValidator{domains: defaultLinkDomains}
}

// NewLinkValidatorWithDomains creates a validator for a custom domain list.
func NewLinkValidatorWithDomains(domains []string) *LinkValidator {
	return &LinkValidator{domains: domains}
}

// IsSupported reports whether the URL points at a recognized domain.
func (v *LinkValidator) IsSupported(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}

	host := strings.ToLower(parsed.Hostname())
	host = strings.TrimPrefix(host, "www.")

	for _, domain := range v.domains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// Filter deduplicates links (first occurrence wins position) and drops
// anything that is not a recognized share link.
func (v *LinkValidator) Filter(links []string) []string {
	seen := make(map[string]struct{}, len(links))
	out := make([]string, 0, len(links))

	for _, link := range links {
		if _, dup := seen[link]; dup {
			continue
		}
		seen[link] = struct{}{}
		if v.IsSupported(link) {
			out = append(out, link)
		}
	}
	return out
}
