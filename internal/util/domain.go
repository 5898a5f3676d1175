package util

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Hostname returns the lower-cased host of a URL without port or leading "www."
func Hostname(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
}

// RegistrableDomain returns the eTLD+1 of host ("news.bbc.co.uk" -> "bbc.co.uk").
// IP addresses and hosts without a public suffix are returned unchanged.
func RegistrableDomain(host string) string {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	if host == "" || net.ParseIP(host) != nil {
		return host
	}

	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}

// PublisherName derives a display name from the registrable domain's
// second-level label: "www.theguardian.com" -> "Theguardian"
func PublisherName(host string) string {
	domain := RegistrableDomain(host)
	if domain == "" || net.ParseIP(domain) != nil {
		return domain
	}

	label := domain
	if idx := strings.Index(domain, "."); idx > 0 {
		label = domain[:idx]
	}
	return strings.ToUpper(label[:1]) + label[1:]
}
