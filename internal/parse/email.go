// Package parse turns a raw address string into the representation the
// pipeline stages work with.
package parse

import (
	"strings"

	"golang.org/x/net/idna"
)

// Email is the internal representation of an address under validation.
// Stages receive this as parameter and never re-split the raw string.
type Email struct {
	Raw           string // original, trimmed input
	Local         string // part before the first @
	Domain        string // part after the first @, lower-cased ASCII/Punycode
	DomainUnicode string // Unicode display form of Domain
	Valid         bool   // false if Raw cannot be split into two parts
}

// NewEmail splits the given address on the first @ and normalizes the
// domain. The domain is lower-cased before any list comparison happens
// downstream; internationalized domains are converted to Punycode so DNS
// and SMTP operations get the ASCII form.
//
// Valid here only means "splittable"; the format stage applies the real
// grammar.
func NewEmail(raw string) Email {
	raw = strings.TrimSpace(raw)

	local, domain, ok := strings.Cut(raw, "@")
	if !ok || local == "" || domain == "" {
		return Email{Raw: raw}
	}

	domain = strings.ToLower(domain)
	ascii, display, ok := domainForms(domain)
	if !ok {
		return Email{Raw: raw}
	}

	return Email{
		Raw:           raw,
		Local:         local,
		Domain:        ascii,
		DomainUnicode: display,
		Valid:         true,
	}
}

// domainForms returns the ASCII/Punycode and Unicode forms of a domain.
// ok is false when a non-ASCII domain fails IDNA2008 validation.
func domainForms(domain string) (ascii, display string, ok bool) {
	if isASCII(domain) {
		// Existing Punycode labels still get a Unicode display form
		// (xn--mnchen-3ya.de -> münchen.de).
		u, err := idna.Display.ToUnicode(domain)
		if err != nil {
			u = domain
		}
		return domain, u, true
	}

	a, err := idna.Lookup.ToASCII(domain)
	if err != nil {
		return "", "", false
	}
	return a, domain, true
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > 127 {
			return false
		}
	}
	return true
}
