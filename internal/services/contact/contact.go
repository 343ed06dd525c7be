// File: internal/services/contact/contact.go

// Package contact canonicalizes the inconsistent ways the remote web
// client presents a chat partner: raw local numbers, numbers already in
// international form, swapped name/number headers, and unnumbered
// groups.
package contact

import (
	"regexp"
	"strings"
)

// aliasMarker prefixes the contact-details secondary field when it
// holds a pushed display name instead of a phone number.
const aliasMarker = "~"

var nonDialable = regexp.MustCompile(`[^\d+]`)

// Identity is the resolved identity of one conversation partner.
// Number is nil for groups and contacts without a phone number; such
// conversations are keyed by Name alone.
type Identity struct {
	Name   string
	Number *string
}

// Key returns the deduplication key: the canonical number when known,
// otherwise the display name.
func (id Identity) Key() string {
	if id.Number != nil {
		return *id.Number
	}
	return id.Name
}

// NormalizeNumber rewrites a Bangladeshi phone number into canonical
// +880 form. Strings that do not look like a number at all are returned
// unchanged so they can serve as free-form titles.
func NormalizeNumber(raw string) string {
	if raw == "" {
		return ""
	}
	digits := nonDialable.ReplaceAllString(raw, "")
	switch {
	case len(digits) == 11 && strings.HasPrefix(digits, "01"):
		return "+880" + digits[1:]
	case len(digits) > 11 && strings.HasPrefix(digits, "880"):
		return "+" + digits
	case strings.HasPrefix(digits, "+"):
		return digits
	}
	return raw
}

// LooksLikeNumber reports whether s is already an international phone
// number presentation.
func LooksLikeNumber(s string) bool {
	return strings.HasPrefix(s, "+")
}

// ResolveSwap reconciles the chat header name with the contact-details
// secondary field. The remote client swaps the two for contacts that
// pushed a display alias: the header shows the number and the details
// panel shows "~Alias". An empty aliasText means the details panel had
// no number row, which is either an unsaved contact (header is the
// number itself) or a group.
func ResolveSwap(headerName, aliasText string) Identity {
	headerName = strings.TrimSpace(headerName)
	aliasText = strings.TrimSpace(aliasText)

	if aliasText == "" {
		if LooksLikeNumber(headerName) {
			number := NormalizeNumber(headerName)
			return Identity{Name: headerName, Number: &number}
		}
		return Identity{Name: headerName}
	}

	if strings.HasPrefix(aliasText, aliasMarker) {
		// Swapped presentation: the alias is the name, the header holds
		// the number.
		number := NormalizeNumber(headerName)
		return Identity{Name: aliasText, Number: &number}
	}

	number := NormalizeNumber(aliasText)
	return Identity{Name: headerName, Number: &number}
}
