// Package ticketid parses free-form ticket codes into their canonical form.
//
// Operators type or scan codes like "BMB 123", "bmb123", "POS 123", "B 42"
// or just "123". Everything downstream (the ledger, the sale source, the
// authorization records) keys on the canonical form, so this is the only
// place raw input is ever interpreted.
package ticketid

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/stvaldivia/delivery-engine/internal/domain"
)

const (
	// CanonicalPrefix is the house prefix for point-of-sale tickets.
	CanonicalPrefix = "BMB"
	// KioskPrefix marks tickets issued by the self-service kiosk.
	KioskPrefix = "B"

	maxLength = 50
)

var (
	allowedChars   = regexp.MustCompile(`^[A-Z0-9 ]+$`)
	patternHouse   = regexp.MustCompile(`^BMB *(\d+)$`)
	patternKiosk   = regexp.MustCompile(`^B *(\d+)$`)
	patternLegacy  = regexp.MustCompile(`^POS *(\d+)$`)
	patternNumeric = regexp.MustCompile(`^(\d+)$`)
	patternMixed   = regexp.MustCompile(`^[A-Z ]*(\d+)$`)
)

// Normalize validates raw and returns the canonical ticket identifier plus
// its numeric key. Input is trimmed and uppercased first; anything outside
// the letters/digits/spaces allow-list, or longer than 50 characters, is
// rejected before pattern matching so attacker-controlled strings never
// reach the store or the sale source.
func Normalize(raw string) (canonical, numericKey string, err error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" || len(cleaned) > maxLength {
		return "", "", domain.ErrInvalidTicketFormat
	}
	cleaned = strings.ToUpper(cleaned)
	if !allowedChars.MatchString(cleaned) {
		return "", "", domain.ErrInvalidTicketFormat
	}

	if m := patternHouse.FindStringSubmatch(cleaned); m != nil {
		return canonicalize(CanonicalPrefix, m[1])
	}
	if m := patternKiosk.FindStringSubmatch(cleaned); m != nil {
		return canonicalize(KioskPrefix, m[1])
	}
	// The legacy POS prefix is rewritten to the house prefix.
	if m := patternLegacy.FindStringSubmatch(cleaned); m != nil {
		return canonicalize(CanonicalPrefix, m[1])
	}
	if m := patternNumeric.FindStringSubmatch(cleaned); m != nil {
		return canonicalize(CanonicalPrefix, m[1])
	}
	// Plausible but unrecognized letter prefixes fall back to the house
	// prefix, except a leading B which stays a kiosk ticket.
	if m := patternMixed.FindStringSubmatch(cleaned); m != nil {
		if strings.HasPrefix(cleaned, KioskPrefix) {
			return canonicalize(KioskPrefix, m[1])
		}
		return canonicalize(CanonicalPrefix, m[1])
	}

	return "", "", domain.ErrInvalidTicketFormat
}

// IsValid reports whether raw would normalize.
func IsValid(raw string) bool {
	_, _, err := Normalize(raw)
	return err == nil
}

func canonicalize(prefix, digits string) (string, string, error) {
	// Leading zeros are not significant: BMB 007 and BMB 7 are the same sale.
	n, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return "", "", domain.ErrInvalidTicketFormat
	}
	key := strconv.FormatUint(n, 10)
	return prefix + " " + key, key, nil
}
