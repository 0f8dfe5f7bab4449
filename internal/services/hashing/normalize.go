package hashing

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

// businessSuffixes are entity suffixes stripped from the end of payee names
// so "Acme LLC" and "ACME" normalize to the same indicator.
var businessSuffixes = map[string]bool{
	"LLC":  true,
	"INC":  true,
	"CORP": true,
	"LTD":  true,
	"CO":   true,
}

// NormalizeRoutingNumber strips non-digits and validates the result as a
// 9-digit ABA routing number. Returns false for anything else.
func NormalizeRoutingNumber(raw string) (string, bool) {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, raw)

	if len(digits) != 9 {
		return "", false
	}
	return digits, true
}

// NormalizePayeeName canonicalizes a payee name: uppercase, business entity
// suffixes stripped from the end, punctuation removed, whitespace collapsed.
// Blank input is invalid.
func NormalizePayeeName(raw string) (string, bool) {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	if upper == "" {
		return "", false
	}

	tokens := strings.Fields(upper)
	for len(tokens) > 0 {
		last := strings.TrimFunc(tokens[len(tokens)-1], unicode.IsPunct)
		if !businessSuffixes[last] {
			break
		}
		tokens = tokens[:len(tokens)-1]
	}

	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, strings.Join(tokens, " "))

	normalized := strings.Join(strings.Fields(cleaned), " ")
	if normalized == "" {
		return "", false
	}
	return normalized, true
}

// NormalizeAccountNumber encodes an account number as L{length}-{last4},
// e.g. "1234567890" becomes "L10-7890". Inputs shorter than 4 characters
// are invalid.
func NormalizeAccountNumber(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) < 4 {
		return "", false
	}
	return "L" + strconv.Itoa(len(trimmed)) + "-" + trimmed[len(trimmed)-4:], true
}

// MonthBucket truncates a date to its YYYY-MM bucket
func MonthBucket(t time.Time) string {
	return t.Format("2006-01")
}
