package pii

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// Confidence tiers a detected pattern. Default analysis surfaces high and
// medium; strict mode adds low-confidence patterns such as street addresses.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Pattern types detected by the service
const (
	TypeSSN           = "ssn"
	TypeEmail         = "email"
	TypeCreditCard    = "credit_card"
	TypePhoneUS       = "phone_us"
	TypeAccountNumber = "account_number"
	TypeRoutingNumber = "routing_number"
	TypeStreetAddress = "street_address"
	TypePIIKeyword    = "pii_keyword"
)

// DetectedPattern is a single tagged span
type DetectedPattern struct {
	Type       string     `json:"type"`
	Confidence Confidence `json:"confidence"`
	Start      int        `json:"start"`
	End        int        `json:"end"`
}

// Report is the result of analyzing a narrative for PII leakage
type Report struct {
	HasPotentialPII     bool              `json:"has_potential_pii"`
	MatchCount          int               `json:"match_count"`
	HighConfidenceCount int               `json:"high_confidence_count"`
	Warnings            []string          `json:"warnings"`
	DetectedPatterns    []DetectedPattern `json:"detected_patterns"`
}

// Categories returns the distinct pattern types in the report, sorted,
// for itemized guard rejections.
func (r Report) Categories() []string {
	seen := make(map[string]bool)
	for _, p := range r.DetectedPatterns {
		seen[p.Type] = true
	}
	categories := make([]string, 0, len(seen))
	for t := range seen {
		categories = append(categories, t)
	}
	sort.Strings(categories)
	return categories
}

type pattern struct {
	piiType    string
	re         *regexp.Regexp
	confidence Confidence
	// validator filters structural false positives; nil accepts every match
	validator func(match string) bool
}

// Service is a pure, stateless narrative scanner. Safe for concurrent use.
type Service struct {
	patterns []pattern
}

// NewService compiles the pattern library
func NewService() *Service {
	return &Service{patterns: []pattern{
		{
			piiType:    TypeSSN,
			re:         regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
			confidence: ConfidenceHigh,
			validator:  validSSN,
		},
		{
			piiType:    TypeEmail,
			re:         regexp.MustCompile(`\b[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}\b`),
			confidence: ConfidenceHigh,
		},
		{
			piiType:    TypeCreditCard,
			re:         regexp.MustCompile(`\b(?:\d[ \-]?){13,19}\b`),
			confidence: ConfidenceHigh,
			validator:  validLuhn,
		},
		{
			piiType:    TypePhoneUS,
			re:         regexp.MustCompile(`\b(?:\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]\d{3}[-.\s]?\d{4}\b`),
			confidence: ConfidenceMedium,
		},
		{
			piiType:    TypeAccountNumber,
			re:         regexp.MustCompile(`(?i)\b(?:acct|account)\s*(?:#|no\.?|num(?:ber)?)?\s*:?\s*\d{5,17}\b`),
			confidence: ConfidenceMedium,
		},
		{
			piiType:    TypeRoutingNumber,
			re:         regexp.MustCompile(`\b\d{9}\b`),
			confidence: ConfidenceMedium,
			validator:  validABARouting,
		},
		{
			piiType:    TypeStreetAddress,
			re:         regexp.MustCompile(`(?i)\b\d{1,6}\s+[a-z0-9]+(?:\s[a-z0-9]+)?\s+(?:street|st|avenue|ave|road|rd|boulevard|blvd|lane|ln|drive|dr|court|ct|way|place|pl)\.?\b`),
			confidence: ConfidenceLow,
		},
		{
			piiType:    TypePIIKeyword,
			re:         regexp.MustCompile(`(?i)\b(?:ssn|social\s+security|date\s+of\s+birth|d\.?o\.?b\.?|driver'?s?\s+licen[cs]e|passport\s+(?:no|number|#))\b`),
			confidence: ConfidenceMedium,
		},
	}}
}

// Analyze scans text and reports every detected pattern at or above the
// mode's confidence floor. Default mode ignores low-confidence patterns;
// strict mode includes them.
func (s *Service) Analyze(text string, strict bool) Report {
	report := Report{Warnings: []string{}, DetectedPatterns: []DetectedPattern{}}
	warned := make(map[string]bool)

	for _, p := range s.patterns {
		if p.confidence == ConfidenceLow && !strict {
			continue
		}
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			match := text[loc[0]:loc[1]]
			if p.validator != nil && !p.validator(match) {
				continue
			}
			report.DetectedPatterns = append(report.DetectedPatterns, DetectedPattern{
				Type:       p.piiType,
				Confidence: p.confidence,
				Start:      loc[0],
				End:        loc[1],
			})
			report.MatchCount++
			if p.confidence == ConfidenceHigh {
				report.HighConfidenceCount++
			}
			if !warned[p.piiType] {
				warned[p.piiType] = true
				report.Warnings = append(report.Warnings,
					fmt.Sprintf("narrative appears to contain a %s (%s confidence)", strings.ReplaceAll(p.piiType, "_", " "), p.confidence))
			}
		}
	}

	report.HasPotentialPII = report.MatchCount > 0
	return report
}

// Redact replaces every detected span, across all confidence tiers, with a
// typed placeholder.
func (s *Service) Redact(text string) string {
	spans := s.Analyze(text, true).DetectedPatterns
	if len(spans) == 0 {
		return text
	}

	sort.Slice(spans, func(i, j int) bool {
		if spans[i].Start != spans[j].Start {
			return spans[i].Start < spans[j].Start
		}
		return spans[i].End > spans[j].End
	})

	var b strings.Builder
	cursor := 0
	for _, span := range spans {
		if span.Start < cursor {
			continue // swallowed by a previous overlapping span
		}
		b.WriteString(text[cursor:span.Start])
		b.WriteString("[REDACTED:" + span.Type + "]")
		cursor = span.End
	}
	b.WriteString(text[cursor:])
	return b.String()
}

// validSSN rejects structurally impossible SSNs (area 000/666/9xx,
// zero group or serial).
func validSSN(match string) bool {
	digits := digitsOf(match)
	if len(digits) != 9 {
		return false
	}
	area, _ := strconv.Atoi(digits[0:3])
	group, _ := strconv.Atoi(digits[3:5])
	serial, _ := strconv.Atoi(digits[5:9])
	if area == 0 || area == 666 || area >= 900 {
		return false
	}
	return group != 0 && serial != 0
}

// validLuhn checks the Luhn digit of a candidate card number
func validLuhn(match string) bool {
	digits := digitsOf(match)
	if len(digits) < 13 || len(digits) > 19 {
		return false
	}
	sum := 0
	alternate := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if alternate {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		alternate = !alternate
	}
	return sum%10 == 0
}

// validABARouting checks the ABA routing checksum:
// 3*(d1+d4+d7) + 7*(d2+d5+d8) + (d3+d6+d9) mod 10 == 0
func validABARouting(match string) bool {
	digits := digitsOf(match)
	if len(digits) != 9 || digits == "000000000" {
		return false
	}
	weights := []int{3, 7, 1, 3, 7, 1, 3, 7, 1}
	sum := 0
	for i, ch := range digits {
		sum += int(ch-'0') * weights[i]
	}
	return sum%10 == 0
}

func digitsOf(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}
