package parser

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// Card-scheme and channel prefixes that banks prepend to the merchant.
	merchantPrefixes = []string{
		"POS PURCHASE",
		"DEBIT CARD PURCHASE",
		"CREDIT CARD PURCHASE",
		"NETS PURCHASE",
		"PAYNOW TRANSFER TO",
		"PAYNOW TO",
		"FAST PAYMENT TO",
		"GIRO PAYMENT TO",
		"FUNDS TRANSFER TO",
		"BILL PAYMENT TO",
		"ATM WITHDRAWAL",
		"IBG",
		"NETS",
		"POS",
	}

	// Trailing reference numbers, card suffixes, and dates appended by
	// the statement printer.
	merchantRefSuffix = regexp.MustCompile(`\s+(?:REF\s*[:#]?\s*)?[A-Z0-9]*\d{4,}[A-Z0-9]*$`)
	merchantDateTail  = regexp.MustCompile(`\s+\d{2}[/-]\d{2}(?:[/-]\d{2,4})?$`)
	merchantCityTail  = regexp.MustCompile(`\s+(?:SINGAPORE|SINGAPO|SG|SIN)$`)
)

// ExtractMerchantName derives a display merchant from a raw statement
// description. It strips channel prefixes and trailing references, then
// title-cases the remainder. Returns the cleaned original description
// when stripping would leave nothing.
func ExtractMerchantName(description string) string {
	name := strings.ToUpper(strings.TrimSpace(description))

	for _, prefix := range merchantPrefixes {
		if strings.HasPrefix(name, prefix+" ") {
			name = strings.TrimSpace(strings.TrimPrefix(name, prefix))
			break
		}
	}

	for {
		stripped := merchantDateTail.ReplaceAllString(name, "")
		stripped = merchantRefSuffix.ReplaceAllString(stripped, "")
		stripped = merchantCityTail.ReplaceAllString(stripped, "")
		stripped = strings.TrimSpace(stripped)
		if stripped == name {
			break
		}
		name = stripped
	}

	// Stripping can eat the whole description (e.g. an ATM withdrawal
	// that is nothing but a reference number).
	if !strings.ContainsFunc(name, unicode.IsLetter) {
		name = strings.ToUpper(strings.TrimSpace(description))
	}

	return titleCase(name)
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
