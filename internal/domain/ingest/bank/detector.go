// Package bank identifies the issuing bank of a statement from its first
// page and resolves the matching bank account record.
package bank

import (
	"regexp"
	"strings"

	"github.com/savohq/statement-ingest/internal/domain/ingest"
)

// Supported issuer keys.
const (
	DBS  = "DBS"
	OCBC = "OCBC"
	UOB  = "UOB"
)

// UnknownAccountNumber is the masked value recorded when no account number
// pattern matches. Detection itself still succeeds.
const UnknownAccountNumber = "unknown"

// signature binds an issuer key to the tokens that identify its statements.
// Tokens are matched case-sensitively and in declaration order; the first
// issuer with any matching token wins. A document mentioning a partner bank
// after its own header therefore still resolves to the issuer declared
// first — a known limitation of token-order detection.
type signature struct {
	bank          string
	tokens        []string
	accountNumber *regexp.Regexp
}

var signatures = []signature{
	{
		bank:          DBS,
		tokens:        []string{"DBS Bank", "DBS Bank Ltd", "POSB"},
		accountNumber: regexp.MustCompile(`Account No[.:]?\s*([\d-]{8,})`),
	},
	{
		bank:          OCBC,
		tokens:        []string{"OCBC Bank", "Oversea-Chinese Banking"},
		accountNumber: regexp.MustCompile(`Account No[.:]?\s*(\d[\d\s-]{6,}\d)`),
	},
	{
		bank:          UOB,
		tokens:        []string{"United Overseas Bank", "UOB"},
		accountNumber: regexp.MustCompile(`Account Number[.:]?\s*([\d-]{8,})`),
	},
}

var accountTypeKeywords = []string{"savings", "current", "credit"}

// Detection is the result of inspecting a statement's first page.
type Detection struct {
	Bank          string
	AccountType   string
	AccountNumber string // raw number, empty when not found
	NumberFound   bool
}

// MaskedNumber returns the display/identity form of the account number.
func (d Detection) MaskedNumber() string {
	if !d.NumberFound {
		return UnknownAccountNumber
	}
	return MaskAccountNumber(d.AccountNumber)
}

// Detect identifies the issuing bank from first-page text. It fails with
// ErrUnsupportedBankFormat when no issuer signature token is present.
func Detect(firstPageText string) (Detection, error) {
	for _, sig := range signatures {
		for _, token := range sig.tokens {
			if !strings.Contains(firstPageText, token) {
				continue
			}

			det := Detection{
				Bank:        sig.bank,
				AccountType: detectAccountType(firstPageText),
			}
			if m := sig.accountNumber.FindStringSubmatch(firstPageText); m != nil {
				det.AccountNumber = strings.TrimSpace(m[1])
				det.NumberFound = true
			}
			return det, nil
		}
	}
	return Detection{}, ingest.ErrUnsupportedBankFormat
}

// detectAccountType infers the account type from type keywords, defaulting
// to savings.
func detectAccountType(text string) string {
	lower := strings.ToLower(text)
	for _, kw := range accountTypeKeywords {
		if strings.Contains(lower, kw) {
			return strings.ToUpper(kw[:1]) + kw[1:]
		}
	}
	return "Savings"
}

// MaskAccountNumber reduces an account number to a fixed mask plus its
// last 4 digits. Non-digit separators are dropped first. Numbers of 4
// digits or fewer are returned unchanged.
func MaskAccountNumber(number string) string {
	var digits []rune
	for _, r := range number {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}

	if len(digits) <= 4 {
		return string(digits)
	}
	return "****" + string(digits[len(digits)-4:])
}
