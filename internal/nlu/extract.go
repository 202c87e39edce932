// Package nlu provides the language-understanding pieces of the assistant:
// typed entity extraction from raw text and the statistical fallback
// classifier trained on the labeled corpus.
package nlu

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Entity kind keys produced by Extract.
const (
	KeyLast4    = "last4"
	KeyAccount  = "account_number"
	KeyAmount   = "amount_str"
	KeyMode     = "mode"
	KeyReceiver = "receiver"
)

// Entities maps an entity kind to its extracted value. Absence of a kind is
// not an error; extraction is best-effort.
type Entities map[string]string

var (
	last4Re       = regexp.MustCompile(`^\s*(\d{4})\s*$`)
	accountRe     = regexp.MustCompile(`\b\d{6,16}\b`)
	currencyAmtRe = regexp.MustCompile(`(?i)(?:₹\s?|rs\.?\s?|inr\s?)(\d{1,12}(?:,\d{3})*(?:\.\d{1,2})?)`)
	bareAmtRe     = regexp.MustCompile(`^\s*([0-9]{2,12})\s*$`)
	upiRe         = regexp.MustCompile(`(?i)\bupi\b`)
	bankModeRe    = regexp.MustCompile(`(?i)\b(bank transfer|neft|imps|rtgs)\b`)
	receiverRe    = regexp.MustCompile(`(?i)(?:transfer to|to|pay|send)\s+([A-Za-z][A-Za-z.' -]{1,40})`)
)

// Extract pulls typed entity spans out of raw text. It is deterministic and
// has no side effects. Rules, in order of specificity:
//   - last4: text that is exactly 4 digits (whitespace allowed around it)
//   - account_number: a standalone run of 6-16 digits anywhere in the text
//   - amount_str: a currency-marked number ("₹", "rs", "inr"), falling back
//     to a bare standalone 2-12 digit number
//   - mode: "upi" → UPI; "bank transfer"/"neft"/"imps"/"rtgs" → Bank Transfer
//   - receiver: a name after a transfer preposition, title-cased
func Extract(raw string) Entities {
	entities := Entities{}
	text := strings.TrimSpace(raw)

	if m := last4Re.FindStringSubmatch(text); m != nil {
		entities[KeyLast4] = m[1]
	}

	if m := accountRe.FindString(text); m != "" {
		entities[KeyAccount] = m
	}

	if m := currencyAmtRe.FindStringSubmatch(text); m != nil {
		entities[KeyAmount] = strings.ReplaceAll(m[1], ",", "")
	} else if m := bareAmtRe.FindStringSubmatch(text); m != nil {
		// A standalone 4-digit message carries both kinds; the active flow
		// decides which one it consumes.
		entities[KeyAmount] = m[1]
	}

	switch {
	case upiRe.MatchString(text):
		entities[KeyMode] = "UPI"
	case bankModeRe.MatchString(text):
		entities[KeyMode] = "Bank Transfer"
	}

	if m := receiverRe.FindStringSubmatch(text); m != nil {
		entities[KeyReceiver] = TitleCase(strings.TrimSpace(m[1]))
	}

	return entities
}

// TitleCase upper-cases the first rune of each space-separated word and
// lower-cases the rest.
func TitleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}
