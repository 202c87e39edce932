// Package format provides presentation helpers shared by the dialog engine:
// currency formatting, identifier masking, reference ID generation, and EMI
// computation.
package format

import (
	"fmt"
	"math"
	"math/rand"
	"regexp"
	"strings"
)

// CurrencySymbol is prefixed to all formatted amounts.
const CurrencySymbol = "₹"

// refIDPrefix is the fixed prefix for generated reference IDs.
const refIDPrefix = "BOT"

// refIDChars is the alphabet for the random part of a reference ID.
const refIDChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// refIDLength is the number of random characters after the prefix.
const refIDLength = 10

// Currency formats an integer amount as a symbol-prefixed string with
// thousands grouping, e.g. 400000 → "₹400,000".
func Currency(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	digits := fmt.Sprintf("%d", amount)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(CurrencySymbol)
	pre := len(digits) % 3
	if pre > 0 {
		b.WriteString(digits[:pre])
		if len(digits) > pre {
			b.WriteByte(',')
		}
	}
	for i := pre; i < len(digits); i += 3 {
		b.WriteString(digits[i : i+3])
		if i+3 < len(digits) {
			b.WriteByte(',')
		}
	}
	return b.String()
}

var nonDigitRe = regexp.MustCompile(`\D`)

// MaskID masks all but the last 4 digits of a numeric identifier with 'X',
// separated from the visible suffix by a space. Identifiers with fewer than
// 4 digits return a fully-masked placeholder.
func MaskID(id string) string {
	cleaned := nonDigitRe.ReplaceAllString(id, "")
	if len(cleaned) < 4 {
		return "****"
	}
	return strings.Repeat("X", len(cleaned)-4) + " " + cleaned[len(cleaned)-4:]
}

// NewRefID generates a reference/transaction ID: the fixed prefix followed by
// 10 random upper-case alphanumeric characters. Uniqueness is probabilistic.
func NewRefID() string {
	var b strings.Builder
	b.WriteString(refIDPrefix)
	for i := 0; i < refIDLength; i++ {
		b.WriteByte(refIDChars[rand.Intn(len(refIDChars))])
	}
	return b.String()
}

// RefIDPattern matches IDs produced by NewRefID.
var RefIDPattern = regexp.MustCompile(`^` + refIDPrefix + `[A-Z0-9]{10}$`)

// EMI computes the equated monthly installment for a principal at a periodic
// rate over tenure periods. Returns an error when tenure is not positive.
func EMI(principal, rate float64, tenure int) (float64, error) {
	if tenure <= 0 {
		return 0, fmt.Errorf("format: emi: tenure must be positive, got %d", tenure)
	}
	if rate == 0 {
		return principal / float64(tenure), nil
	}
	factor := math.Pow(1+rate, float64(tenure))
	return principal * rate * factor / (factor - 1), nil
}
