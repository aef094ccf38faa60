package vocab

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Keyer derives the lookup key of a raw value.
type Keyer struct {
	caseSensitive bool
	nfc           bool
}

// NewKeyer returns a Keyer. Case-insensitive keys use Unicode case folding;
// with unicodeNormalize the value is first put in NFC form.
func NewKeyer(caseSensitive, unicodeNormalize bool) Keyer {
	return Keyer{caseSensitive: caseSensitive, nfc: unicodeNormalize}
}

// Key returns the normalized key for value.
func (k Keyer) Key(value string) string {
	if k.nfc {
		value = norm.NFC.String(value)
	}
	if k.caseSensitive {
		return value
	}
	// A Caser is stateful and must not be shared between goroutines.
	return cases.Fold().String(value)
}
