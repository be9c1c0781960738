// Package money formats sum amounts for display.
package money

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Currency is the display suffix for every amount
const Currency = "сум"

var printer = message.NewPrinter(language.Russian)

// Format renders an amount with Russian digit grouping, e.g. "55 000 сум"
func Format(amount int64) string {
	return printer.Sprintf("%d", amount) + " " + Currency
}
