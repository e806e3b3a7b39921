package common

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

var nonNumericRegex = regexp.MustCompile(`[^0-9.]`)

// CleanDecimal parses a string into a decimal.Decimal, removing non-numeric characters
func CleanDecimal(text string) (decimal.Decimal, error) {

	cleanText := nonNumericRegex.ReplaceAllString(text, "")
	if cleanText == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(cleanText)
	if err != nil {
		return decimal.Zero, err
	}

	return amount, nil
}

// Buckets are checked in this order and the first keyword hit wins, so a
// text mentioning both "pago" and "recibiste" classifies as compra.
var typeBuckets = []string{TypeCompra, TypeIngreso, TypeRetiro, TypeTransferencia}

// TypeForText classifies a notification text by keyword lookup against the
// transaction.types.<type> lists in the config. Unmatched text falls back
// to otro.
func TypeForText(text string) string {
	text = strings.ToLower(text)
	for _, bucket := range typeBuckets {
		if ContainsAny(text, viper.GetStringSlice("transaction.types."+bucket)) {
			return bucket
		}
	}
	return TypeOtro
}

// ContainsAny reports whether text contains at least one of the keywords.
// Matching is case-sensitive, so callers lowercase text and keywords first.
func ContainsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if keyword != "" && strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
