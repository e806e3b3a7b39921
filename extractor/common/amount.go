package common

import (
	"regexp"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Pattern names under pipeline.amount.patterns, most specific first. Order
// is the only tie-break between competing matches: two genuine amounts in
// one email (say principal plus fee) resolve by pattern priority and text
// position, never by magnitude.
var amountPatternOrder = []string{
	"keyword_adjacent",
	"currency_symbol",
	"currency_word",
	"symbol_loose",
	"grouped_number",
	"small_decimal",
}

// ExtractAmount pulls the monetary amount out of notification text. The
// keyword pattern runs against the generally normalized text since the
// strict variant would strip its anchor words; the numeric patterns run
// against the strict variant. Every match of the active pattern is scanned
// and the first value inside (0, max_value) wins. Returns false when no
// pattern produces a value in range, which callers treat as "cannot
// determine a transaction".
func ExtractAmount(text string) (decimal.Decimal, bool) {
	normalized := Normalize(text)
	strict := NormalizeForAmount(text)

	max_value := decimal.NewFromInt(viper.GetInt64("pipeline.amount.max_value"))

	for _, name := range amountPatternOrder {
		raw := viper.GetString("pipeline.amount.patterns." + name)
		if raw == "" {
			continue
		}
		pattern := regexp.MustCompile(raw)

		haystack := strict
		if name == "keyword_adjacent" {
			haystack = normalized
		}

		for _, match := range pattern.FindAllStringSubmatch(haystack, -1) {
			if len(match) < 2 {
				continue
			}
			amount, err := CleanDecimal(match[1])
			if err != nil {
				continue
			}
			if amount.IsPositive() && amount.LessThan(max_value) {
				return amount, true
			}
		}
	}

	return decimal.Zero, false
}
