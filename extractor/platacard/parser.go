package platacard

import (
	"regexp"
	"strings"

	"github.com/sljesus/winm/extractor/common"
	"github.com/spf13/viper"
)

type config struct {
	Include      []string
	Exclude      []string
	DescPatterns []*regexp.Regexp
	Prefix       *regexp.Regexp
	Fallback     string
}

func loadConfig() config {
	patterns := []*regexp.Regexp{}
	for _, raw := range viper.GetStringSlice("providers.platacard.description_patterns") {
		patterns = append(patterns, regexp.MustCompile(raw))
	}

	return config{
		Include:      viper.GetStringSlice("providers.platacard.include"),
		Exclude:      viper.GetStringSlice("providers.platacard.exclude"),
		DescPatterns: patterns,
		Prefix:       regexp.MustCompile(viper.GetString("providers.platacard.prefix")),
		Fallback:     viper.GetString("providers.platacard.fallback"),
	}
}

type Parser struct{}

func New() *Parser {
	return &Parser{}
}

func (p *Parser) Source() string {
	return common.SourcePlataCard
}

func (p *Parser) IsTransactionNotification(email common.RawEmail) bool {
	cfg := loadConfig()
	text := strings.ToLower(common.Normalize(email.Subject + " " + email.Body))

	if common.ContainsAny(text, cfg.Exclude) {
		return false
	}
	return common.ContainsAny(text, cfg.Include)
}

// Parse builds a transaction from a Plata Card notification. Typing runs
// through the shared keyword buckets instead of provider-specific lists,
// and only income keeps a positive sign.
func (p *Parser) Parse(email common.RawEmail) *common.Transaction {
	cfg := loadConfig()
	text := common.Normalize(email.Body + " " + email.Subject)

	amount, ok := common.ExtractAmount(text)
	if !ok {
		return nil
	}

	transactionType := common.TypeForText(text)
	if transactionType == common.TypeIngreso {
		amount = amount.Abs()
	} else {
		amount = amount.Abs().Neg()
	}

	transaction := &common.Transaction{
		Amount: amount,
		Description: common.ExtractDescription(email.Body, email.Subject, common.DescriptionConfig{
			Patterns: cfg.DescPatterns,
			Prefix:   cfg.Prefix,
			Fallback: cfg.Fallback,
		}),
		Date:         common.ExtractDate(text, email.Date),
		Source:       common.SourcePlataCard,
		Type:         transactionType,
		EmailID:      email.ID,
		EmailSubject: email.Subject,
		Bank:         common.SourcePlataCard,
	}

	if !transaction.Validate() {
		return nil
	}
	return transaction
}
