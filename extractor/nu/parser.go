package nu

import (
	"regexp"
	"strings"

	"github.com/sljesus/winm/extractor/common"
	"github.com/spf13/viper"
)

type config struct {
	Include      []string
	Exclude      []string
	Income       []string
	Expense      []string
	DescPatterns []*regexp.Regexp
	Prefix       *regexp.Regexp
	Fallback     string
}

func loadConfig() config {
	patterns := []*regexp.Regexp{}
	for _, raw := range viper.GetStringSlice("providers.nu.description_patterns") {
		patterns = append(patterns, regexp.MustCompile(raw))
	}

	return config{
		Include:      viper.GetStringSlice("providers.nu.include"),
		Exclude:      viper.GetStringSlice("providers.nu.exclude"),
		Income:       viper.GetStringSlice("providers.nu.income"),
		Expense:      viper.GetStringSlice("providers.nu.expense"),
		DescPatterns: patterns,
		Prefix:       regexp.MustCompile(viper.GetString("providers.nu.prefix")),
		Fallback:     viper.GetString("providers.nu.fallback"),
	}
}

type Parser struct{}

func New() *Parser {
	return &Parser{}
}

func (p *Parser) Source() string {
	return common.SourceNU
}

func (p *Parser) IsTransactionNotification(email common.RawEmail) bool {
	cfg := loadConfig()
	text := strings.ToLower(common.Normalize(email.Subject + " " + email.Body))

	if common.ContainsAny(text, cfg.Exclude) {
		return false
	}
	return common.ContainsAny(text, cfg.Include)
}

func (p *Parser) Parse(email common.RawEmail) *common.Transaction {
	cfg := loadConfig()
	text := common.Normalize(email.Body + " " + email.Subject)

	amount, ok := common.ExtractAmount(text)
	if !ok {
		return nil
	}

	lower := strings.ToLower(text)
	transactionType := common.TypeCompra
	switch {
	case common.ContainsAny(lower, cfg.Income):
		transactionType = common.TypeIngreso
		amount = amount.Abs()
	case common.ContainsAny(lower, cfg.Expense):
		amount = amount.Abs().Neg()
	default:
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
		Source:       common.SourceNU,
		Type:         transactionType,
		EmailID:      email.ID,
		EmailSubject: email.Subject,
		Bank:         common.SourceNU,
	}

	if !transaction.Validate() {
		return nil
	}
	return transaction
}
