package bbva

import (
	"regexp"
	"strings"

	"github.com/sljesus/winm/extractor/common"
	"github.com/spf13/viper"
)

type config struct {
	Include      []string
	Exclude      []string
	Expense      []string
	Withdrawal   []string
	DescPatterns []*regexp.Regexp
	Prefix       *regexp.Regexp
	Fallback     string
}

func loadConfig() config {
	patterns := []*regexp.Regexp{}
	for _, raw := range viper.GetStringSlice("providers.bbva.description_patterns") {
		patterns = append(patterns, regexp.MustCompile(raw))
	}

	return config{
		Include:      viper.GetStringSlice("providers.bbva.include"),
		Exclude:      viper.GetStringSlice("providers.bbva.exclude"),
		Expense:      viper.GetStringSlice("providers.bbva.expense"),
		Withdrawal:   viper.GetStringSlice("providers.bbva.withdrawal"),
		DescPatterns: patterns,
		Prefix:       regexp.MustCompile(viper.GetString("providers.bbva.prefix")),
		Fallback:     viper.GetString("providers.bbva.fallback"),
	}
}

type Parser struct{}

func New() *Parser {
	return &Parser{}
}

func (p *Parser) Source() string {
	return common.SourceBBVA
}

func (p *Parser) IsTransactionNotification(email common.RawEmail) bool {
	cfg := loadConfig()
	text := strings.ToLower(common.Normalize(email.Subject + " " + email.Body))

	if common.ContainsAny(text, cfg.Exclude) {
		return false
	}
	return common.ContainsAny(text, cfg.Include)
}

// Parse builds a transaction from a BBVA alert. The expense and withdrawal
// checks run against the body only: BBVA subjects repeat account-level
// wording that would misclassify deposits. Withdrawals are flagged for
// manual categorization since cash leaves no merchant trail.
func (p *Parser) Parse(email common.RawEmail) *common.Transaction {
	cfg := loadConfig()
	text := common.Normalize(email.Body + " " + email.Subject)

	amount, ok := common.ExtractAmount(text)
	if !ok {
		return nil
	}

	body := strings.ToLower(common.Normalize(email.Body))
	isExpense := common.ContainsAny(body, cfg.Expense)
	isWithdrawal := common.ContainsAny(body, cfg.Withdrawal)

	transactionType := common.TypeIngreso
	switch {
	case isWithdrawal:
		transactionType = common.TypeRetiro
	case isExpense:
		transactionType = common.TypeCompra
	}

	if isExpense || isWithdrawal {
		amount = amount.Abs().Neg()
	} else {
		amount = amount.Abs()
	}

	transaction := &common.Transaction{
		Amount: amount,
		Description: common.ExtractDescription(email.Body, email.Subject, common.DescriptionConfig{
			Patterns: cfg.DescPatterns,
			Prefix:   cfg.Prefix,
			Fallback: cfg.Fallback,
		}),
		Date:                common.ExtractDate(text, email.Date),
		Source:              common.SourceBBVA,
		Type:                transactionType,
		EmailID:             email.ID,
		EmailSubject:        email.Subject,
		NeedsCategorization: isWithdrawal,
		Bank:                common.SourceBBVA,
	}

	if !transaction.Validate() {
		return nil
	}
	return transaction
}
