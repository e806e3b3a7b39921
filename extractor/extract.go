package extractor

import (
	"log"
	"strings"

	"github.com/sljesus/winm/extractor/bbva"
	"github.com/sljesus/winm/extractor/common"
	"github.com/sljesus/winm/extractor/mercadopago"
	"github.com/sljesus/winm/extractor/nu"
	"github.com/sljesus/winm/extractor/platacard"
	"github.com/spf13/viper"
)

// Parser turns one provider's notification emails into transactions.
type Parser interface {
	Source() string
	IsTransactionNotification(email common.RawEmail) bool
	Parse(email common.RawEmail) *common.Transaction
}

// Registry returns the provider parsers in dispatch order. A slice, not a
// map, so an address matching two providers always resolves the same way.
func Registry() []Parser {
	return []Parser{
		bbva.New(),
		mercadopago.New(),
		nu.New(),
		platacard.New(),
	}
}

// IdentifyParser picks the parser whose configured domain list matches the
// sender address. Domains live under providers.<name>.domains in the
// config; the mercadopago list carries the legacy mercadolibre.com.mx
// alias from before the rebrand.
func IdentifyParser(email common.RawEmail) Parser {
	from := strings.ToLower(email.From)

	for _, parser := range Registry() {
		for _, domain := range viper.GetStringSlice("providers." + ConfigKey(parser.Source()) + ".domains") {
			if domain != "" && strings.Contains(from, strings.ToLower(domain)) {
				return parser
			}
		}
	}
	return nil
}

// ParseEmail runs the matching provider parser against one email. Nil when
// no provider claims the sender, the email is not a transaction
// notification, or parsing could not produce a valid transaction.
func ParseEmail(email common.RawEmail) *common.Transaction {
	parser := IdentifyParser(email)
	if parser == nil {
		return nil
	}

	if !parser.IsTransactionNotification(email) {
		log.Println("\t❌ not a transaction notification:", email.ID)
		return nil
	}

	log.Println("\t📄 parsing", parser.Source(), "notification", email.ID)
	return parser.Parse(email)
}

// ConfigKey maps a source name to its block under providers in the config.
func ConfigKey(source string) string {
	return strings.ReplaceAll(strings.ToLower(source), " ", "")
}
