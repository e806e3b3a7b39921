package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sljesus/winm/extractor"
	"github.com/sljesus/winm/extractor/common"
	"github.com/spf13/viper"
)

// TextGenerator is the slice of a language model client this analyzer
// needs. The concrete client lives in integrations/gemini.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt Prompt) (string, error)
}

// Prompt separates the fixed instructions from the message payload.
type Prompt struct {
	System string
	User   string
}

// CategorySource provides the category vocabulary embedded in the prompt.
type CategorySource interface {
	CategoryNames(ctx context.Context) ([]string, error)
}

// Vocabulary used when no category storage is reachable. Mirrors the
// system categories the setup command seeds.
var defaultCategories = []string{
	"Alimentos y Bebidas", "Transporte", "Compras", "Entretenimiento",
	"Servicios", "Salud", "Educación", "Ropa", "Restaurantes", "Gasolina",
	"Supermercado", "Servicios Públicos", "Internet/Teléfono", "Seguros",
	"Otros",
}

var codeFenceRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// modelResponse is the JSON shape the prompt demands.
type modelResponse struct {
	IsTransaction   bool    `json:"is_transaction"`
	Amount          float64 `json:"amount"`
	Description     string  `json:"description"`
	Date            string  `json:"date"`
	TransactionType string  `json:"transaction_type"`
	Source          string  `json:"source"`
	Confidence      float64 `json:"confidence"`
}

// Probabilistic asks a language model to read emails the regex parsers
// cannot. Collaborators are injected so tests run without network or
// database.
type Probabilistic struct {
	generator  TextGenerator
	categories CategorySource

	loadOnce sync.Once
	names    []string
}

func NewProbabilistic(generator TextGenerator, categories CategorySource) *Probabilistic {
	return &Probabilistic{generator: generator, categories: categories}
}

func (a *Probabilistic) Name() string {
	return "ai"
}

func (a *Probabilistic) AnalyzeEmail(ctx context.Context, email common.RawEmail) (*common.Transaction, error) {
	if a.generator == nil {
		return nil, &Error{Code: CodeNoCredential, Analyzer: a.Name(), Retryable: false}
	}

	raw, err := a.generator.GenerateText(ctx, a.buildPrompt(ctx, email))
	if err != nil {
		return nil, &Error{Code: CodeModelUnavailable, Analyzer: a.Name(), Retryable: true, Cause: err}
	}

	var parsed modelResponse
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &parsed); err != nil {
		return nil, &Error{Code: CodeBadModelOutput, Analyzer: a.Name(), Retryable: false, Cause: err}
	}

	if !parsed.IsTransaction {
		return nil, nil
	}

	amount := decimal.NewFromFloat(parsed.Amount)
	if amount.IsZero() {
		return nil, nil
	}

	description := common.NormalizeDescription(parsed.Description)
	if !common.IsValidDescription(description) {
		description = common.DefaultDescriptionFallback
	}

	source, leftover := a.reconcileSource(parsed.Source, email)
	if leftover != "" && !strings.Contains(strings.ToLower(description), strings.ToLower(leftover)) {
		// The model sometimes answers with the merchant instead of the
		// provider. Keep that text instead of discarding it.
		description = common.NormalizeDescription(description + " - " + leftover)
	}

	transactionType := strings.ToLower(strings.TrimSpace(parsed.TransactionType))
	if !common.KnownType(transactionType) {
		transactionType = common.TypeOtro
	}

	minConfidence := viper.GetFloat64("analyzer.min_ai_confidence")

	transaction := &common.Transaction{
		Amount:              amount,
		Description:         description,
		Date:                a.resolveDate(parsed.Date, email),
		Source:              source,
		Type:                transactionType,
		EmailID:             email.ID,
		EmailSubject:        email.Subject,
		NeedsCategorization: parsed.Confidence < minConfidence,
		Bank:                source,
		Meta: common.Meta{
			Confidence:   parsed.Confidence,
			AnalyzedByAI: true,
			AnalyzerUsed: a.Name(),
		},
	}

	if !transaction.Validate() {
		return nil, nil
	}
	return transaction, nil
}

// reconcileSource maps whatever the model answered onto the closed source
// enumeration: the model's value when canonical, else the provider derived
// from the sender domain, else Desconocido. The second return value is the
// model's free text when it named something outside the enumeration.
func (a *Probabilistic) reconcileSource(modelSource string, email common.RawEmail) (string, string) {
	candidate := strings.TrimSpace(modelSource)
	if candidate == common.SourceMercadoLibre {
		candidate = common.SourceMercadoPago
	}
	if common.KnownSource(candidate) {
		return candidate, ""
	}

	leftover := candidate
	if strings.EqualFold(candidate, common.SourceUnknown) {
		leftover = ""
	}

	if parser := extractor.IdentifyParser(email); parser != nil {
		return parser.Source(), leftover
	}
	return common.SourceUnknown, leftover
}

func (a *Probabilistic) resolveDate(modelDate string, email common.RawEmail) time.Time {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if parsed, err := time.Parse(layout, modelDate); err == nil {
			return parsed.UTC()
		}
	}
	return common.ExtractDate(email.Body+" "+email.Subject, email.Date)
}

func (a *Probabilistic) buildPrompt(ctx context.Context, email common.RawEmail) Prompt {
	sources := append([]string{}, common.ValidSources...)
	sources = append(sources, common.SourceUnknown)

	system := fmt.Sprintf(`Eres un analizador de notificaciones bancarias mexicanas.
Extrae la transacción del correo y responde ÚNICAMENTE con JSON válido, sin texto adicional:
{"is_transaction": true|false, "amount": número (negativo para gastos, positivo para ingresos), "description": "comercio o concepto", "date": "YYYY-MM-DD", "transaction_type": uno de [%s], "source": uno de [%s], "confidence": número entre 0 y 1}
Si el correo no describe una transacción real (promociones, estados de cuenta, avisos), responde {"is_transaction": false}.
Categorías de gasto para contexto: %s.`,
		strings.Join(common.ValidTypes, ", "),
		strings.Join(sources, ", "),
		strings.Join(a.categoryNames(ctx), ", "))

	body := common.CleanBody(email.Body)
	if runes := []rune(body); len(runes) > 2000 {
		body = string(runes[:2000])
	}

	user := fmt.Sprintf("Remitente: %s\nAsunto: %s\nFecha: %s\n\nCuerpo:\n%s",
		email.From, email.Subject, email.Date, body)

	return Prompt{System: system, User: user}
}

// categoryNames loads the vocabulary once per analyzer. Storage failures
// degrade to the built-in list instead of failing the analysis.
func (a *Probabilistic) categoryNames(ctx context.Context) []string {
	a.loadOnce.Do(func() {
		a.names = defaultCategories
		if a.categories == nil {
			return
		}
		names, err := a.categories.CategoryNames(ctx)
		if err != nil {
			log.Println("⚠️ category lookup failed, using built-in list:", err)
			return
		}
		if len(names) > 0 {
			a.names = names
		}
	})
	return a.names
}

func stripCodeFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if match := codeFenceRegex.FindStringSubmatch(raw); match != nil {
		return strings.TrimSpace(match[1])
	}
	return raw
}
