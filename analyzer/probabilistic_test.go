package analyzer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sljesus/winm/extractor/common"
	"github.com/spf13/viper"
)

const testAnalyzerYAML = `
analyzer:
  min_ai_confidence: 0.8
providers:
  mercadopago:
    domains: [mercadopago.com, mercadopago.com.mx, mercadolibre.com.mx]
  bbva:
    domains: [bbva.com, bbva.com.mx]
  nu:
    domains: [nu.com.mx, nu.com]
  platacard:
    domains: [plata.com.mx, plata.com]
`

func setupAnalyzerConfig() {
	viper.Reset()
	viper.SetConfigType("yaml")
	viper.ReadConfig(bytes.NewBufferString(testAnalyzerYAML))
}

type stubGenerator struct {
	response string
	err      error
	prompts  []Prompt
}

func (s *stubGenerator) GenerateText(ctx context.Context, prompt Prompt) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

type stubCategories struct {
	names []string
	err   error
}

func (s *stubCategories) CategoryNames(ctx context.Context) ([]string, error) {
	return s.names, s.err
}

func TestProbabilistic_ValidTransaction(t *testing.T) {
	setupAnalyzerConfig()

	generator := &stubGenerator{response: "```json\n" +
		`{"is_transaction": true, "amount": -250.5, "description": "Compra en OXXO", "date": "2025-01-15", "transaction_type": "compra", "source": "Mercado Pago", "confidence": 0.95}` +
		"\n```"}
	probabilistic := NewProbabilistic(generator, nil)

	email := common.RawEmail{ID: "ai-1", Subject: "Compra", From: "info@mercadopago.com"}
	transaction, err := probabilistic.AnalyzeEmail(context.Background(), email)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if transaction == nil {
		t.Fatal("Expected a transaction")
	}

	if transaction.Amount.String() != "-250.5" {
		t.Errorf("Expected amount '-250.5', got '%s'", transaction.Amount.String())
	}
	if transaction.Description != "Compra en OXXO" {
		t.Errorf("Expected description 'Compra en OXXO', got '%s'", transaction.Description)
	}
	expectedDate := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	if !transaction.Date.Equal(expectedDate) {
		t.Errorf("Expected date %v, got %v", expectedDate, transaction.Date)
	}
	if transaction.Source != common.SourceMercadoPago {
		t.Errorf("Expected source '%s', got '%s'", common.SourceMercadoPago, transaction.Source)
	}
	if transaction.NeedsCategorization {
		t.Error("Expected high confidence to skip categorization flag")
	}
	if !transaction.Meta.AnalyzedByAI {
		t.Error("Expected analyzed_by_ai true")
	}
	if transaction.Meta.Confidence != 0.95 {
		t.Errorf("Expected confidence 0.95, got %v", transaction.Meta.Confidence)
	}
}

func TestProbabilistic_NotATransaction(t *testing.T) {
	setupAnalyzerConfig()

	generator := &stubGenerator{response: `{"is_transaction": false}`}
	probabilistic := NewProbabilistic(generator, nil)

	transaction, err := probabilistic.AnalyzeEmail(context.Background(), common.RawEmail{ID: "ai-2"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if transaction != nil {
		t.Errorf("Expected nil, got %+v", transaction)
	}
}

func TestProbabilistic_NilGenerator(t *testing.T) {
	setupAnalyzerConfig()

	probabilistic := NewProbabilistic(nil, nil)

	_, err := probabilistic.AnalyzeEmail(context.Background(), common.RawEmail{ID: "ai-3"})
	if err == nil {
		t.Fatal("Expected an error")
	}

	var analyzerErr *Error
	if !errors.As(err, &analyzerErr) {
		t.Fatalf("Expected *Error, got %T", err)
	}
	if analyzerErr.Code != CodeNoCredential {
		t.Errorf("Expected code '%s', got '%s'", CodeNoCredential, analyzerErr.Code)
	}
	if analyzerErr.Retryable {
		t.Error("Expected missing credential to be non-retryable")
	}
}

func TestProbabilistic_GeneratorError(t *testing.T) {
	setupAnalyzerConfig()

	generator := &stubGenerator{err: errors.New("quota exceeded")}
	probabilistic := NewProbabilistic(generator, nil)

	_, err := probabilistic.AnalyzeEmail(context.Background(), common.RawEmail{ID: "ai-4"})

	var analyzerErr *Error
	if !errors.As(err, &analyzerErr) {
		t.Fatalf("Expected *Error, got %T", err)
	}
	if analyzerErr.Code != CodeModelUnavailable {
		t.Errorf("Expected code '%s', got '%s'", CodeModelUnavailable, analyzerErr.Code)
	}
	if !analyzerErr.Retryable {
		t.Error("Expected transport failure to be retryable")
	}
}

func TestProbabilistic_BadModelOutput(t *testing.T) {
	setupAnalyzerConfig()

	generator := &stubGenerator{response: "perdón, no puedo ayudarte con eso"}
	probabilistic := NewProbabilistic(generator, nil)

	_, err := probabilistic.AnalyzeEmail(context.Background(), common.RawEmail{ID: "ai-5"})

	var analyzerErr *Error
	if !errors.As(err, &analyzerErr) {
		t.Fatalf("Expected *Error, got %T", err)
	}
	if analyzerErr.Code != CodeBadModelOutput {
		t.Errorf("Expected code '%s', got '%s'", CodeBadModelOutput, analyzerErr.Code)
	}
}

func TestProbabilistic_ZeroAmount(t *testing.T) {
	setupAnalyzerConfig()

	generator := &stubGenerator{response: `{"is_transaction": true, "amount": 0, "description": "Algo", "confidence": 0.9}`}
	probabilistic := NewProbabilistic(generator, nil)

	transaction, err := probabilistic.AnalyzeEmail(context.Background(), common.RawEmail{ID: "ai-6"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if transaction != nil {
		t.Errorf("Expected nil for zero amount, got %+v", transaction)
	}
}

func TestProbabilistic_LowConfidenceFlagsCategorization(t *testing.T) {
	setupAnalyzerConfig()

	generator := &stubGenerator{response: `{"is_transaction": true, "amount": -99, "description": "Cargo sin detalle", "date": "2025-02-01", "transaction_type": "compra", "source": "BBVA", "confidence": 0.4}`}
	probabilistic := NewProbabilistic(generator, nil)

	transaction, err := probabilistic.AnalyzeEmail(context.Background(), common.RawEmail{ID: "ai-7"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if transaction == nil {
		t.Fatal("Expected a transaction")
	}
	if !transaction.NeedsCategorization {
		t.Error("Expected low confidence to flag categorization")
	}
}

func TestProbabilistic_UnknownTypeBecomesOtro(t *testing.T) {
	setupAnalyzerConfig()

	generator := &stubGenerator{response: `{"is_transaction": true, "amount": -50, "description": "Membresia anual", "date": "2025-02-01", "transaction_type": "suscripcion", "source": "NU", "confidence": 0.9}`}
	probabilistic := NewProbabilistic(generator, nil)

	transaction, err := probabilistic.AnalyzeEmail(context.Background(), common.RawEmail{ID: "ai-8"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if transaction == nil {
		t.Fatal("Expected a transaction")
	}
	if transaction.Type != common.TypeOtro {
		t.Errorf("Expected type '%s', got '%s'", common.TypeOtro, transaction.Type)
	}
}

func TestProbabilistic_SourceFromSenderDomain(t *testing.T) {
	setupAnalyzerConfig()

	generator := &stubGenerator{response: `{"is_transaction": true, "amount": -120, "description": "Cine", "date": "2025-02-01", "transaction_type": "compra", "source": "tarjeta de credito", "confidence": 0.9}`}
	probabilistic := NewProbabilistic(generator, nil)

	email := common.RawEmail{ID: "ai-9", From: "avisos@bbva.com.mx"}
	transaction, err := probabilistic.AnalyzeEmail(context.Background(), email)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if transaction == nil {
		t.Fatal("Expected a transaction")
	}
	if transaction.Source != common.SourceBBVA {
		t.Errorf("Expected source '%s', got '%s'", common.SourceBBVA, transaction.Source)
	}
}

func TestProbabilistic_UnknownSenderBecomesDesconocido(t *testing.T) {
	setupAnalyzerConfig()

	generator := &stubGenerator{response: `{"is_transaction": true, "amount": -300, "description": "Pago de servicios", "date": "2025-02-01", "transaction_type": "compra", "source": "Banorte", "confidence": 0.9}`}
	probabilistic := NewProbabilistic(generator, nil)

	email := common.RawEmail{ID: "ai-10", From: "avisos@banorte.com"}
	transaction, err := probabilistic.AnalyzeEmail(context.Background(), email)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if transaction == nil {
		t.Fatal("Expected a transaction")
	}

	if transaction.Source != common.SourceUnknown {
		t.Errorf("Expected source '%s', got '%s'", common.SourceUnknown, transaction.Source)
	}
	if !strings.Contains(transaction.Description, "Banorte") {
		t.Errorf("Expected free-text source folded into description, got '%s'", transaction.Description)
	}
}

func TestProbabilistic_LegacySourceNormalized(t *testing.T) {
	setupAnalyzerConfig()

	generator := &stubGenerator{response: `{"is_transaction": true, "amount": -75, "description": "Compra en linea", "date": "2025-02-01", "transaction_type": "compra", "source": "Mercado Libre", "confidence": 0.9}`}
	probabilistic := NewProbabilistic(generator, nil)

	transaction, err := probabilistic.AnalyzeEmail(context.Background(), common.RawEmail{ID: "ai-11"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if transaction == nil {
		t.Fatal("Expected a transaction")
	}
	if transaction.Source != common.SourceMercadoPago {
		t.Errorf("Expected source '%s', got '%s'", common.SourceMercadoPago, transaction.Source)
	}
}

func TestProbabilistic_PromptCarriesCategories(t *testing.T) {
	setupAnalyzerConfig()

	generator := &stubGenerator{response: `{"is_transaction": false}`}
	categories := &stubCategories{names: []string{"Mascotas", "Viajes"}}
	probabilistic := NewProbabilistic(generator, categories)

	email := common.RawEmail{ID: "ai-12", Subject: "Cargo a tu tarjeta", Body: "Detalle"}
	if _, err := probabilistic.AnalyzeEmail(context.Background(), email); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(generator.prompts) != 1 {
		t.Fatalf("Expected 1 prompt, got %d", len(generator.prompts))
	}
	prompt := generator.prompts[0]
	if !strings.Contains(prompt.System, "Mascotas") {
		t.Error("Expected custom categories in the system prompt")
	}
	if !strings.Contains(prompt.User, "Cargo a tu tarjeta") {
		t.Error("Expected subject in the user prompt")
	}
}

func TestProbabilistic_CategoryFallbackOnError(t *testing.T) {
	setupAnalyzerConfig()

	generator := &stubGenerator{response: `{"is_transaction": false}`}
	categories := &stubCategories{err: errors.New("connection refused")}
	probabilistic := NewProbabilistic(generator, categories)

	if _, err := probabilistic.AnalyzeEmail(context.Background(), common.RawEmail{ID: "ai-13"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !strings.Contains(generator.prompts[0].System, "Alimentos y Bebidas") {
		t.Error("Expected built-in categories in the system prompt")
	}
}

func TestProbabilistic_CategoriesLoadedOnce(t *testing.T) {
	setupAnalyzerConfig()

	generator := &stubGenerator{response: `{"is_transaction": false}`}
	categories := &stubCategories{names: []string{"Mascotas"}}
	probabilistic := NewProbabilistic(generator, categories)

	ctx := context.Background()
	probabilistic.AnalyzeEmail(ctx, common.RawEmail{ID: "a"})

	categories.names = []string{"Otra"}
	probabilistic.AnalyzeEmail(ctx, common.RawEmail{ID: "b"})

	if !strings.Contains(generator.prompts[1].System, "Mascotas") {
		t.Error("Expected category vocabulary to be loaded once and reused")
	}
}

func TestProbabilistic_DateFallsBackToEmailHeader(t *testing.T) {
	setupAnalyzerConfig()
	viper.Set("pipeline.date.patterns.day_first", `(\d{1,2})[/-](\d{1,2})[/-](\d{4})`)
	viper.Set("pipeline.date.patterns.year_first", `(\d{4})[/-](\d{1,2})[/-](\d{1,2})`)

	generator := &stubGenerator{response: `{"is_transaction": true, "amount": -10, "description": "Antojo de cafe", "date": "sin fecha", "transaction_type": "compra", "source": "NU", "confidence": 0.9}`}
	probabilistic := NewProbabilistic(generator, nil)

	email := common.RawEmail{ID: "ai-14", Date: "Mon, 03 Feb 2025 12:00:00 +0000"}
	transaction, err := probabilistic.AnalyzeEmail(context.Background(), email)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if transaction == nil {
		t.Fatal("Expected a transaction")
	}

	expectedDate := time.Date(2025, 2, 3, 12, 0, 0, 0, time.UTC)
	if !transaction.Date.Equal(expectedDate) {
		t.Errorf("Expected date %v, got %v", expectedDate, transaction.Date)
	}
}
