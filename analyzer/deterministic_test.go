package analyzer

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/viper"

	"github.com/sljesus/winm/extractor/common"
)

const testDeterministicYAML = `
pipeline:
  keywords: [compra, pago, cargo, abono, transferencia, retiro, deposito, transaccion, movimiento]
  amount:
    max_value: 10000000
    patterns:
      keyword_adjacent: '(?i)(?:recibiste|pagaste|pago|cargo|abono|monto|total|importe)\D{0,25}?\$?\s*([0-9][0-9,]*(?:\.[0-9]{1,2})?)'
      currency_symbol: '\$\s*([\d,]+\.?\d*)'
      currency_word: '([\d,]+\.?\d*)\s*(?:MXN|pesos|peso)'
      symbol_loose: '\$\s*([\d.,]+)'
      grouped_number: '(\d{1,3}(?:,\d{3})+(?:\.\d{1,2})?|\d{3,}(?:\.\d{1,2})?)'
      small_decimal: '(\d+\.\d{2})'
  date:
    patterns:
      day_first: '(\d{1,2})[/-](\d{1,2})[/-](\d{4})'
      year_first: '(\d{4})[/-](\d{1,2})[/-](\d{1,2})'
providers:
  mercadopago:
    domains: [mercadopago.com, mercadopago.com.mx]
    include: [compra, pago, recibiste, pagaste]
    exclude: [promoción, oferta]
    income: [recibiste, ingreso]
    expense: [compra, pago, pagaste]
    description_patterns:
      - '(?i)(?:Compra|Pago)\s+(?:en|a|de)\s+([^\n\.]+)'
    prefix: '(?i)\b(?:Mercado Pago|MP|Notificación)\b[:\s]*'
    fallback: 'Transacción Mercado Pago'
`

func setupDeterministicConfig() {
	viper.Reset()
	viper.SetConfigType("yaml")
	viper.ReadConfig(bytes.NewBufferString(testDeterministicYAML))
}

func TestDeterministic_ParsesProviderEmail(t *testing.T) {
	setupDeterministicConfig()

	deterministic := NewDeterministic()
	email := common.RawEmail{
		ID:      "d-1",
		Subject: "Compra en OXXO Centro",
		Body:    "Pagaste $150.00 con tu tarjeta",
		From:    "info@mercadopago.com",
		Date:    "Mon, 15 Jan 2024 10:30:00 +0000",
	}

	transaction, err := deterministic.AnalyzeEmail(context.Background(), email)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if transaction == nil {
		t.Fatal("Expected a transaction")
	}

	if transaction.Amount.String() != "-150" {
		t.Errorf("Expected amount '-150', got '%s'", transaction.Amount.String())
	}
	if transaction.Meta.Confidence != 0.9 {
		t.Errorf("Expected confidence 0.9, got %v", transaction.Meta.Confidence)
	}
	if transaction.Meta.AnalyzedByAI {
		t.Error("Expected analyzed_by_ai false")
	}
	if transaction.Meta.AnalyzerUsed != "regex" {
		t.Errorf("Expected analyzer 'regex', got '%s'", transaction.Meta.AnalyzerUsed)
	}
}

func TestDeterministic_UnknownSenderIsNotAnError(t *testing.T) {
	setupDeterministicConfig()

	deterministic := NewDeterministic()
	email := common.RawEmail{ID: "d-2", Subject: "Compra", From: "noreply@banorte.com"}

	transaction, err := deterministic.AnalyzeEmail(context.Background(), email)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if transaction != nil {
		t.Errorf("Expected nil, got %+v", transaction)
	}
}
