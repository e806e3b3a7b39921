package common

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	SourceMercadoPago = "Mercado Pago"
	SourceBBVA        = "BBVA"
	SourceNU          = "NU"
	SourcePlataCard   = "Plata Card"
	SourceUnknown     = "Desconocido"

	// Legacy name still present in old records and forwarded emails.
	// Validate rewrites it to SourceMercadoPago.
	SourceMercadoLibre = "Mercado Libre"
)

const (
	TypeCompra        = "compra"
	TypeIngreso       = "ingreso"
	TypeTransferencia = "transferencia"
	TypeRetiro        = "retiro"
	TypeOtro          = "otro"
)

var ValidSources = []string{SourceMercadoPago, SourceNU, SourcePlataCard, SourceBBVA}

var ValidTypes = []string{TypeCompra, TypeIngreso, TypeTransferencia, TypeRetiro, TypeOtro}

type RawEmail struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	From    string `json:"from"`
	Date    string `json:"date"`
}

type ChainEntry struct {
	Analyzer string `json:"analyzer"`
	Outcome  string `json:"outcome"`
}

type Meta struct {
	Confidence    float64      `json:"confidence"`
	AnalyzedByAI  bool         `json:"analyzed_by_ai"`
	AnalyzerUsed  string       `json:"analyzer_used,omitempty"`
	AnalyzerChain []ChainEntry `json:"analyzer_chain,omitempty"`
}

type Transaction struct {
	Amount              decimal.Decimal `json:"amount"`
	Description         string          `json:"description"`
	Date                time.Time       `json:"date"`
	Source              string          `json:"source"`
	Type                string          `json:"transaction_type"`
	EmailID             string          `json:"email_id"`
	EmailSubject        string          `json:"email_subject"`
	NeedsCategorization bool            `json:"needs_categorization"`
	Bank                string          `json:"bank"`
	Meta                Meta            `json:"metadata"`
}

// Validate reports whether the transaction is complete enough to persist.
// It also rewrites the legacy Mercado Libre source name in place, so a
// transaction that validates once keeps validating.
func (t *Transaction) Validate() bool {
	if t == nil {
		return false
	}

	if t.Source == SourceMercadoLibre {
		t.Source = SourceMercadoPago
	}
	if t.Bank == SourceMercadoLibre {
		t.Bank = SourceMercadoPago
	}

	if t.Amount.IsZero() {
		return false
	}
	if t.Description == "" {
		return false
	}
	if t.Date.IsZero() {
		return false
	}

	if !KnownType(t.Type) {
		return false
	}

	// Desconocido is allowed so the model-backed analyzer can emit
	// transactions for senders outside the known provider list.
	return t.Source == SourceUnknown || KnownSource(t.Source)
}

// KnownType reports whether the value is one of the closed transaction
// types.
func KnownType(transactionType string) bool {
	for _, t := range ValidTypes {
		if t == transactionType {
			return true
		}
	}
	return false
}

// KnownSource reports whether the value is one of the canonical provider
// names. Desconocido is not a provider and returns false.
func KnownSource(source string) bool {
	for _, s := range ValidSources {
		if s == source {
			return true
		}
	}
	return false
}
