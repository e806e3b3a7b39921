package analyzer

import (
	"context"

	"github.com/sljesus/winm/extractor"
	"github.com/sljesus/winm/extractor/common"
)

// Deterministic answers from the provider regex parsers. It never fails:
// an email it cannot read is simply not a transaction.
type Deterministic struct{}

func NewDeterministic() *Deterministic {
	return &Deterministic{}
}

func (a *Deterministic) Name() string {
	return "regex"
}

func (a *Deterministic) AnalyzeEmail(ctx context.Context, email common.RawEmail) (*common.Transaction, error) {
	transaction := extractor.ParseEmail(email)
	if transaction == nil {
		return nil, nil
	}

	transaction.Meta.Confidence = 0.9
	transaction.Meta.AnalyzedByAI = false
	transaction.Meta.AnalyzerUsed = a.Name()
	return transaction, nil
}
