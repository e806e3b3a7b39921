package analyzer

import (
	"context"
	"fmt"
	"log"

	"github.com/sljesus/winm/extractor/common"
)

// Composite tries its analyzers in order and keeps the first answer. An
// analyzer that errors or panics is logged and skipped; the email is only
// declared "not a transaction" when every member agrees.
type Composite struct {
	analyzers []Analyzer
}

func NewComposite(analyzers ...Analyzer) *Composite {
	return &Composite{analyzers: analyzers}
}

func (c *Composite) Name() string {
	return "composite"
}

// Add appends an analyzer to the end of the chain.
func (c *Composite) Add(analyzer Analyzer) {
	c.analyzers = append(c.analyzers, analyzer)
}

// Remove drops the first analyzer with the given name and reports whether
// anything was removed. Not safe to call while an analysis is in flight.
func (c *Composite) Remove(name string) bool {
	for i, analyzer := range c.analyzers {
		if analyzer.Name() == name {
			c.analyzers = append(c.analyzers[:i], c.analyzers[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Composite) AnalyzeEmail(ctx context.Context, email common.RawEmail) (*common.Transaction, error) {
	chain := []common.ChainEntry{}

	for _, analyzer := range c.analyzers {
		transaction, err := c.tryOne(ctx, analyzer, email)
		switch {
		case err != nil:
			log.Printf("⚠️ analyzer %s failed on %s: %v", analyzer.Name(), email.ID, err)
			chain = append(chain, common.ChainEntry{Analyzer: analyzer.Name(), Outcome: "error"})
		case transaction != nil:
			chain = append(chain, common.ChainEntry{Analyzer: analyzer.Name(), Outcome: "ok"})
			transaction.Meta.AnalyzerUsed = analyzer.Name()
			transaction.Meta.AnalyzerChain = chain
			return transaction, nil
		default:
			chain = append(chain, common.ChainEntry{Analyzer: analyzer.Name(), Outcome: "no-match"})
		}
	}

	return nil, nil
}

// tryOne shields the chain from a panicking member.
func (c *Composite) tryOne(ctx context.Context, analyzer Analyzer, email common.RawEmail) (transaction *common.Transaction, err error) {
	defer func() {
		if r := recover(); r != nil {
			transaction = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return analyzer.AnalyzeEmail(ctx, email)
}
