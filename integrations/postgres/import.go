package postgres

import (
	"context"
	"fmt"
	"log"

	"github.com/sljesus/winm/analyzer"
	"github.com/sljesus/winm/extractor/common"
)

// ImportResult tracks the outcome of an import operation
type ImportResult struct {
	Processed int
	Skipped   int
	Failed    int
	Errors    []string
}

// ImportOptions configures the import behavior
type ImportOptions struct {
	UserID  string // Owner of the inserted rows
	Verbose bool   // Enable per-email logging
}

// Import runs every email through the analyzer chain and persists the
// results. Emails the chain cannot read and duplicates of already
// imported emails are skipped; analyzer and storage failures are counted
// and collected without aborting the batch.
func (db *DB) Import(ctx context.Context, emails []common.RawEmail, chain analyzer.Analyzer, opts ImportOptions) *ImportResult {
	result := &ImportResult{}

	for _, email := range emails {
		transaction, err := chain.AnalyzeEmail(ctx, email)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", email.ID, err))
			if opts.Verbose {
				log.Printf("FAIL %s: %v", email.ID, err)
			}
			continue
		}
		if transaction == nil {
			result.Skipped++
			if opts.Verbose {
				log.Printf("SKIP %s (not a transaction)", email.ID)
			}
			continue
		}

		saved, err := db.SaveTransaction(ctx, opts.UserID, transaction)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: save: %v", email.ID, err))
			if opts.Verbose {
				log.Printf("FAIL %s: save: %v", email.ID, err)
			}
			continue
		}
		if !saved {
			result.Skipped++
			if opts.Verbose {
				log.Printf("SKIP %s (already imported)", email.ID)
			}
			continue
		}

		result.Processed++
		if opts.Verbose {
			log.Printf("OK   %s %s %s", email.ID, transaction.Description, transaction.Amount.StringFixed(2))
		}
	}

	return result
}
