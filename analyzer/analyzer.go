package analyzer

import (
	"context"

	"github.com/sljesus/winm/extractor/common"
)

// Analyzer turns one raw email into at most one transaction.
//
// The return contract separates "not a transaction" from failure:
// (nil, nil) means the analyzer understood the email and found nothing to
// record, while (nil, err) means the analyzer could not do its job and a
// fallback may still succeed.
type Analyzer interface {
	Name() string
	AnalyzeEmail(ctx context.Context, email common.RawEmail) (*common.Transaction, error)
}
