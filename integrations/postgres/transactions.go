package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sljesus/winm/extractor/common"
)

// SaveTransaction inserts one extracted transaction for a user. Returns
// false when the row was skipped because the same email was already
// imported, relying on the unique index idx_transactions_unique_email
// (user_id, email_id) WHERE email_id <> ''.
func (db *DB) SaveTransaction(ctx context.Context, userID string, transaction *common.Transaction) (bool, error) {
	if transaction == nil || !transaction.Validate() {
		return false, fmt.Errorf("refusing to save invalid transaction")
	}

	tag, err := db.Pool.Exec(ctx, `
		INSERT INTO transactions (
			user_id, amount, description, date, source, transaction_type,
			email_id, email_subject, needs_categorization, bank
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id, email_id) WHERE email_id <> '' DO NOTHING
	`,
		userID, transaction.Amount, transaction.Description, transaction.Date,
		transaction.Source, transaction.Type, transaction.EmailID,
		transaction.EmailSubject, transaction.NeedsCategorization, transaction.Bank,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert transaction: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// StoredTransaction is a persisted row, as read back for listings.
type StoredTransaction struct {
	ID                  string          `json:"id"`
	Amount              decimal.Decimal `json:"amount"`
	Description         string          `json:"description"`
	Date                time.Time       `json:"date"`
	Source              string          `json:"source"`
	Type                string          `json:"transaction_type"`
	EmailID             string          `json:"email_id"`
	NeedsCategorization bool            `json:"needs_categorization"`
}

// UserTransactions returns a user's most recent transactions.
func (db *DB) UserTransactions(ctx context.Context, userID string, limit int) ([]StoredTransaction, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, amount, description, date, source, transaction_type, email_id, needs_categorization
		FROM transactions
		WHERE user_id = $1
		ORDER BY date DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []StoredTransaction
	for rows.Next() {
		var transaction StoredTransaction
		if err := rows.Scan(
			&transaction.ID, &transaction.Amount, &transaction.Description,
			&transaction.Date, &transaction.Source, &transaction.Type,
			&transaction.EmailID, &transaction.NeedsCategorization,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, transaction)
	}
	return transactions, rows.Err()
}
