package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/instrq/internal/message"
)

// WriteReceipt appends a receipt to the journal.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - rewriting the same
// receipt ID is silently ignored.
func (s *Store) WriteReceipt(ctx context.Context, r message.Receipt) error {
	if r.ID == "" {
		return fmt.Errorf("write receipt: id is required")
	}
	if r.Outcome != message.OutcomeAccepted && r.Outcome != message.OutcomeRejected {
		return fmt.Errorf("write receipt: invalid outcome %q", r.Outcome)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO receipts
		(id, seq, line, outcome, error_kind, error_code, message, payload, received_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		r.ID,
		nullInt64(r.Seq),
		r.Line,
		string(r.Outcome),
		nullString(string(r.ErrorKind)),
		nullString(r.ErrorCode),
		nullString(r.Message),
		nullString(r.Payload),
		r.ReceivedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("write receipt: %w", err)
	}

	return nil
}

// Record implements the receiver's journal interface.
func (s *Store) Record(ctx context.Context, r message.Receipt) error {
	return s.WriteReceipt(ctx, r)
}

func nullInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
