package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/instrq/internal/message"
)

// ReceiptFilter narrows ReadReceipts.
type ReceiptFilter struct {
	// Outcome restricts results to one outcome. Empty means all.
	Outcome message.Outcome

	// Limit caps the number of results. Zero means no limit.
	Limit int
}

// ReadReceipts returns receipts in insertion order.
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ReadReceipts(ctx context.Context, f ReceiptFilter) ([]message.Receipt, error) {
	var (
		where []string
		args  []any
	)
	if f.Outcome != "" {
		where = append(where, "outcome = ?")
		args = append(args, string(f.Outcome))
	}

	query := `
		SELECT id, seq, line, outcome, error_kind, error_code, message, payload, received_at
		FROM receipts`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY rowid ASC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query receipts: %w", err)
	}
	defer rows.Close()

	receipts := []message.Receipt{}
	for rows.Next() {
		r, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate receipts: %w", err)
	}

	return receipts, nil
}

// ReadReceipt returns the receipt with the given ID.
// Returns found=false if it does not exist.
func (s *Store) ReadReceipt(ctx context.Context, id string) (message.Receipt, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seq, line, outcome, error_kind, error_code, message, payload, received_at
		FROM receipts
		WHERE id = ?
	`, id)

	r, err := scanReceipt(row)
	if err == sql.ErrNoRows {
		return message.Receipt{}, false, nil
	}
	if err != nil {
		return message.Receipt{}, false, err
	}
	return r, true, nil
}

// CountReceipts returns the number of receipts with the given outcome.
// An empty outcome counts everything.
func (s *Store) CountReceipts(ctx context.Context, outcome message.Outcome) (int, error) {
	var (
		count int
		err   error
	)
	if outcome == "" {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM receipts`).Scan(&count)
	} else {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM receipts WHERE outcome = ?`, string(outcome)).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("count receipts: %w", err)
	}
	return count, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReceipt(row scanner) (message.Receipt, error) {
	var r message.Receipt
	var seq sql.NullInt64
	var outcome, receivedAt string
	var errorKind, errorCode, msg, payload sql.NullString

	err := row.Scan(&r.ID, &seq, &r.Line, &outcome, &errorKind, &errorCode, &msg, &payload, &receivedAt)
	if err == sql.ErrNoRows {
		return message.Receipt{}, err
	}
	if err != nil {
		return message.Receipt{}, fmt.Errorf("scan receipt: %w", err)
	}

	r.Seq = seq.Int64
	r.Outcome = message.Outcome(outcome)
	r.ErrorKind = message.ErrorKind(errorKind.String)
	r.ErrorCode = errorCode.String
	r.Message = msg.String
	r.Payload = payload.String

	r.ReceivedAt, err = time.Parse(time.RFC3339Nano, receivedAt)
	if err != nil {
		return message.Receipt{}, fmt.Errorf("scan receipt %s: received_at: %w", r.ID, err)
	}

	return r, nil
}
