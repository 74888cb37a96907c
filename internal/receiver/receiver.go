// Package receiver composes parsing, validation and enqueueing into the
// single ingestion operation producers call.
//
// An instruction reaches the queue if and only if it parses and validates.
// Parse and validation errors are returned unchanged so callers can match
// them with parser.IsParseError and validator.IsValidationError.
package receiver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/roach88/instrq/internal/message"
	"github.com/roach88/instrq/internal/parser"
	"github.com/roach88/instrq/internal/validator"
)

// Parser turns a raw line into an instruction.
type Parser interface {
	Parse(line string) (message.Instruction, error)
}

// Validator checks field rules.
type Validator interface {
	Validate(inst message.Instruction) error
}

// Queue accepts validated instructions and returns their enqueue sequence.
type Queue interface {
	Enqueue(inst message.Instruction) int64
}

// Journal records one receipt per received line.
type Journal interface {
	Record(ctx context.Context, r message.Receipt) error
}

// JournalError reports a receipt that could not be recorded.
type JournalError struct {
	ReceiptID string
	Err       error
}

func (e *JournalError) Error() string {
	return fmt.Sprintf("journal receipt %s: %v", e.ReceiptID, e.Err)
}

func (e *JournalError) Unwrap() error {
	return e.Err
}

// IsJournalError returns true if err is or wraps a *JournalError.
func IsJournalError(err error) bool {
	var je *JournalError
	return errors.As(err, &je)
}

// Stats counts lines by outcome since the receiver was created.
type Stats struct {
	Accepted int64 `json:"accepted"`
	Rejected int64 `json:"rejected"`
}

// Receiver is the parse -> validate -> enqueue pipeline.
type Receiver struct {
	parser    Parser
	validator Validator
	queue     Queue
	journal   Journal
	ids       IDGenerator
	now       func() time.Time
	logger    *slog.Logger

	accepted atomic.Int64
	rejected atomic.Int64
}

// Option configures a Receiver.
type Option func(*Receiver)

// WithJournal records a receipt for every line.
func WithJournal(j Journal) Option {
	return func(r *Receiver) { r.journal = j }
}

// WithIDGenerator replaces the UUIDv7 receipt ID generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(r *Receiver) {
		if g != nil {
			r.ids = g
		}
	}
}

// WithNow replaces the clock used for receipt timestamps.
func WithNow(now func() time.Time) Option {
	return func(r *Receiver) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(r *Receiver) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Receiver over the given stages.
func New(p Parser, v Validator, q Queue, opts ...Option) *Receiver {
	r := &Receiver{
		parser:    p,
		validator: v,
		queue:     q,
		ids:       UUIDv7Generator{},
		now:       time.Now,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Receive ingests one raw line.
//
// A *parser.ParseError or *validator.ValidationError is returned as-is (or
// joined with a journal error) and nothing is enqueued. The context only
// bounds journal I/O.
func (r *Receiver) Receive(ctx context.Context, line string) error {
	id := r.ids.Generate()

	inst, err := r.parser.Parse(line)
	if err != nil {
		return r.reject(ctx, id, line, err)
	}

	if err := r.validator.Validate(inst); err != nil {
		return r.reject(ctx, id, line, err)
	}

	seq := r.queue.Enqueue(inst)
	r.accepted.Add(1)

	r.logger.Debug("instruction accepted",
		"receipt", id,
		"seq", seq,
		"type", inst.Type.String(),
		"priority", inst.Priority().String(),
		"product_code", inst.ProductCode,
	)

	if r.journal == nil {
		return nil
	}

	payload, err := message.MarshalCanonical(inst)
	if err != nil {
		return &JournalError{ReceiptID: id, Err: err}
	}

	receipt := message.Receipt{
		ID:         id,
		Seq:        seq,
		Line:       line,
		Outcome:    message.OutcomeAccepted,
		Payload:    string(payload),
		ReceivedAt: r.now(),
	}
	if err := r.journal.Record(ctx, receipt); err != nil {
		return &JournalError{ReceiptID: id, Err: err}
	}

	return nil
}

// Stats returns the outcome counters.
func (r *Receiver) Stats() Stats {
	return Stats{
		Accepted: r.accepted.Load(),
		Rejected: r.rejected.Load(),
	}
}

func (r *Receiver) reject(ctx context.Context, id, line string, cause error) error {
	r.rejected.Add(1)

	kind, code, msg := Classify(cause)
	r.logger.Warn("instruction rejected",
		"receipt", id,
		"kind", string(kind),
		"code", code,
	)

	if r.journal == nil {
		return cause
	}

	receipt := message.Receipt{
		ID:         id,
		Line:       line,
		Outcome:    message.OutcomeRejected,
		ErrorKind:  kind,
		ErrorCode:  code,
		Message:    msg,
		ReceivedAt: r.now(),
	}
	if err := r.journal.Record(ctx, receipt); err != nil {
		return errors.Join(cause, &JournalError{ReceiptID: id, Err: err})
	}

	return cause
}

// Classify maps a rejection cause to its journal fields. The kind is empty
// when err is neither a parse nor a validation error.
func Classify(err error) (message.ErrorKind, string, string) {
	var pe *parser.ParseError
	if errors.As(err, &pe) {
		return message.ErrorKindParse, pe.Code(), pe.Error()
	}

	var ve *validator.ValidationError
	if errors.As(err, &ve) {
		return message.ErrorKindValidation, ve.Code, ve.Message
	}

	return "", "", err.Error()
}
