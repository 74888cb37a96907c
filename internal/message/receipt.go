package message

import "time"

// Outcome records what the receiver did with a line.
type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeRejected Outcome = "rejected"
)

// ErrorKind classifies a rejection.
type ErrorKind string

const (
	ErrorKindParse      ErrorKind = "parse"
	ErrorKindValidation ErrorKind = "validation"
)

// Receipt is the journal record of one received line.
// Store-layer type: the pipeline itself never reads receipts back.
type Receipt struct {
	ID         string    `json:"id"`                    // uuid v7
	Seq        int64     `json:"seq,omitempty"`         // enqueue sequence, accepted only
	Line       string    `json:"line"`                  // raw input, newline included
	Outcome    Outcome   `json:"outcome"`
	ErrorKind  ErrorKind `json:"error_kind,omitempty"`
	ErrorCode  string    `json:"error_code,omitempty"`
	Message    string    `json:"message,omitempty"`
	Payload    string    `json:"payload,omitempty"` // canonical JSON of the instruction
	ReceivedAt time.Time `json:"received_at"`
}
