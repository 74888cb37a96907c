package harness

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/roach88/instrq/internal/logging"
	"github.com/roach88/instrq/internal/message"
	"github.com/roach88/instrq/internal/parser"
	"github.com/roach88/instrq/internal/queue"
	"github.com/roach88/instrq/internal/receiver"
	"github.com/roach88/instrq/internal/store"
	"github.com/roach88/instrq/internal/testutil"
	"github.com/roach88/instrq/internal/validator"
)

// Result is the outcome of running one scenario.
type Result struct {
	Scenario string

	// Pass is true when every expectation held.
	Pass bool

	Accepted int
	Rejected int

	// Drained is the queue content in dequeue order.
	Drained []message.Instruction

	// Rejections holds the observed rejected lines in input order.
	Rejections []Rejection

	// Receipts is the journal content in write order.
	Receipts []message.Receipt

	// Errors contains expectation mismatches. Empty if Pass is true.
	Errors []string
}

func (r *Result) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// Run executes a scenario against a real receiver.
//
// Each run gets a fresh in-memory journal, a clock frozen at scenario.Now,
// receipt IDs of the form <name>-0001, and UTC timestamp parsing, so the
// same scenario always yields the same result.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	now, err := scenario.NowTime()
	if err != nil {
		return nil, err
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	clock := testutil.NewFixedClock(now)
	q := queue.New()
	rcv := receiver.New(
		parser.New(parser.WithLocation(time.UTC)),
		validator.New(validator.WithNow(clock.Now)),
		q,
		receiver.WithJournal(st),
		receiver.WithIDGenerator(receiver.NewSequentialGenerator(scenario.Name)),
		receiver.WithNow(clock.Now),
		receiver.WithLogger(logging.Discard()),
	)

	result := &Result{Scenario: scenario.Name, Pass: true}

	for i, line := range scenario.Lines {
		err := rcv.Receive(ctx, line)
		if err == nil {
			result.Accepted++
			continue
		}
		kind, code, _ := receiver.Classify(err)
		if kind == "" || receiver.IsJournalError(err) {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		result.Rejected++
		result.Rejections = append(result.Rejections, Rejection{Line: i + 1, Code: code})
	}

	result.Drained = q.Drain()

	receipts, err := st.ReadReceipts(ctx, store.ReceiptFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	result.Receipts = receipts

	evaluate(scenario.Expect, result)
	return result, nil
}

func evaluate(expect Expectation, result *Result) {
	if result.Accepted != expect.Accepted {
		result.addError("accepted: got %d, want %d", result.Accepted, expect.Accepted)
	}
	if result.Rejected != expect.Rejected {
		result.addError("rejected: got %d, want %d", result.Rejected, expect.Rejected)
	}

	if expect.Order != nil {
		got := make([]string, len(result.Drained))
		for i, inst := range result.Drained {
			got[i] = inst.Type.String()
		}
		if !slices.Equal(got, expect.Order) {
			result.addError("order: got %v, want %v", got, expect.Order)
		}
	}

	if expect.Rejections != nil && !slices.Equal(result.Rejections, expect.Rejections) {
		result.addError("rejections: got %v, want %v", result.Rejections, expect.Rejections)
	}

	if len(result.Receipts) != len(result.Rejections)+len(result.Drained) {
		result.addError("journal: %d receipts for %d lines", len(result.Receipts), result.Accepted+result.Rejected)
	}
}
