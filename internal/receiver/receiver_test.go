package receiver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/roach88/instrq/internal/message"
	"github.com/roach88/instrq/internal/parser"
	"github.com/roach88/instrq/internal/queue"
	"github.com/roach88/instrq/internal/store"
	"github.com/roach88/instrq/internal/validator"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

const (
	validLine       = "InstructionMessage A MZ89 5678 50 2015-03-05T10:04:56.012Z\n"
	badProductLine  = "InstructionMessage A 89MZ 5678 50 2015-03-05T10:04:56.012Z\n"
	badFormatLine   = "InstructionMessage E MZ89 5678 50 2015-03-05T10:04:56.012Z\n"
	futureStampLine = "InstructionMessage B MZ89 1 1 2030-01-01T00:00:00.000Z\n"
)

type fixture struct {
	receiver *Receiver
	queue    *queue.PriorityQueue
}

func newFixture(opts ...Option) *fixture {
	q := queue.New()
	p := parser.New(parser.WithLocation(time.UTC))
	v := validator.New(validator.WithNow(func() time.Time { return fixedNow }))
	opts = append([]Option{WithNow(func() time.Time { return fixedNow })}, opts...)
	return &fixture{receiver: New(p, v, q, opts...), queue: q}
}

// recordingJournal keeps receipts in memory; err, when set, fails every write.
type recordingJournal struct {
	mu       sync.Mutex
	receipts []message.Receipt
	err      error
}

func (j *recordingJournal) Record(_ context.Context, r message.Receipt) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil {
		return j.err
	}
	j.receipts = append(j.receipts, r)
	return nil
}

func TestReceive_ValidLineEnqueued(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.receiver.Receive(context.Background(), validLine))
	assert.Equal(t, 1, f.queue.Count())

	got, ok := f.queue.Peek()
	require.True(t, ok)
	assert.Equal(t, "MZ89", got.ProductCode)
	assert.Equal(t, Stats{Accepted: 1}, f.receiver.Stats())
}

func TestReceive_ParseErrorNotEnqueued(t *testing.T) {
	f := newFixture()

	err := f.receiver.Receive(context.Background(), badFormatLine)
	require.Error(t, err)
	assert.True(t, parser.IsParseError(err))
	assert.Equal(t, parser.FormatMessage, err.Error())
	assert.Equal(t, 0, f.queue.Count())
}

func TestReceive_ValidationErrorNotEnqueued(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.receiver.Receive(context.Background(), validLine))

	err := f.receiver.Receive(context.Background(), badProductLine)
	require.Error(t, err)
	assert.True(t, validator.IsValidationError(err))
	assert.False(t, parser.IsParseError(err))
	assert.Equal(t, 1, f.queue.Count(), "rejected line must leave count unchanged")

	err = f.receiver.Receive(context.Background(), futureStampLine)
	var ve *validator.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, validator.ErrTimestamp, ve.Code)
	assert.Equal(t, 1, f.queue.Count())

	assert.Equal(t, Stats{Accepted: 1, Rejected: 2}, f.receiver.Stats())
}

func TestReceive_PriorityOrderThroughPipeline(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	for _, typ := range []string{"C", "A", "D", "B"} {
		line := fmt.Sprintf("InstructionMessage %s MZ89 5 50 2015-03-05T10:04:56.012Z\n", typ)
		require.NoError(t, f.receiver.Receive(ctx, line))
	}

	var got []string
	for {
		inst, ok := f.queue.Dequeue()
		if !ok {
			break
		}
		got = append(got, inst.Type.String())
	}
	assert.Equal(t, []string{"A", "B", "C", "D"}, got)
}

func TestReceive_JournalsEveryLine(t *testing.T) {
	j := &recordingJournal{}
	f := newFixture(WithJournal(j), WithIDGenerator(NewSequentialGenerator("r")))
	ctx := context.Background()

	require.NoError(t, f.receiver.Receive(ctx, validLine))
	require.Error(t, f.receiver.Receive(ctx, badFormatLine))
	require.Error(t, f.receiver.Receive(ctx, badProductLine))

	require.Len(t, j.receipts, 3)

	accepted := j.receipts[0]
	assert.Equal(t, "r-0001", accepted.ID)
	assert.Equal(t, message.OutcomeAccepted, accepted.Outcome)
	assert.Equal(t, int64(1), accepted.Seq)
	assert.Equal(t, validLine, accepted.Line)
	assert.Contains(t, accepted.Payload, `"product_code":"MZ89"`)
	assert.True(t, fixedNow.Equal(accepted.ReceivedAt))

	parseRejected := j.receipts[1]
	assert.Equal(t, "r-0002", parseRejected.ID)
	assert.Equal(t, message.OutcomeRejected, parseRejected.Outcome)
	assert.Equal(t, message.ErrorKindParse, parseRejected.ErrorKind)
	assert.Equal(t, parser.ErrCodeFormat, parseRejected.ErrorCode)
	assert.Equal(t, parser.FormatMessage, parseRejected.Message)

	validationRejected := j.receipts[2]
	assert.Equal(t, message.ErrorKindValidation, validationRejected.ErrorKind)
	assert.Equal(t, validator.ErrProductCode, validationRejected.ErrorCode)
	assert.Zero(t, validationRejected.Seq)
}

func TestReceive_JournalFailure(t *testing.T) {
	boom := errors.New("disk full")
	j := &recordingJournal{err: boom}
	f := newFixture(WithJournal(j))
	ctx := context.Background()

	err := f.receiver.Receive(ctx, validLine)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, IsJournalError(err))
	assert.Equal(t, 1, f.queue.Count(), "accepted instruction stays queued")

	err = f.receiver.Receive(ctx, badFormatLine)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, parser.IsParseError(err), "rejection cause survives the journal error")
	assert.True(t, IsJournalError(err))
}

func TestClassify(t *testing.T) {
	kind, code, msg := Classify(&parser.ParseError{Line: "x"})
	assert.Equal(t, message.ErrorKindParse, kind)
	assert.Equal(t, parser.ErrCodeFormat, code)
	assert.Equal(t, parser.FormatMessage, msg)

	ve := &validator.ValidationError{Field: "uom", Message: "out of range", Code: validator.ErrUOM}
	kind, code, msg = Classify(fmt.Errorf("wrapped: %w", ve))
	assert.Equal(t, message.ErrorKindValidation, kind)
	assert.Equal(t, validator.ErrUOM, code)
	assert.Equal(t, "out of range", msg)

	kind, code, msg = Classify(errors.New("disk full"))
	assert.Empty(t, kind)
	assert.Empty(t, code)
	assert.Equal(t, "disk full", msg)
}

func TestReceive_SQLiteJournal(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	f := newFixture(WithJournal(st))
	ctx := context.Background()

	require.NoError(t, f.receiver.Receive(ctx, validLine))
	require.Error(t, f.receiver.Receive(ctx, badProductLine))

	rejected, err := st.ReadReceipts(ctx, store.ReceiptFilter{Outcome: message.OutcomeRejected})
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, badProductLine, rejected[0].Line)
	assert.Len(t, rejected[0].ID, 36, "uuid receipt id")
}

func TestReceive_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	f := newFixture(WithLogger(logger), WithIDGenerator(NewSequentialGenerator("log")))
	ctx := context.Background()

	require.NoError(t, f.receiver.Receive(ctx, validLine))
	require.Error(t, f.receiver.Receive(ctx, badProductLine))

	out := buf.String()
	assert.Contains(t, out, "instruction accepted")
	assert.Contains(t, out, "receipt=log-0001")
	assert.Contains(t, out, "priority=HIGH")
	assert.Contains(t, out, "instruction rejected")
	assert.Contains(t, out, "code=E201")
}

func TestReceive_ConcurrentProducers(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	const producers = 8
	const perProducer = 50

	var wg sync.WaitGroup
	errs := make(chan error, producers*perProducer)
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				typ := message.Types[(p+i)%len(message.Types)]
				line := fmt.Sprintf("InstructionMessage %s MZ89 %d 50 2015-03-05T10:04:56.012Z\n", typ, i+1)
				if err := f.receiver.Receive(ctx, line); err != nil {
					errs <- err
				}
			}
		}(p)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("unexpected error: %v", err)
	}
	assert.Equal(t, producers*perProducer, f.queue.Count())

	prev := message.PriorityHigh
	for _, inst := range f.queue.Drain() {
		assert.GreaterOrEqual(t, int(inst.Priority()), int(prev))
		prev = inst.Priority()
	}
}

func TestSequentialGenerator(t *testing.T) {
	g := NewSequentialGenerator("")
	assert.Equal(t, "receipt-0001", g.Generate())
	assert.Equal(t, "receipt-0002", g.Generate())
}

func TestUUIDv7Generator(t *testing.T) {
	a := UUIDv7Generator{}.Generate()
	b := UUIDv7Generator{}.Generate()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
