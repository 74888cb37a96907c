package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/instrq/internal/message"
)

var receivedAt = time.Date(2024, 6, 1, 12, 0, 0, 123_000_000, time.UTC)

func acceptedReceipt(id string, seq int64) message.Receipt {
	return message.Receipt{
		ID:         id,
		Seq:        seq,
		Line:       "InstructionMessage A MZ89 5678 50 2015-03-05T10:04:56.012Z\n",
		Outcome:    message.OutcomeAccepted,
		Payload:    `{"type":"A"}`,
		ReceivedAt: receivedAt,
	}
}

func rejectedReceipt(id string) message.Receipt {
	return message.Receipt{
		ID:         id,
		Line:       "InstructionMessage A 89MZ 5678 50 2015-03-05T10:04:56.012Z\n",
		Outcome:    message.OutcomeRejected,
		ErrorKind:  message.ErrorKindValidation,
		ErrorCode:  "E201",
		Message:    "Product code is not valid.",
		ReceivedAt: receivedAt,
	}
}

func TestWriteReceipt_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	want := rejectedReceipt("r-1")
	require.NoError(t, s.WriteReceipt(ctx, want))

	got, found, err := s.ReadReceipt(ctx, "r-1")
	require.NoError(t, err)
	require.True(t, found)

	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, int64(0), got.Seq)
	assert.Equal(t, want.Line, got.Line)
	assert.Equal(t, want.Outcome, got.Outcome)
	assert.Equal(t, want.ErrorKind, got.ErrorKind)
	assert.Equal(t, want.ErrorCode, got.ErrorCode)
	assert.Equal(t, want.Message, got.Message)
	assert.Empty(t, got.Payload)
	assert.True(t, want.ReceivedAt.Equal(got.ReceivedAt))
}

func TestWriteReceipt_Accepted(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, acceptedReceipt("a-1", 7)))

	got, found, err := s.ReadReceipt(ctx, "a-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(7), got.Seq)
	assert.Equal(t, `{"type":"A"}`, got.Payload)
	assert.Empty(t, got.ErrorKind)
}

func TestWriteReceipt_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	r := rejectedReceipt("dup")
	require.NoError(t, s.WriteReceipt(ctx, r))
	require.NoError(t, s.WriteReceipt(ctx, r))

	n, err := s.CountReceipts(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestWriteReceipt_Invalid(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	err := s.WriteReceipt(ctx, message.Receipt{Outcome: message.OutcomeAccepted})
	assert.ErrorContains(t, err, "id is required")

	err = s.WriteReceipt(ctx, message.Receipt{ID: "x", Outcome: "maybe"})
	assert.ErrorContains(t, err, "invalid outcome")
}

func TestReadReceipt_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, found, err := s.ReadReceipt(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestReadReceipts_FilterAndOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteReceipt(ctx, acceptedReceipt("c", 1)))
	require.NoError(t, s.WriteReceipt(ctx, rejectedReceipt("a")))
	require.NoError(t, s.WriteReceipt(ctx, acceptedReceipt("b", 2)))

	all, err := s.ReadReceipts(ctx, ReceiptFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{all[0].ID, all[1].ID, all[2].ID}, "insertion order, not id order")

	rejected, err := s.ReadReceipts(ctx, ReceiptFilter{Outcome: message.OutcomeRejected})
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, "a", rejected[0].ID)

	limited, err := s.ReadReceipts(ctx, ReceiptFilter{Outcome: message.OutcomeAccepted, Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "c", limited[0].ID)

	accepted, err := s.CountReceipts(ctx, message.OutcomeAccepted)
	require.NoError(t, err)
	assert.Equal(t, 2, accepted)
}

func TestReadReceipts_EmptyNotNil(t *testing.T) {
	s := createTestStore(t)

	got, err := s.ReadReceipts(context.Background(), ReceiptFilter{})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestReadReceipts_SeqRepeatsAcrossRuns(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteReceipt(ctx, acceptedReceipt("run1-1", 1)))
	require.NoError(t, s.WriteReceipt(ctx, acceptedReceipt("run2-1", 1)))

	n, err := s.CountReceipts(ctx, message.OutcomeAccepted)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
