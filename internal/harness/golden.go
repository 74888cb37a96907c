package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/instrq/internal/message"
)

// Snapshot renders a result as canonical JSON for golden comparison.
//
// Layout:
//
//	{"accepted":N,"drained":[wire lines],"receipts":[...],"rejected":N,
//	 "rejections":[{"code":..,"line":..}],"scenario":name}
func Snapshot(r *Result) ([]byte, error) {
	drained := make([]any, len(r.Drained))
	for i, inst := range r.Drained {
		drained[i] = inst.String()
	}

	rejections := make([]any, len(r.Rejections))
	for i, rej := range r.Rejections {
		rejections[i] = map[string]any{"line": rej.Line, "code": rej.Code}
	}

	receipts := make([]any, len(r.Receipts))
	for i, rc := range r.Receipts {
		m := map[string]any{
			"id":      rc.ID,
			"outcome": string(rc.Outcome),
		}
		if rc.Outcome == message.OutcomeAccepted {
			m["seq"] = rc.Seq
		} else {
			m["code"] = rc.ErrorCode
		}
		receipts[i] = m
	}

	return message.MarshalCanonical(map[string]any{
		"scenario":   r.Scenario,
		"accepted":   r.Accepted,
		"rejected":   r.Rejected,
		"drained":    drained,
		"rejections": rejections,
		"receipts":   receipts,
	})
}

// AssertGolden compares the result snapshot against
// testdata/golden/{scenario}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func AssertGolden(t *testing.T, r *Result) {
	t.Helper()

	data, err := Snapshot(r)
	if err != nil {
		t.Fatalf("snapshot %s: %v", r.Scenario, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, r.Scenario, data)
}
