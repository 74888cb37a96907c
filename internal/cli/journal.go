package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/instrq/internal/message"
	"github.com/roach88/instrq/internal/store"
)

// JournalOptions holds flags for the journal command.
type JournalOptions struct {
	*RootOptions
	Rejected bool
	Accepted bool
	Limit    int
	ID       string
}

// JournalResult is the journal command's output payload.
type JournalResult struct {
	Path     string            `json:"path"`
	Total    int               `json:"total"`
	Accepted int               `json:"accepted"`
	Rejected int               `json:"rejected"`
	Receipts []message.Receipt `json:"receipts"`
}

// NewJournalCommand creates the journal command.
func NewJournalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JournalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "journal <db>",
		Short: "List receipts recorded by ingest --journal",
		Long: `List the receipts in a journal database in the order they were written.
Rejected receipts keep the raw line for manual inspection.

Examples:
  instrq journal receipts.db
  instrq journal receipts.db --rejected --limit 20
  instrq journal receipts.db --id 0190c3e4-...
  instrq journal receipts.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJournal(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Rejected, "rejected", false, "only rejected receipts")
	cmd.Flags().BoolVar(&opts.Accepted, "accepted", false, "only accepted receipts")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum receipts to list (0 = all)")
	cmd.Flags().StringVar(&opts.ID, "id", "", "show a single receipt")
	cmd.MarkFlagsMutuallyExclusive("rejected", "accepted")
	cmd.MarkFlagsMutuallyExclusive("id", "rejected")
	cmd.MarkFlagsMutuallyExclusive("id", "accepted")

	return cmd
}

func runJournal(opts *JournalOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	// Open would create an empty database, so check first.
	if _, err := os.Stat(path); err != nil {
		return formatter.commandError(ErrCodeNotFound, "journal not found", err)
	}

	st, err := store.Open(path)
	if err != nil {
		return formatter.commandError(ErrCodeJournal, "open journal", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.ID != "" {
		return showReceipt(ctx, formatter, st, opts.ID)
	}

	filter := store.ReceiptFilter{Limit: opts.Limit}
	switch {
	case opts.Rejected:
		filter.Outcome = message.OutcomeRejected
	case opts.Accepted:
		filter.Outcome = message.OutcomeAccepted
	}

	receipts, err := st.ReadReceipts(ctx, filter)
	if err != nil {
		return formatter.commandError(ErrCodeJournal, "read journal", err)
	}

	result := JournalResult{Path: path, Receipts: receipts}
	if result.Accepted, err = st.CountReceipts(ctx, message.OutcomeAccepted); err != nil {
		return formatter.commandError(ErrCodeJournal, "count receipts", err)
	}
	if result.Rejected, err = st.CountReceipts(ctx, message.OutcomeRejected); err != nil {
		return formatter.commandError(ErrCodeJournal, "count receipts", err)
	}
	result.Total = result.Accepted + result.Rejected

	if formatter.JSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	for _, r := range receipts {
		line := strconv.Quote(strings.TrimSuffix(r.Line, "\n"))
		if r.Outcome == message.OutcomeAccepted {
			fmt.Fprintf(w, "%s  accepted  seq=%d  %s\n", r.ID, r.Seq, line)
		} else {
			fmt.Fprintf(w, "%s  rejected  %s  %s\n", r.ID, r.ErrorCode, line)
		}
	}
	fmt.Fprintf(w, "%d receipt(s): %d accepted, %d rejected\n", result.Total, result.Accepted, result.Rejected)
	return nil
}

func showReceipt(ctx context.Context, formatter *OutputFormatter, st *store.Store, id string) error {
	r, found, err := st.ReadReceipt(ctx, id)
	if err != nil {
		return formatter.commandError(ErrCodeJournal, "read receipt", err)
	}
	if !found {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("receipt %s not found", id), nil)
		return NewExitError(ExitFailure, fmt.Sprintf("receipt %s not found", id))
	}

	if formatter.JSON() {
		return formatter.Success(r)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "id:          %s\n", r.ID)
	fmt.Fprintf(w, "outcome:     %s\n", r.Outcome)
	fmt.Fprintf(w, "received_at: %s\n", r.ReceivedAt.Format(time.RFC3339Nano))
	fmt.Fprintf(w, "line:        %s\n", strconv.Quote(r.Line))
	if r.Outcome == message.OutcomeAccepted {
		fmt.Fprintf(w, "seq:         %d\n", r.Seq)
		fmt.Fprintf(w, "payload:     %s\n", r.Payload)
	} else {
		fmt.Fprintf(w, "error:       [%s] %s\n", r.ErrorCode, r.Message)
	}
	return nil
}
