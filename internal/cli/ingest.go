package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/instrq/internal/message"
	"github.com/roach88/instrq/internal/parser"
	"github.com/roach88/instrq/internal/queue"
	"github.com/roach88/instrq/internal/receiver"
	"github.com/roach88/instrq/internal/store"
	"github.com/roach88/instrq/internal/validator"
)

// IngestOptions holds flags for the ingest command.
type IngestOptions struct {
	*RootOptions
	Journal  string // receipt journal path, overrides journal.path
	FailFast bool   // stop at the first rejected line
}

// LineRejection reports one rejected input line.
type LineRejection struct {
	Line    int    `json:"line"`
	Kind    string `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// IngestResult is the ingest command's output payload.
type IngestResult struct {
	Source     string           `json:"source"`
	Accepted   int64            `json:"accepted"`
	Rejected   int64            `json:"rejected"`
	Rejections []LineRejection  `json:"rejections"`
	Drained    []map[string]any `json:"drained"`

	instructions []message.Instruction
}

// NewIngestCommand creates the ingest command.
func NewIngestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IngestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ingest [file]",
		Short: "Receive instruction lines and drain them in priority order",
		Long: `Receive every line of file (or stdin) through the parse, validate and
enqueue pipeline, then drain the queue and print the instructions in
service order.

Exit codes:
  0 - Every line accepted
  1 - One or more lines rejected
  2 - Command error (unreadable input, journal failure)

Examples:
  instrq ingest messages.txt
  instrq ingest --journal receipts.db < messages.txt
  instrq ingest messages.txt --fail-fast --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd.Context(), opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "record a receipt per line in this SQLite database")
	cmd.Flags().BoolVar(&opts.FailFast, "fail-fast", false, "stop at the first rejected line")

	return cmd
}

func runIngest(ctx context.Context, opts *IngestOptions, args []string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)

	in, source, err := openInput(cmd, args)
	if err != nil {
		return formatter.commandError(ErrCodeInput, "open input", err)
	}
	defer in.Close()

	rcvOpts := []receiver.Option{receiver.WithLogger(opts.logger())}

	journalPath := opts.Journal
	if journalPath == "" {
		journalPath = opts.Config.Journal.Path
	}
	if journalPath != "" {
		st, err := store.Open(journalPath)
		if err != nil {
			return formatter.commandError(ErrCodeJournal, "open journal", err)
		}
		defer st.Close()
		rcvOpts = append(rcvOpts, receiver.WithJournal(st))
		formatter.VerboseLog("Journaling receipts to %s", journalPath)
	}

	q := queue.New()
	rcv := receiver.New(parser.New(), validator.New(), q, rcvOpts...)

	result := IngestResult{
		Source:     source,
		Rejections: []LineRejection{},
	}

	err = eachLine(in, func(n int, line string) (bool, error) {
		rerr := rcv.Receive(ctx, line)
		if rerr == nil {
			return true, nil
		}
		if receiver.IsJournalError(rerr) {
			return false, rerr
		}
		rej, ok := rejection(n, rerr)
		if !ok {
			return false, rerr
		}
		result.Rejections = append(result.Rejections, rej)
		return !opts.FailFast, nil
	})
	if err != nil {
		if receiver.IsJournalError(err) {
			return formatter.commandError(ErrCodeJournal, "ingest", err)
		}
		return formatter.commandError(ErrCodeInput, "ingest", err)
	}

	stats := rcv.Stats()
	result.Accepted = stats.Accepted
	result.Rejected = stats.Rejected
	result.instructions = q.Drain()
	result.Drained = make([]map[string]any, len(result.instructions))
	for i, inst := range result.instructions {
		result.Drained[i] = inst.Object()
	}

	if result.Rejected > 0 {
		msg := fmt.Sprintf("%d line(s) rejected", result.Rejected)
		if formatter.JSON() {
			_ = formatter.Failure(result.Rejections[0].Code, msg, result)
		} else {
			printIngestText(formatter.Writer, result)
		}
		return NewExitError(ExitFailure, msg)
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	printIngestText(formatter.Writer, result)
	return nil
}

// rejection converts a parse or validation error into a report entry.
func rejection(n int, err error) (LineRejection, bool) {
	kind, code, msg := receiver.Classify(err)
	if kind == "" {
		return LineRejection{}, false
	}
	return LineRejection{Line: n, Kind: string(kind), Code: code, Message: msg}, true
}

func printRejections(w io.Writer, rejections []LineRejection) {
	for _, rej := range rejections {
		fmt.Fprintf(w, "line %d: rejected [%s] %s\n", rej.Line, rej.Code, rej.Message)
	}
}

func printIngestText(w io.Writer, r IngestResult) {
	printRejections(w, r.Rejections)
	if len(r.Rejections) > 0 {
		fmt.Fprintln(w)
	}
	for _, inst := range r.instructions {
		fmt.Fprintf(w, "%-6s %s\n", inst.Priority(), inst)
	}
	fmt.Fprintf(w, "%d accepted, %d rejected (%s)\n", r.Accepted, r.Rejected, r.Source)
}
