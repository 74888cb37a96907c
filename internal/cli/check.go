package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/instrq/internal/parser"
	"github.com/roach88/instrq/internal/validator"
)

// CheckResult holds check results.
type CheckResult struct {
	Source     string          `json:"source"`
	Lines      int             `json:"lines"`
	Valid      int             `json:"valid"`
	Rejections []LineRejection `json:"rejections"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [file]",
		Short: "Parse and validate lines without queueing them",
		Long: `Parse and validate every line of file (or stdin) and report the lines
that would be rejected. Nothing is queued or journaled.

Exit codes:
  0 - Every line valid
  1 - One or more lines invalid
  2 - Command error (unreadable input)`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runCheck(opts *RootOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	in, source, err := openInput(cmd, args)
	if err != nil {
		return formatter.commandError(ErrCodeInput, "open input", err)
	}
	defer in.Close()

	p := parser.New()
	v := validator.New()
	result := CheckResult{Source: source, Rejections: []LineRejection{}}

	err = eachLine(in, func(n int, line string) (bool, error) {
		result.Lines++
		inst, err := p.Parse(line)
		if err == nil {
			err = v.Validate(inst)
		}
		if err != nil {
			rej, _ := rejection(n, err)
			result.Rejections = append(result.Rejections, rej)
			formatter.VerboseLog("line %d: %s", n, rej.Code)
			return true, nil
		}
		result.Valid++
		return true, nil
	})
	if err != nil {
		return formatter.commandError(ErrCodeInput, "check", err)
	}

	if len(result.Rejections) > 0 {
		msg := fmt.Sprintf("%d of %d line(s) invalid", len(result.Rejections), result.Lines)
		if formatter.JSON() {
			_ = formatter.Failure(result.Rejections[0].Code, msg, result)
		} else {
			printRejections(formatter.Writer, result.Rejections)
			fmt.Fprintf(formatter.Writer, "✗ %s\n", msg)
		}
		return NewExitError(ExitFailure, msg)
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ %d line(s) valid\n", result.Valid)
	return nil
}
