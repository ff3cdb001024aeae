package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quill-labs/quillflow"
	"github.com/quill-labs/quillflow/loader"
)

// NewValidateCmd creates the "validate" subcommand.
func NewValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a pipeline file without executing it",
		Args:  cobra.ExactArgs(1),
		RunE:  runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := args[0]

	p, err := loader.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return exitError(exitFileNotFound, "file not found: %s", path)
		}
		var diagErr *quillflow.DiagnosticError
		if errors.As(err, &diagErr) {
			printDiagnostics(cmd, diagErr.Diagnostics)
			return exitError(exitValidation, "pipeline is invalid")
		}
		return exitError(exitInputParse, "loading pipeline: %v", err)
	}

	if diags := p.Validate(); len(diags) > 0 {
		printDiagnostics(cmd, diags)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "pipeline %q is valid: %d nodes, %d edges\n", p.ID, len(p.Nodes), len(p.Edges))
	return nil
}

func printDiagnostics(cmd *cobra.Command, diags []quillflow.Diagnostic) {
	for _, d := range diags {
		out := cmd.OutOrStdout()
		if d.Severity == quillflow.SeverityError {
			out = cmd.ErrOrStderr()
		}
		if d.Path != "" {
			fmt.Fprintf(out, "%s %s: %s (%s)\n", d.Severity, d.Code, d.Message, d.Path)
		} else {
			fmt.Fprintf(out, "%s %s: %s\n", d.Severity, d.Code, d.Message)
		}
	}
}
