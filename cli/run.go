package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/quill-labs/quillflow"
	"github.com/quill-labs/quillflow/llm"
	"github.com/quill-labs/quillflow/loader"
	"github.com/quill-labs/quillflow/store"
)

// NewRunCmd creates the "run" subcommand.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Execute a pipeline file headlessly",
		Args:  cobra.ExactArgs(1),
		RunE:  runRun,
	}

	cmd.Flags().StringP("input", "i", "", "Seed variables as inline JSON object")
	cmd.Flags().StringP("output", "o", "", "Write the run record to file (default: stdout)")
	cmd.Flags().Duration("timeout", 5*time.Minute, "Execution timeout")
	cmd.Flags().String("provider", "stub", "LLM provider: openai | anthropic | stub")
	cmd.Flags().String("model", "", "Model identifier (provider default when empty)")
	cmd.Flags().String("store-path", "", "Persist the run to a SQLite store at this path")
	cmd.Flags().String("project", "", "Project scope recorded on the run")
	cmd.Flags().Bool("verbose", false, "Enable debug logging")

	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
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

	vars, err := parseSeedVars(cmd)
	if err != nil {
		return err
	}

	client, err := buildClient(cmd)
	if err != nil {
		return err
	}

	logger := zerolog.Nop()
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		logger = zerolog.New(cmd.ErrOrStderr()).With().Timestamp().Logger()
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	engine := quillflow.NewEngine(client, quillflow.EngineConfig{Logger: logger})

	projectID, _ := cmd.Flags().GetString("project")
	run, err := engine.Execute(ctx, p, quillflow.ExecuteOptions{
		ProjectID: projectID,
		Vars:      vars,
	})
	if err != nil && run == nil {
		return exitError(exitRuntime, "executing pipeline: %v", err)
	}

	if storePath, _ := cmd.Flags().GetString("store-path"); storePath != "" && run != nil {
		runStore, storeErr := store.NewSQLiteRunStore(storePath)
		if storeErr != nil {
			return exitError(exitRuntime, "opening run store: %v", storeErr)
		}
		defer runStore.Close()
		if saveErr := runStore.Save(ctx, run); saveErr != nil {
			return exitError(exitRuntime, "saving run: %v", saveErr)
		}
	}

	if writeErr := writeRun(cmd, run); writeErr != nil {
		return writeErr
	}

	if err != nil {
		return exitError(exitRuntime, "run %s failed: %v", run.ID, err)
	}
	return nil
}

func parseSeedVars(cmd *cobra.Command) (map[string]any, error) {
	raw, _ := cmd.Flags().GetString("input")
	if raw == "" {
		return nil, nil
	}
	var vars map[string]any
	if err := json.Unmarshal([]byte(raw), &vars); err != nil {
		return nil, exitError(exitInputParse, "parsing --input: %v", err)
	}
	return vars, nil
}

func buildClient(cmd *cobra.Command) (llm.Client, error) {
	provider, _ := cmd.Flags().GetString("provider")
	model, _ := cmd.Flags().GetString("model")

	switch provider {
	case "openai":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, exitError(exitRuntime, "OPENAI_API_KEY is not set")
		}
		return llm.NewOpenAIClient(llm.OpenAIConfig{APIKey: key, Model: model}), nil
	case "anthropic":
		key := os.Getenv("ANTHROPIC_API_KEY")
		if key == "" {
			return nil, exitError(exitRuntime, "ANTHROPIC_API_KEY is not set")
		}
		return llm.NewAnthropicClient(llm.AnthropicConfig{APIKey: key, Model: model}), nil
	case "stub":
		return &llm.StubClient{}, nil
	default:
		return nil, exitError(exitInputParse, "unknown provider %q", provider)
	}
}

func writeRun(cmd *cobra.Command, run *quillflow.Run) error {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return exitError(exitRuntime, "encoding run: %v", err)
	}
	data = append(data, '\n')

	if outPath, _ := cmd.Flags().GetString("output"); outPath != "" {
		if err := os.WriteFile(outPath, data, 0o644); err != nil {
			return exitError(exitRuntime, "writing output: %v", err)
		}
		return nil
	}

	_, err = cmd.OutOrStdout().Write(data)
	if err != nil {
		return fmt.Errorf("writing run: %w", err)
	}
	return nil
}
