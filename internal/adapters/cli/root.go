// Package cli implements the invoicectl command tree.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kirillkom/invoice-assistant/internal/bootstrap"
	"github.com/kirillkom/invoice-assistant/internal/config"
	"github.com/kirillkom/invoice-assistant/internal/core/domain"
	"github.com/kirillkom/invoice-assistant/internal/observability/logging"
)

var version = "1.0.0"

// NewRootCmd builds the invoicectl command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "invoicectl",
		Short: "Extract invoices and ask questions about them from the command line",
		Long: `invoicectl runs the invoice extraction pipeline and the question
answering cascade locally, without the HTTP API.

Answers use the remote tiers configured in the environment (or a .env
file) and fall back to the built-in rules.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newExtractCmd(), newAskCmd())
	return root
}

func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract [file]",
		Short: "Extract invoice fields from a PDF, image or text file",
		Example: `  invoicectl extract Tesla_Invoice.pdf
  invoicectl extract invoice.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newLocalApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer app.Close()

			view, err := addFile(cmd.Context(), app, args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), view)
		},
	}
}

func newAskCmd() *cobra.Command {
	var (
		sample bool
		files  []string
	)
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a question about sample or local invoices",
		Example: `  invoicectl ask "What is the total amount?" --sample
  invoicectl ask "Which invoices are overdue?" --file a.pdf --file b.pdf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newLocalApp(cmd.Context(), sample)
			if err != nil {
				return err
			}
			defer app.Close()

			for _, path := range files {
				if _, err := addFile(cmd.Context(), app, path); err != nil {
					return err
				}
			}
			answer, err := app.Answers.Ask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), answer.Text)
			slog.Debug("answer_tier", "tier", answer.Tier, "fallbacks", len(answer.Fallbacks))
			return nil
		},
	}
	cmd.Flags().BoolVar(&sample, "sample", false, "Load the sample invoices first")
	cmd.Flags().StringSliceVar(&files, "file", nil, "Invoice file to add before asking (repeatable)")
	return cmd
}

// newLocalApp boots the pipeline without archival or event publishing.
func newLocalApp(ctx context.Context, sample bool) (*bootstrap.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logging.NewStderrLogger("invoicectl", cfg.LogLevel))

	cfg.StorageBackend = "none"
	cfg.NATSURL = ""
	cfg.LoadSampleOnStart = sample
	return bootstrap.New(ctx, cfg)
}

func addFile(ctx context.Context, app *bootstrap.App, path string) (*domain.InvoiceView, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	name := filepath.Base(path)
	if domain.AllowedUploadExtension(name) {
		return app.Invoices.Upload(ctx, name, "", f)
	}
	text, err := io.ReadAll(io.LimitReader(f, domain.MaxUploadBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return app.Invoices.AddText(ctx, string(text), name)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
