package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/agencyops/agencyops/internal/proposals"
)

func newQuoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price proposal forms",
	}

	var file, format string
	preview := &cobra.Command{
		Use:   "preview",
		Short: "Price a proposal form read from a JSON file or stdin",
		Long: `Reads a proposal form in the same JSON shape the API accepts and prints
the resulting subtotal, discount, total and payment schedule.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			return runQuotePreview(cmd, in, format)
		},
	}
	preview.Flags().StringVarP(&file, "file", "f", "-", "proposal form JSON (- for stdin)")
	preview.Flags().StringVar(&format, "format", "text", "output format: text or json")

	cmd.AddCommand(preview)
	return cmd
}

func runQuotePreview(cmd *cobra.Command, in io.Reader, format string) error {
	var req proposals.ProposalRequest
	dec := json.NewDecoder(in)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return fmt.Errorf("decode proposal form: %w", err)
	}
	if err := validator.New().Struct(req); err != nil {
		return fmt.Errorf("%w: %v", proposals.ErrValidation, err)
	}

	svc := proposals.NewService(nil, nil, nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	result, err := svc.Preview(cmd.Context(), req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "months\t%d\n", result.MonthCount)
	fmt.Fprintf(tw, "monthly subtotal\t%.2f\n", result.MonthlySubtotal)
	fmt.Fprintf(tw, "subtotal\t%.2f\n", result.SubtotalBeforeDiscount)
	fmt.Fprintf(tw, "discount\t%.2f (%.2f%%)\n", result.DiscountAmount, result.DiscountPercentage)
	fmt.Fprintf(tw, "total\t%.2f\n", result.TotalValue)
	for _, entry := range result.PaymentSchedule {
		fmt.Fprintf(tw, "installment %d\t%.2f due %s\n", entry.Index, entry.Amount, entry.DueDate.Format("2006-01-02"))
	}
	return tw.Flush()
}
