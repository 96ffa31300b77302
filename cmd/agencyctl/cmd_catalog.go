package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/agencyops/agencyops/internal/catalog"
	"github.com/agencyops/agencyops/internal/platform/db"
)

func newCatalogCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the service catalog",
	}

	var companyID int64
	importCmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Upsert catalog items from a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if companyID <= 0 {
				return fmt.Errorf("--company is required")
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			pool, err := db.New(cmd.Context(), flags.dsn)
			if err != nil {
				return err
			}
			defer pool.Close()

			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
			svc := catalog.NewService(catalog.NewRepository(pool), logger)
			result, err := svc.Import(cmd.Context(), companyID, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %d, updated %d\n", result.Created, result.Updated)
			return nil
		},
	}
	importCmd.Flags().Int64Var(&companyID, "company", 0, "company that owns the catalog")

	cmd.AddCommand(importCmd)
	return cmd
}
