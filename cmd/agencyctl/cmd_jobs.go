package main

import (
	"errors"
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/agencyops/agencyops/jobs"
)

func newJobsCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Enqueue jobs and inspect queues",
	}

	var proposalID, companyID int64
	trigger := &cobra.Command{
		Use:       "trigger <contract-render|pipeline-warmup>",
		Short:     "Enqueue a background job",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"contract-render", "pipeline-warmup"},
		RunE: func(cmd *cobra.Command, args []string) error {
			client := jobs.NewClient(asynq.RedisClientOpt{Addr: flags.redisAddr}, slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil)))
			defer client.Close()

			var (
				info *asynq.TaskInfo
				err  error
			)
			switch args[0] {
			case "contract-render":
				if proposalID <= 0 {
					return errors.New("--proposal is required")
				}
				info, err = client.EnqueueContractRender(cmd.Context(), jobs.ContractRenderPayload{ProposalID: proposalID, RequestID: "agencyctl"})
			case "pipeline-warmup":
				info, err = client.EnqueuePipelineWarmup(cmd.Context(), jobs.PipelineWarmupPayload{CompanyID: companyID})
			default:
				return fmt.Errorf("unsupported job %q", args[0])
			}
			if err != nil {
				return err
			}
			if info == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "already queued")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s on %s (id %s)\n", info.Type, info.Queue, info.ID)
			return nil
		},
	}
	trigger.Flags().Int64Var(&proposalID, "proposal", 0, "proposal id for contract-render")
	trigger.Flags().Int64Var(&companyID, "company", 0, "limit pipeline-warmup to one company")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show queue sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: flags.redisAddr})
			defer inspector.Close()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "QUEUE\tPENDING\tACTIVE\tSCHEDULED\tRETRY")
			for _, queue := range []string{jobs.QueueDocuments, jobs.QueueDefault} {
				info, err := inspector.GetQueueInfo(queue)
				if errors.Is(err, asynq.ErrQueueNotFound) {
					fmt.Fprintf(tw, "%s\t0\t0\t0\t0\n", queue)
					continue
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n", queue, info.Pending, info.Active, info.Scheduled, info.Retry)
			}
			return tw.Flush()
		},
	}

	cmd.AddCommand(trigger, stats)
	return cmd
}
