package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/graceseason/storefront/internal/coordinator/finalizelog"
)

func newRootCmd(open opener) *cobra.Command {
	var d *deps

	root := &cobra.Command{
		Use:   "finalize-replay",
		Short: "Inspect and replay pending order finalizes",
		Long: `Inspect the finalize log and resubmit commerce orders for verified
payments whose finalize did not complete.

Available subcommands:
  list   - List payments whose latest record is STARTED or FAILED
  replay - Resubmit one payment, or every pending one with --all
  status - Show the latest record of a payment`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			d, err = open(cmd.Context())
			return err
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if d == nil || d.close == nil {
				return nil
			}
			return d.close()
		},
	}

	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List pending finalizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pending, err := d.log.ListPending(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printRecords(cmd.OutOrStdout(), pending)
			return nil
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 100, "maximum number of records")

	var all bool
	replayCmd := &cobra.Command{
		Use:   "replay [paymentId]",
		Short: "Resubmit pending finalizes",
		Args: func(_ *cobra.Command, args []string) error {
			if all && len(args) > 0 {
				return errors.New("pass a payment id or --all, not both")
			}
			if !all && len(args) != 1 {
				return errors.New("a payment id or --all is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := args
			if all {
				pending, err := d.log.ListPending(cmd.Context(), limit)
				if err != nil {
					return err
				}
				ids = make([]string, 0, len(pending))
				for _, rec := range pending {
					ids = append(ids, rec.PaymentID)
				}
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, id := range ids {
				placed, err := d.pipeline.Replay(cmd.Context(), id)
				if err != nil {
					failed++
					fmt.Fprintf(out, "%s\tFAILED\t%v\n", id, err)
					continue
				}
				how := "submitted"
				if placed.Replayed {
					how = "already placed"
				}
				fmt.Fprintf(out, "%s\t%s\torder %d (#%d)\n", id, how, placed.OrderID, placed.OrderNumber)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d replays failed", failed, len(ids))
			}
			return nil
		},
	}
	replayCmd.Flags().BoolVar(&all, "all", false, "replay every pending payment")
	replayCmd.Flags().IntVar(&limit, "limit", 100, "maximum number of payments with --all")

	statusCmd := &cobra.Command{
		Use:   "status <paymentId>",
		Short: "Show the latest finalize record of a payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := d.log.GetLatest(cmd.Context(), args[0])
			if errors.Is(err, finalizelog.ErrNotFound) {
				return fmt.Errorf("no finalize record for %s", args[0])
			}
			if err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), rec)
			return nil
		},
	}

	root.AddCommand(listCmd, replayCmd, statusCmd)
	return root
}

func printRecords(w io.Writer, recs []*finalizelog.Record) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PAYMENT ID\tSTATUS\tSTEP\tUPDATED\tERRORS")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.PaymentID, r.Status, dash(r.CurrentStep), r.UpdatedAt.Format(time.RFC3339), dash(strings.Join(r.Errors(), "; ")))
	}
	_ = tw.Flush()
}

func printStatus(w io.Writer, r *finalizelog.Record) {
	fmt.Fprintf(w, "payment:  %s\n", r.PaymentID)
	fmt.Fprintf(w, "status:   %s\n", r.Status)
	fmt.Fprintf(w, "step:     %s\n", dash(r.CurrentStep))
	fmt.Fprintf(w, "result:   %s\n", dash(r.Result))
	fmt.Fprintf(w, "errors:   %s\n", dash(strings.Join(r.Errors(), "; ")))
	fmt.Fprintf(w, "trace:    %s\n", dash(r.TraceID))
	fmt.Fprintf(w, "updated:  %s\n", r.UpdatedAt.Format(time.RFC3339))
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
