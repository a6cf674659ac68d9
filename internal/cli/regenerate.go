package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/farellandr/eventease/internal/qr"
	"github.com/farellandr/eventease/internal/server"
	"github.com/farellandr/eventease/internal/ticketing"
)

func NewRegenerateQRCommand() *cobra.Command {
	var batch int

	cmd := &cobra.Command{
		Use:   "regenerate-qr",
		Short: "Render QR images for tickets still marked pending",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := bootstrap()
			if err != nil {
				return err
			}
			renderer, err := server.NewRenderer(cfg)
			if err != nil {
				return err
			}

			queue := ticketing.NewPendingTickets(db)
			regen := qr.NewRegenerator(renderer, queue, batch)

			total := 0
			for {
				n, err := regen.RunOnce(cmd.Context())
				if err != nil {
					return err
				}
				total += n
				// a batch with no successes means the rest keep failing
				if n == 0 {
					break
				}
			}

			left, err := queue.CountPending(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rendered %d images, %d still pending\n", total, left)
			return nil
		},
	}

	cmd.Flags().IntVar(&batch, "batch", 100, "tickets rendered per pass")
	return cmd
}
