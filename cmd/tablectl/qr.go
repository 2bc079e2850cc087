package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/tableside-backend/pkg/tablelink"
)

type qrOptions struct {
	BaseURL      string
	RestaurantID int64
	Table        int
	Size         int
	Out          string
}

func newQRCommand(_ *rootOptions) *cobra.Command {
	opts := &qrOptions{}

	cmd := &cobra.Command{
		Use:   "qr",
		Short: "Write the PNG QR code for one table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQR(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.BaseURL, "base-url", envOr("TABLESIDE_PUBLIC_BASE_URL", "http://localhost:5173"), "diner app base url")
	cmd.Flags().Int64Var(&opts.RestaurantID, "restaurant", 0, "restaurant id")
	cmd.Flags().IntVar(&opts.Table, "table", 0, "table number")
	cmd.Flags().IntVar(&opts.Size, "size", tablelink.DefaultQRSize, "image size in pixels")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "output file (defaults to table-<n>.png)")
	_ = cmd.MarkFlagRequired("restaurant")
	_ = cmd.MarkFlagRequired("table")

	return cmd
}

func runQR(cmd *cobra.Command, opts *qrOptions) error {
	if opts.RestaurantID < 1 || opts.Table < 1 {
		return fmt.Errorf("restaurant and table must be positive")
	}
	link := tablelink.Link{RestaurantID: opts.RestaurantID, TableNumber: opts.Table}
	url, err := tablelink.Build(opts.BaseURL, link)
	if err != nil {
		return err
	}
	png, err := tablelink.QRCode(opts.BaseURL, link, opts.Size)
	if err != nil {
		return err
	}

	out := opts.Out
	if out == "" {
		out = fmt.Sprintf("table-%d.png", opts.Table)
	}
	if err := os.WriteFile(out, png, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", url, out)
	return nil
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
