package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/tableside-backend/internal/sessions"
	"github.com/angelmondragon/tableside-backend/pkg/tablelink"
)

type joinOptions struct {
	IdentityFile string
	Offline      bool
}

func newJoinCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &joinOptions{}

	cmd := &cobra.Command{
		Use:   "join [table-link]",
		Short: "Resolve the diner session for a scanned table link",
		Long: `Resolve which table session this device belongs to. Parameters in the
link win; otherwise the session remembered in the identity file is reused
until it is paid or closed. A new session id is minted when nothing usable
is known. Unless --offline is set, the session is looked up (and opened for
fresh table scans) in the configured store.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := ""
			if len(args) == 1 {
				raw = args[0]
			}
			return runJoin(cmd, rootOpts, opts, raw)
		},
	}

	cmd.Flags().StringVar(&opts.IdentityFile, "identity-file", defaultIdentityFile(), "where the device identity is persisted")
	cmd.Flags().BoolVar(&opts.Offline, "offline", false, "resolve from the identity file only")
	return cmd
}

func runJoin(cmd *cobra.Command, rootOpts *rootOptions, opts *joinOptions, raw string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var link tablelink.Link
	if raw != "" {
		parsed, err := tablelink.Parse(raw)
		if err != nil {
			return err
		}
		link = parsed
	}

	var service sessions.Service
	if !opts.Offline {
		_, platform, err := rootOpts.openPlatform(ctx, cmd)
		if err != nil {
			return err
		}
		defer platform.Close()
		service, err = sessions.NewService(platform.Store, platform.Locker, sessions.Options{
			Publisher: platform.Publisher,
			Logger:    rootOpts.logger(cmd),
		})
		if err != nil {
			return err
		}
	}

	// A nil service leaves the resolver trusting the persisted status.
	resolver, err := sessions.NewResolver(sessions.NewFileIdentityStore(opts.IdentityFile), service)
	if err != nil {
		return err
	}

	identity, err := resolver.Resolve(ctx, link)
	if errors.Is(err, sessions.ErrNoSession) {
		return fmt.Errorf("the last session on this device has ended; scan a table code to start a new one")
	}
	if err != nil {
		return err
	}

	if service != nil && identity.Status == "" && identity.RestaurantID > 0 && identity.TableNumber > 0 {
		session, err := service.CreateTableSession(ctx, sessions.CreateInput{
			RestaurantID: identity.RestaurantID,
			TableNumber:  identity.TableNumber,
			SessionID:    identity.SessionID,
		})
		if err != nil {
			return err
		}
		identity.Status = session.Status
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(identity)
}

func defaultIdentityFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "tableside-identity.yaml"
	}
	return filepath.Join(dir, "tableside", "identity.yaml")
}
