package main

import (
	stderrors "errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/tide/internal/config"
	"github.com/vango-dev/tide/internal/errors"
	"github.com/vango-dev/tide/pkg/snapshot"
)

func snapshotCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Inspect stored snapshots",
		Long: `Inspect the snapshot store named in the config file.

Examples:
  tide snapshot list
  tide snapshot get home/index
  tide snapshot rm home/index`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List snapshot keys",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStore(opts, func(store snapshot.Store) error {
					keys, err := store.List(cmd.Context())
					if err != nil {
						return storeError(err)
					}
					for _, k := range keys {
						fmt.Fprintln(cmd.OutOrStdout(), k)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print a snapshot",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStore(opts, func(store snapshot.Store) error {
					html, err := snapshot.Load(cmd.Context(), store, args[0])
					if err != nil {
						return storeError(err).WithDetail(args[0])
					}
					fmt.Fprintln(cmd.OutOrStdout(), html)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "rm <key>",
			Short: "Delete a snapshot",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStore(opts, func(store snapshot.Store) error {
					if err := store.Delete(cmd.Context(), args[0]); err != nil {
						return storeError(err).WithDetail(args[0])
					}
					success(cmd.OutOrStdout(), "deleted %s", args[0])
					return nil
				})
			},
		},
	)
	return cmd
}

// withStore opens the configured store for the duration of fn.
func withStore(opts *rootOptions, fn func(snapshot.Store) error) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer snapshot.Close(store)
	return fn(store)
}

func openStore(cfg *config.Config) (snapshot.Store, error) {
	store, err := snapshot.Open(cfg.SnapshotConfig())
	if err != nil {
		if stderrors.Is(err, snapshot.ErrUnknownBackend) {
			return nil, errors.New("E123").WithDetail(cfg.Snapshot.Backend).Wrap(err)
		}
		return nil, errors.New("E181").WithDetail(cfg.Snapshot.Backend).Wrap(err)
	}
	return store, nil
}

// storeError maps store sentinels to their codes.
func storeError(err error) *errors.TideError {
	switch {
	case stderrors.Is(err, snapshot.ErrNotFound):
		return errors.New("E180").Wrap(err)
	case stderrors.Is(err, snapshot.ErrInvalidKey):
		return errors.New("E182").Wrap(err)
	default:
		return errors.New("E181").Wrap(err)
	}
}
