package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/tide/internal/demo"
	"github.com/vango-dev/tide/internal/errors"
	"github.com/vango-dev/tide/pkg/render"
	"github.com/vango-dev/tide/pkg/server"
	"github.com/vango-dev/tide/pkg/snapshot"
)

func renderCmd(opts *rootOptions) *cobra.Command {
	var (
		out    string
		pretty bool
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the demo once",
		Long: `Render the demo application once on a throwaway runtime.

Without --out the HTML is printed. With --out it is stored under that
key in the configured snapshot store.

Examples:
  tide render
  tide render --pretty
  tide render --out home/index`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, opts, out, pretty)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Snapshot key to store the HTML under")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent the printed HTML")

	return cmd
}

func runRender(cmd *cobra.Command, opts *rootOptions, out string, pretty bool) error {
	if out != "" {
		if err := snapshot.ValidateKey(out); err != nil {
			return errors.New("E182").WithDetail(out).Wrap(err)
		}
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}

	doc, err := server.RenderDocument(demo.App(demo.Options{}))
	if err != nil {
		return errors.New("E141").Wrap(err)
	}

	if out == "" {
		r := render.NewRenderer(render.RendererConfig{Pretty: pretty})
		html, err := r.RenderToString(doc.Root())
		if err != nil {
			return errors.New("E141").Wrap(err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), html)
		return nil
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer snapshot.Close(store)

	if err := snapshot.Capture(cmd.Context(), store, out, doc.Root()); err != nil {
		return errors.New("E181").WithDetail(cfg.Snapshot.Backend).Wrap(err)
	}
	success(cmd.OutOrStdout(), "stored %s in %s snapshot store", out, cfg.Snapshot.Backend)
	return nil
}
