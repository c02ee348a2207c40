// Command tide serves and renders the demo application.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/tide/internal/config"
	"github.com/vango-dev/tide/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootOptions are the flags shared by every command.
type rootOptions struct {
	configPath string
}

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		errors.Fprint(cmd.ErrOrStderr(), err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "tide",
		Short: "Reactive server-rendered UI engine",
		Long: `Tide renders reactive component trees on the server and keeps
them live in the browser over a WebSocket.

Configuration is read from tide.yaml, tide.yml or tide.json in the
current directory, or from the path given with --config.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file or directory")

	root.AddCommand(
		serveCmd(opts),
		renderCmd(opts),
		snapshotCmd(opts),
		initCmd(),
		versionCmd(),
	)
	return root
}

// loadConfig resolves --config: a file is loaded directly, a directory is
// searched for a config file, and with no flag the working directory is
// searched with defaults as the fallback.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if !config.Exists(".") {
			return config.New(), nil
		}
		return config.Load(".")
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.New("E120").
			WithDetail(fmt.Sprintf("cannot read %s", path)).
			Wrap(err)
	}
	if info.IsDir() {
		return config.Load(path)
	}
	return config.LoadFile(filepath.Clean(path))
}

// success prints a confirmation line.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}
