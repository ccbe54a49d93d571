package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/MarcGrol/shopfront/lib/myconfig"
	"github.com/MarcGrol/shopfront/lib/mycontext"
	"github.com/MarcGrol/shopfront/lib/myuuid"
	"github.com/MarcGrol/shopfront/services/storefront"
)

type options struct {
	envFile    string
	jsonOutput bool
}

type action func(c context.Context, sf *storefront.Storefront) (any, func(w io.Writer), error)

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "shopctl",
		Short: "Storefront client",
		Long: `shopctl is a command-line storefront: it keeps an anonymous cart on disk, logs in,
moves that cart to the server and places orders.

Environment Variables:
  SHOPFRONT_GATEWAY_URL  Backend URL (default: http://localhost:8080)
  SHOPFRONT_DATA_DIR     Where the credential and the anonymous cart are kept`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Optional file with environment variables")
	rootCmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "Output JSON instead of human-readable text")

	rootCmd.AddCommand(
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newStatusCmd(opts),
		newCartCmd(opts),
		newCheckoutCmd(opts),
		newOrdersCmd(opts),
		newProfileCmd(opts),
	)

	return rootCmd
}

// run builds a storefront for one command, executes f and prints its result.
// Pending quantity changes are sent before the command returns.
func (o *options) run(cmd *cobra.Command, f action) error {
	c := mycontext.WithTrace(cmd.Context(), myuuid.RealUUIDer{}.Create())

	cfg, err := myconfig.Load(o.envFile)
	if err != nil {
		return err
	}
	if cfg.DataDir == "" {
		cfg.DataDir, err = defaultDataDir()
		if err != nil {
			return err
		}
	}

	sf, cleanup, err := storefront.New(c, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	err = sf.Start(c)
	if err != nil {
		sf.Close()
		return err
	}

	result, human, err := f(c, sf)
	sf.Close()

	for _, n := range sf.Notifications.Drain() {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", n.Level, n.Message)
	}
	if err != nil {
		return err
	}

	return o.print(cmd.OutOrStdout(), result, human)
}

func (o *options) print(w io.Writer, result any, human func(w io.Writer)) error {
	if o.jsonOutput || human == nil {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("error formatting output: %w", err)
		}
		fmt.Fprintln(w, string(data))
		return nil
	}
	human(w)
	return nil
}

func defaultDataDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("error finding config directory: %w", err)
	}
	return filepath.Join(dir, "shopfront"), nil
}
