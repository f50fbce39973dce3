package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	cmsadmin "github.com/goliatone/go-cms-admin"
)

func (a *app) serveCommand() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mod, err := a.module(cmd, func(cfg *cmsadmin.Config) {
				cfg.Features.Dashboard = true
				if basePath != "" {
					cfg.Dashboard.BasePath = basePath
				}
			})
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return mod.Serve(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides dashboard.addr")
	cmd.Flags().StringVar(&basePath, "base-path", "", "mount path, overrides dashboard.base_path")
	return cmd
}
