// Package cli wires the cmsadmin command tree.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	cmsadmin "github.com/goliatone/go-cms-admin"
	"github.com/goliatone/go-cms-admin/internal/resources"
	"github.com/goliatone/go-cms-admin/internal/runtimeconfig"
)

var (
	ErrUnknownOutput = errors.New("cli: unknown output format")
	ErrSingletonOnly = errors.New("cli: resource keeps a single record")
)

type globalOptions struct {
	configFile string
	envFiles   []string
	apiURL     string
	output     string
}

type app struct {
	opts    globalOptions
	version string
}

// NewRootCommand builds the cmsadmin command tree.
func NewRootCommand(version string) *cobra.Command {
	a := &app{version: version}

	root := &cobra.Command{
		Use:   "cmsadmin",
		Short: "Admin dashboard and tooling for the gym CMS backend",
		Long: `cmsadmin serves the content dashboard and exposes the same resources
from the command line: list, inspect, import, hide and delete records.

Configuration is read from --config (or ./cmsadmin.yaml), optional .env files
and CMSADMIN_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.opts.configFile, "config", "c", "", "config file (default is ./cmsadmin.yaml)")
	flags.StringSliceVar(&a.opts.envFiles, "env-file", nil, ".env files loaded before the environment is read")
	flags.StringVar(&a.opts.apiURL, "api-url", "", "REST backend base url, overrides api.base_url")
	flags.StringVarP(&a.opts.output, "output", "o", "json", "output format: json, yaml or toml")

	root.AddCommand(
		a.serveCommand(),
		a.resourcesCommand(),
		a.listCommand(),
		a.getCommand(),
		a.deleteCommand(),
		a.visibilityCommand(),
		a.importCommand(),
		a.versionCommand(),
	)
	return root
}

func (a *app) loadConfig(cmd *cobra.Command) (cmsadmin.Config, error) {
	cfg, err := runtimeconfig.Load(runtimeconfig.LoadOptions{
		File:     a.opts.configFile,
		EnvFiles: a.opts.envFiles,
	})
	if err != nil {
		return cmsadmin.Config{}, err
	}
	if cmd.Flags().Changed("api-url") {
		cfg.API.BaseURL = a.opts.apiURL
	}
	return cfg, nil
}

func (a *app) module(cmd *cobra.Command, configure ...func(*cmsadmin.Config)) (*cmsadmin.Module, error) {
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	for _, fn := range configure {
		fn(&cfg)
	}
	return cmsadmin.New(cfg)
}

func (a *app) resource(cmd *cobra.Command, key string) (*cmsadmin.Module, resources.Module, error) {
	mod, err := a.module(cmd)
	if err != nil {
		return nil, nil, err
	}
	res, err := mod.Resource(key)
	if err != nil {
		return nil, nil, fmt.Errorf("%w (known: %v)", err, mod.Resources().Keys())
	}
	return mod, res, nil
}
