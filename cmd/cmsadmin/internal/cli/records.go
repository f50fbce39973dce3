package cli

import (
	"fmt"

	"github.com/goliatone/go-command/dispatcher"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-cms-admin/internal/apiclient"
	"github.com/goliatone/go-cms-admin/internal/commands/records"
)

type resourceInfo struct {
	Key        string `json:"key"`
	Label      string `json:"label"`
	Endpoint   string `json:"endpoint"`
	Singleton  bool   `json:"singleton"`
	Visibility bool   `json:"visibility"`
	SoftDelete bool   `json:"softDelete"`
}

func (a *app) resourcesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resources",
		Short: "List the manageable resources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mod, err := a.module(cmd)
			if err != nil {
				return err
			}
			var out []resourceInfo
			for _, m := range mod.Resources().All() {
				def := m.Definition()
				out = append(out, resourceInfo{
					Key:        def.Key,
					Label:      def.Label,
					Endpoint:   def.Endpoint,
					Singleton:  def.Singleton,
					Visibility: def.Visibility,
					SoftDelete: def.SoftDelete,
				})
			}
			return writeOutput(cmd.OutOrStdout(), a.opts.output, map[string]any{"resources": out})
		},
	}
}

func (a *app) listCommand() *cobra.Command {
	var q apiclient.ListQuery
	cmd := &cobra.Command{
		Use:   "list <resource>",
		Short: "Print a page of records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, res, err := a.resource(cmd, args[0])
			if err != nil {
				return err
			}
			page, err := res.Records(cmd.Context(), q)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), a.opts.output, page)
		},
	}
	cmd.Flags().IntVar(&q.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&q.Limit, "limit", 10, "records per page")
	cmd.Flags().StringVar(&q.SearchTerm, "search", "", "search term")
	return cmd
}

func (a *app) getCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <resource> [id]",
		Short: "Print one record",
		Long:  "Print one record. Single-record sections need no id.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, res, err := a.resource(cmd, args[0])
			if err != nil {
				return err
			}
			id := ""
			if len(args) > 1 {
				id = args[1]
			} else if !res.Definition().Singleton {
				return fmt.Errorf("get %s: id is required", args[0])
			}
			rec, err := res.Record(cmd.Context(), id)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), a.opts.output, rec)
		},
	}
}

func (a *app) deleteCommand() *cobra.Command {
	var (
		key     string
		retries int
	)
	cmd := &cobra.Command{
		Use:   "delete <resource> <id>",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mod, _, err := a.resource(cmd, args[0])
			if err != nil {
				return err
			}
			unsubscribe := mod.Container().SubscribeCommands(retries)
			defer unsubscribe()

			msg := records.DeleteRecordCommand{Resource: args[0], ID: args[1], IdempotencyKey: keyOrNew(key)}
			if err := dispatcher.Dispatch(cmd.Context(), msg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s/%s\n", args[0], args[1])
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "idempotency key (generated when empty)")
	cmd.Flags().IntVar(&retries, "retries", 0, "retries on transient failures")
	return cmd
}

func (a *app) visibilityCommand() *cobra.Command {
	var (
		key     string
		visible bool
	)
	cmd := &cobra.Command{
		Use:   "visibility <resource> <id>",
		Short: "Show or hide a record on the public site",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mod, _, err := a.resource(cmd, args[0])
			if err != nil {
				return err
			}
			unsubscribe := mod.Container().SubscribeCommands(0)
			defer unsubscribe()

			msg := records.SetVisibilityCommand{Resource: args[0], ID: args[1], Visible: visible, IdempotencyKey: keyOrNew(key)}
			if err := dispatcher.Dispatch(cmd.Context(), msg); err != nil {
				return err
			}
			state := "hidden"
			if visible {
				state = "visible"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s/%s is now %s\n", args[0], args[1], state)
			return nil
		},
	}
	cmd.Flags().BoolVar(&visible, "visible", true, "whether the record is shown")
	cmd.Flags().StringVar(&key, "key", "", "idempotency key (generated when empty)")
	return cmd
}

func keyOrNew(key string) string {
	if key != "" {
		return key
	}
	return uuid.NewString()
}
