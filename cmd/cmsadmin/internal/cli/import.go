package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-cms-admin/internal/apiclient"
	"github.com/goliatone/go-cms-admin/internal/forms"
	"github.com/goliatone/go-cms-admin/internal/markdown"
	"github.com/goliatone/go-cms-admin/internal/resources"
	"github.com/goliatone/go-cms-admin/internal/submission"
)

type importResult struct {
	File    string            `json:"file"`
	OK      bool              `json:"ok"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (a *app) importCommand() *cobra.Command {
	var retries int
	cmd := &cobra.Command{
		Use:   "import <resource> <file.md>...",
		Short: "Create records from markdown files with front matter",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mod, res, err := a.resource(cmd, args[0])
			if err != nil {
				return err
			}
			if res.Definition().Singleton {
				return fmt.Errorf("import %s: %w", args[0], ErrSingletonOnly)
			}

			fallback := mod.Container().Config.Submission.FallbackMessage
			results := make([]importResult, 0, len(args)-1)
			failed := 0
			for _, path := range args[1:] {
				result := importResult{File: path}
				report, err := importFile(cmd, res, mod.Submissions(), path, retries)
				if err != nil {
					failed++
					result.Message = apiclient.ErrorMessage(err, fallback)
					result.Fields = fieldErrors(err)
				} else {
					result.OK = true
					result.Message = report.Message
				}
				results = append(results, result)
			}

			if err := writeOutput(cmd.OutOrStdout(), a.opts.output, map[string]any{"results": results}); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("import %s: %d of %d files failed", args[0], failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&retries, "retries", 0, "re-issue failed calls with their original keys")
	return cmd
}

func importFile(cmd *cobra.Command, res resources.Module, orch *submission.Orchestrator, path string, retries int) (submission.Report, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return submission.Report{}, err
	}
	doc, err := markdown.ParseDocument(path, source)
	if err != nil {
		return submission.Report{}, err
	}
	report, err := resources.Import(cmd.Context(), res, orch, doc)
	for attempt := 0; err != nil && attempt < retries && len(report.Failed()) > 0; attempt++ {
		report = orch.Retry(cmd.Context(), report)
		err = report.Err
	}
	return report, err
}

func fieldErrors(err error) map[string]string {
	if fields := forms.RemoteFieldErrors(err); len(fields) > 0 {
		return fields
	}
	if fields := forms.FieldErrors(err); len(fields) > 0 {
		return fields
	}
	return nil
}
