package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/toyz/mbean/internal/lint"
)

func newVetCommand(a *app) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "vet [packages...]",
		Short: "Check mbean markers and tags in Go packages",
		Long: `Check the mbean struct tags and marker fields of Go packages without
running them: malformed tags, markers naming missing or unexported methods,
duplicate property names, and getters or setters with no property.`,
		Example: `  mbean vet
  mbean vet ./internal/... --dir ../service`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.diag.Verbose("loading %v", args)
			report, err := lint.New(dir).Run(args...)
			if err != nil {
				return err
			}

			findings := report.Sorted()
			for _, finding := range findings {
				ReportError(a.diag.Output(), finding, a.verbose)
			}
			a.diag.Summary("Checked", []string{"packages", "structs", "findings"}, map[string]interface{}{
				"packages": report.Packages,
				"structs":  report.Structs,
				"findings": len(findings),
			})
			if len(findings) > 0 {
				return fmt.Errorf("%d marker problems found", len(findings))
			}
			a.diag.Progress("No marker problems found")
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "directory package patterns are resolved in")
	return cmd
}
