package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/raikhel/botflow/internal/flow"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file-or-dir>...",
		Short: "Validate workflow documents without running them",
		Long: `Validate workflow YAML/JSON documents against the schema and the
model invariants (unique node ids, known trigger types, required
parameters). Directories are validated file by file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args)
		},
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	failed := 0
	checked := 0
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return fmt.Errorf("stat %s: %w", arg, err)
		}

		if info.IsDir() {
			workflows, err := flow.LoadDir(arg)
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s: %v\n", arg, err)
				failed++
				continue
			}
			checked += len(workflows)
			fmt.Fprintf(cmd.OutOrStdout(), "OK   %s (%d workflows)\n", arg, len(workflows))
			continue
		}

		wf, err := flow.Load(arg)
		if err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s: %v\n", arg, err)
			failed++
			continue
		}
		checked++
		fmt.Fprintf(cmd.OutOrStdout(), "OK   %s (%s)\n", arg, wf.ID)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d inputs failed validation", failed, failed+checked)
	}
	return nil
}
