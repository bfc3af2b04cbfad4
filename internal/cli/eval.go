package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raikhel/botflow/internal/expr"
)

// NewEvalCommand creates the eval command: a one-liner for the condition
// expression language.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	var vars []string

	cmd := &cobra.Command{
		Use:   "eval <expression>",
		Short: "Evaluate a condition expression",
		Long: `Evaluate an expression the way an expression condition node would,
printing the resulting value. Variables are supplied with repeated
--var name=value flags; numeric-looking values become numbers.

Example:

  botflow eval --var points=15 "points * 2 > 25"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd, args[0], vars)
		},
	}

	cmd.Flags().StringArrayVar(&vars, "var", nil, "variable binding name=value (repeatable)")
	return cmd
}

func runEval(cmd *cobra.Command, src string, bindings []string) error {
	vars := make(map[string]expr.Value, len(bindings))
	for _, b := range bindings {
		name, value, ok := strings.Cut(b, "=")
		if !ok || name == "" {
			return fmt.Errorf("invalid --var %q: want name=value", b)
		}
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			vars[name] = expr.Number(f)
		} else {
			vars[name] = expr.String(value)
		}
	}

	result, err := expr.Eval(src, vars)
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), result.Str())
	return nil
}
