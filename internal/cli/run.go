package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/raikhel/botflow/internal/engine"
	"github.com/raikhel/botflow/internal/flow"
	"github.com/raikhel/botflow/internal/reply"
	"github.com/raikhel/botflow/internal/store"
)

// RunCmdOptions holds flags for the run command.
type RunCmdOptions struct {
	Text      string
	UserID    string
	GroupID   string
	MessageID string
	DBPath    string
}

// NewRunCommand creates the run command: one-shot execution of a single
// workflow against a synthetic message, with replies written to the log.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunCmdOptions{}

	cmd := &cobra.Command{
		Use:   "run <workflow-file>",
		Short: "Execute one workflow against a synthetic message",
		Long: `Load a single workflow document and execute it once against the given
message text. Replies and moderation effects are written as log lines.
By default state lives in an in-memory database; pass --db to run
against persistent storage.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Text, "text", "", "message text to deliver")
	cmd.Flags().StringVar(&opts.UserID, "user", "cli-user", "sender user id")
	cmd.Flags().StringVar(&opts.GroupID, "group", "", "group id (empty = direct message)")
	cmd.Flags().StringVar(&opts.MessageID, "message", "cli-message", "message id")
	cmd.Flags().StringVar(&opts.DBPath, "db", ":memory:", "sqlite database path")

	return cmd
}

func runRun(cmd *cobra.Command, opts *RunCmdOptions, path string) error {
	wf, err := flow.Load(path)
	if err != nil {
		return err
	}

	st, err := store.Open(opts.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	eng := engine.New(engine.WithStores(st, st, st))
	ev := flow.Event{UserID: opts.UserID, GroupID: opts.GroupID, MessageID: opts.MessageID}
	surface := reply.NewLogger(slog.Default())

	if !eng.Execute(cmd.Context(), wf, ev, opts.Text, surface) {
		fmt.Fprintf(cmd.OutOrStdout(), "no trigger matched %q in workflow %s\n", opts.Text, wf.ID)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "workflow %s fired\n", wf.ID)
	return nil
}
