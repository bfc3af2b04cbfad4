package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/raikhel/botflow/internal/engine"
	"github.com/raikhel/botflow/internal/flow"
	"github.com/raikhel/botflow/internal/reply"
	"github.com/raikhel/botflow/internal/sched"
	"github.com/raikhel/botflow/internal/server"
	"github.com/raikhel/botflow/internal/store"
)

// NewServeCommand creates the serve command: the HTTP ingress plus the
// scheduler, backed by a persistent sqlite store.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP ingress and run the scheduler",
		Long: `Load every workflow from the workflow directory, open the sqlite
store, and serve POST /events until interrupted. Scheduled triggers fire
on the tick interval. Settings come from flags, BOTFLOW_* environment
variables, or the --config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(rootOpts.ConfigFile)
			if err != nil {
				return err
			}
			return runServe(cmd, cfg)
		},
	}
	return cmd
}

func runServe(cmd *cobra.Command, cfg *Config) error {
	workflows, err := flow.LoadDir(cfg.WorkflowDir)
	if err != nil {
		return err
	}
	if len(workflows) == 0 {
		return fmt.Errorf("no workflows found in %s", cfg.WorkflowDir)
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	engOpts := []engine.Option{
		engine.WithStores(st, st, st),
		engine.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
	}
	if cfg.MaxSteps > 0 {
		engOpts = append(engOpts, engine.WithMaxSteps(cfg.MaxSteps))
	}
	eng := engine.New(engOpts...)
	surface := reply.NewLogger(nil)

	scheduler := sched.New(eng, workflows, surface, sched.WithInterval(cfg.TickInterval))
	go scheduler.Run(cmd.Context())

	srv := server.New(eng, workflows, surface)
	return srv.Run(cfg.Listen)
}
