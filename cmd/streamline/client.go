package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/streamline/internal/cache"
	"github.com/fyrsmithlabs/streamline/internal/config"
	"github.com/fyrsmithlabs/streamline/internal/logging"
	"github.com/fyrsmithlabs/streamline/internal/project"
	"github.com/fyrsmithlabs/streamline/internal/remote"
	"github.com/fyrsmithlabs/streamline/internal/telemetry"
)

// session is everything a client command needs for one invocation.
type session struct {
	manager *project.Manager
	logger  *logging.Logger
	tel     *telemetry.Telemetry
}

// close flushes telemetry and logs.
func (s *session) close() {
	ctx, cancel := context.WithTimeout(context.Background(), telemetry.NewDefaultConfig().Shutdown.Timeout.Duration())
	defer cancel()
	_ = s.tel.Shutdown(ctx)
	_ = s.logger.Sync()
}

// newSession wires a Manager over the remote client described by cfg.
func newSession(ctx context.Context, cfg *config.Config) (*session, error) {
	tel, err := telemetry.New(ctx, telemetry.FromObservability(cfg.Observability, version))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	logger, err := newLogger(cfg.Observability, tel, true)
	if err != nil {
		_ = tel.Shutdown(ctx)
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	policy, err := project.MergePolicyByName(cfg.Cache.MergePolicy)
	if err != nil {
		_ = tel.Shutdown(ctx)
		return nil, err
	}

	client, err := remote.New(cfg.Remote, remote.WithLogger(logger))
	if err != nil {
		_ = tel.Shutdown(ctx)
		return nil, fmt.Errorf("failed to create remote client: %w", err)
	}

	mgr := project.NewManager(client,
		project.WithCache(cfg.Cache.Enabled),
		project.WithMergePolicy(policy),
		project.WithLogger(logger),
		project.WithTracer(tel.Tracer(project.InstrumentationName)),
		project.WithCacheMetrics(cache.NewMetrics()),
	)
	return &session{manager: mgr, logger: logger, tel: tel}, nil
}

// withSession loads config, opens a session and runs fn with it.
func (o *rootOptions) withSession(cmd *cobra.Command, fn func(ctx context.Context, s *session) error) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	s, err := newSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.close()
	return fn(ctx, s)
}

func newProjectCmd(o *rootOptions) *cobra.Command {
	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Read projects",
	}

	getCmd := &cobra.Command{
		Use:   "get <id> [id...]",
		Short: "Fetch projects by ID",
		Long: `Fetch one or more projects and print them as JSON.

Repeated IDs are served from the cache unless --no-cache is set.

Examples:
  streamline project get 1
  streamline project get 1 2 --server http://localhost:9090`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withSession(cmd, func(ctx context.Context, s *session) error {
				for _, id := range args {
					p, err := s.manager.FetchProject(ctx, project.ID(id))
					if err != nil {
						return err
					}
					if err := o.writeJSON(p); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	projectCmd.AddCommand(getCmd)
	return projectCmd
}

func newTaskCmd(o *rootOptions) *cobra.Command {
	taskCmd := &cobra.Command{
		Use:   "task",
		Short: "Update and create tasks",
	}

	statusCmd := &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Set a task's status",
		Long: `Set a task's status and print the reconciled task.

Status is one of: pending, "in progress", completed. Aliases such as todo,
in_progress and done are accepted.

Examples:
  streamline task status 7 done
  streamline task status 7 "in progress"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := project.ParseStatus(args[1])
			if err != nil {
				return err
			}
			return o.withSession(cmd, func(ctx context.Context, s *session) error {
				t, err := s.manager.UpdateTaskStatus(ctx, project.ID(args[0]), status)
				if err != nil {
					return err
				}
				return o.writeJSON(t)
			})
		},
	}

	var in struct {
		projectID   string
		title       string
		description string
		status      string
	}
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task in a project",
		Long: `Create a task and print it with its server-assigned ID.

Examples:
  streamline task create --project 1 --title "Write docs"
  streamline task create --project 1 --title Review --status in_progress`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			nt := project.NewTask{
				ProjectID:   project.ID(in.projectID),
				Title:       in.title,
				Description: in.description,
			}
			if in.status != "" {
				status, err := project.ParseStatus(in.status)
				if err != nil {
					return err
				}
				nt.Status = status
			}
			return o.withSession(cmd, func(ctx context.Context, s *session) error {
				t, err := s.manager.CreateTask(ctx, nt)
				if err != nil {
					return err
				}
				return o.writeJSON(t)
			})
		},
	}
	createCmd.Flags().StringVar(&in.projectID, "project", "", "project ID (required)")
	createCmd.Flags().StringVar(&in.title, "title", "", "task title (required)")
	createCmd.Flags().StringVar(&in.description, "description", "", "task description")
	createCmd.Flags().StringVar(&in.status, "status", "", "initial status (default pending)")
	_ = createCmd.MarkFlagRequired("project")
	_ = createCmd.MarkFlagRequired("title")

	taskCmd.AddCommand(statusCmd, createCmd)
	return taskCmd
}
