package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Makepad-fr/skillbox/internal/config"
	"github.com/Makepad-fr/skillbox/internal/fetch"
	"github.com/Makepad-fr/skillbox/internal/model"
	"github.com/Makepad-fr/skillbox/internal/tui"
	"github.com/Makepad-fr/skillbox/internal/ui"
)

const (
	requirementsTitle     = "Requirements"
	requirementsLoadError = "Failed to load requirements."
	requirementsEmpty     = "No requirements found."
	specListTitle         = "Business Specifications"
	specListLoadError     = "Failed to load specifications."
	specListEmpty         = "No specifications yet."
	specLoadError         = "Failed to load specification."
	specNotFound          = "Specification not found."
	specSaveError         = "Failed to create or update business specification."
	specSaved             = "Specification saved."
	testCreateError       = "Failed to create the test. Please try again."
	testCreated           = "Test created."
)

func (r *Runner) rootCmd() *cobra.Command {
	f := &globalFlags{}

	root := &cobra.Command{
		Use:   "skillbox",
		Short: "Business specifications, requirements and tests in the terminal",
		Long: `skillbox is a terminal front-end for the SkillBoxGen backend.

Run without a subcommand to open the interactive screens, or use the
subcommands below to list and submit records from scripts.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: r.interactive(f, tui.RouteHome, nil),
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "", "Config file path (YAML)")
	pf.StringVar(&f.apiURL, "api-url", "", "Backend base URL (default from config)")
	pf.StringVar(&f.theme, "theme", "", "Theme: classic, neon or mono")
	pf.StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&f.logFile, "log-file", "", "Write logs here while the TUI is running")
	pf.StringVar(&f.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while the TUI runs")

	root.AddCommand(
		r.specCmd(f),
		r.reqCmd(f),
		r.testCmd(f),
		r.configCmd(f),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Args:  usageArgs(cobra.NoArgs),
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "skillbox version %s\n", Version)
			},
		},
	)
	return root
}

// interactive returns a RunE that opens the TUI at route. idArg, when set,
// reads the record id from the positional arguments.
func (r *Runner) interactive(f *globalFlags, route tui.Route, idArg func([]string) (model.ID, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		var id model.ID
		if idArg != nil {
			var err error
			if id, err = idArg(args); err != nil {
				return &usageError{err: err}
			}
		}
		s, err := r.open(f, true)
		if err != nil {
			return err
		}
		defer s.close()
		return s.runTUI(cmd.Context(), route, id)
	}
}

// plain returns a RunE for a non-interactive command.
func (r *Runner) plain(f *globalFlags, run func(ctx context.Context, s *session, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := r.open(f, false)
		if err != nil {
			return err
		}
		defer s.close()
		return run(cmd.Context(), s, args)
	}
}

func firstID(args []string) (model.ID, error) {
	id, err := model.ParseID(args[0])
	if err != nil {
		return model.ID{}, fmt.Errorf("invalid id %q: %w", args[0], err)
	}
	return id, nil
}

func (r *Runner) specCmd(f *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spec",
		Short: "Business specifications",
	}

	var name, description string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a specification",
		Args:  usageArgs(cobra.NoArgs),
		RunE: r.plain(f, func(ctx context.Context, s *session, _ []string) error {
			return s.saveSpecification(ctx, model.ID{}, model.Specification{Name: name, Description: description})
		}),
	}
	create.Flags().StringVar(&name, "name", "", "Specification name")
	create.Flags().StringVar(&description, "description", "", "Specification description")

	var newName, newDescription string
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a specification; fields left out keep their value",
		Args:  usageArgs(cobra.ExactArgs(1)),
	}
	update.RunE = r.plain(f, func(ctx context.Context, s *session, args []string) error {
		id, err := firstID(args)
		if err != nil {
			return &usageError{err: err}
		}
		current, err := s.loadSpecification(ctx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return failed(specNotFound, nil)
		}
		spec := *current
		if update.Flags().Changed("name") {
			spec.Name = newName
		}
		if update.Flags().Changed("description") {
			spec.Description = newDescription
		}
		return s.saveSpecification(ctx, id, spec)
	})
	update.Flags().StringVar(&newName, "name", "", "New name")
	update.Flags().StringVar(&newDescription, "description", "", "New description")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "new",
			Short: "Open the create form",
			Args:  usageArgs(cobra.NoArgs),
			RunE:  r.interactive(f, tui.RouteSpecForm, nil),
		},
		&cobra.Command{
			Use:   "edit <id>",
			Short: "Open the edit form for a specification",
			Args:  usageArgs(cobra.ExactArgs(1)),
			RunE:  r.interactive(f, tui.RouteSpecForm, firstID),
		},
		&cobra.Command{
			Use:   "show <id>",
			Short: "Print one specification",
			Args:  usageArgs(cobra.ExactArgs(1)),
			RunE: r.plain(f, func(ctx context.Context, s *session, args []string) error {
				id, err := firstID(args)
				if err != nil {
					return &usageError{err: err}
				}
				spec, err := s.loadSpecification(ctx, id)
				if err != nil {
					return err
				}
				if spec == nil {
					fmt.Fprintln(s.stdout, ui.NoData(specNotFound))
					return nil
				}
				fmt.Fprintln(s.stdout, specificationPanel(*spec))
				return nil
			}),
		},
		&cobra.Command{
			Use:     "ls",
			Aliases: []string{"list"},
			Short:   "List specifications",
			Args:    usageArgs(cobra.NoArgs),
			RunE: r.plain(f, func(ctx context.Context, s *session, _ []string) error {
				ctl := fetch.New("specifications",
					fetch.WithContext[model.SpecificationList](ctx),
					fetch.WithLogger[model.SpecificationList](s.logger))
				ctl.Run(ctl.Load(s.client.ListSpecifications))
				if ctl.Failed() {
					return failed(specListLoadError, ctl.Err())
				}
				fmt.Fprintln(s.stdout, specificationsPanel(ctl.Data()))
				return nil
			}),
		},
		create,
		update,
	)
	return cmd
}

func (r *Runner) reqCmd(f *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "req",
		Short: "Review requirements and mark them completed",
		Args:  usageArgs(cobra.NoArgs),
		RunE:  r.interactive(f, tui.RouteRequirements, nil),
	}

	var group bool
	ls := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List requirements",
		Args:    usageArgs(cobra.NoArgs),
		RunE: r.plain(f, func(ctx context.Context, s *session, _ []string) error {
			ctl := fetch.New("requirements",
				fetch.WithContext[model.RequirementList](ctx),
				fetch.WithLogger[model.RequirementList](s.logger))
			ctl.Run(ctl.Load(s.client.ListRequirements))
			if ctl.Failed() {
				return failed(requirementsLoadError, ctl.Err())
			}
			fmt.Fprintln(s.stdout, requirementsPanel(ctl.Data(), group))
			return nil
		}),
	}
	ls.Flags().BoolVar(&group, "group", false, "group output by pending/done")
	cmd.AddCommand(ls)
	return cmd
}

func (r *Runner) testCmd(f *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Write tests",
	}

	var title, description string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a test",
		Args:  usageArgs(cobra.NoArgs),
		RunE: r.plain(f, func(ctx context.Context, s *session, _ []string) error {
			test := model.Test{Title: title, Description: description}
			ctl := fetch.New("test-create",
				fetch.WithContext[*model.Test](ctx),
				fetch.WithLogger[*model.Test](s.logger))
			run := ctl.Submit(test.Validate, func(ctx context.Context) (*model.Test, error) {
				return s.client.CreateTest(ctx, test)
			})
			if run == nil {
				return &usageError{err: ctl.Err()}
			}
			ctl.Run(run)
			if ctl.Failed() {
				s.logger.Error("Failed to create test", "error", ctl.Err())
				return failed(testCreateError, ctl.Err())
			}
			ui.OK(s.stdout, testCreated)
			if created := ctl.Data(); created != nil && !created.ID.IsZero() {
				fmt.Fprintf(s.stdout, "id: %s\n", created.ID)
			}
			return nil
		}),
	}
	create.Flags().StringVar(&title, "title", "", "Test title")
	create.Flags().StringVar(&description, "description", "", "Test description")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "new",
			Short: "Open the test form",
			Args:  usageArgs(cobra.NoArgs),
			RunE:  r.interactive(f, tui.RouteTestForm, nil),
		},
		create,
	)
	return cmd
}

func (r *Runner) configCmd(f *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			Args:  usageArgs(cobra.NoArgs),
			RunE: r.plain(f, func(_ context.Context, s *session, _ []string) error {
				out, err := yaml.Marshal(s.cfg)
				if err != nil {
					return fmt.Errorf("marshal config: %w", err)
				}
				_, err = s.stdout.Write(out)
				return err
			}),
		},
		&cobra.Command{
			Use:   "init",
			Short: "Write the default user config unless one exists",
			Args:  usageArgs(cobra.NoArgs),
			RunE: func(cmd *cobra.Command, _ []string) error {
				loader := config.NewLoader(nil)
				loader.HomeDir = r.HomeDir
				p, err := loader.EnsureUserConfig()
				if err != nil {
					return err
				}
				ui.OK(cmd.OutOrStdout(), "config: "+p)
				return nil
			},
		},
	)
	return cmd
}

// loadSpecification returns nil for a null or empty reply.
func (s *session) loadSpecification(ctx context.Context, id model.ID) (*model.Specification, error) {
	ctl := fetch.New("spec-load",
		fetch.WithContext[*model.Specification](ctx),
		fetch.WithLogger[*model.Specification](s.logger))
	ctl.Run(ctl.Load(func(ctx context.Context) (*model.Specification, error) {
		return s.client.GetSpecification(ctx, id)
	}))
	if ctl.Failed() {
		s.logger.Error("Failed to load specification", "id", id.String(), "error", ctl.Err())
		return nil, failed(specLoadError, ctl.Err())
	}
	if ctl.Empty() {
		return nil, nil
	}
	return ctl.Data(), nil
}

// saveSpecification validates locally, then creates or updates depending on
// whether id is set.
func (s *session) saveSpecification(ctx context.Context, id model.ID, spec model.Specification) error {
	ctl := fetch.New("spec-save",
		fetch.WithContext[*model.Specification](ctx),
		fetch.WithLogger[*model.Specification](s.logger))
	run := ctl.Submit(spec.Validate, func(ctx context.Context) (*model.Specification, error) {
		return s.client.SaveSpecification(ctx, id, spec)
	})
	if run == nil {
		return &usageError{err: ctl.Err()}
	}
	ctl.Run(run)
	if ctl.Failed() {
		s.logger.Error("Failed to create or update business specification", "error", ctl.Err())
		return failed(specSaveError, ctl.Err())
	}
	ui.OK(s.stdout, specSaved)
	if saved := ctl.Data(); saved != nil {
		fmt.Fprintln(s.stdout, specificationPanel(*saved))
	}
	return nil
}
