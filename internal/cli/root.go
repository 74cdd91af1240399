// Package cli implements the taskmaster command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"taskmaster/internal/config"
	"taskmaster/internal/icon"
	"taskmaster/internal/model"
	"taskmaster/internal/service"
)

type runner struct {
	factory    AppFactory
	configPath string
	cfg        config.Config
}

// NewRootCmd builds the command tree. A nil factory means OpenApp.
func NewRootCmd(factory AppFactory) *cobra.Command {
	if factory == nil {
		factory = OpenApp
	}
	r := &runner{factory: factory}

	root := &cobra.Command{
		Use:           "taskmaster",
		Short:         "Create, categorize and complete tasks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(r.configPath)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
				log.SetLevel(lvl)
			} else {
				log.Warnf("unknown log level %q, keeping %s", cfg.LogLevel, log.GetLevel())
			}
			r.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&r.configPath, "config", os.Getenv("TASKMASTER_CONFIG"), "path to a YAML config file")

	root.AddCommand(
		r.addCmd(),
		r.listCmd(),
		r.toggleCmd(),
		r.removeCmd(),
		r.statsCmd(),
		r.categoriesCmd(),
		r.themeCmd(),
		r.reportCmd(),
		r.botCmd(),
	)
	return root
}

// withApp opens the app for one command, prints notices to the command output
// and closes the app afterwards.
func (r *runner) withApp(cmd *cobra.Command, fn func(ctx context.Context, app *App) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	app, err := r.factory(ctx, r.cfg)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, app.Close(context.WithoutCancel(ctx)))
	}()

	out := cmd.OutOrStdout()
	app.Notifier.Add(service.NotifierFunc(func(n service.Notice) {
		fmt.Fprintln(out, noticeLine(n))
	}))
	return fn(ctx, app)
}

func (r *runner) view(ctx context.Context, cmd *cobra.Command, app *App) *view {
	theme, err := app.Theme.Current(ctx)
	if err != nil {
		log.Warnf("theme: %v", err)
		theme = model.ThemeLight
	}
	return newView(cmd.OutOrStdout(), theme)
}

func (r *runner) addCmd() *cobra.Command {
	var input service.TaskInput
	cmd := &cobra.Command{
		Use:   "add <title...>",
		Short: "Add a new task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input.Title = strings.Join(args, " ")
			return r.withApp(cmd, func(ctx context.Context, app *App) error {
				task, err := app.Tasks.CreateTask(ctx, input)
				if err != nil {
					return err
				}
				r.view(ctx, cmd, app).task(task)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&input.Description, "description", "d", "", "optional description")
	cmd.Flags().StringVarP(&input.CategoryID, "category", "c", service.DefaultCategoryID, "work, personal, shopping or health")
	cmd.Flags().StringVarP(&input.Priority, "priority", "p", string(model.PriorityMedium), "low, medium or high")
	cmd.Flags().StringVar(&input.DueDate, "due", "", "due date, YYYY-MM-DD")
	return cmd
}

func (r *runner) listCmd() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withApp(cmd, func(ctx context.Context, app *App) error {
				tasks, err := app.Tasks.ListTasks(category)
				if err != nil {
					return err
				}
				r.view(ctx, cmd, app).taskList(category, tasks)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", model.AllCategoryID, "category id or all")
	return cmd
}

func (r *runner) toggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "toggle <id>",
		Aliases: []string{"done"},
		Short:   "Mark a task completed or pending",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withApp(cmd, func(ctx context.Context, app *App) error {
				_, err := app.Tasks.ToggleTask(ctx, args[0])
				return err
			})
		},
	}
}

func (r *runner) removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withApp(cmd, func(ctx context.Context, app *App) error {
				_, err := app.Tasks.DeleteTask(ctx, args[0])
				return err
			})
		},
	}
}

func (r *runner) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show total, completed and pending counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withApp(cmd, func(ctx context.Context, app *App) error {
				r.view(ctx, cmd, app).stats(app.Tasks.Stats())
				return nil
			})
		},
	}
}

func (r *runner) categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories with task counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withApp(cmd, func(ctx context.Context, app *App) error {
				r.view(ctx, cmd, app).categories(app.Categories.List())
				return nil
			})
		},
	}
}

func (r *runner) themeCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "theme [toggle|dark|light]",
		Short:     "Show or change the colour theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"toggle", "dark", "light"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withApp(cmd, func(ctx context.Context, app *App) error {
				var (
					theme model.Theme
					err   error
				)
				switch {
				case len(args) == 0:
					theme, err = app.Theme.Current(ctx)
				case args[0] == "toggle":
					theme, err = app.Theme.Toggle(ctx)
				default:
					theme, err = model.ParseTheme(args[0])
					if err == nil {
						err = app.Theme.Set(ctx, theme)
					}
				}
				if err != nil {
					return err
				}
				glyph := icon.Glyph("sun")
				if theme == model.ThemeDark {
					glyph = icon.Glyph("moon")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", glyph, theme)
				return nil
			})
		},
	}
}

func (r *runner) reportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print the digest of pending tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withApp(cmd, func(ctx context.Context, app *App) error {
				fmt.Fprintln(cmd.OutOrStdout(), app.Digest.Summary(time.Now()))
				return nil
			})
		},
	}
}
