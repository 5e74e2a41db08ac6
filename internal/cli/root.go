package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sadopc/taskr/internal/account"
	"github.com/sadopc/taskr/internal/config"
	"github.com/sadopc/taskr/internal/logging"
	"github.com/sadopc/taskr/internal/store"
	"github.com/sadopc/taskr/internal/tasks"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the taskr command tree. Running it without a
// subcommand opens the terminal UI.
func NewRootCmd(version string) *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "taskr",
		Short: "taskr - personal task manager",
		Long: `taskr keeps a per-user task list in a local database.

Run without arguments to open the terminal UI, or use the subcommands to
script it.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, configPath)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "Path to config file")

	rootCmd.AddCommand(signupCmd(&configPath))
	rootCmd.AddCommand(loginCmd(&configPath))
	rootCmd.AddCommand(logoutCmd(&configPath))
	rootCmd.AddCommand(whoamiCmd(&configPath))
	rootCmd.AddCommand(tasksCmd(&configPath))
	rootCmd.AddCommand(exportCmd(&configPath))
	rootCmd.AddCommand(configCmd(&configPath))

	return rootCmd
}

// Execute runs the root command
func Execute(version string) error {
	if err := NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// env wires the components every command works against.
type env struct {
	cfg     *config.Config
	store   *store.Store
	users   *account.Directory
	session *account.Session
	tasks   *tasks.Store

	logFile io.Closer
}

func openEnv(configPath string) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logFile, err := logging.Init(logging.Options{
		File:       cfg.Log.File,
		Level:      cfg.Log.Level,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	s, err := store.New(cfg.Database.Path)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}

	users := account.NewDirectory(s)
	session := account.NewSession(s, users)

	logging.Logger.WithField("db", cfg.Database.Path).Debug("environment ready")

	return &env{
		cfg:     cfg,
		store:   s,
		users:   users,
		session: session,
		tasks:   tasks.New(s, session),
		logFile: logFile,
	}, nil
}

func (e *env) Close() error {
	return errors.Join(e.store.Close(), e.logFile.Close())
}

// requireUser fails unless someone is logged in.
func (e *env) requireUser() (*store.User, error) {
	u := e.session.CurrentUser()
	if u == nil {
		return nil, fmt.Errorf("%w: run 'taskr login' first", tasks.ErrNotAuthenticated)
	}
	return u, nil
}

// withEnv opens the environment for the duration of fn.
func withEnv(configPath string, fn func(e *env) error) error {
	e, err := openEnv(configPath)
	if err != nil {
		return err
	}
	defer e.Close()
	return fn(e)
}
