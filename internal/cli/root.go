package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/toyz/mbean/internal/utils"
	"github.com/toyz/mbean/pkg/mbean/client"
)

// app carries the state resolved once per invocation and shared by the
// subcommands
type app struct {
	configPath string
	logLevel   string
	url        string
	verbose    bool
	quiet      bool
	noColor    bool

	config *Config
	diag   *utils.DiagnosticSystem
	logger *zap.Logger
}

// NewRootCommand creates the mbean command tree
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "mbean",
		Short: "Inspect and manage beans exposed by Go services",
		Long: color.CyanString(`mbean - management beans for Go

Serve the runtime bean of this process, query beans exposed by a running
service, and check bean markers in source code.`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default ./mbean.yaml or $HOME/.mbean/mbean.yaml)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&a.url, "url", "", "management endpoint of a running server")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")
	flags.BoolVarP(&a.quiet, "quiet", "q", false, "only print results and errors")
	flags.BoolVar(&a.noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(newServeCommand(a))
	rootCmd.AddCommand(newListCommand(a))
	rootCmd.AddCommand(newInfoCommand(a))
	rootCmd.AddCommand(newGetCommand(a))
	rootCmd.AddCommand(newSetCommand(a))
	rootCmd.AddCommand(newInvokeCommand(a))
	rootCmd.AddCommand(newVetCommand(a))

	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	config, err := LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		config.LogLevel = a.logLevel
	}
	if a.url != "" {
		config.Client.URL = a.url
	}
	a.config = config

	level := utils.DiagnosticInfo
	switch {
	case a.quiet:
		level = utils.DiagnosticError
	case a.verbose:
		level = utils.DiagnosticVerbose
	}
	a.diag = utils.NewDiagnosticSystem(level).
		WithOutput(cmd.OutOrStdout(), cmd.ErrOrStderr()).
		WithTimestamps(false)
	if a.noColor {
		a.diag.WithColors(false)
	}

	logger, err := newLogger(config.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

func (a *app) client() *client.Client {
	return client.New(a.config.Client.URL,
		client.WithTimeout(a.config.Client.Timeout),
		client.WithLogger(a.logger))
}

// newLogger builds a console logger writing to w
func newLogger(level string, w io.Writer) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(w), lvl)
	return zap.New(core), nil
}

// Execute runs the root command with args
func Execute(args []string) error {
	rootCmd := NewRootCommand()
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		ReportError(rootCmd.ErrOrStderr(), err, false)
		return err
	}
	return nil
}
