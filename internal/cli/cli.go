package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/vk/viewbind/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// IsTerminal reports whether fd is a terminal. It picks the default log
// format and is replaceable in tests.
var IsTerminal = func(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

const longHelp = `viewbind - render HTML templates with {{ expressions }} and
{{for}} / {{if}} / {{elseif}} / {{else}} directives against a data file.

MARKUP_PATH is a single .html file or a directory containing .html files.`

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")

	var cfg *app.Config
	defaultFormat := "json"
	if IsTerminal(os.Stderr.Fd()) {
		defaultFormat = "text"
	}

	cmd := &cobra.Command{
		Use:           "viewbind [flags] MARKUP_PATH",
		Short:         "Render HTML templates against a data file.",
		Long:          longHelp,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := cmd.Flags()
	dataPath := flags.StringP("data", "d", "", "Path to a .yaml, .yml, .json or .hcl data file.")
	compiler := flags.String("compiler", app.CompilerJS, "Expression compiler. Options: 'js', 'hcl', 'risor'.")
	format := flags.String("format", app.FormatHTML, "Output format. Options: 'html' or 'outline'.")
	logFormat := flags.String("log-format", defaultFormat, "Log output format. Options: 'text' or 'json'.")
	logLevel := flags.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	cmd.RunE = func(cmd *cobra.Command, positional []string) error {
		if len(positional) == 0 {
			slog.Debug("No markup path provided, printing usage and exiting.")
			return cmd.Help()
		}
		slog.Debug("Markup path determined.", "path", positional[0])

		lf := strings.ToLower(*logFormat)
		if lf != "text" && lf != "json" {
			return &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
		}
		ll := strings.ToLower(*logLevel)
		switch ll {
		case "debug", "info", "warn", "error":
			// valid
		default:
			return &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
		}
		slog.Debug("CLI parameter validation complete.")

		var err error
		cfg, err = app.NewConfig(app.Config{
			MarkupPath: positional[0],
			DataPath:   *dataPath,
			Compiler:   strings.ToLower(*compiler),
			Format:     strings.ToLower(*format),
			LogFormat:  lf,
			LogLevel:   ll,
		})
		if err != nil {
			return &ExitError{Code: 2, Message: err.Error()}
		}
		return nil
	}

	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	cmd.SetOut(output)
	cmd.SetErr(output)
	if err := cmd.Execute(); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return nil, false, exitErr
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if cfg == nil {
		// Help was printed.
		return nil, true, nil
	}

	slog.Debug("CLI parser finished successfully.", "config", fmt.Sprintf("%+v", *cfg))
	return cfg, false, nil
}
