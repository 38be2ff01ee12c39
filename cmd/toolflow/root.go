package main

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/skosovsky/toolflow/config"
)

const version = "v0.1.0"

// app carries what every subcommand needs; transport is nil outside tests.
type app struct {
	out, errOut io.Writer
	transport   http.RoundTripper
	cfgPath     string
	logLevel    string
}

func newRootCmd(out, errOut io.Writer, transport http.RoundTripper) *cobra.Command {
	a := &app{out: out, errOut: errOut, transport: transport}
	root := &cobra.Command{
		Use:   "toolflow",
		Short: "Tool-calling LLM workflows over OpenRouter",
		Long: `toolflow sends a question to an OpenRouter model together with a set of tools
(calculator, get_weather, string_operations), executes the tool calls the model
requests and feeds the results back until the model answers.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "config file (default is $HOME/"+config.FileName+")")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	root.AddCommand(
		newAskCmd(a),
		newRunCmd(a),
		newToolsCmd(a),
		newDemoCmd(a),
		newVersionCmd(a),
	)
	return root
}

func (a *app) loadConfig() (config.Config, error) {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return config.Config{}, err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	return cfg, nil
}

func (a *app) logger(cfg config.Config) (*slog.Logger, error) {
	return cfg.Log.NewLogger(a.errOut)
}
