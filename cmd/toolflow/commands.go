package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skosovsky/toolflow"
	"github.com/skosovsky/toolflow/adapters/openrouter"
	"github.com/skosovsky/toolflow/toolkits"
)

var (
	toolQuestions = []string{
		"What is 15 multiplied by 23?",
		"What is the weather in London?",
		`Convert "Hello World" to uppercase`,
		"What is 100 divided by 4?",
		"Calculate 25 plus 17, then convert the result to uppercase and tell me its length",
		"What is the weather in both London and Tokyo, and also calculate 12 multiplied by 8?",
	}
	parallelQuestions = []string{
		"What is the weather in both London and Tokyo, and also calculate 12 multiplied by 8?",
		"Get weather for Paris and New York, then calculate 50 divided by 2",
		"What is 15 plus 25, multiply 7 by 9, and get the weather in Tokyo?",
	}
)

func newAskCmd(a *app) *cobra.Command {
	var topic string
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer one question about a topic without tools",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			answer, err := openrouter.Ask(cmd.Context(), cfg, a.transport, topic, args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.out, "Response:", answer)
			return err
		},
	}
	cmd.Flags().StringVar(&topic, "topic", "General", "topic the question is about")
	return cmd
}

func newRunCmd(a *app) *cobra.Command {
	var parallel bool
	cmd := &cobra.Command{
		Use:   "run [question]",
		Short: "Answer a question, letting the model call tools",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wf, err := a.workflow(parallel)
			if err != nil {
				return err
			}
			answer, err := wf.Run(cmd.Context(), toolflow.Input{Question: strings.Join(args, " ")})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.out, "Answer:", answer)
			return err
		},
	}
	cmd.Flags().BoolVar(&parallel, "parallel", false, "execute the tool calls of a round concurrently")
	return cmd
}

func newDemoCmd(a *app) *cobra.Command {
	var parallel bool
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the example question set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			wf, err := a.workflow(parallel)
			if err != nil {
				return err
			}
			questions := toolQuestions
			if parallel {
				questions = parallelQuestions
			}
			fmt.Fprintf(a.out, "Available tools: %s\n\n", strings.Join(wf.AvailableTools(), ", "))
			for _, q := range questions {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Question: %s\n", q)
				answer, err := wf.Run(cmd.Context(), toolflow.Input{Question: q})
				if err != nil {
					// one failing question does not stop the demo
					fmt.Fprintf(a.errOut, "Error: %v\n\n", err)
					continue
				}
				fmt.Fprintf(a.out, "Answer: %s\n\n", answer)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&parallel, "parallel", false, "use the parallel question set and execution mode")
	return cmd
}

func newToolsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the built-in tools",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			tools, err := toolkits.Default()
			if err != nil {
				return err
			}
			for _, t := range tools {
				if _, err := fmt.Fprintf(a.out, "%-18s %s\n", t.Name(), t.Description()); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of toolflow",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			_, err := fmt.Fprintf(a.out, "toolflow %s\n", version)
			return err
		},
	}
}

// workflow builds the default workflow; parallel forces the parallel mode on top of the config.
func (a *app) workflow(parallel bool) (*toolflow.Workflow, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	if parallel {
		cfg.Orchestrator.Parallel = true
	}
	logger, err := a.logger(cfg)
	if err != nil {
		return nil, err
	}
	return openrouter.NewWorkflow(cfg, openrouter.Options{Transport: a.transport, Logger: logger})
}

