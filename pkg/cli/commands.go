package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jumpstart/jumpstart/pkg/steps"
)

func (c *CLI) newStepsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "steps",
		Short: "List the provisioning steps in execution order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.overrides.Sequencer != nil {
				return c.printSteps(c.overrides.Sequencer.Steps())
			}
			return c.printSteps(steps.NewSequencer(c.logger).Steps())
		},
	}
}

func (c *CLI) printSteps(list []steps.Step) error {
	w := tabwriter.NewWriter(c.output, 0, 0, 2, ' ', 0)
	for i, st := range list {
		marker := ""
		if b, ok := st.(interface{ PhaseBoundary() bool }); ok && b.PhaseBoundary() {
			marker = color.YellowString("(phase boundary)")
		}
		fmt.Fprintf(w, "%d.\t%s\t%s\t%s\n", i+1, st.Name(), st.Description(), marker)
	}
	return w.Flush()
}

func (c *CLI) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(c.output, "⚡ jumpstart v%s\n", c.config.Version)
		},
	}
}
