package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
)

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <source>",
		Short: "Compile and load a source file once, then invoke its entry function",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				// Display command usage help without returning an error
				_ = cmd.Help()
				return nil
			}
			return c.app.Run(cmd.Context(), args[0], reloadOptions(cmd))
		},
	}
	addReloadFlags(cmd)
	return cmd
}

func (c *CLI) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <source>",
		Short: "Reload a source file on every change under the project root",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Help()
				return nil
			}
			return c.app.Watch(cmd.Context(), args[0], reloadOptions(cmd))
		},
	}
	addReloadFlags(cmd)
	return cmd
}

func addReloadFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("classpath", "c", "", "Search path fragment prepended to resolved dependencies")
	cmd.Flags().StringP("entry", "e", "", "Entry function to invoke (default from kiln.yaml, then \"run\")")
	cmd.Flags().StringP("telemetry", "t", "", "Telemetry backend: otel, progrock or none")
}

func reloadOptions(cmd *cobra.Command) app.RunOptions {
	classpath, _ := cmd.Flags().GetString("classpath")
	entry, _ := cmd.Flags().GetString("entry")
	telemetry, _ := cmd.Flags().GetString("telemetry")
	json, _ := cmd.Flags().GetBool("json")

	return app.RunOptions{
		Classpath: classpath,
		Entry:     entry,
		Telemetry: telemetry,
		JSON:      json,
	}
}
