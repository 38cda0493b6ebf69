// Package commands defines the ekscompose cobra commands.
//
// Every command reads its settings from the environment (CLUSTER is
// required) and runs the resolver against AWS.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the ekscompose CLI
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ekscompose",
		Short:         "Compose EKS cluster resource graphs and realize them with Terraform",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(Synth())
	cmd.AddCommand(Plan())
	cmd.AddCommand(Apply())
	cmd.AddCommand(Version())

	return cmd
}

// Synth returns the command that writes the Terraform stack
func Synth() *cobra.Command {
	return &cobra.Command{
		Use:   "synth",
		Short: "Build the resource graphs and write the Terraform stack",
		Long: `Build the resource graph of every project of the cluster named by CLUSTER
and write cdk.tf.json and manifest.yaml to OUTPUT_DIR/stacks/<cluster>.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), modeSynth)
		},
	}
}

// Plan returns the command that synthesizes and plans the stack
func Plan() *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Synthesize the stack and run terraform plan",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), modePlan)
		},
	}
}

// Apply returns the command that synthesizes, plans and applies the stack
func Apply() *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Synthesize the stack and apply it with terraform",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), modeApply)
		},
	}
}
