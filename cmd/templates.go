package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anuj123upadhyay/pagedriver/internal/templates"
)

// newTemplatesCmd creates the `templates` command, which lists the built-in
// workflow presets and their parameters.
func newTemplatesCmd() *cobra.Command {
	var asJSON bool

	templatesCmd := &cobra.Command{
		Use:   "templates",
		Short: "Lists the built-in workflow templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			infos := templates.List()

			if asJSON {
				data, err := jsonAPI.MarshalIndent(infos, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to serialize template list: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			for _, info := range infos {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n    %s\n    parameters: %v\n",
					info.Name, info.Description, info.Parameters)
			}
			return nil
		},
	}

	templatesCmd.Flags().BoolVar(&asJSON, "json", false, "Print the template list as JSON.")
	return templatesCmd
}
