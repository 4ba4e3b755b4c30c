package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewFindCommand creates the find command: it locates buildspec files under
// the configured search roots.
func NewFindCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "find [<name> <version>]",
		Short: "Locate buildspec files under the search roots",
		Args: func(cmd *cobra.Command, args []string) error {
			if all {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver := getResolver(cmd.Context())
			out := cmd.OutOrStdout()

			if all {
				paths, err := resolver.FindAllSpecs()
				if err != nil {
					return err
				}
				for _, p := range paths {
					fmt.Fprintln(out, p)
				}
				return nil
			}

			path, err := resolver.FindSpec(args[0], args[1])
			if err != nil {
				return err
			}
			if path == "" {
				return fmt.Errorf("no buildspec found for %s %s", args[0], args[1])
			}
			fmt.Fprintln(out, path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "List every buildspec under the search roots")
	return cmd
}
