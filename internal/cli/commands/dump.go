package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewDumpCommand creates the dump command: it resolves a buildspec and
// writes its canonical serialized form.
func NewDumpCommand() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "dump <buildspec>",
		Short: "Resolve a buildspec and print its canonical form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver := getResolver(cmd.Context())

			procs, err := resolver.Process(args[0], nil)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, proc := range procs {
				data, err := proc.Spec.Dump()
				if err != nil {
					return err
				}
				if i > 0 {
					fmt.Fprintln(out, "---")
				}
				if outPath != "" {
					if err := os.WriteFile(outPath, data, 0o600); err != nil {
						return err
					}
					continue
				}
				_, _ = out.Write(data)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Write the dump to a file instead of stdout")
	return cmd
}
