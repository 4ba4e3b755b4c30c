package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewResolveCommand creates the resolve command: it runs the full resolution
// pipeline over one or more buildspec files and reports the outcome.
func NewResolveCommand() *cobra.Command {
	var overrides []string

	cmd := &cobra.Command{
		Use:   "resolve <buildspec>...",
		Short: "Resolve buildspec files",
		Long: `Resolve one or more buildspec files: normalize parameters, resolve
dependencies, expand templates, validate and derive module names.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver := getResolver(cmd.Context())

			parsed, err := parseOverrides(overrides)
			if err != nil {
				return err
			}

			for _, path := range args {
				procs, err := resolver.Process(path, parsed)
				if err != nil {
					return err
				}
				for _, proc := range procs {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s (module %s, %d dependencies)\n",
						proc.Spec.Name(), proc.Spec.Version(), proc.FullModName, len(proc.Dependencies))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&overrides, "set", nil, "Override a parameter (key=value), repeatable")
	return cmd
}

// parseOverrides turns key=value flags into a build-spec override mapping.
func parseOverrides(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	overrides := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid override %q: expected key=value", pair)
		}
		overrides[key] = value
	}
	return overrides, nil
}
