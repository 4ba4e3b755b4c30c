package commands

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/forgelabs/modforge/internal/resolve"
)

// NewDepsCommand creates the deps command: it resolves buildspecs and
// renders their dependency lists, or the install-level plan for the
// combined dependency graph.
func NewDepsCommand() *cobra.Command {
	var levels bool

	cmd := &cobra.Command{
		Use:   "deps <buildspec>...",
		Short: "Show resolved dependencies",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver := getResolver(cmd.Context())

			var procs []*resolve.Processed
			for _, path := range args {
				p, err := resolver.Process(path, nil)
				if err != nil {
					return err
				}
				procs = append(procs, p...)
			}

			if levels {
				return renderLevels(cmd, resolver, procs)
			}
			renderDeps(cmd, procs)
			return nil
		},
	}

	cmd.Flags().BoolVar(&levels, "levels", false, "Group modules by install level instead of listing dependencies")
	return cmd
}

func renderDeps(cmd *cobra.Command, procs []*resolve.Processed) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Module", "Dependency", "Version", "Toolchain", "Kind"})

	for _, proc := range procs {
		for _, dep := range proc.Dependencies {
			kind := "runtime"
			switch {
			case dep.Build:
				kind = "build"
			case dep.Hidden:
				kind = "hidden"
			}
			t.AppendRow(table.Row{
				proc.FullModName,
				dep.Name,
				dep.Version + dep.VersionSuffix,
				dep.Toolchain.String(),
				kind,
			})
		}
	}
	t.Render()
}

func renderLevels(cmd *cobra.Command, resolver *resolve.Resolver, procs []*resolve.Processed) error {
	graph, err := resolver.BuildGraph(procs)
	if err != nil {
		return err
	}
	lvls, err := graph.InstallLevels()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, level := range lvls {
		fmt.Fprintf(out, "level %d: %s\n", i, strings.Join(level, ", "))
	}
	return nil
}
