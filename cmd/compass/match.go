package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/compass/pkg/routepattern"
)

func newMatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "match TEMPLATE [FRAGMENT...]",
		Short: "Compile a route template and match fragments against it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := routepattern.Compile(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "template: %s\n", m.Template())
			fmt.Fprintf(out, "regexp:   %s\n", m.String())
			fmt.Fprintf(out, "names:    %s\n", formatNames(m.Names()))

			for _, fragment := range args[1:] {
				caps, ok := m.Match(fragment)
				if !ok {
					fmt.Fprintf(out, "%s: no match\n", fragment)
					continue
				}
				fmt.Fprintf(out, "%s: %s\n", fragment, formatCaptures(m.Names(), caps))
			}
			return nil
		},
	}
}

func formatNames(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	parts := make([]string, len(names))
	for i, n := range names {
		if n == "" {
			n = "_"
		}
		parts[i] = n
	}
	return strings.Join(parts, " ")
}

// formatCaptures renders captures as name=value pairs. Unmatched optional
// captures print as name=<unset>.
func formatCaptures(names []string, caps routepattern.Captures) string {
	if len(caps) == 0 {
		return "match"
	}
	parts := make([]string, len(caps))
	for i := range caps {
		name := "_"
		if i < len(names) && names[i] != "" {
			name = names[i]
		}
		v, matched := caps.Get(i)
		if !matched {
			parts[i] = name + "=<unset>"
			continue
		}
		parts[i] = fmt.Sprintf("%s=%q", name, v)
	}
	return "match " + strings.Join(parts, " ")
}
