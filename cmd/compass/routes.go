package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/compass/pkg/routepattern"
)

// routeInfo is the listing entry of one configured route.
type routeInfo struct {
	Pattern    string   `json:"pattern"`
	Controller string   `json:"controller"`
	Regexp     string   `json:"regexp"`
	Redirect   string   `json:"redirect,omitempty"`
	Actions    []string `json:"actions"`
	Names      []string `json:"names"`
}

func newRoutesCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List configured routes with their compiled patterns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadCommandConfig(cmd)
			if err != nil {
				return err
			}

			infos, err := describeRoutes(cfg.Routes)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PATTERN\tCONTROLLER\tACTIONS\tREGEXP")
			for _, r := range infos {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Pattern, r.Controller, strings.Join(r.Actions, ","), r.Regexp)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print routes as JSON")
	return cmd
}

func describeRoutes(routes []RouteConfig) ([]routeInfo, error) {
	infos := make([]routeInfo, 0, len(routes))
	for _, r := range routes {
		m, err := routepattern.Compile(r.Pattern)
		if err != nil {
			return nil, err
		}
		infos = append(infos, routeInfo{
			Pattern:    r.Pattern,
			Controller: r.Controller,
			Regexp:     m.String(),
			Redirect:   r.Redirect,
			Actions:    r.Actions,
			Names:      m.Names(),
		})
	}
	return infos, nil
}
