package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xff16/vesta"
	"github.com/xff16/vesta/dashboard"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print configured routes and their actions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := vesta.LoadConfig(configPath())
		if err != nil {
			return err
		}

		router, err := vesta.NewRouter(vesta.RouterConfigSet{
			Name:        cfg.Name,
			Application: cfg.Application,
			Routes:      cfg.Routes,
			Middlewares: cfg.Middlewares,
		}, zap.NewNop())
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0) //nolint:mnd // column padding
		fmt.Fprintln(tw, "METHOD\tPATH\tCONTROLLER\tACTIONS")

		prefix := router.Application().ContextPath()
		for _, r := range dashboard.Routes(router) {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Method, prefix+r.Path, r.Controller, strings.Join(r.Actions, ","))
		}

		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(routesCmd)
}
