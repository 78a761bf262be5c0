package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/signalmesh/signalmesh/internal/registry"
)

func newSourcesCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List configured data sources and their roles",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry(configPath)
			if err != nil {
				return err
			}
			printSources(reg)
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "sources YAML file (default: built-in registry)")
	return cmd
}

func printSources(reg *registry.Registry) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCATEGORY\tENABLED\tTIER\tROLES\tRATE")
	for _, src := range reg.All() {
		fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%s\t%d/%s\n",
			src.ID, src.Category, src.Enabled, src.CostTier,
			roleString(src.Roles), src.RateLimit, src.RateWindow)
	}
	w.Flush()
}

func roleString(r registry.Role) string {
	var names []string
	if r.Has(registry.RoleCorePricing) {
		names = append(names, "core_pricing")
	}
	if r.Has(registry.RoleParetoConstraints) {
		names = append(names, "pareto_constraints")
	}
	if r.Has(registry.RoleContextualBandit) {
		names = append(names, "contextual_bandit")
	}
	if r.Has(registry.RoleSecondarySignal) {
		names = append(names, "secondary_signal")
	}
	return strings.Join(names, ",")
}
