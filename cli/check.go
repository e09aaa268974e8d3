package cli

import (
	"fmt"
	"strings"

	"github.com/giygas/vetref-api/compat"
	"github.com/giygas/vetref-api/config"
	"github.com/spf13/cobra"
)

func checkCmd(opts *options) *cobra.Command {
	var policy string
	var fluid string

	c := &cobra.Command{
		Use:   "check DRUG DRUG [DRUG...]",
		Short: "Check Y-site compatibility of the given drugs",
		Example: `  vetref check dopamine bicarb
  vetref check Fentanyl Midazolam Ketamine --policy conservative --fluid LRS`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, f, err := config.LoadCheckDefaults()
			if err != nil {
				return err
			}
			if policy != "" {
				if p, err = compat.ParsePolicy(policy); err != nil {
					return err
				}
			}
			if fluid != "" {
				if f, err = compat.ParseFluid(fluid); err != nil {
					return err
				}
			}

			reg, err := opts.loadRegistry()
			if err != nil {
				return err
			}

			report, err := compat.Check(reg, args, p, f)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, report.Text())
			for _, g := range report.Guidance {
				fmt.Fprintf(out, "\n%s\n  Bolus: %s\n  Monitoring: %s\n", g.Drug, g.Bolus, g.Monitoring)
			}
			return nil
		},
	}

	c.Flags().StringVar(&policy, "policy", "", "aggregation policy: standard or conservative (default $DEFAULT_POLICY or standard)")
	c.Flags().StringVar(&fluid, "fluid", "", "carrier fluid (default $DEFAULT_FLUID or NS): "+strings.Join([]string{string(compat.FluidNS), string(compat.FluidLRS), string(compat.FluidD5W)}, ", "))
	return c
}

func drugsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "drugs [QUERY]",
		Short: "List catalog drugs, optionally filtered by name or brand",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := opts.loadRegistry()
			if err != nil {
				return err
			}

			var query string
			if len(args) == 1 {
				query = args[0]
			}

			out := cmd.OutOrStdout()
			for _, d := range reg.Search(query) {
				line := d.CanonicalName
				if d.CommonName != "" && d.CommonName != d.CanonicalName {
					line += " (" + d.CommonName + ")"
				}
				if len(d.BrandAliases) > 0 {
					line += ": " + strings.Join(d.BrandAliases, ", ")
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}
