package cli

import (
	"fmt"

	"github.com/giygas/vetref-api/calculators"
	"github.com/spf13/cobra"
)

func transfusionCmd() *cobra.Command {
	var in calculators.TransfusionInput

	c := &cobra.Command{
		Use:   "transfusion",
		Short: "Estimate canine whole blood transfusion volume",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := calculators.Transfusion(in)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Text)
			return nil
		},
	}

	c.Flags().Float64Var(&in.WeightKg, "weight", 0, "body weight in kg (required)")
	c.Flags().Float64Var(&in.RecipientPCV, "recipient-pcv", 0, "recipient PCV in percent (required)")
	c.Flags().Float64Var(&in.TargetPCV, "target-pcv", calculators.DefaultTargetPCV, "target PCV in percent")
	c.Flags().Float64Var(&in.DonorPCV, "donor-pcv", calculators.DefaultDonorPCV, "donor PCV in percent")
	c.Flags().Float64Var(&in.BloodVolume, "blood-volume", calculators.DefaultBloodVolume, "blood volume in mL/kg: 85, 90 or 95")

	_ = c.MarkFlagRequired("weight")
	_ = c.MarkFlagRequired("recipient-pcv")
	return c
}

func criCmd(opts *options) *cobra.Command {
	var in calculators.CRIInput

	c := &cobra.Command{
		Use:   "cri",
		Short: "Compute a constant rate infusion pump rate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := opts.loadRegistry()
			if err != nil {
				return err
			}

			res, err := calculators.CRI(reg, in)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), res.Text())
			return nil
		},
	}

	c.Flags().StringVar(&in.Drug, "drug", "", "drug name or brand, enables the typical range check")
	c.Flags().Float64Var(&in.WeightKg, "weight", 0, "body weight in kg (required)")
	c.Flags().Float64Var(&in.Dose, "dose", 0, "dose in mcg/kg/min (required)")
	c.Flags().Float64Var(&in.Concentration, "concentration", 0, "bag concentration in mg/mL (required)")
	c.Flags().StringVar(&in.VerifierInitials, "verifier", "", "initials of the second verifier")

	_ = c.MarkFlagRequired("weight")
	_ = c.MarkFlagRequired("dose")
	_ = c.MarkFlagRequired("concentration")
	return c
}
