package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"slugline/internal/quota"
)

func newUserCommand(ctx *commandContext) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Inspect and manage user accounts",
	}

	userCmd.AddCommand(newUserUsageCommand(ctx))
	userCmd.AddCommand(newUserSetTierCommand(ctx))

	return userCmd
}

func newUserUsageCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show quota usage for the acting user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.closeStores()

			svc, err := ctx.service()
			if err != nil {
				return err
			}
			usage, err := svc.Usage(cmd.Context(), ctx.userID())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if usage.Unlimited {
				fmt.Fprintf(out, "%s (%s): %d pages used, no ceiling\n", usage.UserID, usage.Tier, usage.UsedPages)
				return nil
			}
			fmt.Fprintf(out, "%s (%s): %d of %d pages used", usage.UserID, usage.Tier, usage.UsedPages, usage.TotalPages)
			if usage.ReservedPages > 0 {
				fmt.Fprintf(out, " (%d held)", usage.ReservedPages)
			}
			fmt.Fprintln(out)
			return nil
		},
	}
}

func newUserSetTierCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set-tier <free|premium>",
		Short: "Change the acting user's subscription tier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.closeStores()

			tier := quota.Tier(args[0])
			if tier != quota.TierFree && tier != quota.TierPremium {
				return fmt.Errorf("unknown tier %q (expected free or premium)", args[0])
			}

			svc, err := ctx.service()
			if err != nil {
				return err
			}
			if err := svc.SetTier(cmd.Context(), ctx.userID(), tier); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %s is now on the %s tier\n", ctx.userID(), tier)
			return nil
		},
	}
}
