package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"glacia/internal/identity"
)

func newAccountCommand(ctx *commandContext) *cobra.Command {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Manage the local profile",
	}

	accountCmd.AddCommand(newAccountLoginCommand(ctx))
	accountCmd.AddCommand(newAccountShowCommand(ctx))
	accountCmd.AddCommand(newAccountPlanCommand(ctx))
	accountCmd.AddCommand(newAccountLogoutCommand(ctx))

	return accountCmd
}

func newAccountLoginCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "login <username> <email>",
		Short: "Create or restore the local profile",
		Long: "Creates a free-plan profile for the given identity, or restores the\n" +
			"existing one when the email matches. No credentials are stored.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := ctx.profiles()
			if err != nil {
				return err
			}
			profile, err := provider.Bootstrap(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s, %s plan)\n", profile.Username, profile.Email, profile.Plan)
			return nil
		},
	}
}

func newAccountShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, profile, err := ctx.requireProfile()
			if err != nil {
				return err
			}
			rows := [][]string{
				{"Username", profile.Username},
				{"Email", profile.Email},
				{"Plan", string(profile.Plan)},
			}
			if profile.Plan == identity.PlanFree {
				rows = append(rows, []string{"Generations left", fmt.Sprintf("%d", profile.GenerationsLeft)})
			}
			renderTable(cmd.OutOrStdout(), []string{"Field", "Value"}, rows)
			return nil
		},
	}
}

func newAccountPlanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "plan <free|medium|pro>",
		Short: "Change the profile's plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, ok := identity.ParsePlan(args[0])
			if !ok {
				return fmt.Errorf("unknown plan %q", args[0])
			}
			provider, profile, err := ctx.requireProfile()
			if err != nil {
				return err
			}
			profile.Plan = plan
			if err := provider.Save(profile); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Plan set to %s\n", plan)
			return nil
		},
	}
}

func newAccountLogoutCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the local profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := ctx.profiles()
			if err != nil {
				return err
			}
			if err := provider.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}
