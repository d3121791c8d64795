package main

import (
	"github.com/spf13/cobra"

	"github.com/redmonkez12/dichoptic/cmd/dichoptic/ui"
)

func settingsCommand(a *app) *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the colour filters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.client.Settings(cmd.Context())
			if err != nil {
				return fail(err)
			}
			ui.PrintSettings(s)
			return nil
		},
	}

	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Save new colour filters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			current, err := a.client.Settings(cmd.Context())
			if err != nil {
				return fail(err)
			}

			if v, _ := cmd.Flags().GetString("left"); v != "" {
				current.LeftEyeColor = v
			}
			if v, _ := cmd.Flags().GetString("right"); v != "" {
				current.RightEyeColor = v
			}
			if v, _ := cmd.Flags().GetString("dominance"); v != "" {
				current.EyeDominance = v
			} else if !cmd.Flags().Changed("left") && !cmd.Flags().Changed("right") {
				if err := ui.Dominance(&current.EyeDominance); err != nil {
					return err
				}
			}

			saved, err := a.client.SaveSettings(cmd.Context(), current)
			if err != nil {
				return fail(err)
			}
			ui.PrintSettings(*saved)
			return nil
		},
	}
	setCmd.Flags().String("left", "", "Left eye colour, #RRGGBB")
	setCmd.Flags().String("right", "", "Right eye colour, #RRGGBB")
	setCmd.Flags().String("dominance", "", "left-active or right-active")

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Restore the default colour filters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			saved, err := a.client.ResetSettings(cmd.Context())
			if err != nil {
				return fail(err)
			}
			ui.PrintSettings(*saved)
			return nil
		},
	}

	settingsCmd.AddCommand(setCmd, resetCmd)
	return settingsCmd
}
