/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config [new_display_name]",
	Short: "Gets or sets the display name.",
	Long: `Shows the client configuration. With an argument, renames you in every
room you are a member of.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if len(args) == 0 {
			fmt.Fprintf(out, "Server:       %s\n", viper.GetString(grpcServerAddressKey))
			fmt.Fprintf(out, "User ID:      %s\n", viper.GetString(userIDKey))
			fmt.Fprintf(out, "Display Name: %s\n", viper.GetString(displayNameKey))
			fmt.Fprintf(out, "Current Room: %s\n", viper.GetString(currentRoomKey))
			return nil
		}

		userID, err := currentUser()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext()
		defer cancel()

		user, err := pokerClient.EditUser(ctx, userID, args[0])
		if err != nil {
			return fmt.Errorf("error setting display name: %w", err)
		}
		viper.Set(displayNameKey, user.DisplayName)
		saveConfig()
		fmt.Fprintf(out, "Display name set to: %s\n", user.DisplayName)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
