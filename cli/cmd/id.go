/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var newIdentity string

// idCmd represents the id command
var idCmd = &cobra.Command{
	Use:   "id [--new <display_name>]",
	Short: "Prints or creates your poker identity.",
	Long: `Prints the user id and display name stored in the config file.
With --new, registers a fresh participant on the server and stores it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if newIdentity != "" {
			ctx, cancel := requestContext()
			defer cancel()

			user, err := pokerClient.CreateUser(ctx, newIdentity)
			if err != nil {
				return fmt.Errorf("error creating user: %w", err)
			}
			viper.Set(userIDKey, user.ID.String())
			viper.Set(displayNameKey, user.DisplayName)
			saveConfig()
		}

		userID, err := currentUser()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "uid=%s name=%s\n", userID, viper.GetString(displayNameKey))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(idCmd)
	idCmd.Flags().StringVar(&newIdentity, "new", "", "Create a new identity with this display name")
}
