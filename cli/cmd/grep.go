/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/ponyo877/summitpoker/server/domain"
	"github.com/spf13/cobra"
)

var grepLimit int

var grepCmd = &cobra.Command{
	Use:   "grep [pattern]",
	Short: "Searches server telemetry.",
	Long: `Searches the server's telemetry log (heartbeats, sweeps, expired rooms)
with a regular expression. Without a pattern the newest events are listed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := requestContext()
		defer cancel()

		var (
			events []domain.TelemetryEvent
			err    error
		)
		if len(args) == 0 {
			events, err = pokerClient.ListTelemetry(ctx, grepLimit)
		} else {
			events, err = pokerClient.SearchTelemetry(ctx, args[0])
		}
		if err != nil {
			return fmt.Errorf("error searching telemetry: %w", err)
		}
		for _, e := range events {
			fmt.Fprintln(cmd.OutOrStdout(), e)
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Shows the latest server sample.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := requestContext()
		defer cancel()

		s, err := pokerClient.Stats(ctx)
		if err != nil {
			return fmt.Errorf("error getting stats: %w", err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Rooms:        %d\n", s.Rooms)
		fmt.Fprintf(out, "Users:        %d (%.1f per room)\n", s.Users, s.AvgUsersPerRoom)
		fmt.Fprintf(out, "Chat:         %d messages\n", s.ChatMessages)
		fmt.Fprintf(out, "Countdowns:   %d running\n", s.ActiveCountdowns)
		fmt.Fprintf(out, "Memory:       %.1f MiB (rooms ~%d bytes)\n", s.MemoryMiB, s.EstimatedBytes)
		fmt.Fprintf(out, "CPU:          %.1f%%\n", s.CPUPercent)
		fmt.Fprintf(out, "Subscribers:  %d (published %d, dropped %d)\n", s.Subscribers, s.PublishedEvents, s.DroppedSubscribers)
		fmt.Fprintf(out, "Taken at:     %s\n", s.TakenAt.Local().Format("2006-01-02 15:04:05"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(grepCmd)
	rootCmd.AddCommand(statsCmd)
	grepCmd.Flags().IntVarP(&grepLimit, "limit", "n", 20, "Number of events to list without a pattern")
}
