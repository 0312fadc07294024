/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/c-bata/go-prompt"
	"github.com/google/uuid"
	"github.com/mattn/go-shellwords"
	"github.com/ponyo877/summitpoker/server/adaptor"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

var (
	cfgFile     string
	configPath  string
	pokerClient *adaptor.Client
	grpcConn    *grpc.ClientConn
)

const (
	grpcServerAddressKey = "grpc_server_address"
	userIDKey            = "user_id"
	displayNameKey       = "display_name"
	currentRoomKey       = "current_room"

	requestTimeout = 10 * time.Second
)

var errNoRoom = errors.New("no room selected; pass a room id or run `cd <room_id>`")

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "summitpoker",
	Short: "Planning poker from the terminal.",
	Long: `summitpoker talks to a summitpoker server over gRPC.

Run a single command, or start without arguments for an interactive shell:

  summitpoker id --new alice
  summitpoker touch "Sprint 42"
  summitpoker pick 5`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if pokerClient != nil {
			return nil
		}
		conn, err := grpc.NewClient(viper.GetString(grpcServerAddressKey), grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return fmt.Errorf("did not connect to gRPC server: %w", err)
		}
		grpcConn = conn
		pokerClient = adaptor.NewClient(conn)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	defer closeConn()

	// one-shot
	if len(os.Args) > 1 {
		if err := rootCmd.Execute(); err != nil {
			closeConn()
			os.Exit(1)
		}
		return
	}

	fmt.Println("entering interactive mode, type 'exit' to quit")
	p := prompt.New(
		executeLine,
		complete,
		prompt.OptionPrefix("❯❯❯ "),
		prompt.OptionTitle("summitpoker"),
		prompt.OptionSetExitCheckerOnInput(func(in string, breakline bool) bool {
			line := strings.TrimSpace(in)
			return breakline && (line == "exit" || line == "quit")
		}),
	)
	p.Run()
}

func closeConn() {
	if grpcConn != nil {
		_ = grpcConn.Close()
		grpcConn = nil
		pokerClient = nil
	}
}

// executeLine runs one REPL line as a command. Errors are printed by cobra
// and never end the session.
func executeLine(line string) {
	line = strings.TrimSpace(line)
	if line == "" || line == "exit" || line == "quit" {
		return
	}
	args, err := shellwords.Parse(line)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error parsing input:", err)
		return
	}
	resetFlags(rootCmd)
	rootCmd.SetArgs(args)
	_ = rootCmd.Execute()
}

// resetFlags restores flag defaults so one REPL line does not leak into the
// next.
func resetFlags(c *cobra.Command) {
	c.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	})
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func complete(d prompt.Document) []prompt.Suggest {
	if strings.Contains(d.TextBeforeCursor(), " ") {
		return nil
	}
	suggests := []prompt.Suggest{}
	for _, c := range rootCmd.Commands() {
		if c.Hidden || c.Name() == "help" || c.Name() == "completion" {
			continue
		}
		suggests = append(suggests, prompt.Suggest{Text: c.Name(), Description: c.Short})
	}
	return prompt.FilterHasPrefix(suggests, d.GetWordBeforeCursor(), true)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.summitpoker.yaml)")
	rootCmd.PersistentFlags().String("grpc-server", "localhost:50051", "Address of the summitpoker gRPC server")

	_ = viper.BindPFlag(grpcServerAddressKey, rootCmd.PersistentFlags().Lookup("grpc-server"))
	viper.SetDefault(grpcServerAddressKey, "localhost:50051")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		configPath = cfgFile
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".summitpoker")
		configPath = filepath.Join(home, ".summitpoker.yaml")
	}

	viper.SetEnvPrefix("SUMMITPOKER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			fmt.Fprintln(os.Stderr, "Error reading config file:", err)
		}
	}
}

// saveConfig persists the current viper state, creating the file when it
// does not exist yet.
func saveConfig() {
	if err := viper.WriteConfigAs(configPath); err != nil {
		fmt.Fprintln(os.Stderr, "Error writing config file:", err)
	}
}

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

// currentUser returns the identity stored by `id --new`.
func currentUser() (uuid.UUID, error) {
	raw := viper.GetString(userIDKey)
	if raw == "" {
		return uuid.Nil, errors.New("no identity; run `id --new <name>` first")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s in config: %w", userIDKey, err)
	}
	return id, nil
}

// targetRoom resolves the room from the first argument, falling back to the
// room selected with `cd`.
func targetRoom(args []string) (uuid.UUID, error) {
	raw := viper.GetString(currentRoomKey)
	if len(args) > 0 {
		raw = args[0]
	}
	if raw == "" {
		return uuid.Nil, errNoRoom
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid room id %q: %w", raw, err)
	}
	return id, nil
}

func parseUserID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user id %q: %w", raw, err)
	}
	return id, nil
}
