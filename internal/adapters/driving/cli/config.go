package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-chat/internal/config"
)

// getenv is swapped in tests.
var getenv = os.Getenv

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and edit the keys stored in the configuration file.

Every key can also be set with an environment variable, which takes
precedence over the file. Run 'sercha-chat config show' to list them.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show every key and its current value",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Store a value",
	Long: `Stores a value in the configuration file.
Secrets may be omitted from the command line; you will be prompted for them.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runConfigSet,
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a stored value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigUnset,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if configStore == nil {
			return errors.New("config store not configured")
		}
		cmd.Println(configStore.Path())
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	cmd.Printf("Configuration (%s)\n", configStore.Path())
	cmd.Println()
	for _, ks := range config.Keys {
		value, origin := currentValue(ks)
		switch {
		case value == "":
			value = "(not set)"
		case ks.Secret:
			value = config.Mask(value)
		}
		line := fmt.Sprintf("  %-26s %s", ks.Name, value)
		if origin != "" {
			line += "  [" + origin + "]"
		}
		cmd.Println(line)
	}
	return nil
}

// currentValue returns the effective value of a key and where it came from.
// Origin is empty for values read from the file.
func currentValue(ks config.KeySpec) (string, string) {
	for _, env := range []string{ks.Env(), ks.AltEnv} {
		if env == "" {
			continue
		}
		if v := getenv(env); v != "" {
			return v, "$" + env
		}
	}
	raw, ok := configStore.Get(ks.Name)
	if !ok {
		return "", ""
	}
	switch v := raw.(type) {
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ","), ""
	case []string:
		return strings.Join(v, ","), ""
	default:
		return fmt.Sprint(v), ""
	}
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	key := args[0]
	ks, ok := config.Lookup(key)
	if !ok {
		return fmt.Errorf("unknown key %q, run 'sercha-chat config show' to list keys", key)
	}

	var raw string
	if len(args) == 2 {
		raw = args[1]
	} else {
		if !ks.Secret {
			return fmt.Errorf("a value is required for %s", key)
		}
		cmd.Printf("Enter %s: ", ks.Description)
		raw = readPassword(cmd.InOrStdin())
		cmd.Println()
		if raw == "" {
			return errors.New("no value entered")
		}
	}

	value, err := config.ParseValue(key, raw)
	if err != nil {
		return err
	}
	if err := configStore.Set(key, value); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}

	shown := raw
	if ks.Secret {
		shown = config.Mask(raw)
	}
	cmd.Printf("Set %s = %s\n", key, shown)
	if env := ks.Env(); getenv(env) != "" {
		cmd.Printf("Note: $%s is set and takes precedence.\n", env)
	}
	return nil
}

func runConfigUnset(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	key := args[0]
	if _, ok := config.Lookup(key); !ok {
		return fmt.Errorf("unknown key %q", key)
	}
	if err := configStore.Delete(key); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	cmd.Printf("Removed %s\n", key)
	return nil
}

// readPassword reads a line without echo when stdin is a terminal.
//
//nolint:errcheck // CLI helper, error ignored for UX
func readPassword(in io.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	input, _ := bufio.NewReader(in).ReadString('\n')
	return strings.TrimSpace(input)
}
