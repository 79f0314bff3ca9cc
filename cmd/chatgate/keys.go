package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"mercator-hq/chatgate/pkg/config"
)

// apiKeyPrefix marks chatgate client keys so they are recognisable in
// logs and secret scanners.
const apiKeyPrefix = "cg_"

var keysFlags struct {
	name  string
	bytes int
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage client API keys",
	Long: `Generate client API keys for security.auth.

Keys are random, URL-safe and prefixed with "cg_". Add the printed snippet
to the configuration file; with --watch a running server picks it up
without a restart.`,
}

var keysGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new client API key",
	Long: `Generate a new client API key and print the configuration snippet.

Examples:
  # Generate a key for the web frontend
  chatgate keys generate --name web

  # Generate a longer key
  chatgate keys generate --name batch --bytes 48`,
	RunE: generateKey,
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(keysGenerateCmd)

	keysGenerateCmd.Flags().StringVar(&keysFlags.name, "name", "", "name identifying the key's owner in logs and rate limits")
	keysGenerateCmd.Flags().IntVar(&keysFlags.bytes, "bytes", 32, "random bytes in the key (minimum 16)")
}

func generateKey(cmd *cobra.Command, args []string) error {
	if keysFlags.name == "" {
		return fmt.Errorf("--name is required")
	}

	key, err := newAPIKey(keysFlags.bytes)
	if err != nil {
		return err
	}

	return writeKeySnippet(cmd.OutOrStdout(), config.APIKeyConfig{Key: key, Name: keysFlags.name})
}

// newAPIKey returns a prefixed key carrying n random bytes.
func newAPIKey(n int) (string, error) {
	if n < 16 {
		return "", fmt.Errorf("key must carry at least 16 random bytes, got %d", n)
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return apiKeyPrefix + base64.RawURLEncoding.EncodeToString(buf), nil
}

func writeKeySnippet(w io.Writer, key config.APIKeyConfig) error {
	snippet := map[string]any{
		"security": map[string]any{
			"auth": map[string]any{
				"enabled": true,
				"keys":    []config.APIKeyConfig{key},
			},
		},
	}

	fmt.Fprintf(w, "Key name: %s\n", key.Name)
	fmt.Fprintf(w, "API key:  %s\n", key.Key)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "⚠️  Store the key securely; it is not shown again")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Configuration snippet:")

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(snippet); err != nil {
		return fmt.Errorf("failed to encode snippet: %w", err)
	}
	return enc.Close()
}
