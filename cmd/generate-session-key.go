package cmd

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/spf13/cobra"
)

var generateSessionKeyCmd = &cobra.Command{
	Use:   "generate-session-key",
	Short: "Generate a random session key",
	Long: `Generate a random key for signing session cookies.

Add the generated key to your configuration file as session_key, or export it
as MINEDASH_SESSION_KEY.`,
	RunE: generateSessionKey,
}

func init() {
	rootCmd.AddCommand(generateSessionKeyCmd)
}

func generateSessionKey(cmd *cobra.Command, args []string) error {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return fmt.Errorf("failed to generate session key: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(key)

	fmt.Println("Add this to your configuration file:")
	fmt.Println()
	fmt.Printf("session_key: \"%s\"\n", encoded)
	fmt.Println()
	fmt.Println("Note: Changing the key signs out every user.")
	return nil
}
