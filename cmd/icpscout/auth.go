package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"icpscout/pkg/auth"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage API tokens",
	Long: `Manage the stored API tokens the tool needs.

Tokens are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read-only, for CI)

Services:
  apify  the scraping backend token (required)
  ai     the AI classification fallback key (optional)`,
}

// setCmd represents the auth set command
var setCmd = &cobra.Command{
	Use:   "set <service>",
	Short: "Store an API token securely",
	Long: `Store an API token securely in the system keychain or encrypted file.

The token is read from a hidden prompt, never from command arguments, so
it stays out of your shell history.`,
	Example: `  # Store the Apify token
  icpscout auth set apify

  # Store the AI fallback key
  icpscout auth set ai`,
	Args: cobra.ExactArgs(1),
	RunE: runAuthSet,
}

// removeCmd represents the auth remove command
var removeCmd = &cobra.Command{
	Use:   "remove [service]",
	Short: "Remove a stored token",
	Long: `Remove a stored API token.

Without a service argument all stored tokens are removed after
confirmation.`,
	Example: `  # Remove the Apify token
  icpscout auth remove apify

  # Remove everything
  icpscout auth remove`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAuthRemove,
}

// authListCmd represents the auth list command
var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored tokens",
	Long:  `List stored API tokens with their values masked.`,
	RunE:  runAuthList,
}

// guideCmd represents the auth guide command
var guideCmd = &cobra.Command{
	Use:   "guide",
	Short: "Show how to obtain API tokens",
	Run: func(cmd *cobra.Command, args []string) {
		auth.ShowTokenSetupGuide()
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(setCmd)
	authCmd.AddCommand(removeCmd)
	authCmd.AddCommand(authListCmd)
	authCmd.AddCommand(guideCmd)
}

func knownService(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case auth.ServiceApify:
		return auth.ServiceApify, nil
	case auth.ServiceAI:
		return auth.ServiceAI, nil
	default:
		return "", fmt.Errorf("unknown service %q (expected %q or %q)", name, auth.ServiceApify, auth.ServiceAI)
	}
}

func runAuthSet(cmd *cobra.Command, args []string) error {
	service, err := knownService(args[0])
	if err != nil {
		return err
	}

	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	reader := bufio.NewReader(os.Stdin)

	// Check if the token already exists
	if existing, _ := manager.Retrieve(service); existing != nil {
		fmt.Printf("A token for %q is already stored. Replace it? (y/N): ", service)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
	}

	fmt.Printf("Token for %q (input hidden): ", service)
	token, err := readSecret()
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}
	if len(token) < 8 {
		return fmt.Errorf("that does not look like a valid token (too short)")
	}

	fmt.Print("Label (optional, press Enter to skip): ")
	label, _ := reader.ReadString('\n')
	label = strings.TrimSpace(label)

	cred := &auth.Credential{
		Service: service,
		Token:   token,
		Label:   label,
	}

	if err := manager.Store(cred); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	fmt.Printf("\nToken stored for %q.\n", service)
	if auth.IsKeyringAvailable() {
		fmt.Println("Storage: system keychain (encrypted file as fallback)")
	} else {
		fmt.Println("Storage: encrypted file")
	}
	if service == auth.ServiceApify {
		fmt.Println("\nYou can now run:")
		fmt.Println("  icpscout run <brand>")
	}
	return nil
}

func runAuthRemove(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if len(args) == 1 {
		service, err := knownService(args[0])
		if err != nil {
			return err
		}
		if err := manager.Delete(service); err != nil {
			return fmt.Errorf("failed to remove token: %w", err)
		}
		fmt.Printf("Token removed for %q.\n", service)
		return nil
	}

	creds, err := manager.List()
	if err != nil || len(creds) == 0 {
		fmt.Println("No stored tokens found.")
		return nil
	}

	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("Remove ALL %d stored tokens? This cannot be undone! (yes/N): ", len(creds))
	confirm, _ := reader.ReadString('\n')
	if strings.TrimSpace(confirm) != "yes" {
		return nil
	}

	if err := manager.DeleteAll(); err != nil {
		return fmt.Errorf("failed to remove tokens: %w", err)
	}
	fmt.Println("All tokens removed.")
	return nil
}

func runAuthList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	creds, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list tokens: %w", err)
	}

	if len(creds) == 0 {
		fmt.Println("No stored tokens. Use 'icpscout auth set apify' to add one.")
		return nil
	}

	fmt.Println("Stored tokens:")
	fmt.Println()
	for _, cred := range creds {
		sanitized := auth.SanitizeCredential(cred)
		fmt.Printf("  Service: %s\n", sanitized.Service)
		fmt.Printf("  Token:   %s\n", sanitized.Token)
		if sanitized.Label != "" {
			fmt.Printf("  Label:   %s\n", sanitized.Label)
		}
		fmt.Printf("  Updated: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		fmt.Println()
	}
	return nil
}

// readSecret reads a token from stdin without echoing
func readSecret() (string, error) {
	// Try to read without echo
	if term.IsTerminal(int(syscall.Stdin)) {
		secret, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println() // New line after hidden input
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
