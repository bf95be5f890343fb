package main

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"xfeedback/pkg/auth"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage X API credentials",
	Long: `Manage the stored X API bearer token.

The token is stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variable X_BEARER_TOKEN (read-only fallback)

Never share your token or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store an X API bearer token securely",
	Long: `Store an X API bearer token in the system keychain or an encrypted file.

To get a token:
1. Open the X developer portal
2. Create (or open) a project and app
3. Copy the app's Bearer Token from the Keys and Tokens tab`,
	Args: cobra.NoArgs,
	Run:  runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored bearer token",
	Args:  cobra.NoArgs,
	Run:   runLogout,
}

// statusCmd represents the auth status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a bearer token is configured",
	Args:  cobra.NoArgs,
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(statusCmd)
}

func runLogin(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize credential store: %v\n", err)
		os.Exit(1)
	}

	if manager.Exists(auth.DefaultLabel) {
		fmt.Print("A token is already stored. Replace it? (y/N): ")
		var answer string
		fmt.Scanln(&answer)
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y") {
			return
		}
	}

	fmt.Print("Bearer token (hidden as you type): ")
	bearer, err := readSecret()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println()

	if bearer == "" {
		fmt.Fprintln(os.Stderr, "Error: token must not be empty")
		os.Exit(1)
	}

	if err := manager.Store(&auth.Token{Label: auth.DefaultLabel, Bearer: bearer}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to store token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Token stored.")
}

func runLogout(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize credential store: %v\n", err)
		os.Exit(1)
	}
	if err := manager.Delete(auth.DefaultLabel); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to remove token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Token removed.")
}

func runStatus(cmd *cobra.Command, args []string) {
	if os.Getenv("X_BEARER_TOKEN") != "" {
		fmt.Println("Token configured via X_BEARER_TOKEN environment variable.")
		return
	}
	manager, err := auth.NewManager()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize credential store: %v\n", err)
		os.Exit(1)
	}
	if token, err := manager.Retrieve(auth.DefaultLabel); err == nil {
		fmt.Printf("Token stored (last modified %s).\n", token.LastModified.Format("2006-01-02 15:04"))
		return
	}
	fmt.Println("No token configured. Run 'xfeedback auth login' or set X_BEARER_TOKEN.")
}

// readSecret reads a line without echo. Falls back to a visible read when
// stdin is not a terminal (tests, pipes).
func readSecret() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		raw, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(raw)), nil
	}
	var line string
	if _, err := fmt.Scanln(&line); err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
