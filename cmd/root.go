package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"fitbridge/internal/config"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeConfig indicates the configuration could not be loaded or is invalid.
	ExitCodeConfig = 2
)

// rootCmd represents the base command for the fitbridge application.
var rootCmd = &cobra.Command{
	Use:   "fitbridge",
	Short: "Log food to Fitbit from a single URL",
	Long: `fitbridge lets an assistant log a food entry into a Fitbit account by
sending the user to a URL. The OAuth login and token refresh happen in the
user's browser; tokens are kept in an encrypted session cookie.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "fitbridge version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
func getExitCode(err error) int {
	var validationErrs config.ValidationErrors
	if config.IsConfigurationError(err) || errors.As(err, &validationErrs) {
		return ExitCodeConfig
	}
	return ExitCodeError
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSecretCmd())
	rootCmd.AddCommand(newSessionCmd())
	rootCmd.AddCommand(newMealCmd())
}
