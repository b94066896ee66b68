package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Sign up, log in, and manage your account",
}

var authSignupCmd = &cobra.Command{
	Use:   "signup <email>",
	Short: "Create an account",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuthSignup,
}

var authLoginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Log in",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and forget the stored token",
	RunE:  runAuthLogout,
}

var authProfileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show your profile and credit balance",
	RunE:  runAuthProfile,
}

var authRemember bool

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authSignupCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authProfileCmd)

	authSignupCmd.Flags().BoolVar(&authRemember, "remember", false, "stay signed in across invocations")
	authLoginCmd.Flags().BoolVar(&authRemember, "remember", false, "stay signed in across invocations")
}

func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}

func runAuthSignup(cmd *cobra.Command, args []string) error {
	password, err := promptPassword()
	if err != nil {
		return err
	}

	a, err := buildAppRemember(authRemember)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	defer a.Close(ctx)

	token, err := a.API.Signup(ctx, args[0], password)
	if err != nil {
		return userError(err)
	}
	if err := a.Tokens.SetToken(token); err != nil {
		return err
	}
	fmt.Println("Account created. You are signed in.")
	return nil
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	password, err := promptPassword()
	if err != nil {
		return err
	}

	a, err := buildAppRemember(authRemember)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	defer a.Close(ctx)

	token, err := a.API.Login(ctx, args[0], password)
	if err != nil {
		return userError(err)
	}
	if err := a.Tokens.SetToken(token); err != nil {
		return err
	}
	fmt.Println("Signed in.")
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	defer a.Close(ctx)

	if a.Tokens.Authenticated() {
		// Best effort; the local token is cleared either way.
		if err := a.API.Logout(ctx); err != nil {
			a.Log.Warn("server logout failed", "error", err)
		}
	}
	if err := a.Tokens.Clear(); err != nil {
		return err
	}
	fmt.Println("Signed out.")
	return nil
}

func runAuthProfile(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	defer a.Close(ctx)

	if !a.Tokens.Authenticated() {
		return fmt.Errorf("not signed in; run 'prepforge auth login <email>' first")
	}
	profile, err := a.API.GetProfile(ctx)
	if err != nil {
		return userError(err)
	}
	fmt.Printf("Name:     %s\n", profile.Name)
	fmt.Printf("Email:    %s\n", profile.Email)
	fmt.Printf("Credits:  %d\n", profile.Credits)
	fmt.Printf("Sessions: %d\n", len(profile.Sessions))
	fmt.Printf("Member since: %s\n", profile.CreatedAt.Format("2006-01-02"))
	return nil
}
