// ABOUTME: Operator CLI for exercising identity backend credential operations
// ABOUTME: Signs in, registers, signs out and inspects principals from the terminal

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/2389/authbridge/internal/config"
	"github.com/2389/authbridge/internal/credentials"
	"github.com/2389/authbridge/internal/identity"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "signin":
		err = cmdSignIn(ctx, args)
	case "register":
		err = cmdRegister(ctx, args)
	case "signout":
		err = cmdSignOut(ctx)
	case "whoami":
		err = cmdWhoami(ctx)
	case "authorize-url":
		err = cmdAuthorizeURL(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: authbridge-cli <command> [args]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  signin <email>                  Password sign-in, saves the issued session")
	fmt.Println("  register <email> [display]      Register a new identity")
	fmt.Println("  signout                         Revoke the saved session")
	fmt.Println("  whoami                          Verify the saved token and show the principal")
	fmt.Println("  authorize-url <provider>        Print the provider consent URL")
	fmt.Println()
	fmt.Printf("Backend settings come from %s or the env (%s, %s).\n",
		defaultCredFile, config.EnvBackendURL, config.EnvBackendKey)
}

// setup loads the credentials file and builds the operations facade over it.
// Every command goes through the facade so an unconfigured CLI degrades the
// same way everywhere.
func setup() (*credFile, *credentials.Operations, error) {
	cf, err := loadCredFile()
	if err != nil {
		return nil, nil, err
	}

	cfg := cf.config()
	backend := identity.NewClient(cfg.Backend.URL, cfg.Backend.Key, nil, nil)
	ops := credentials.NewOperations(cfg, backend, nil)
	return cf, ops, nil
}

func cmdSignIn(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: signin <email>")
	}
	email := args[0]

	cf, ops, err := setup()
	if err != nil {
		return err
	}

	password, err := promptPassword()
	if err != nil {
		return err
	}

	sess, err := ops.SignIn(ctx, email, password)
	if err != nil {
		return err
	}

	cf.Session.AccessToken = sess.AccessToken
	cf.Session.RefreshToken = sess.RefreshToken
	if err := cf.save(); err != nil {
		return err
	}

	color.Green("Signed in as %s (session expires %s)", email, sess.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
	return nil
}

func cmdRegister(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: register <email> [display name]")
	}
	email := args[0]
	displayName := strings.Join(args[1:], " ")

	cf, ops, err := setup()
	if err != nil {
		return err
	}

	password, err := promptPassword()
	if err != nil {
		return err
	}

	sess, err := ops.Register(ctx, email, password, displayName)
	if err != nil {
		return err
	}

	if sess == nil {
		color.Yellow("Registered %s; backend requires confirmation before sign-in", email)
		return nil
	}

	cf.Session.AccessToken = sess.AccessToken
	cf.Session.RefreshToken = sess.RefreshToken
	if err := cf.save(); err != nil {
		return err
	}

	color.Green("Registered and signed in as %s", email)
	return nil
}

func cmdSignOut(ctx context.Context) error {
	cf, ops, err := setup()
	if err != nil {
		return err
	}
	if cf.Session.AccessToken == "" {
		return fmt.Errorf("no saved session")
	}

	if err := ops.SignOut(ctx, cf.Session.AccessToken); err != nil {
		return err
	}

	cf.Session = savedSession{}
	if err := cf.save(); err != nil {
		return err
	}

	color.Green("Signed out")
	return nil
}

func cmdWhoami(ctx context.Context) error {
	cf, ops, err := setup()
	if err != nil {
		return err
	}
	if cf.Session.AccessToken == "" {
		return fmt.Errorf("no saved session")
	}

	principal, err := ops.Verify(ctx, cf.Session.AccessToken)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tPROVIDER")
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", principal.ID, principal.Email, principal.DisplayName, principal.Provider)
	return tw.Flush()
}

func cmdAuthorizeURL(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: authorize-url <provider>")
	}

	_, ops, err := setup()
	if err != nil {
		return err
	}

	url, err := ops.AuthorizationURL(args[0])
	if err != nil {
		return err
	}

	fmt.Println(url)
	return nil
}

func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
