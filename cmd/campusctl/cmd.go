package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"syscall"
	"time"

	"github.com/jrsteele09/campus-auth/apiclient"
	"github.com/jrsteele09/campus-auth/authmodel"
	"github.com/jrsteele09/campus-auth/session"
	"golang.org/x/term"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	client *apiclient.Client
	out    io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  login -email EMAIL   - log in, the password will be prompted next")
	fmt.Fprintln(cli.out, "  logout               - end the session")
	fmt.Fprintln(cli.out, "  whoami               - show the logged in user")
	fmt.Fprintln(cli.out, "  get PATH             - GET an API path, e.g. /api/students")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 1 {
		cli.printUsage()
		return errHelp
	}

	loginCmd := flag.NewFlagSet("login", flag.ContinueOnError)
	loginCmd.SetOutput(cli.out)
	loginEmail := loginCmd.String("email", "", "The user's email. The password will be prompted next.")

	switch args[0] {
	case "login":
		if err := loginCmd.Parse(args[1:]); err != nil {
			return err
		}
		if *loginEmail == "" {
			loginCmd.Usage()
			return errHelp
		}
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			loginCmd.Usage()
			return errHelp
		}
		return cli.login(ctx, *loginEmail, string(pwd))
	case "logout":
		return cli.logout(ctx)
	case "whoami":
		return cli.whoami(ctx)
	case "get":
		if len(args) < 2 {
			cli.printUsage()
			return errHelp
		}
		return cli.get(ctx, args[1])
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) login(ctx context.Context, email, password string) error {
	user, err := cli.client.Login(ctx, email, password)
	if err != nil {
		return describe(err)
	}
	fmt.Fprintf(cli.out, "Logged in as %s (%s)\n", user.Email, user.Role)
	return nil
}

func (cli *commandLine) logout(ctx context.Context) error {
	err := cli.client.Logout(ctx)
	fmt.Fprintln(cli.out, "Logged out")
	if err != nil {
		return fmt.Errorf("server logout failed, local session cleared: %w", err)
	}
	return nil
}

func (cli *commandLine) whoami(ctx context.Context) error {
	sess := cli.client.Session()
	if !sess.State().LoggedIn() {
		fmt.Fprintln(cli.out, "Not logged in")
		return nil
	}

	var me authmodel.UserInfo
	if err := cli.client.GetJSON(ctx, authmodel.RouteMe, &me); err != nil {
		return describe(err)
	}
	fmt.Fprintf(cli.out, "%s (%s)\n", me.Email, me.Role)
	if tok := sess.Token(); tok != nil && !tok.Expiry.IsZero() {
		fmt.Fprintf(cli.out, "Access token expires %s\n", tok.Expiry.Local().Format(time.RFC1123))
	}
	return nil
}

func (cli *commandLine) get(ctx context.Context, path string) error {
	resp, err := cli.client.Send(ctx, apiclient.Request{Method: http.MethodGet, Path: path})
	if err != nil {
		return describe(err)
	}

	var pretty any
	if err := json.Unmarshal(resp.Body, &pretty); err != nil {
		_, err = cli.out.Write(resp.Body)
		return err
	}
	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return enc.Encode(pretty)
}

// onSessionChange reports session events that happen behind the command's
// back, like a transparent refresh.
func (cli *commandLine) onSessionChange(e session.Event) {
	if e.Kind == session.EventRefresh {
		fmt.Fprintln(cli.out, "(access token refreshed)")
	}
}

// describe turns client errors into something a user can act on
func describe(err error) error {
	var resErr *apiclient.ResourceError
	var netErr *apiclient.NetworkError
	switch {
	case errors.Is(err, apiclient.ErrSessionExpired):
		return errors.New("session expired, please log in again")
	case errors.Is(err, apiclient.ErrRetryExhausted):
		return errors.New("request rejected even after refreshing the session, please log in again")
	case errors.As(err, &netErr):
		return fmt.Errorf("cannot reach the server: %w", netErr.Err)
	case errors.As(err, &resErr):
		if msg := resErr.Message(); msg != "" {
			return fmt.Errorf("%s (HTTP %d)", msg, resErr.StatusCode)
		}
		return fmt.Errorf("request failed with HTTP %d", resErr.StatusCode)
	}
	return err
}
