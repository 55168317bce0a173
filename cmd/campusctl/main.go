// Command campusctl talks to the campus API with a persisted session.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/jrsteele09/campus-auth/apiclient"
	"github.com/jrsteele09/campus-auth/internal/config"
	"github.com/jrsteele09/campus-auth/internal/logging"
	"github.com/jrsteele09/campus-auth/session"
	"github.com/jrsteele09/campus-auth/session/filestore"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, errHelp) || errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	c, err := config.New()
	if err != nil {
		return err
	}

	global := flag.NewFlagSet("campusctl", flag.ContinueOnError)
	apiURL := global.String("api", c.GetAPIBaseURL(), "Base URL of the campus API")
	sessionFile := global.String("session", c.GetSessionFile(), "Where the session is kept")
	verbose := global.Bool("v", false, "Log requests")
	if err := global.Parse(args); err != nil {
		return err
	}

	log := zerolog.Nop()
	if *verbose {
		log = logging.New("DEV", os.Stderr)
	}

	sess, err := session.New(filestore.New(*sessionFile), session.WithLogger(log))
	if err != nil {
		return err
	}
	jar, err := filestore.NewCookieJar(filepath.Join(filepath.Dir(*sessionFile), "cookies.json"))
	if err != nil {
		return err
	}
	client, err := apiclient.New(*apiURL, sess,
		apiclient.WithHTTPClient(&http.Client{Timeout: c.GetHTTPTimeout()}),
		apiclient.WithCookieJar(jar),
		apiclient.WithLogger(log),
	)
	if err != nil {
		return err
	}

	cli := &commandLine{client: client, out: os.Stdout}
	unsubscribe := sess.Subscribe(cli.onSessionChange)
	defer unsubscribe()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return cli.run(ctx, global.Args())
}
