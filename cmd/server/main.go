package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/campus-auth/auth"
	"github.com/jrsteele09/campus-auth/internal/config"
	"github.com/jrsteele09/campus-auth/internal/logging"
	"github.com/jrsteele09/campus-auth/server"
	studentrepofake "github.com/jrsteele09/campus-auth/students/repofake"
	"github.com/jrsteele09/campus-auth/token"
	"github.com/jrsteele09/campus-auth/token/refresh"
	"github.com/jrsteele09/campus-auth/token/refresh/redisrepo"
	refreshrepofake "github.com/jrsteele09/campus-auth/token/refresh/repofake"
	fakeuserrepo "github.com/jrsteele09/campus-auth/users/repofake"
	"github.com/rs/zerolog"
)

const revokedTokenCleanupInterval = time.Minute

func main() {
	log := logging.New(os.Getenv("ENV"), os.Stderr)
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	c, err := config.New()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log := logging.New(c.GetEnv(), os.Stderr)

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	displayAppname(c.GetAppName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	secret, err := jwtSecret(c, log)
	if err != nil {
		return err
	}
	tokens := token.New(token.NewHMACSigner(secret),
		token.WithIssuer(c.GetIssuer()),
		token.WithAudience(c.GetAudience()),
		token.WithAccessTokenExpiry(c.GetAccessTokenExpiry()),
	)

	refreshRepo, closeRepo, err := refreshTokenRepo(ctx, c, log)
	if err != nil {
		return err
	}
	defer closeRepo()

	userRepo := fakeuserrepo.NewFakeUserRepo()
	authService, err := auth.NewService(
		auth.Repos{Users: userRepo},
		tokens,
		refresh.NewManager(refreshRepo, c),
		auth.WithLogger(log.With().Str("component", "auth").Logger()),
	)
	if err != nil {
		return err
	}

	srv, err := server.New(c, authService, server.Repos{Users: userRepo, Students: studentrepofake.NewFakeStudentRepo()},
		server.WithLogger(log.With().Str("component", "http").Logger()))
	if err != nil {
		return err
	}
	generatedPassword, err := srv.InitialiseSystem(ctx)
	if err != nil {
		return err
	}
	if generatedPassword != "" {
		log.Warn().Str("email", c.GetAdminEmail()).Str("password", generatedPassword).Msg("Generated admin password, change it after first login")
	}

	go cleanupRevokedTokens(ctx, tokens)

	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- listenAndServe(httpServer, log)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	return shutdown(httpServer)
}

// jwtSecret refuses to start outside DEV without JWT_SECRET. In DEV a random
// secret is used, which logs everybody out on restart.
func jwtSecret(c config.Config, log zerolog.Logger) (string, error) {
	if secret := c.GetJWTSecret(); secret != "" {
		return secret, nil
	}
	if c.GetEnv() != "DEV" {
		return "", errors.New("JWT_SECRET is required outside DEV")
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	log.Warn().Msg("JWT_SECRET not set, using a random secret")
	return hex.EncodeToString(b), nil
}

func refreshTokenRepo(ctx context.Context, c config.Config, log zerolog.Logger) (refresh.Repo, func(), error) {
	addr := c.GetRedisAddr()
	if addr == "" {
		log.Info().Msg("Refresh tokens kept in memory")
		return refreshrepofake.NewFakeRefreshTokenRepo(), func() {}, nil
	}
	repo, err := redisrepo.Dial(ctx, addr, c.GetRedisPassword(), c.GetRedisDB())
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("addr", addr).Msg("Refresh tokens kept in redis")
	return repo, func() { _ = repo.Close() }, nil
}

func cleanupRevokedTokens(ctx context.Context, tokens *token.Manager) {
	ticker := time.NewTicker(revokedTokenCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tokens.CleanupRevokedTokens()
		}
	}
}

func listenAndServe(server *http.Server, log zerolog.Logger) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
