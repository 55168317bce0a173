package server

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/jrsteele09/campus-auth/students"
	"github.com/jrsteele09/campus-auth/users"
)

const (
	DefaultAdminUsername = "admin"
	adminPageSize        = 100
)

// InitialiseSystem makes sure an admin account exists so the portal can be
// used at all. It returns the generated password when it had to create the
// admin without ADMIN_PASSWORD set, and "" otherwise.
func (s *Server) InitialiseSystem(ctx context.Context) (generatedPassword string, err error) {
	s.log.Debug().Msg("bootstrap: checking system configuration")

	adminEmail := s.config.GetAdminEmail()
	if adminEmail == "" {
		adminEmail = generateEmailFromBaseURL(DefaultAdminUsername, s.config.GetBaseURL())
	}

	generatedPassword, err = s.bootstrapAdmin(ctx, adminEmail, s.config.GetAdminPassword())
	if err != nil {
		return "", fmt.Errorf("failed to bootstrap admin: %w", err)
	}

	if s.env == "DEV" {
		if err := s.seedStudents(ctx); err != nil {
			return "", fmt.Errorf("failed to seed students: %w", err)
		}
	}
	return generatedPassword, nil
}

// bootstrapAdmin creates the admin user if no admin exists
func (s *Server) bootstrapAdmin(_ context.Context, adminEmail, password string) (generatedPassword string, err error) {
	for offset := 0; ; offset += adminPageSize {
		existingUsers, err := s.repos.Users.List(offset, adminPageSize)
		if err != nil {
			return "", fmt.Errorf("failed to check for existing users: %w", err)
		}
		for _, user := range existingUsers {
			if user.IsAdmin() {
				s.log.Info().Str("email", user.Email).Msg("admin already exists")
				return "", nil
			}
		}
		if len(existingUsers) < adminPageSize {
			break
		}
	}

	if password == "" {
		passwordBytes := make([]byte, 16)
		if _, err := rand.Read(passwordBytes); err != nil {
			return "", fmt.Errorf("failed to generate password: %w", err)
		}
		password = base64.URLEncoding.EncodeToString(passwordBytes)
		generatedPassword = password
	} else if err := users.ValidatePasswordStrength(password); err != nil {
		return "", fmt.Errorf("ADMIN_PASSWORD: %w", err)
	}

	passwordHash, err := users.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &users.User{
		Email:                  adminEmail,
		Username:               DefaultAdminUsername,
		PasswordHash:           passwordHash,
		FirstName:              "System",
		LastName:               "Administrator",
		Role:                   users.RoleAdmin,
		DateJoined:             s.nowTime(),
		PasswordChangeRequired: generatedPassword != "",
	}
	if err := s.repos.Users.Upsert(admin); err != nil {
		return "", fmt.Errorf("failed to create admin: %w", err)
	}

	s.log.Info().Str("email", admin.Email).Msg("created admin")
	return generatedPassword, nil
}

// seedStudents gives a development server something to list
func (s *Server) seedStudents(_ context.Context) error {
	existing, err := s.repos.Students.List(0, 1)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	enrolled := time.Date(s.nowTime().Year(), time.September, 1, 0, 0, 0, 0, time.UTC)
	seed := []*students.Student{
		{ID: "s-1001", FirstName: "Ada", LastName: "Lovelace", Email: "ada.lovelace@campus.local", Program: "Mathematics", Year: 2, EnrolledAt: enrolled},
		{ID: "s-1002", FirstName: "Alan", LastName: "Turing", Email: "alan.turing@campus.local", Program: "Computer Science", Year: 3, EnrolledAt: enrolled},
		{ID: "s-1003", FirstName: "Grace", LastName: "Hopper", Email: "grace.hopper@campus.local", Program: "Computer Science", Year: 1, EnrolledAt: enrolled},
	}
	for _, st := range seed {
		if err := s.repos.Students.Upsert(st); err != nil {
			return err
		}
	}
	s.log.Debug().Int("count", len(seed)).Msg("seeded students")
	return nil
}

// generateEmailFromBaseURL creates an email address from a username and base URL
// Example: ("admin", "https://auth.example.com/path") -> "admin@auth.example.com"
func generateEmailFromBaseURL(user, baseURL string) string {
	domain := strings.ReplaceAll(strings.ReplaceAll(baseURL, "https://", ""), "http://", "")
	domain = strings.SplitN(domain, "/", 2)[0]
	domain = strings.SplitN(domain, ":", 2)[0]
	return fmt.Sprintf("%s@%s", user, domain)
}
