package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/hypertrack/internal/session"
	"github.com/desertthunder/hypertrack/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin exchanges credentials for a session token and stores it.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	email, password, err := r.credentials(cmd)
	if err != nil {
		return err
	}

	r.logger.Debug("logging in", "email", email)

	s, err := r.session.Login(ctx, email, password)
	if err != nil {
		return err
	}
	return r.writeSession(cmd, s, "✓ Logged in as %s\n")
}

// AuthSignup creates an account and logs in with it.
func (r *Runner) AuthSignup(ctx context.Context, cmd *cli.Command) error {
	email, password, err := r.credentials(cmd)
	if err != nil {
		return err
	}

	r.logger.Debug("signing up", "email", email)

	s, err := r.session.Signup(ctx, email, password)
	if err != nil {
		return err
	}
	return r.writeSession(cmd, s, "✓ Account created, logged in as %s\n")
}

// AuthLogout forgets the stored token. No request is made.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.session.Logout(); err != nil {
		return fmt.Errorf("failed to clear stored token: %w", err)
	}
	return r.writePlain("✓ Logged out\n")
}

// AuthStatus resolves the stored token and reports who it belongs to.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	s, err := r.session.Restore(ctx)
	if err != nil {
		r.logger.Debug("stored session not restored", "error", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"state": s.State.String(),
			"user":  s.User,
		}, true)
	}

	if !s.Authenticated() {
		if err != nil {
			return r.writePlain("✗ Not logged in: %s\n", r.describe(err))
		}
		return r.writePlain("✗ Not logged in\n")
	}

	r.writePlainHeader("Session")
	r.writePlain("Email:   %s\n", s.User.Email)
	r.writePlain("User ID: %d\n", s.User.ID)
	if s.User.IsAdmin {
		r.writePlain("Role:    admin\n")
	}
	r.writePlain("Since:   %s\n", s.User.CreatedAt.Display())
	return r.writePlain("Backend: %s\n", r.client.BaseURL())
}

// credentials reads email and password from flags, prompting for whatever is missing.
func (r *Runner) credentials(cmd *cli.Command) (string, string, error) {
	email := strings.TrimSpace(cmd.String("email"))
	if email == "" {
		var err error
		if email, err = r.prompt("Email"); err != nil {
			return "", "", err
		}
	}

	password := cmd.String("password")
	if password == "" {
		var err error
		if password, err = r.prompt("Password"); err != nil {
			return "", "", err
		}
	}

	if strings.TrimSpace(email) == "" || password == "" {
		return "", "", fmt.Errorf("%w: email and password are required", shared.ErrMissingCredentials)
	}
	return email, password, nil
}

func (r *Runner) writeSession(cmd *cli.Command, s session.Session, format string) error {
	if cmd.Bool("json") {
		return r.writeJSON(s.User, true)
	}
	return r.writePlain(format, s.User.Email)
}
