package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/hypertrack/internal/models"
	"github.com/desertthunder/hypertrack/internal/repositories"
	"github.com/desertthunder/hypertrack/internal/shared"
	"github.com/urfave/cli/v3"
)

// ProviderGet prints the backend's music provider.
func (r *Runner) ProviderGet(ctx context.Context, cmd *cli.Command) error {
	cfg, err := r.api.GetConfig(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(cfg, true)
	}
	return r.writePlain("%s\n", cfg.Provider.Label())
}

// ProviderSet switches the backend's music provider.
func (r *Runner) ProviderSet(ctx context.Context, cmd *cli.Command) error {
	raw := cmd.StringArg("provider")
	if raw == "" {
		return fmt.Errorf("%w: provider (spotify or soundcloud)", shared.ErrMissingArgument)
	}

	provider, err := models.ParseProvider(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	d := r.newDashboard()
	defer d.Close()

	if err := d.SetProvider(ctx, provider); err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(models.ProviderConfig{Provider: d.State().Provider}, true)
	}
	return r.writePlain("✓ Provider set to %s\n", d.State().Provider.Label())
}

// ThemeGet prints the stored dashboard theme.
func (r *Runner) ThemeGet(ctx context.Context, cmd *cli.Command) error {
	theme, err := r.themes.Load()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]string{"theme": string(theme)}, false)
	}
	return r.writePlain("%s\n", theme)
}

// ThemeSet stores the dashboard theme.
func (r *Runner) ThemeSet(ctx context.Context, cmd *cli.Command) error {
	raw := cmd.StringArg("theme")
	if raw == "" {
		return fmt.Errorf("%w: theme (dark or light)", shared.ErrMissingArgument)
	}

	theme, err := repositories.ParseTheme(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	if err := r.themes.Save(theme); err != nil {
		return fmt.Errorf("failed to save theme: %w", err)
	}
	return r.writePlain("✓ Theme set to %s\n", theme)
}
