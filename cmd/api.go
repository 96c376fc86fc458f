package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/desertthunder/hypertrack/internal/shared"
	"github.com/urfave/cli/v3"
)

// APIGet makes a direct GET request to the backend
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	return r.raw(ctx, cmd, http.MethodGet, nil)
}

// APIPost makes a direct POST request to the backend
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	data := cmd.String("data")
	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}

	var jsonTest any
	if err := json.Unmarshal([]byte(data), &jsonTest); err != nil {
		return fmt.Errorf("%w: data is not valid JSON: %v", shared.ErrInvalidInput, err)
	}

	return r.raw(ctx, cmd, http.MethodPost, []byte(data))
}

// raw sends the request with the stored token, if any, and prints the response body.
func (r *Runner) raw(ctx context.Context, cmd *cli.Command, method string, body []byte) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	token, err := r.tokens.Load()
	if err != nil {
		r.logger.Warn("failed to read stored token", "error", err)
	}

	r.logger.Info(method+" request", "path", path)

	resp, err := r.client.Raw(ctx, method, path, body, token)
	if err != nil {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, r.describe(err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, !cmd.Bool("json"))
	}

	r.writeBytes(resp.Body)
	return r.writePlain("\n")
}
