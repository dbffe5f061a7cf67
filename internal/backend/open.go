// Package backend selects the task service implementation named in the config.
package backend

import (
	"context"
	"fmt"

	"tasksync/internal/backend/googletasks"
	"tasksync/internal/backend/local"
	"tasksync/internal/backend/restapi"
	"tasksync/internal/config"
	"tasksync/internal/service"
)

// Open connects to the configured backend. Callers should close the
// result if it implements io.Closer.
func Open(ctx context.Context, cfg *config.Config) (service.Service, error) {
	switch cfg.Backend {
	case config.BackendLocal, "":
		store, err := local.Open(cfg.DataPath())
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendREST:
		client, err := restapi.New(restapi.Options{
			BaseURL: cfg.ServerURL,
			Token:   cfg.Token,
			Timeout: cfg.RequestTimeout,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.BackendGoogle:
		client, err := googletasks.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown backend: %s", cfg.Backend)
	}
}
