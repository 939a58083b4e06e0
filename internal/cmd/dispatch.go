package cmd

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/routelens/routelens/internal/config"
	"github.com/routelens/routelens/internal/core/engine"
	"github.com/routelens/routelens/internal/core/store"
	"github.com/routelens/routelens/internal/observability"
	"github.com/routelens/routelens/internal/ors"
)

// engineConfig maps the client section of the configuration onto the
// dispatcher.
func engineConfig(cfg config.ClientConfig) engine.Config {
	var headers http.Header
	if len(cfg.Headers) > 0 {
		headers = make(http.Header, len(cfg.Headers))
		for key, value := range cfg.Headers {
			headers.Set(key, value)
		}
	}

	return engine.Config{
		APIKey:              cfg.APIKey,
		BaseURL:             cfg.BaseURL,
		Timeout:             cfg.Timeout,
		RetryTimeout:        cfg.RetryTimeout,
		QueriesPerMinute:    cfg.QueriesPerMinute,
		RetryOverQueryLimit: cfg.RetryOverQueryLimit,
		Headers:             headers,
		ProxyURL:            cfg.ProxyURL,
		UserAgent:           cfg.UserAgent,
		Logger:              observability.DispatchLogger(),
	}
}

// dispatcher is the shared client plus the store backing its send window.
type dispatcher struct {
	client *engine.Client

	// store is nil when persist_quota is off or the store could not be opened.
	store *store.Store
}

func (d *dispatcher) Close() {
	if d.store != nil {
		_ = d.store.Close()
	}
}

// newDispatcher builds the shared client. With persist_quota enabled the send
// window is backed by the store; a store that cannot be opened degrades to an
// in-process window.
func newDispatcher(ctx context.Context, cfg *config.Config) (*dispatcher, error) {
	engineCfg := engineConfig(cfg.Client)
	d := &dispatcher{}

	if cfg.Client.PersistQuota {
		db, err := openStoreWith(ctx, cfg.Store)
		if err != nil {
			if logger := observability.DispatchLogger(); logger != nil {
				logger.Warn("Quota store unavailable, using in-process window", zap.Error(err))
			}
		} else {
			engineCfg.Store = db
			d.store = db
		}
	}

	client, err := engine.New(engineCfg)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.client = client
	return d, nil
}

// sendOptions carries global flags into each call.
func sendOptions() []engine.SendOption {
	if dryRun {
		return []engine.SendOption{engine.WithDryRun()}
	}
	return nil
}

func callOptions() []ors.CallOption {
	opts := sendOptions()
	if len(opts) == 0 {
		return nil
	}
	return []ors.CallOption{ors.WithSendOptions(opts...)}
}
