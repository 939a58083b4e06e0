// Package appid resolves the application identity used for env prefixes,
// config paths and telemetry namespaces.
package appid

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/fulmenhq/gofulmen/appidentity"
)

// Builtin is the identity used when no .fulmen/app.yaml is discoverable, so a
// standalone binary still runs.
func Builtin() *appidentity.Identity {
	return &appidentity.Identity{
		Vendor:      "routelens",
		BinaryName:  "routelens",
		EnvPrefix:   "ROUTELENS_",
		ConfigName:  "routelens",
		Description: "Rate-aware client and relay for the openrouteservice API",
	}
}

// Get loads the identity from the usual discovery locations.
//
// An explicit FULMEN_APP_IDENTITY_PATH remains authoritative: if it points at a
// missing file the NotFoundError is returned rather than masked.
func Get(ctx context.Context) (*appidentity.Identity, error) {
	identity, err := appidentity.Get(ctx)
	if err == nil {
		return identity, nil
	}

	var notFound *appidentity.NotFoundError
	if errors.As(err, &notFound) && strings.TrimSpace(os.Getenv(appidentity.EnvIdentityPath)) == "" {
		return Builtin(), nil
	}
	return nil, err
}
