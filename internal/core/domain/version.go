package domain

import (
	"context"
	"strings"

	"go.trai.ch/zerr"
)

// ExplicitVersion is a version string supplied up front.
type ExplicitVersion string

// Resolve returns the explicit version.
func (v ExplicitVersion) Resolve(context.Context) (string, error) {
	s := strings.TrimSpace(string(v))
	if s == "" {
		return "", zerr.Wrap(ErrVersionResolution, "explicit version is empty")
	}
	return s, nil
}
