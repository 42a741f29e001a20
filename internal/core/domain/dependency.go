package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// DependencyRecord pins an external library to an exact identifier and content hash.
type DependencyRecord struct {
	// Identifier is "name/version", optionally followed by "@user/channel".
	Identifier string `json:"identifier" yaml:"identifier"`

	// ContentHash is the recipe revision or content digest the artifact must match.
	ContentHash string `json:"content_hash" yaml:"content_hash"`

	// Tool marks a build-time tool (b2, nasm, perl) rather than a linked library.
	Tool bool `json:"tool,omitempty" yaml:"tool,omitempty"`
}

// NewDependencyRecord validates and normalizes an identifier and hash into a record.
func NewDependencyRecord(identifier, contentHash string) (DependencyRecord, error) {
	id, err := normalizeIdentifier(identifier)
	if err != nil {
		return DependencyRecord{}, err
	}

	hash := strings.TrimSpace(contentHash)
	if hash == "" {
		return DependencyRecord{}, zerr.With(
			zerr.Wrap(ErrInvalidDescriptor, "content hash is required"),
			"identifier", id,
		)
	}
	if !isHex(hash) {
		return DependencyRecord{}, zerr.With(zerr.With(
			zerr.Wrap(ErrInvalidDescriptor, "content hash must be hexadecimal"),
			"identifier", id),
			"hash", hash,
		)
	}

	return DependencyRecord{Identifier: id, ContentHash: strings.ToLower(hash)}, nil
}

// ParseRequirement parses the compact "name/version[@user/channel][#hash]" form.
// A bare trailing "@" is accepted and dropped.
func ParseRequirement(ref string) (DependencyRecord, error) {
	id, hash, _ := strings.Cut(strings.TrimSpace(ref), "#")
	return NewDependencyRecord(id, hash)
}

// Name returns the package name part of the identifier.
func (d DependencyRecord) Name() string {
	name, _, _ := strings.Cut(d.Identifier, "/")
	return name
}

// Version returns the version part of the identifier.
func (d DependencyRecord) Version() string {
	_, rest, _ := strings.Cut(d.Identifier, "/")
	version, _, _ := strings.Cut(rest, "@")
	return version
}

// Reference renders the record in its compact "identifier#hash" form.
func (d DependencyRecord) Reference() string {
	return d.Identifier + "#" + d.ContentHash
}

func (d DependencyRecord) String() string {
	return d.Reference()
}

func normalizeIdentifier(identifier string) (string, error) {
	id := strings.TrimSuffix(strings.TrimSpace(identifier), "@")

	base, userChannel, hasUser := strings.Cut(id, "@")
	name, version, ok := strings.Cut(base, "/")
	if !ok || name == "" || version == "" || strings.Contains(version, "/") {
		return "", zerr.With(
			zerr.Wrap(ErrInvalidDescriptor, "identifier must have the form name/version"),
			"identifier", identifier,
		)
	}

	if hasUser {
		user, channel, ok := strings.Cut(userChannel, "/")
		if !ok || user == "" || channel == "" {
			return "", zerr.With(
				zerr.Wrap(ErrInvalidDescriptor, "user and channel must have the form @user/channel"),
				"identifier", identifier,
			)
		}
	}

	if strings.ContainsAny(id, " \t#") {
		return "", zerr.With(
			zerr.Wrap(ErrInvalidDescriptor, "identifier contains invalid characters"),
			"identifier", identifier,
		)
	}

	return id, nil
}

func isHex(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
