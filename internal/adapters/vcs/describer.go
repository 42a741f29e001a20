// Package vcs derives build versions from source control.
package vcs

import (
	"context"
	"regexp"
	"strconv"

	"go.trai.ch/kiln/internal/adapters/shell"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// describeArgs matches the abbreviation used for delivered application versions.
var describeArgs = []string{"describe", "--tags", "--abbrev=8", "--always"}

// Describer implements ports.VersionResolver with git describe.
type Describer struct {
	runner *shell.Runner
	logger ports.Logger
	dir    string
}

// NewDescriber creates a Describer that runs git in dir.
func NewDescriber(runner *shell.Runner, logger ports.Logger, dir string) *Describer {
	return &Describer{runner: runner, logger: logger, dir: dir}
}

// Resolve returns the git describe output for the working directory.
func (d *Describer) Resolve(ctx context.Context) (string, error) {
	out, err := d.runner.Output(ctx, shell.Command{Name: "git", Args: describeArgs, Dir: d.dir})
	if err != nil {
		wrapped := zerr.With(zerr.Wrap(domain.ErrVersionResolution, "git describe failed"), "dir", d.dir)
		return "", zerr.With(wrapped, "cause", err.Error())
	}
	if out == "" {
		return "", zerr.With(zerr.Wrap(domain.ErrVersionResolution, "git describe returned nothing"), "dir", d.dir)
	}

	desc := ParseDescription(out)
	if desc.Tag == "" {
		d.logger.Debug("no tags reachable, version is commit " + desc.Commit)
	}
	d.logger.Info("delivering application version: " + out)
	return out, nil
}

// Description is the parsed form of git describe output.
type Description struct {
	// Tag is the nearest tag, empty when only a commit was printed.
	Tag string
	// Distance counts commits since Tag.
	Distance int
	// Commit is the abbreviated object name, empty on an exact tag.
	Commit string
}

// Exact reports whether the described commit is tagged.
func (d Description) Exact() bool {
	return d.Tag != "" && d.Distance == 0
}

var describePattern = regexp.MustCompile(`^(.+)-(\d+)-g([0-9a-f]+)$`)

var commitPattern = regexp.MustCompile(`^[0-9a-f]{4,40}$`)

// ParseDescription splits output such as v1.2.0-3-gdeadbeef.
func ParseDescription(s string) Description {
	if m := describePattern.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[2])
		if err == nil {
			return Description{Tag: m[1], Distance: n, Commit: m[3]}
		}
	}
	if commitPattern.MatchString(s) {
		return Description{Commit: s}
	}
	return Description{Tag: s}
}
