package logger

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// messager reports its own message without the cause chain (zerr.Error, domain.PhaseError).
type messager interface {
	Message() string
}

type metadataer interface {
	Metadata() map[string]any
}

// ErrorEntry is one level of an error chain.
type ErrorEntry struct {
	Message  string
	Metadata map[string]any
}

// collectErrorEntries walks the chain of err. Levels with an empty message
// (metadata-only wrappers) fold their metadata into the next level.
func collectErrorEntries(err error) []ErrorEntry {
	var entries []ErrorEntry
	var pending map[string]any

	for current := err; current != nil; {
		m, ok := current.(messager)
		if !ok {
			entries = append(entries, ErrorEntry{Message: current.Error(), Metadata: pending})
			break
		}

		var md map[string]any
		if mm, ok := current.(metadataer); ok {
			md = mm.Metadata()
		}
		for k, v := range pending {
			if md == nil {
				md = make(map[string]any)
			}
			if _, exists := md[k]; !exists {
				md[k] = v
			}
		}

		next := errors.Unwrap(current)
		if m.Message() == "" && next != nil {
			pending = md
			current = next
			continue
		}

		entries = append(entries, ErrorEntry{Message: m.Message(), Metadata: md})
		pending = nil
		current = next
	}

	return entries
}

// formatErrorEntries renders entries as a main error followed by a "Caused by" list.
func formatErrorEntries(entries []ErrorEntry) string {
	var lines []string

	for i, entry := range entries {
		msgLines := strings.Split(entry.Message, "\n")

		if i == 0 {
			lines = append(lines, "Error: "+msgLines[0])
			for _, line := range msgLines[1:] {
				lines = append(lines, "       "+line)
			}
			lines = append(lines, formatMetadata(entry.Metadata, "       ")...)
			continue
		}

		if i == 1 {
			lines = append(lines, "", "  Caused by:")
		}
		lines = append(lines, "    → "+msgLines[0])
		for _, line := range msgLines[1:] {
			lines = append(lines, "      "+line)
		}
		lines = append(lines, formatMetadata(entry.Metadata, "      ")...)
	}

	return strings.Join(lines, "\n")
}

func formatMetadata(md map[string]any, indent string) []string {
	keys := make([]string, 0, len(md))
	for k := range md {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		value := fmt.Sprint(md[k])
		valueLines := strings.Split(strings.TrimRight(value, "\n"), "\n")
		lines = append(lines, indent+k+": "+valueLines[0])
		for _, vl := range valueLines[1:] {
			lines = append(lines, indent+"  "+vl)
		}
	}
	return lines
}
