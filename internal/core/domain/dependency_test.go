package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
)

func TestParseRequirement(t *testing.T) {
	tests := []struct {
		name        string
		ref         string
		wantID      string
		wantHash    string
		wantName    string
		wantVersion string
	}{
		{
			name:        "compact form with trailing at",
			ref:         "libstudxml/1.1.0-b.10+1@#dbf5dbaa380ebbf310d689f39812bd73",
			wantID:      "libstudxml/1.1.0-b.10+1",
			wantHash:    "dbf5dbaa380ebbf310d689f39812bd73",
			wantName:    "libstudxml",
			wantVersion: "1.1.0-b.10+1",
		},
		{
			name:        "plain",
			ref:         "zlib/1.3.1#B8BC2603263CF7ECCBD6E17E66B0ED76",
			wantID:      "zlib/1.3.1",
			wantHash:    "b8bc2603263cf7eccbd6e17e66b0ed76",
			wantName:    "zlib",
			wantVersion: "1.3.1",
		},
		{
			name:        "user and channel",
			ref:         "xlnt/1.5.0@eda/stable#e5ec04252980531d13216a6a8d295a85",
			wantID:      "xlnt/1.5.0@eda/stable",
			wantHash:    "e5ec04252980531d13216a6a8d295a85",
			wantName:    "xlnt",
			wantVersion: "1.5.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.ParseRequirement(tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, got.Identifier)
			assert.Equal(t, tt.wantHash, got.ContentHash)
			assert.Equal(t, tt.wantName, got.Name())
			assert.Equal(t, tt.wantVersion, got.Version())
			assert.Equal(t, tt.wantID+"#"+tt.wantHash, got.Reference())
		})
	}
}

func TestParseRequirement_Invalid(t *testing.T) {
	tests := map[string]string{
		"missing hash":      "zlib/1.3.1",
		"missing version":   "zlib#b8bc2603263cf7eccbd6e17e66b0ed76",
		"non hex hash":      "zlib/1.3.1#not-a-hash",
		"empty name":        "/1.3.1#b8bc2603263cf7eccbd6e17e66b0ed76",
		"incomplete user":   "zlib/1.3.1@eda#b8bc2603263cf7eccbd6e17e66b0ed76",
		"nested version":    "zlib/1.3/1#b8bc2603263cf7eccbd6e17e66b0ed76",
		"whitespace inside": "zlib /1.3.1#b8bc2603263cf7eccbd6e17e66b0ed76",
	}

	for name, ref := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := domain.ParseRequirement(ref)
			assert.ErrorIs(t, err, domain.ErrInvalidDescriptor)
		})
	}
}
