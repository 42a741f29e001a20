package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/config"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

func newLoader(t *testing.T) *config.Loader {
	t.Helper()
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Debug(gomock.Any()).AnyTimes()
	return config.NewLoader(mockLogger)
}

func writeDescriptor(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), domain.DefaultDescriptorFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoader_Load_EDA(t *testing.T) {
	desc, err := newLoader(t).Load(filepath.Join("testdata", "eda.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "eda", desc.Name)
	assert.Equal(t, "0.0.0", desc.Version)
	assert.Equal(t, domain.VersionFromSCM, desc.VersionFrom)
	require.Len(t, desc.Requires, 13)

	assert.Equal(t, "bzip2/1.0.8", desc.Requires[0].Record.Identifier)
	assert.Equal(t, "411fc05e80d47a89045edc1ee6f23c1d", desc.Requires[0].Record.ContentHash)
	assert.Nil(t, desc.Requires[0].When)

	perl := desc.Requires[3]
	assert.Equal(t, "strawberryperl/5.32.1.1", perl.Record.Identifier)
	assert.True(t, perl.Record.Tool)
	require.NotNil(t, perl.When)
	assert.True(t, perl.When.Matches(domain.Platform{OS: domain.OSWindows}))
	assert.False(t, perl.When.Matches(domain.Platform{OS: domain.OSLinux}))

	assert.Equal(t, "libstudxml/1.1.0-b.10+1", desc.Requires[7].Record.Identifier)
	assert.Equal(t, "xlnt/1.5.0", desc.Requires[12].Record.Identifier)

	require.Len(t, desc.Overlays, 1)
	rule := desc.Overlays[0]
	assert.Equal(t, "windows-boost", rule.Name)
	require.Len(t, rule.Overrides, 2)
	assert.Equal(t, "extra_b2_flags", rule.Overrides[0].Option)
	assert.Equal(t, domain.StringValue("define=_WIN32_WINNT=0x0A00"), rule.Overrides[0].Value)
	assert.Equal(t, "fPIC", rule.Overrides[1].Option)
	assert.Equal(t, domain.BoolValue(true), rule.Overrides[1].Value)

	assert.Equal(t, "CONAN_BUILD", desc.Toolchain.MarkerName())
	assert.Equal(t, "Ninja", desc.Toolchain.Generator)
	assert.True(t, desc.Toolchain.WindowsDefaults)

	assert.Equal(t, []string{"REL_WEB_CLIENT"}, desc.Build.Preflight)
	assert.False(t, desc.Build.Verify)
}

func TestLoader_Load_ToolchainValues(t *testing.T) {
	path := writeDescriptor(t, `
name: sample
toolchain:
  windows_defaults: false
  variables:
    BUILD_TESTING: false
    APP_FLAVOR: web
  definitions:
    _WIN32_WINNT: 0x0A00
  rules:
    - name: debug
      when:
        build_type: Debug
        not:
          os: Windows
      definitions:
        KILN_DEBUG: 1
`)

	desc, err := newLoader(t).Load(path)
	require.NoError(t, err)

	assert.False(t, desc.Toolchain.WindowsDefaults)
	assert.Equal(t, domain.BoolParam(false), desc.Toolchain.Variables["BUILD_TESTING"])
	assert.Equal(t, domain.StringParam("web"), desc.Toolchain.Variables["APP_FLAVOR"])
	assert.Equal(t, "0x0A00", desc.Toolchain.Definitions["_WIN32_WINNT"])

	require.Len(t, desc.Toolchain.Rules, 1)
	r := desc.Toolchain.Rules[0]
	assert.Equal(t, "1", r.Definitions["KILN_DEBUG"])
	assert.True(t, r.When.Matches(domain.Platform{OS: domain.OSLinux, BuildType: "Debug"}))
	assert.False(t, r.When.Matches(domain.Platform{OS: domain.OSWindows, BuildType: "Debug"}))
	assert.False(t, r.When.Matches(domain.Platform{OS: domain.OSLinux, BuildType: "Release"}))
}

func TestLoader_Load_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name:    "missing name",
			content: "requires: []\n",
			wantErr: domain.ErrInvalidDescriptor,
		},
		{
			name:    "malformed yaml",
			content: "name: [unterminated\n",
			wantErr: domain.ErrInvalidDescriptor,
		},
		{
			name:    "unknown key",
			content: "name: x\nrequirez: []\n",
			wantErr: domain.ErrInvalidDescriptor,
		},
		{
			name:    "missing hash",
			content: "name: x\nrequires:\n  - zlib/1.3.1\n",
			wantErr: domain.ErrInvalidDescriptor,
		},
		{
			name:    "hash given twice",
			content: "name: x\nrequires:\n  - ref: zlib/1.3.1#b8bc\n    hash: b8bc\n",
			wantErr: domain.ErrInvalidDescriptor,
		},
		{
			name:    "unknown requirement key",
			content: "name: x\nrequires:\n  - ref: strawberryperl/5.32.1.1#8f83d05a60363a422f9033e52d106b47\n    wen: {os: Windows}\n",
			wantErr: domain.ErrInvalidDescriptor,
		},
		{
			name:    "unknown key in requirement condition",
			content: "name: x\nrequires:\n  - ref: strawberryperl/5.32.1.1#8f83d05a60363a422f9033e52d106b47\n    when: {platform: Windows}\n",
			wantErr: domain.ErrInvalidDescriptor,
		},
		{
			name:    "empty condition",
			content: "name: x\noverlays:\n  - when: {}\n    options: {}\n",
			wantErr: domain.ErrInvalidDescriptor,
		},
		{
			name:    "unknown version strategy",
			content: "name: x\nversion_from: calendar\n",
			wantErr: domain.ErrInvalidDescriptor,
		},
		{
			name:    "negative jobs",
			content: "name: x\nbuild:\n  jobs: -1\n",
			wantErr: domain.ErrInvalidDescriptor,
		},
		{
			name:    "non scalar option value",
			content: "name: x\noverlays:\n  - options:\n      boost/*:\n        fPIC: [a]\n",
			wantErr: domain.ErrInvalidDescriptor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newLoader(t).Load(writeDescriptor(t, tt.content))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)

			var zErr *zerr.Error
			require.True(t, errors.As(err, &zErr))
			assert.NotEmpty(t, zErr.Metadata()["path"])
		})
	}
}

func TestParse_RequirementMappingForm(t *testing.T) {
	desc, err := config.Parse([]byte(`
name: eda
requires:
  - ref: strawberryperl/5.32.1.1
    hash: 8f83d05a60363a422f9033e52d106b47
    tool: true
    when:
      os: Windows
`))
	require.NoError(t, err)
	require.Len(t, desc.Requires, 1)
	assert.True(t, desc.Requires[0].Record.Tool)

	g, err := domain.Resolve(desc, domain.Platform{OS: domain.OSLinux}, "")
	require.NoError(t, err)
	assert.Empty(t, g.Dependencies())

	g, err = domain.Resolve(desc, domain.Platform{OS: domain.OSWindows}, "")
	require.NoError(t, err)
	assert.Len(t, g.Dependencies(), 1)
}

func TestLoader_Load_NotFound(t *testing.T) {
	_, err := newLoader(t).Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, domain.ErrDescriptorNotFound)
}

func TestParse_DuplicateRequirementIsAResolutionError(t *testing.T) {
	desc, err := config.Parse([]byte(`
name: dup
requires:
  - zlib/1.3.1#b8bc2603263cf7eccbd6e17e66b0ed76
  - zlib/1.3.1#b8bc2603263cf7eccbd6e17e66b0ed76
`))
	require.NoError(t, err)

	_, err = domain.Resolve(desc, domain.Platform{OS: domain.OSLinux}, "")
	assert.ErrorIs(t, err, domain.ErrDuplicateDependency)
}
