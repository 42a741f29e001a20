package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/kiln/internal/core/domain"
)

func sampleParams() domain.ToolchainParameters {
	return domain.ToolchainParameters{
		SourceDir: ".",
		BuildDir:  "build/Release",
		BuildType: "Release",
		Variables: map[string]domain.Param{
			"CONAN_BUILD":       domain.StringParam("1"),
			"LLVM_USE_LINKER":   domain.StringParam("lld"),
			"BUILD_TESTING":     domain.BoolParam(false),
			"CMAKE_PREFIX_PATH": domain.PathParam("/a;/b"),
		},
		Definitions: map[string]string{"_WIN32_WINNT": "0x0A00", "NOMINMAX": ""},
	}
}

func TestToolchainParameters_CacheArgs(t *testing.T) {
	assert.Equal(t, []string{
		"-DBUILD_TESTING:BOOL=OFF",
		"-DCMAKE_PREFIX_PATH:PATH=/a;/b",
		"-DCONAN_BUILD:STRING=1",
		"-DLLVM_USE_LINKER:STRING=lld",
	}, sampleParams().CacheArgs())
}

func TestToolchainParameters_SortedDefinitions(t *testing.T) {
	defs := sampleParams().SortedDefinitions()
	assert.Equal(t, "NOMINMAX", defs[0].String())
	assert.Equal(t, "_WIN32_WINNT=0x0A00", defs[1].String())
}

func TestToolchainParameters_Fingerprint(t *testing.T) {
	a := sampleParams()
	b := sampleParams()
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEmpty(t, a.Fingerprint())

	b.Jobs = 8
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())

	c := sampleParams()
	c.Variables["CONAN_BUILD"] = domain.PathParam("1")
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint(), "kind is part of the fingerprint")
}
