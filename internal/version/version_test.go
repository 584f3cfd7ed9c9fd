package version

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersionOf(t *testing.T) {
	tests := []struct {
		name     string
		info     *debug.BuildInfo
		expected string
	}{
		{
			name:     "main module",
			info:     &debug.BuildInfo{Main: debug.Module{Path: modulePath, Version: "v0.2.0"}},
			expected: "v0.2.0",
		},
		{
			name:     "devel",
			info:     &debug.BuildInfo{Main: debug.Module{Path: modulePath, Version: "(devel)"}},
			expected: Default,
		},
		{
			name: "dependency",
			info: &debug.BuildInfo{
				Main: debug.Module{Path: "example.com/app"},
				Deps: []*debug.Module{{Path: "go.uber.org/zap", Version: "v1.27.1"}, {Path: modulePath, Version: "v0.1.0"}},
			},
			expected: "v0.1.0",
		},
		{
			name: "replaced",
			info: &debug.BuildInfo{
				Main: debug.Module{Path: "example.com/app"},
				Deps: []*debug.Module{{Path: modulePath, Version: "v0.1.0", Replace: &debug.Module{Version: "v0.1.1"}}},
			},
			expected: "v0.1.1",
		},
		{
			name:     "absent",
			info:     &debug.BuildInfo{Main: debug.Module{Path: "example.com/app"}},
			expected: Default,
		},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, versionOf(tc.info))
		})
	}
}

func TestGetWasmosVersion(t *testing.T) {
	// Test binaries are built from the main module without a version.
	require.NotEmpty(t, GetWasmosVersion())
}
