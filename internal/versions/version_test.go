package versions

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionInfo(t *testing.T) {
	t.Parallel()

	noVCS := func() map[string]string { return nil }
	vcs := func() map[string]string {
		return map[string]string{
			"vcs.revision": "0123456789abcdef",
			"vcs.time":     "2026-03-02T10:00:00Z",
		}
	}

	tests := []struct {
		name      string
		version   string
		commit    string
		buildDate string
		vcs       func() map[string]string
		want      VersionInfo
	}{
		{
			name:      "release_build",
			version:   "v1.4.0",
			commit:    "abc",
			buildDate: "2026-01-05T08:30:00Z",
			vcs:       noVCS,
			want:      VersionInfo{Version: "v1.4.0", Commit: "abc", BuildDate: "2026-01-05 08:30:00 UTC"},
		},
		{
			name:      "dev_build_from_vcs",
			version:   "dev",
			commit:    unknownStr,
			buildDate: unknownStr,
			vcs:       vcs,
			want:      VersionInfo{Version: "build-01234567", Commit: "0123456789abcdef", BuildDate: "2026-03-02 10:00:00 UTC"},
		},
		{
			name:      "dev_build_without_vcs",
			version:   "dev",
			commit:    unknownStr,
			buildDate: unknownStr,
			vcs:       noVCS,
			want:      VersionInfo{Version: "dev", Commit: unknownStr, BuildDate: unknownStr},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := versionInfo(tt.version, tt.commit, tt.buildDate, tt.vcs)
			tt.want.GoVersion = runtime.Version()
			tt.want.Platform = runtime.GOOS + "/" + runtime.GOARCH
			assert.Equal(t, tt.want, got)
		})
	}
}
