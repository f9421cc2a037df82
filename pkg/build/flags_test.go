// SPDX-License-Identifier: MIT
package build

import (
	"os"
	"testing"
)

var (
	origName    string
	origTime    string
	origCommit  string
	origVersion string
	origFlags   ldFlags
)

func TestMain(m *testing.M) {
	origName = buildName
	origTime = buildTime
	origCommit = buildCommit
	origVersion = buildVersion
	if buildFlags != nil {
		origFlags = *buildFlags
	}

	exitCode := m.Run()

	buildName = origName
	buildTime = origTime
	buildCommit = origCommit
	buildVersion = origVersion
	if buildFlags != nil {
		*buildFlags = origFlags
	}

	os.Exit(exitCode)
}

func resetFlags() {
	buildFlags = &ldFlags{
		Name:        "spectra",
		Time:        "unknown",
		Commit:      "unknown",
		Version:     "dev",
		Description: Description,
	}
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name        string
		buildName   string
		buildTime   string
		buildCommit string
		buildVer    string
		wantName    string
		wantTime    string
		wantCommit  string
		wantVer     string
	}{
		{
			"Development build keeps defaults",
			"", "", "", "",
			"spectra", "unknown", "unknown", "dev",
		},
		{
			"Release build takes ldflags",
			"testapp", "2025-04-13", "abcdef123", "v1.0.0",
			"testapp", "2025-04-13", "abcdef123", "v1.0.0",
		},
		{
			"Partial ldflags keep remaining defaults",
			"testapp", "", "abcdef123", "",
			"testapp", "unknown", "abcdef123", "dev",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags()

			buildName = tt.buildName
			buildTime = tt.buildTime
			buildCommit = tt.buildCommit
			buildVersion = tt.buildVer

			Initialize()

			flags := GetBuildFlags()
			if flags.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", flags.Name, tt.wantName)
			}
			if flags.Time != tt.wantTime {
				t.Errorf("Time = %q, want %q", flags.Time, tt.wantTime)
			}
			if flags.Commit != tt.wantCommit {
				t.Errorf("Commit = %q, want %q", flags.Commit, tt.wantCommit)
			}
			if flags.Version != tt.wantVer {
				t.Errorf("Version = %q, want %q", flags.Version, tt.wantVer)
			}
			if flags.Description != Description {
				t.Errorf("Description = %q, want %q", flags.Description, Description)
			}
		})
	}
}
