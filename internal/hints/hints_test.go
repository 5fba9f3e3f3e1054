package hints

// Notes:
// - ForBrowserLaunch tests cannot use t.Parallel() because they:
//   1. Use t.Setenv() which modifies process environment
//   2. Modify the package-level IsInContainer variable
// These are acceptable gaps: we test observable behavior through environment manipulation.

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestForBrowserNotFound - Remediation List
// ---------------------------------------------------------------------------

func TestForBrowserNotFound(t *testing.T) {
	t.Parallel()

	hint := ForBrowserNotFound()

	wantParts := []string{
		"1. install",
		"2. set " + EnvBrowserBin,
		"3. set " + EnvBrowserURL,
	}
	for _, want := range wantParts {
		if !strings.Contains(hint, want) {
			t.Errorf("expected %q in remediation list, got %q", want, hint)
		}
	}

	if got := strings.Count(hint, "\n  hint: "); got != 3 {
		t.Errorf("expected 3 hint lines, got %d", got)
	}
}

// ---------------------------------------------------------------------------
// TestForBrowserLaunch - Environment-Dependent Hints
// ---------------------------------------------------------------------------

func TestForBrowserLaunch_InCI(t *testing.T) {
	orig := IsInContainer
	defer func() { IsInContainer = orig }()
	IsInContainer = func() bool { return false }

	t.Setenv("CI", "true")
	t.Setenv(EnvNoSandbox, "")
	t.Setenv(EnvBrowserBin, "")
	t.Setenv(EnvBrowserURL, "")

	hint := ForBrowserLaunch()

	if !strings.Contains(hint, "hint:") {
		t.Error("expected hint prefix")
	}
	if !strings.Contains(hint, EnvNoSandbox) {
		t.Errorf("expected %s suggestion in CI", EnvNoSandbox)
	}
	if !strings.Contains(hint, EnvBrowserBin) {
		t.Errorf("expected %s suggestion", EnvBrowserBin)
	}
}

func TestForBrowserLaunch_InDocker(t *testing.T) {
	orig := IsInContainer
	defer func() { IsInContainer = orig }()
	IsInContainer = func() bool { return true }

	t.Setenv("CI", "")
	t.Setenv("GITHUB_ACTIONS", "")
	t.Setenv("GITLAB_CI", "")
	t.Setenv("JENKINS_URL", "")
	t.Setenv(EnvNoSandbox, "")

	if hint := ForBrowserLaunch(); !strings.Contains(hint, EnvNoSandbox) {
		t.Errorf("expected %s suggestion in Docker, got %q", EnvNoSandbox, hint)
	}
}

func TestForBrowserLaunch_AllConfigured(t *testing.T) {
	orig := IsInContainer
	defer func() { IsInContainer = orig }()
	IsInContainer = func() bool { return true }

	t.Setenv("CI", "")
	t.Setenv("GITHUB_ACTIONS", "")
	t.Setenv("GITLAB_CI", "")
	t.Setenv("JENKINS_URL", "")
	t.Setenv(EnvNoSandbox, "1")
	t.Setenv(EnvBrowserBin, "/usr/bin/chromium")

	if hint := ForBrowserLaunch(); hint != "" {
		t.Errorf("expected no hint when everything is configured, got %q", hint)
	}
}

func TestForBrowserLaunch_RemoteEndpointSet(t *testing.T) {
	orig := IsInContainer
	defer func() { IsInContainer = orig }()
	IsInContainer = func() bool { return false }

	t.Setenv("CI", "")
	t.Setenv("GITHUB_ACTIONS", "")
	t.Setenv("GITLAB_CI", "")
	t.Setenv("JENKINS_URL", "")
	t.Setenv(EnvBrowserBin, "")
	t.Setenv(EnvBrowserURL, "ws://browser:3000")

	if hint := ForBrowserLaunch(); strings.Contains(hint, EnvBrowserBin) {
		t.Errorf("should not suggest %s in remote mode, got %q", EnvBrowserBin, hint)
	}
}

// ---------------------------------------------------------------------------
// TestForConfigNotFound - Suggested Paths
// ---------------------------------------------------------------------------

func TestForConfigNotFound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		searched []string
		wantPart string
	}{
		{
			name:     "no searched paths",
			searched: nil,
			wantPart: "--config",
		},
		{
			name:     "suggests user config path",
			searched: []string{"render.yaml", "/home/u/.config/go-resume2pdf/render.yaml"},
			wantPart: "or create /home/u/.config/go-resume2pdf/render.yaml",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			hint := ForConfigNotFound(tt.searched)
			if !strings.Contains(hint, tt.wantPart) {
				t.Errorf("ForConfigNotFound(%v) = %q, want substring %q", tt.searched, hint, tt.wantPart)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestForUnknownValue - Available Values
// ---------------------------------------------------------------------------

func TestForUnknownValue(t *testing.T) {
	t.Parallel()

	if got := ForUnknownValue(nil); got != "" {
		t.Errorf("expected empty hint for no values, got %q", got)
	}

	got := ForUnknownValue([]string{"a4", "letter"})
	if got != "\n  hint: available: a4, letter" {
		t.Errorf("unexpected hint %q", got)
	}
}

// ---------------------------------------------------------------------------
// TestFormat_Consistency - Every Hint Shares the Prefix
// ---------------------------------------------------------------------------

func TestFormat_Consistency(t *testing.T) {
	t.Parallel()

	for name, hint := range map[string]string{
		"ForServerStart":     ForServerStart(),
		"ForTimeout":         ForTimeout(),
		"ForOutputDirectory": ForOutputDirectory(),
		"ForBrowserNotFound": ForBrowserNotFound(),
	} {
		if !strings.HasPrefix(hint, "\n  hint: ") {
			t.Errorf("%s: expected consistent prefix, got %q", name, hint)
		}
	}
}

// ---------------------------------------------------------------------------
// TestForUsage - Help pointer
// ---------------------------------------------------------------------------

func TestForUsage(t *testing.T) {
	t.Parallel()

	got := ForUsage("convert")
	if got != "\n  hint: run 'resume2pdf help convert' for usage" {
		t.Errorf("unexpected hint %q", got)
	}
}
