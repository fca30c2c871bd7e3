// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id       Id
		wantNil  bool
		contains string
	}{
		{DirectoryInvalidId, false, "Cannot process this path"},
		{BackupFailedId, false, "Backup failed"},
		{ConfigLoadFailedId, false, "Failed to load configuration"},
		{InterruptedId, false, "Interrupted"},
		{LogFileFailedId, false, "Cannot write the log file"},
		{Id(9999), true, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.contains, func(t *testing.T) {
			t.Parallel()

			got := Get(tt.id)
			if tt.wantNil {
				if got != nil {
					t.Errorf("Get(%d) should return nil", tt.id)
				}
				return
			}
			if got == nil {
				t.Fatalf("Get(%d) returned nil", tt.id)
			}
			if got.Id() != tt.id {
				t.Errorf("Id() = %d, want %d", got.Id(), tt.id)
			}
			if !strings.Contains(string(got.MarkdownMsg()), tt.contains) {
				t.Errorf("MarkdownMsg() should contain %q", tt.contains)
			}
			if got.Title() == "" {
				t.Error("Title() is empty")
			}
		})
	}
}

func TestValues(t *testing.T) {
	t.Parallel()

	all := Values()
	if len(all) != len(issues) {
		t.Fatalf("Values() returned %d issues, want %d", len(all), len(issues))
	}
	for i, v := range all {
		if v.Id() != Id(i+1) {
			t.Errorf("Values()[%d].Id() = %d, want %d", i, v.Id(), i+1)
		}
	}
}

func TestAllIssuesAreRenderable(t *testing.T) {
	originalRender := render
	defer func() { render = originalRender }()

	render = func(in string, _ string) (string, error) {
		return in, nil
	}

	for _, v := range Values() {
		rendered, err := v.Render("notty")
		if err != nil {
			t.Errorf("issue %d failed to render: %v", v.Id(), err)
		}
		if strings.TrimSpace(rendered) == "" {
			t.Errorf("issue %d rendered to empty string", v.Id())
		}
	}
}

func TestRender_Glamour(t *testing.T) {
	t.Parallel()

	rendered, err := Get(BackupFailedId).Render("notty")
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.Contains(rendered, "--no-backup") {
		t.Errorf("rendered output should keep the command example, got:\n%s", rendered)
	}
}
