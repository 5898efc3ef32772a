package config

import (
	"strings"
	"testing"
)

func TestValidateResourceName(t *testing.T) {
	v := NewNameValidator()

	tests := []struct {
		name      string
		input     string
		wantError bool
		errorMsg  string
	}{
		{"simple", "net0", false, ""},
		{"with hyphen", "testbox-1a2b3c", false, ""},
		{"with dot and underscore", "nm_state.dev", false, ""},
		{"empty", "", true, "empty"},
		{"leading hyphen", "-net", true, "invalid characters"},
		{"with space", "net 0", true, "invalid characters"},
		{"with slash", "net/0", true, "invalid characters"},
		{"with semicolon", "net;rm", true, "invalid characters"},
		{"too long", strings.Repeat("a", 256), true, "too long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateResourceName(tt.input)
			if tt.wantError {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				if !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("expected error containing %q, got %q", tt.errorMsg, err.Error())
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateSectionName(t *testing.T) {
	v := NewNameValidator()

	for _, name := range []string{"start-dbus", "wait_nm", "test"} {
		if err := v.ValidateSectionName(name); err != nil {
			t.Errorf("ValidateSectionName(%q) = %v", name, err)
		}
	}
	for _, name := range []string{"", "two words", "a.b"} {
		if err := v.ValidateSectionName(name); err == nil {
			t.Errorf("ValidateSectionName(%q) should fail", name)
		}
	}
}

func TestValidateInterface(t *testing.T) {
	v := NewNameValidator()

	for _, name := range []string{"", "eth1", "eth2", "bond0.100"} {
		if err := v.ValidateInterface(name); err != nil {
			t.Errorf("ValidateInterface(%q) = %v", name, err)
		}
	}
	for _, name := range []string{"..", "eth 1", "averyveryverylongname"} {
		if err := v.ValidateInterface(name); err == nil {
			t.Errorf("ValidateInterface(%q) should fail", name)
		}
	}
}

func TestValidateEnv(t *testing.T) {
	v := NewNameValidator()

	valid := []string{"CI=true", "PYTHONDONTWRITEBYTECODE=1", "EMPTY=", "OPTS=-k 'bond and vlan'"}
	for _, entry := range valid {
		if err := v.ValidateEnv(entry); err != nil {
			t.Errorf("ValidateEnv(%q) = %v", entry, err)
		}
	}

	invalid := []string{"NOVALUE", "1BAD=x", "BAD-NAME=x", "NUL=a\x00b", "LONG=" + strings.Repeat("x", 4097)}
	for _, entry := range invalid {
		if err := v.ValidateEnv(entry); err == nil {
			t.Errorf("ValidateEnv(%q) should fail", entry)
		}
	}
}

func TestValidateArgs(t *testing.T) {
	v := NewNameValidator()

	if err := v.ValidateArgs([]string{"-k", "bond and not vlan", "--log-level=DEBUG", "$(not expanded)"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := v.ValidateArgs([]string{"ok", "bad\x00"}); err == nil || !strings.Contains(err.Error(), "argument 1") {
		t.Errorf("expected null byte error for argument 1, got %v", err)
	}
	if err := v.ValidateArgs([]string{strings.Repeat("a", 4097)}); err == nil {
		t.Error("expected length error")
	}
}

func TestValidateHostPath(t *testing.T) {
	v := NewNameValidator()

	if err := v.ValidateHostPath("/sys/fs/cgroup"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	for _, path := range []string{"", "/a:/b", "/tmp/\x00"} {
		if err := v.ValidateHostPath(path); err == nil {
			t.Errorf("ValidateHostPath(%q) should fail", path)
		}
	}
}
