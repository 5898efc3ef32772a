// Package config validates the names and values a testbox profile passes to
// the container engine.
package config

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	maxNameLength  = 255
	maxValueLength = 4096
)

// NameValidator checks resource names, environment entries and extra
// arguments before they reach the Docker API.
type NameValidator struct {
	// Docker container and network names
	resourceNamePattern *regexp.Regexp
	// Linux interface names inside the container
	interfacePattern *regexp.Regexp
	envNamePattern   *regexp.Regexp
	// Section names of steps, mounts and networks in a profile
	sectionNamePattern *regexp.Regexp
}

// NewNameValidator creates a validator with the Docker naming rules.
func NewNameValidator() *NameValidator {
	return &NameValidator{
		resourceNamePattern: regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`),
		interfacePattern:    regexp.MustCompile(`^[a-zA-Z0-9_.-]{1,15}$`),
		envNamePattern:      regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`),
		sectionNamePattern:  regexp.MustCompile(`^[a-zA-Z0-9_-]+$`),
	}
}

// ValidateResourceName validates a container or network name.
func (v *NameValidator) ValidateResourceName(name string) error {
	if name == "" {
		return fmt.Errorf("resource name cannot be empty")
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("resource name too long (max %d characters)", maxNameLength)
	}
	if !v.resourceNamePattern.MatchString(name) {
		return fmt.Errorf("resource name contains invalid characters: %s", name)
	}
	return nil
}

// ValidateSectionName validates the quoted name of a profile section.
func (v *NameValidator) ValidateSectionName(name string) error {
	if name == "" {
		return fmt.Errorf("section name cannot be empty")
	}
	if !v.sectionNamePattern.MatchString(name) {
		return fmt.Errorf("section name must be alphanumeric with hyphens or underscores only: %s", name)
	}
	return nil
}

// ValidateInterface validates an in-container network device name.
func (v *NameValidator) ValidateInterface(name string) error {
	if name == "" {
		return nil
	}
	if name == "." || name == ".." || !v.interfacePattern.MatchString(name) {
		return fmt.Errorf("invalid interface name: %s", name)
	}
	return nil
}

// ValidateEnv validates a NAME=value environment entry.
func (v *NameValidator) ValidateEnv(entry string) error {
	name, value, ok := strings.Cut(entry, "=")
	if !ok {
		return fmt.Errorf("environment entry %q must have the form NAME=value", entry)
	}
	if !v.envNamePattern.MatchString(name) {
		return fmt.Errorf("invalid environment variable name: %s", name)
	}
	if strings.Contains(value, "\x00") {
		return fmt.Errorf("environment variable %s contains null byte", name)
	}
	if len(value) > maxValueLength {
		return fmt.Errorf("environment variable %s exceeds maximum length", name)
	}
	return nil
}

// ValidateArgs validates extra test-runner arguments. They reach the shell as
// positional parameters, so only null bytes and length are checked.
func (v *NameValidator) ValidateArgs(args []string) error {
	for i, arg := range args {
		if len(arg) > maxValueLength {
			return fmt.Errorf("argument %d too long (max %d characters)", i, maxValueLength)
		}
		if strings.Contains(arg, "\x00") {
			return fmt.Errorf("argument %d contains null byte", i)
		}
	}
	return nil
}

// ValidateHostPath validates a bind-mount source on the host.
func (v *NameValidator) ValidateHostPath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if len(path) > maxValueLength {
		return fmt.Errorf("path too long (max %d characters)", maxValueLength)
	}
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("path contains null byte")
	}
	if strings.Contains(path, ":") {
		return fmt.Errorf("path must not contain ':': %s", path)
	}
	return nil
}
