package abi

import (
	"fmt"
	"strconv"
	"strings"
)

// APIVersion is a host API version (major.minor).
type APIVersion struct {
	Major uint32
	Minor uint32
}

func (v APIVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Less reports whether v is strictly older than other.
func (v APIVersion) Less(other APIVersion) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	return v.Minor < other.Minor
}

// ParseVersion parses "4.3" or "4.3.1"; patch components are ignored.
func ParseVersion(s string) (APIVersion, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) < 2 {
		return APIVersion{}, fmt.Errorf("version %q: want major.minor", s)
	}
	major, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return APIVersion{}, fmt.Errorf("version %q: %w", s, err)
	}
	minor, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return APIVersion{}, fmt.Errorf("version %q: %w", s, err)
	}
	return APIVersion{Major: uint32(major), Minor: uint32(minor)}, nil
}

// Compatible reports whether a host running host can load this build.
func Compatible(host APIVersion) bool {
	return host.Major == Version.Major && !host.Less(Version)
}
