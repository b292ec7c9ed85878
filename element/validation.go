package element

import (
	"fmt"
	"strings"

	"github.com/stepherg/blizzard-plugin-sdk/errors"
)

// Name validation limits
const (
	MaxNameLength    = 256 // Maximum length of a full element name
	MaxSegmentLength = 64  // Maximum length of a single dotted segment
)

// ValidateName validates a path-like element name such as
// "Device.Thermostat.Temperature". Names are dotted sequences of
// alphanumeric segments (dash and underscore allowed); empty segments,
// leading/trailing dots, and control characters are rejected.
func ValidateName(name string) error {
	if name == "" {
		return errors.WrapInvalid(
			fmt.Errorf("element name is empty"),
			"ElementValidator", "ValidateName", "empty name check")
	}
	if len(name) > MaxNameLength {
		return errors.WrapInvalid(
			fmt.Errorf("element name exceeds %d characters", MaxNameLength),
			"ElementValidator", "ValidateName", "name length check")
	}

	for _, segment := range strings.Split(name, ".") {
		if segment == "" {
			return errors.WrapInvalid(
				fmt.Errorf("element name %q contains an empty path segment", name),
				"ElementValidator", "ValidateName", "segment check")
		}
		if len(segment) > MaxSegmentLength {
			return errors.WrapInvalid(
				fmt.Errorf("element name %q: segment %q exceeds %d characters",
					name, segment, MaxSegmentLength),
				"ElementValidator", "ValidateName", "segment length check")
		}
		for _, r := range segment {
			if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
				(r >= '0' && r <= '9') || r == '-' || r == '_') {
				return errors.WrapInvalid(
					fmt.Errorf("element name %q: invalid character %q", name, r),
					"ElementValidator", "ValidateName", "character check")
			}
		}
	}

	return nil
}
