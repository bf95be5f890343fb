package xapi

import (
	"regexp"

	errs "xfeedback/pkg/errors"
)

var statusIDPattern = regexp.MustCompile(`/status/(\d+)`)
var bareIDPattern = regexp.MustCompile(`^\d+$`)

// ExtractPostID extracts the numeric post id from a post URL
// (https://x.com/user/status/1234567890) or returns a bare numeric id
// unchanged. Anything else is a malformed_input error, reported before any
// network activity.
func ExtractPostID(input string) (string, error) {
	if m := statusIDPattern.FindStringSubmatch(input); m != nil {
		return m[1], nil
	}
	if bareIDPattern.MatchString(input) {
		return input, nil
	}
	return "", errs.New(errs.ErrorTypeMalformedInput, "cannot extract post id from: %s", input)
}
