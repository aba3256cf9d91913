package describe

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

// ErrBadArguments reports a malformed instantiation-argument payload.
// The request carrying it is rejected outright; arguments are never
// partially applied.
var ErrBadArguments = errors.New("describe: malformed instantiation arguments")

// EncodeArgs encodes a flat key-value argument map as a URL-safe base64
// blob wrapping a sorted key=value query string. The sort makes the
// encoding, and therefore the resource URI, deterministic for a given
// argument set.
func EncodeArgs(args map[string]string) string {
	if len(args) == 0 {
		return ""
	}
	values := url.Values{}
	for k, v := range args {
		values.Set(k, v)
	}
	return base64.RawURLEncoding.EncodeToString([]byte(values.Encode()))
}

// DecodeArgs strictly parses an argument blob produced by EncodeArgs.
// Anything that is not base64 over a well-formed query string of
// non-empty UTF-8 keys is rejected. Arguments are data, never code.
func DecodeArgs(blob string) (map[string]string, error) {
	if blob == "" {
		return map[string]string{}, nil
	}

	// Tolerate padded and percent-escaped forms of the same blob.
	blob = strings.ReplaceAll(blob, "%3D", "=")
	blob = strings.ReplaceAll(blob, "%3d", "=")
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(blob, "="))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadArguments, err)
	}

	values, err := url.ParseQuery(string(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadArguments, err)
	}

	args := make(map[string]string, len(values))
	for k, vs := range values {
		if k == "" || !utf8.ValidString(k) || len(vs) == 0 || !utf8.ValidString(vs[0]) {
			return nil, fmt.Errorf("%w: invalid key or value", ErrBadArguments)
		}
		args[k] = vs[0]
	}
	return args, nil
}
