package identity

import (
	"net/url"
	"strings"
)

// ParseCookieHeader splits a raw Cookie header into name/value pairs.
// Values are percent-decoded. Pairs without a name, without '=' or with an
// undecodable value are skipped. The first occurrence of a name wins.
func ParseCookieHeader(header string) map[string]string {
	cookies := make(map[string]string)

	for _, part := range strings.Split(header, ";") {
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}

		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, seen := cookies[name]; seen {
			continue
		}

		value = strings.TrimSpace(value)
		if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
			value = value[1 : len(value)-1]
		}

		decoded, err := url.PathUnescape(value)
		if err != nil {
			continue
		}
		cookies[name] = decoded
	}

	return cookies
}
