package engine

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/routelens/routelens/internal/core"
)

const apiKeyParam = "api_key"

// BuildAuthURL returns the path and query string of a request, appending the
// API key when one is configured.
//
// Without a key the URL is only built for a non-default base URL; self-hosted
// instances are expected to carry their own credentials in params.
func BuildAuthURL(path string, params core.Params, apiKey, baseURL string) (string, error) {
	query := params.Clone()

	switch {
	case apiKey != "":
		query = query.Add(apiKeyParam, apiKey)
	case baseURL != "" && baseURL != DefaultBaseURL:
	default:
		return "", &ConfigurationError{
			Message: "no API key specified; create one in the openrouteservice dashboard or set a custom base URL",
		}
	}

	return path + "?" + EncodeParams(query), nil
}

// EncodeParams form-encodes params in order. Unreserved characters are never
// percent-escaped so signatures computed over the query stay valid.
func EncodeParams(params core.Params) string {
	var b strings.Builder
	for i, param := range params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(param.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(core.FormatValue(param.Value)))
	}
	return unquoteUnreserved(b.String())
}

// unquoteUnreserved decodes %XX escapes of RFC 3986 unreserved characters and
// leaves every other escape untouched.
func unquoteUnreserved(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			if v, err := strconv.ParseUint(s[i+1:i+3], 16, 8); err == nil && isUnreserved(byte(v)) {
				b.WriteByte(byte(v))
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	}
	return false
}

// redactKey removes the api_key value from a rendered URL for logs and traces.
func redactKey(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.RawQuery == "" {
		return rawURL
	}
	parts := strings.Split(parsed.RawQuery, "&")
	for i, part := range parts {
		if strings.HasPrefix(part, apiKeyParam+"=") {
			parts[i] = apiKeyParam + "=REDACTED"
		}
	}
	parsed.RawQuery = strings.Join(parts, "&")
	return parsed.String()
}
