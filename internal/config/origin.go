package config

import (
	"fmt"
	"net/url"
	"strings"
)

// SanitizeOrigin validates a CORS origin and normalises it to scheme://host[:port].
// Values without a scheme default to https. Paths, queries, fragments,
// wildcards and empty values are rejected.
func SanitizeOrigin(raw string) (string, error) {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	if cleaned == "" {
		return "", fmt.Errorf("origin cannot be empty")
	}
	if strings.ContainsAny(cleaned, " \t\r\n") {
		return "", fmt.Errorf("origin cannot contain whitespace")
	}
	if strings.Contains(cleaned, "*") {
		return "", fmt.Errorf("wildcards are not allowed in origins")
	}

	scheme := "https"
	switch {
	case strings.HasPrefix(cleaned, "http://"):
		scheme = "http"
		cleaned = strings.TrimPrefix(cleaned, "http://")
	case strings.HasPrefix(cleaned, "https://"):
		cleaned = strings.TrimPrefix(cleaned, "https://")
	}
	cleaned = strings.TrimSuffix(cleaned, "/")

	u, err := url.Parse(scheme + "://" + cleaned)
	if err != nil {
		return "", fmt.Errorf("invalid origin format")
	}
	if u.Host == "" || u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		return "", fmt.Errorf("origin must not include path, query, or fragment")
	}

	return scheme + "://" + u.Host, nil
}

func parseOrigins(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		origin, err := SanitizeOrigin(part)
		if err != nil {
			continue
		}
		origins = append(origins, origin)
	}
	return origins
}
