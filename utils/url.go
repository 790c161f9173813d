package utils

import (
	"net/url"
	"strings"
)

// EncodeURLWithSpaces encodes a URL that may contain raw spaces. Catalog
// providers routinely ship icon and cover URLs with unencoded spaces that
// clients then fail to load.
func EncodeURLWithSpaces(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	encoded := parsed.Scheme + "://" + parsed.Host + parsed.EscapedPath()
	if parsed.RawQuery != "" {
		encoded += "?" + strings.ReplaceAll(parsed.RawQuery, " ", "%20")
	}
	return encoded, nil
}
