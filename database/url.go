package database

import (
	"fmt"
	"strings"
)

// ConstructDatabaseURL appends the database name to a server URL.
// sslmode=disable is added unless the URL already sets an sslmode.
func ConstructDatabaseURL(baseURL, databaseName string) string {
	if databaseName == "" {
		return baseURL
	}

	base, query, hasQuery := strings.Cut(strings.TrimRight(baseURL, "/"), "?")
	base = strings.TrimRight(base, "/")

	url := fmt.Sprintf("%s/%s", base, databaseName)
	if hasQuery && query != "" {
		url += "?" + query
	}

	if !strings.Contains(url, "sslmode=") {
		separator := "?"
		if strings.Contains(url, "?") {
			separator = "&"
		}
		url += separator + "sslmode=disable"
	}
	return url
}
