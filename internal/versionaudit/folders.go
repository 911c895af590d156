package versionaudit

import "strings"

// ParseFolders splits a whitespace-separated folder list, dropping empty entries and keeping order.
func ParseFolders(folders string) []string {
	return strings.Fields(folders)
}
