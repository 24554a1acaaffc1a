package lsp

import (
	"net/url"
	"path/filepath"
	"strings"
)

// SourceExt is the extension of files the server analyzes.
const SourceExt = ".fp"

func IsSourceURI(uri string) bool {
	return strings.HasSuffix(strings.ToLower(uri), SourceExt)
}

func UriToPath(uri string) string {
	if !strings.HasPrefix(uri, "file://") {
		return ""
	}
	u, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	return filepath.FromSlash(u.Path)
}

func PathToURI(absPath string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(absPath)}
	return u.String()
}
