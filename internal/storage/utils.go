package storage

import (
	"path"
	"strings"
)

// ObjectPath joins a prefix and a slash-separated path into an object name
func ObjectPath(prefix, p string) string {
	p = strings.TrimLeft(path.Clean("/"+p), "/")
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return p
	}
	if p == "" {
		return prefix
	}
	return prefix + "/" + p
}

// GetContentType determines the MIME content type based on file extension
func GetContentType(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".json":
		return "application/json"
	case ".txt", ".prom":
		return "text/plain"
	case ".html":
		return "text/html"
	case ".css":
		return "text/css"
	case ".js":
		return "text/javascript"
	case ".md":
		return "text/markdown"
	case ".yml", ".yaml":
		return "application/yaml"
	case ".svg":
		return "image/svg+xml"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".csv":
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}
