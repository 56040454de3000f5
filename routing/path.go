package routing

import "regexp"

var pathParamRe = regexp.MustCompile(`/\{([^}]+)\}`)

// NormalizePath rewrites every "/{name}" segment of path into "/:name" until
// no rewrite applies. Paths without braces are returned unchanged.
func NormalizePath(path string) string {
	for {
		next := pathParamRe.ReplaceAllString(path, "/:$1")
		if next == path {
			return path
		}
		path = next
	}
}
