package server

import (
	"net/http"
	"strings"
)

// suffixRouter dispatches on the single path segment after prefix. A trailing
// slash is ignored. Anything else, deeper paths included, goes to fallback.
func suffixRouter(prefix string, routes map[string]http.HandlerFunc, fallback http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rest, ok := strings.CutPrefix(r.URL.Path, prefix+"/")
		rest = strings.TrimSuffix(rest, "/")
		if h, found := routes[rest]; ok && found && !strings.Contains(rest, "/") {
			h(w, r)
			return
		}
		fallback(w, r)
	}
}
