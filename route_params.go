package aquilify

import "strings"

// RouteParams represents the parameters extracted from the request path.
// Parameters are extracted from the path by matching it against the route
// pattern for the handler node. These may change each time Next is called
// on the context.
type RouteParams map[string]string

// Get returns the value of a parameter by key. The lookup is case-insensitive
// (e.g., 'ID' and 'id' match the same parameter). Returns an empty string if the
// key doesn't exist.
func (p RouteParams) Get(key string) string {
	for k, v := range p {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}
