package dynastate

import "strings"

// KeyFunc derives the storage key for a record from the caller's identifier
// and namespace. It must be pure: equal arguments always yield the identical
// key, and distinct (id, namespace) pairs must yield distinct keys.
type KeyFunc func(id string, namespace []string) string

// DefaultKeyFunc joins the namespace elements and the identifier with ":".
//
//	DefaultKeyFunc("abc", []string{"myapp", "sessions"}) == "myapp:sessions:abc"
//
// Identifiers and namespace elements containing ":" can alias each other
// under this scheme; supply a custom KeyFunc (for example one that hashes or
// escapes its inputs) if your identifiers are not under your control.
func DefaultKeyFunc(id string, namespace []string) string {
	if len(namespace) == 0 {
		return id
	}
	return strings.Join(namespace, ":") + ":" + id
}
