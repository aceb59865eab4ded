package components

import "strings"

// StaticResolver maps an asset path to a servable URL. The actual file
// discovery and serving belong to the host framework; the engine only needs
// the path-to-URL mapping, used for MediaProvider assets and exposed to
// templates as the "static" function.
type StaticResolver func(path string) string

// StaticPrefixResolver joins asset paths under a fixed URL prefix.
func StaticPrefixResolver(prefix string) StaticResolver {
	prefix = strings.TrimSuffix(prefix, "/")
	return func(p string) string {
		return prefix + "/" + strings.TrimPrefix(p, "/")
	}
}
