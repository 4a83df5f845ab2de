package storage

import (
	"net/url"
	"strings"
)

// UnknownKey is the sentinel for empty or corrupt references. It yields a
// clearly broken placeholder URL instead of failing whole list responses.
const UnknownKey = "unknown"

// RefKind discriminates the two outcomes of resolving a stored reference.
type RefKind int

const (
	// KindOpaque marks a reference owned by a foreign or legacy host. It is
	// passed through unchanged, never proxied and never deleted.
	KindOpaque RefKind = iota
	// KindKey marks a reference that is, or reduces to, a key understood by
	// the active backend.
	KindKey
)

// ResolvedRef is the classified form of a stored image reference.
type ResolvedRef struct {
	Kind RefKind
	URL  string // set when Kind is KindOpaque
	Key  string // set when Kind is KindKey
}

// Resolver classifies stored image references of unknown historical format:
// bare filenames, bare object-store keys, legacy CDN URLs and URLs pointing
// at the configured object-store endpoint all coexist in the database.
type Resolver struct {
	legacyHosts  []string
	endpointHost string // host[:port] of the configured object-store endpoint
	bucket       string
	collection   string // default collection prefix; empty in local mode
}

// NewResolver builds a resolver for the active backend. collection must be
// empty in local mode, where bare filenames are already complete keys.
func NewResolver(legacyHosts []string, endpoint, bucket, collection string) *Resolver {
	return &Resolver{
		legacyHosts:  legacyHosts,
		endpointHost: hostOf(endpoint),
		bucket:       bucket,
		collection:   collection,
	}
}

// Resolve classifies reference. Unrecognized absolute URLs fall back to
// Opaque: guessing a key risks deleting or exposing an unrelated object.
func (r *Resolver) Resolve(reference string) ResolvedRef {
	if reference == "" {
		return ResolvedRef{Kind: KindKey, Key: UnknownKey}
	}

	// Anything carrying a URL scheme is classified by host; only bare
	// references are treated as keys.
	if !strings.Contains(reference, "://") {
		key := strings.TrimPrefix(reference, "/")
		if r.collection != "" && !strings.Contains(key, "/") {
			key = r.collection + "/" + key
		}
		return ResolvedRef{Kind: KindKey, Key: key}
	}

	u, err := url.Parse(reference)
	if err != nil {
		return ResolvedRef{Kind: KindOpaque, URL: reference}
	}

	if r.isLegacyHost(u.Hostname()) {
		return ResolvedRef{Kind: KindOpaque, URL: reference}
	}

	if r.ownsHost(u.Host, u.Hostname()) {
		if key := r.keyFromPath(u.Path); key != "" {
			return ResolvedRef{Kind: KindKey, Key: key}
		}
	}

	return ResolvedRef{Kind: KindOpaque, URL: reference}
}

func (r *Resolver) isLegacyHost(hostname string) bool {
	hostname = strings.ToLower(hostname)
	for _, legacy := range r.legacyHosts {
		legacy = strings.ToLower(legacy)
		if hostname == legacy || strings.HasSuffix(hostname, "."+legacy) {
			return true
		}
	}
	return false
}

func (r *Resolver) ownsHost(host, hostname string) bool {
	if r.endpointHost == "" {
		return false
	}
	return strings.EqualFold(host, r.endpointHost) || strings.EqualFold(hostname, r.endpointHost)
}

// keyFromPath extracts the canonical key from an endpoint URL path. The
// bucket segment is stripped when present but is not required: endpoint
// formats vary in whether the bucket appears in the path. URL-encoded path
// separators were already decoded by url.Parse.
func (r *Resolver) keyFromPath(p string) string {
	p = strings.TrimPrefix(p, "/")
	if r.bucket != "" {
		if p == r.bucket {
			return ""
		}
		p = strings.TrimPrefix(p, r.bucket+"/")
	}
	return p
}

func hostOf(endpoint string) string {
	if endpoint == "" {
		return ""
	}
	if strings.Contains(endpoint, "://") {
		if u, err := url.Parse(endpoint); err == nil {
			return u.Host
		}
	}
	return strings.TrimSuffix(endpoint, "/")
}
