package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func objectModeResolver() *Resolver {
	return NewResolver(
		[]string{"res.cloudinary.com", "legacy-cdn.example.com"},
		"https://storage.railway.app",
		"tucano-bucket",
		DefaultCollection,
	)
}

func TestResolveClassification(t *testing.T) {
	r := objectModeResolver()

	tests := []struct {
		name      string
		reference string
		want      ResolvedRef
	}{
		{
			name:      "empty reference resolves to the sentinel key",
			reference: "",
			want:      ResolvedRef{Kind: KindKey, Key: UnknownKey},
		},
		{
			name:      "bare object-store key passes through",
			reference: "tucano-motorcycle/0b5c9c8e.png",
			want:      ResolvedRef{Kind: KindKey, Key: "tucano-motorcycle/0b5c9c8e.png"},
		},
		{
			name:      "bare filename gains the collection prefix",
			reference: "bike.png",
			want:      ResolvedRef{Kind: KindKey, Key: "tucano-motorcycle/bike.png"},
		},
		{
			name:      "legacy CDN URL is opaque",
			reference: "https://res.cloudinary.com/demo/image/upload/v123/tucano-motorcycle/x.jpg",
			want:      ResolvedRef{Kind: KindOpaque, URL: "https://res.cloudinary.com/demo/image/upload/v123/tucano-motorcycle/x.jpg"},
		},
		{
			name:      "legacy subdomain is opaque",
			reference: "https://img.res.cloudinary.com/demo/x.jpg",
			want:      ResolvedRef{Kind: KindOpaque, URL: "https://img.res.cloudinary.com/demo/x.jpg"},
		},
		{
			name:      "endpoint URL with bucket segment reduces to the key",
			reference: "https://storage.railway.app/tucano-bucket/tucano-motorcycle/abc.png",
			want:      ResolvedRef{Kind: KindKey, Key: "tucano-motorcycle/abc.png"},
		},
		{
			name:      "endpoint URL without bucket segment also reduces to the key",
			reference: "https://storage.railway.app/tucano-motorcycle/abc.png",
			want:      ResolvedRef{Kind: KindKey, Key: "tucano-motorcycle/abc.png"},
		},
		{
			name:      "encoded path separators are tolerated",
			reference: "https://storage.railway.app/tucano-bucket/tucano-motorcycle%2Fabc.png",
			want:      ResolvedRef{Kind: KindKey, Key: "tucano-motorcycle/abc.png"},
		},
		{
			name:      "unrecognized host falls back to opaque",
			reference: "https://somewhere-else.example.net/tucano-motorcycle/abc.png",
			want:      ResolvedRef{Kind: KindOpaque, URL: "https://somewhere-else.example.net/tucano-motorcycle/abc.png"},
		},
		{
			name:      "non-http scheme is never mistaken for a key",
			reference: "ftp://somewhere.example.net/tucano-motorcycle/abc.png",
			want:      ResolvedRef{Kind: KindOpaque, URL: "ftp://somewhere.example.net/tucano-motorcycle/abc.png"},
		},
		{
			name:      "s3 scheme with a foreign host stays opaque",
			reference: "s3://other-bucket/tucano-motorcycle/abc.png",
			want:      ResolvedRef{Kind: KindOpaque, URL: "s3://other-bucket/tucano-motorcycle/abc.png"},
		},
		{
			name:      "endpoint URL with empty path stays opaque",
			reference: "https://storage.railway.app/",
			want:      ResolvedRef{Kind: KindOpaque, URL: "https://storage.railway.app/"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Resolve(tt.reference))
		})
	}
}

func TestResolveEquivalentReferencesYieldSameKey(t *testing.T) {
	r := objectModeResolver()

	bare := r.Resolve("tucano-motorcycle/abc.png")
	viaURL := r.Resolve("https://storage.railway.app/tucano-bucket/tucano-motorcycle/abc.png")

	assert.Equal(t, KindKey, bare.Kind)
	assert.Equal(t, KindKey, viaURL.Kind)
	assert.Equal(t, bare.Key, viaURL.Key)
}

func TestResolveLocalMode(t *testing.T) {
	// Local mode has no collection and no endpoint: bare filenames are
	// complete keys, every absolute URL stays opaque.
	r := NewResolver([]string{"res.cloudinary.com"}, "", "", "")

	got := r.Resolve("1700000000-ab12cd34-bike.png")
	assert.Equal(t, ResolvedRef{Kind: KindKey, Key: "1700000000-ab12cd34-bike.png"}, got)

	opaque := r.Resolve("https://res.cloudinary.com/demo/x.jpg")
	assert.Equal(t, KindOpaque, opaque.Kind)

	foreign := r.Resolve("https://storage.railway.app/tucano-bucket/tucano-motorcycle/abc.png")
	assert.Equal(t, KindOpaque, foreign.Kind)
}

func TestResolveEndpointHostWithScheme(t *testing.T) {
	r := NewResolver(nil, "http://localhost:9000", "tucano", DefaultCollection)

	got := r.Resolve("http://localhost:9000/tucano/tucano-motorcycle/a.webp")
	assert.Equal(t, ResolvedRef{Kind: KindKey, Key: "tucano-motorcycle/a.webp"}, got)
}
