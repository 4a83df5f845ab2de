package upload

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testFile struct {
	name        string
	contentType string
	data        []byte
}

func newMultipartRequest(t *testing.T, field string, files []testFile, values map[string]string) (body *bytes.Buffer, contentType string) {
	t.Helper()
	body = &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range values {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, f.name))
		h.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestFromRequestAcceptsImages(t *testing.T) {
	body, contentType := newMultipartRequest(t, "images", []testFile{
		{name: "bike.png", contentType: "image/png", data: []byte("png bytes")},
		{name: "tank.webp", contentType: "image/webp", data: []byte("webp bytes")},
	}, map[string]string{"model": "Sportster"})

	r := httptest.NewRequest("POST", "/api/v1/vehicles", body)
	r.Header.Set("Content-Type", contentType)

	files, err := FromRequest(r, "images")
	require.NoError(t, err)
	require.Len(t, files, 2)

	assert.Equal(t, "bike.png", files[0].Name)
	assert.Equal(t, "image/png", files[0].ContentType)
	assert.Equal(t, []byte("png bytes"), files[0].Data)
	assert.Equal(t, "tank.webp", files[1].Name)

	// Form values stay readable after file extraction.
	assert.Equal(t, "Sportster", r.FormValue("model"))
}

func TestFromRequestRejectsDisallowedType(t *testing.T) {
	body, contentType := newMultipartRequest(t, "images", []testFile{
		{name: "manual.pdf", contentType: "application/pdf", data: []byte("%PDF")},
	}, nil)

	r := httptest.NewRequest("POST", "/api/v1/upload", body)
	r.Header.Set("Content-Type", contentType)

	_, err := FromRequest(r, "images")
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestFromRequestRejectsExtensionMismatch(t *testing.T) {
	// A png extension does not rescue a non-image content type, and vice
	// versa: both checks must pass.
	body, contentType := newMultipartRequest(t, "images", []testFile{
		{name: "sneaky.png", contentType: "application/octet-stream", data: []byte("x")},
	}, nil)

	r := httptest.NewRequest("POST", "/api/v1/upload", body)
	r.Header.Set("Content-Type", contentType)

	_, err := FromRequest(r, "images")
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	body, contentType = newMultipartRequest(t, "images", []testFile{
		{name: "image.exe", contentType: "image/png", data: []byte("x")},
	}, nil)

	r = httptest.NewRequest("POST", "/api/v1/upload", body)
	r.Header.Set("Content-Type", contentType)

	_, err = FromRequest(r, "images")
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestFromRequestRejectsOversizedFile(t *testing.T) {
	body, contentType := newMultipartRequest(t, "images", []testFile{
		{name: "huge.jpg", contentType: "image/jpeg", data: make([]byte, MaxFileSize+1)},
	}, nil)

	r := httptest.NewRequest("POST", "/api/v1/upload", body)
	r.Header.Set("Content-Type", contentType)

	_, err := FromRequest(r, "images")
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Contains(t, err.Error(), "10 MiB")
}

func TestFromRequestRejectsTooManyFiles(t *testing.T) {
	files := make([]testFile, MaxFiles+1)
	for i := range files {
		files[i] = testFile{name: fmt.Sprintf("img-%d.jpg", i), contentType: "image/jpeg", data: []byte("x")}
	}
	body, contentType := newMultipartRequest(t, "images", files, nil)

	r := httptest.NewRequest("POST", "/api/v1/upload", body)
	r.Header.Set("Content-Type", contentType)

	_, err := FromRequest(r, "images")
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestFromRequestWithoutMultipartBody(t *testing.T) {
	r := httptest.NewRequest("PUT", "/api/v1/vehicles/123", bytes.NewBufferString("model=Sportster"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	files, err := FromRequest(r, "images")
	require.NoError(t, err)
	assert.Nil(t, files)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		ok          bool
	}{
		{"bike.jpg", "image/jpeg", true},
		{"bike.JPG", "image/jpeg", true},
		{"bike.jpeg", "image/jpeg", true},
		{"bike.png", "image/png", true},
		{"bike.gif", "image/gif", true},
		{"bike.webp", "image/webp", true},
		{"bike.bmp", "image/bmp", false},
		{"bike.svg", "image/svg+xml", false},
		{"bike", "image/jpeg", false},
	}
	for _, tt := range tests {
		err := Validate(tt.name, tt.contentType)
		if tt.ok {
			assert.NoError(t, err, "%s %s", tt.name, tt.contentType)
		} else {
			assert.Error(t, err, "%s %s", tt.name, tt.contentType)
		}
	}
}
