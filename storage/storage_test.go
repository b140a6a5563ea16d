package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckFilename(t *testing.T) {
	for _, name := range []string{"a.jpg", "b.JPEG", "c.png", "d.heic", "e.HEIF", "f.webp", "g.gif"} {
		assert.NoError(t, CheckFilename(name), name)
	}
	for _, name := range []string{"a.txt", "noext", "evil.jpg.exe", ""} {
		assert.ErrorIs(t, CheckFilename(name), ErrFileType, name)
	}
}

func TestObjectName_RoundTripsOwner(t *testing.T) {
	obj := ObjectName("Rod Royale/catches/", 42, "IMG_001.HEIC")
	assert.True(t, strings.HasPrefix(obj, "Rod Royale/catches/42/"))
	assert.True(t, strings.HasSuffix(obj, ".heic"))

	owner, ok := OwnerOf(obj)
	assert.True(t, ok)
	assert.Equal(t, uint(42), owner)

	assert.NotEqual(t, obj, ObjectName("Rod Royale/catches", 42, "IMG_001.HEIC"))
	assert.True(t, strings.HasPrefix(ObjectName("", 1, "x.jpg"), "catches/1/"))
}

func TestOwnerOf_Malformed(t *testing.T) {
	for _, obj := range []string{"", "x.jpg", "catches/x.jpg", "catches/abc/x.jpg", "catches/0/x.jpg"} {
		_, ok := OwnerOf(obj)
		assert.False(t, ok, obj)
	}
}

func TestMinioStore_URL(t *testing.T) {
	m := &MinioStore{bucket: "rod-royale", publicURL: "http://127.0.0.1:9000"}
	assert.Equal(t, "http://127.0.0.1:9000/rod-royale/catches/1/a.jpg", m.URL("catches/1/a.jpg"))
}
