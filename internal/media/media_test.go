package media

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/agency-cms-api/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresetsCoverVariants(t *testing.T) {
	for folder, list := range Variants {
		for _, p := range list {
			_, ok := p.Transformation()
			assert.True(t, ok, "preset %s for folder %s has no transformation", p, folder)
		}
	}

	tr, ok := PresetAvatarSmall.Transformation()
	require.True(t, ok)
	assert.Contains(t, tr, "w_64")
	assert.Contains(t, tr, "g_face")

	_, ok = Preset("poster").Transformation()
	assert.False(t, ok)
}

func TestCheckImage(t *testing.T) {
	assert.NoError(t, CheckImage("image/png", 1024, 10*1024*1024))
	assert.NoError(t, CheckImage("image/jpeg; charset=binary", 1024, 0))
	assert.ErrorIs(t, CheckImage("application/pdf", 1024, 10*1024*1024), ErrUnsupportedType)
	assert.ErrorIs(t, CheckImage("image/png", 11*1024*1024, 10*1024*1024), ErrTooLarge)
}

func TestCheckFile(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
		wantErr     error
	}{
		{"image/webp", ResourceImage, nil},
		{"video/mp4", ResourceVideo, nil},
		{"application/pdf", ResourceRaw, nil},
		{"application/x-msdownload", "", ErrUnsupportedType},
	}
	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			got, err := CheckFile(tt.contentType, 10, 100)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := CheckFile("application/pdf", 101, 100)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestPublicIDFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://res.cloudinary.com/demo/image/upload/v1712345678/agency/avatars/abc123.jpg", "agency/avatars/abc123"},
		{"https://res.cloudinary.com/demo/image/upload/c_fill,g_face,w_64,h_64/v1/agency/team/x.png", "agency/team/x"},
		{"https://res.cloudinary.com/demo/image/upload/c_fill/v12/photo.webp", "photo"},
		{"https://example.com/avatar.png", ""},
		{"not a url", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PublicIDFromURL(tt.url), tt.url)
	}
}

func TestSearchExpression(t *testing.T) {
	assert.Equal(t, "format:png", searchExpression("agency/gallery", SearchOptions{Expression: "format:png"}))
	assert.Equal(t, "folder:agency/gallery", searchExpression("agency/gallery", SearchOptions{Folder: FolderGallery}))
	assert.Equal(t, "folder:agency/gallery AND format:png",
		searchExpression("agency/gallery", SearchOptions{Folder: FolderGallery, Expression: "format:png"}))
}

func TestNew_DisabledWithoutCredentials(t *testing.T) {
	store, err := New(config.MediaConfig{}, zerolog.Nop())
	require.NoError(t, err)

	_, err = store.Upload(context.Background(), strings.NewReader("x"), UploadOptions{})
	assert.True(t, errors.Is(err, ErrDisabled))
	assert.ErrorIs(t, store.Delete(context.Background(), "id", ResourceImage), ErrDisabled)
	_, err = store.URL("id", PresetThumbnail)
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestCloudinaryStore_URLAndFolder(t *testing.T) {
	store, err := New(config.MediaConfig{CloudName: "demo", APIKey: "key", APISecret: "secret", FolderPrefix: "agency"}, zerolog.Nop())
	require.NoError(t, err)

	cs, ok := store.(*cloudinaryStore)
	require.True(t, ok)
	assert.Equal(t, "agency/avatars", cs.folder(FolderAvatars))
	assert.Equal(t, "agency/temp", cs.folder(""))

	u, err := store.URL("agency/avatars/abc", PresetAvatarLarge)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "https://"), u)
	assert.Contains(t, u, "demo")
	assert.Contains(t, u, "w_400")
	assert.Contains(t, u, "agency/avatars/abc")

	_, err = store.URL("x", Preset("nope"))
	assert.ErrorIs(t, err, ErrUnknownPreset)
}
