package service_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/agency-cms-api/internal/media"
	"github.com/agency-cms-api/internal/mocks"
	"github.com/agency-cms-api/internal/models"
	"github.com/agency-cms-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileOf(name, contentType, body string) service.UploadFile {
	return service.UploadFile{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(body)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(body)), nil
		},
	}
}

func TestMedia_UploadGallery(t *testing.T) {
	f := mocks.NewFixture()
	svc := f.Services()

	results, err := svc.Media.UploadGallery(context.Background(), []service.UploadFile{
		fileOf("a.png", "image/png", "aaa"),
		fileOf("b.jpg", "image/jpeg", "bbbb"),
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, strings.HasPrefix(results[0].PublicID, "gallery/"))
	assert.Equal(t, 4, results[1].Bytes)
	assert.Equal(t, results[0].URL, results[0].Variants["original"])
	assert.Len(t, f.Store.Assets, 2)
}

func TestMedia_UploadGalleryAllOrNothing(t *testing.T) {
	f := mocks.NewFixture()
	f.Store.FailOn = "boom"
	svc := f.Services()

	_, err := svc.Media.UploadGallery(context.Background(), []service.UploadFile{
		fileOf("a.png", "image/png", "aaa"),
		fileOf("b.png", "image/png", "boom"),
		fileOf("c.png", "image/png", "ccc"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b.png")
	assert.Empty(t, f.Store.Assets, "uploaded files are removed when one fails")
}

func TestMedia_UploadGalleryAdmission(t *testing.T) {
	f := mocks.NewFixture()
	svc := f.Services()
	big := strings.Repeat("x", int(f.Config.Upload.MaxImageSize)+1)

	tests := []struct {
		name  string
		files []service.UploadFile
	}{
		{"empty", nil},
		{"too many", []service.UploadFile{
			fileOf("1.png", "image/png", "1"), fileOf("2.png", "image/png", "2"),
			fileOf("3.png", "image/png", "3"), fileOf("4.png", "image/png", "4"),
		}},
		{"not an image", []service.UploadFile{fileOf("doc.pdf", "application/pdf", "%PDF")}},
		{"too large", []service.UploadFile{fileOf("big.png", "image/png", big)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Media.UploadGallery(context.Background(), tt.files)
			assert.True(t, errors.Is(err, service.ErrBadRequest), "got %v", err)
		})
	}
	assert.Empty(t, f.Store.Assets)
}

func TestMedia_UploadAvatarReplacesPrevious(t *testing.T) {
	f := mocks.NewFixture()
	user := f.Users.Add(&models.User{
		Email:     "jo@example.com",
		Role:      models.RoleAuthor,
		IsActive:  true,
		AvatarURL: "https://res.cloudinary.com/demo/image/upload/v1700000000/avatars/old123.png",
	})
	svc := f.Services()
	actor := service.Actor{UserID: user.ID, Email: user.Email, Role: user.Role}

	result, err := svc.Media.UploadAvatar(context.Background(), actor, fileOf("me.png", "image/png", "face"))
	require.NoError(t, err)

	assert.Equal(t, result.URL, f.Users.Users[user.ID].AvatarURL)
	assert.Contains(t, result.URL, string(media.PresetAvatarMedium))
	assert.Equal(t, []string{"avatars/old123"}, f.Store.Deleted)
}

func TestMedia_UploadFile(t *testing.T) {
	f := mocks.NewFixture()
	svc := f.Services()

	result, err := svc.Media.UploadFile(context.Background(), fileOf("brief.pdf", "application/pdf", "%PDF-1.4"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.PublicID, "files/"))

	_, err = svc.Media.UploadFile(context.Background(), fileOf("run.exe", "application/x-msdownload", "MZ"))
	assert.True(t, errors.Is(err, service.ErrBadRequest))
}
