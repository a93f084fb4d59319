package upload_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zzliekkas/qiniustorage/storage"
	"github.com/zzliekkas/qiniustorage/test"
	"github.com/zzliekkas/qiniustorage/upload"
)

func TestIssuer_Issue(t *testing.T) {
	client := test.NewFakeClient()
	s := test.NewHelper(t).NewStorage(client, func(cfg *storage.Config) {
		cfg.UpHost = "up.qiniup.com"
		cfg.Secure = true
	})

	issuer := upload.NewIssuer(s, upload.IssuerConfig{
		BasePath:   "/avatars/",
		Expires:    60 * time.Second,
		FsizeLimit: 2 << 20,
		MimeLimit:  []string{"image/*"},
	})

	ticket, err := issuer.Issue("u1/me.png")
	require.NoError(t, err)
	assert.Equal(t, "avatars/u1/me.png", ticket.Key)
	assert.Equal(t, "https://up.qiniup.com", ticket.URL)
	assert.Equal(t, "fake:test-bucket:avatars/u1/me.png:60", ticket.Token)

	test.NewMockAssertions(t, client.Mock).AssertCalled("UploadToken", storage.UploadPolicy{
		Scope:      "test-bucket:avatars/u1/me.png",
		Expires:    60 * time.Second,
		FsizeLimit: 2 << 20,
		MimeLimit:  []string{"image/*"},
	})
}

func TestIssuer_BucketOverrideAndDefaults(t *testing.T) {
	client := test.NewFakeClient()
	s := test.NewHelper(t).NewStorage(client, func(cfg *storage.Config) {
		cfg.Location = "media"
	})

	issuer := upload.NewIssuer(s, upload.IssuerConfig{Bucket: "other-bucket"})
	ticket, err := issuer.Issue("a.txt")
	require.NoError(t, err)

	assert.Equal(t, "media/a.txt", ticket.Key)
	assert.Equal(t, "fake:other-bucket:media/a.txt:3600", ticket.Token, "默认有效期为一小时")
}

func TestIssuer_InvalidFilename(t *testing.T) {
	s := test.NewHelper(t).NewStorage(test.NewFakeClient(), nil)
	issuer := upload.NewIssuer(s, upload.IssuerConfig{BasePath: "uploads"})

	for _, name := range []string{"", "  ", "/", "../secret.txt", "a/../../b.txt", "..\\b.txt"} {
		_, err := issuer.Issue(name)
		assert.ErrorIs(t, err, upload.ErrInvalidFilename, "文件名 %q 应被拒绝", name)
	}

	ticket, err := issuer.Issue("//a//b.txt")
	require.NoError(t, err)
	assert.Equal(t, "uploads/a/b.txt", ticket.Key)
}

func TestIssuer_Owns(t *testing.T) {
	s := test.NewHelper(t).NewStorage(test.NewFakeClient(), nil)
	issuer := upload.NewIssuer(s, upload.IssuerConfig{BasePath: "uploads"})

	assert.True(t, issuer.Owns("uploads/a.txt"))
	assert.False(t, issuer.Owns("other/a.txt"))
	assert.False(t, issuer.Owns("uploads"))
	assert.False(t, issuer.Owns("uploads/../other/a.txt"))
	assert.False(t, issuer.Owns("/uploads/a.txt"))
	assert.False(t, issuer.Owns(""))

	open := upload.NewIssuer(s, upload.IssuerConfig{})
	assert.True(t, open.Owns("anything/a.txt"))
}
