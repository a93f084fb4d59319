package commands_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zzliekkas/qiniustorage/app"
	"github.com/zzliekkas/qiniustorage/cli"
	"github.com/zzliekkas/qiniustorage/cli/commands"
	"github.com/zzliekkas/qiniustorage/config"
	"github.com/zzliekkas/qiniustorage/server"
	"github.com/zzliekkas/qiniustorage/storage"
	"github.com/zzliekkas/qiniustorage/test"
	"github.com/zzliekkas/qiniustorage/upload"
)

type harness struct {
	app    *cli.App
	client *test.FakeClient
	out    *bytes.Buffer
	base   string
}

func newHarness(t *testing.T, extra map[string]interface{}) *harness {
	t.Helper()
	t.Setenv("QINIUSTORAGE_BANNER", "none")

	h := test.NewHelper(t)
	client := test.NewFakeClient()
	gdb := h.SetupTestDB()
	cdn := httptest.NewServer(client)
	t.Cleanup(cdn.Close)

	values := map[string]interface{}{
		storage.KeyAccessKey:  "test-access-key",
		storage.KeySecretKey:  "test-secret-key",
		storage.KeyBucketName: "test-bucket",
		storage.KeyDomain:     cdn.URL,
		app.KeyLogLevel:       "error",
		server.KeyMode:        "test",
	}
	for k, v := range extra {
		values[k] = v
	}

	cliApp := cli.NewQiniuStorageCLI()
	cliApp.SetConfig(config.NewConfig(config.WithSettings(values)))
	cliApp.SetFactory(func(cfg *config.Config) (*app.Application, error) {
		return app.New(cfg, app.WithClient(client), app.WithDB(gdb), app.WithLogOutput(io.Discard))
	})
	commands.RegisterCommands(cliApp)

	out := &bytes.Buffer{}
	cliApp.Root().SetOut(out)
	cliApp.Root().SetErr(io.Discard)

	return &harness{app: cliApp, client: client, out: out, base: cdn.URL}
}

func (h *harness) run(args ...string) error {
	h.out.Reset()
	return h.app.Run(args)
}

func TestStorageList(t *testing.T) {
	h := newHarness(t, nil)
	h.client.AddObject("photos/a.jpg", []byte("a"))
	h.client.AddObject("photos/2024/b.jpg", []byte("b"))
	h.client.AddObject("readme.txt", []byte("hello"))

	require.NoError(t, h.run("storage", "ls", "photos"))
	assert.Equal(t, "2024/\na.jpg\n", h.out.String())

	require.NoError(t, h.run("storage", "ls"))
	assert.Equal(t, "photos/\nreadme.txt\n", h.out.String())
}

func TestStorageCatAndURL(t *testing.T) {
	h := newHarness(t, nil)
	h.client.AddObject("docs/readme.txt", []byte("hello world"))

	require.NoError(t, h.run("storage", "cat", "docs/readme.txt"))
	assert.Equal(t, "hello world", h.out.String())

	assert.Error(t, h.run("storage", "cat", "docs/missing.txt"))

	require.NoError(t, h.run("storage", "url", "docs/readme.txt"))
	assert.Equal(t, h.base+"/docs/readme.txt\n", h.out.String())

	require.NoError(t, h.run("storage", "thumb", "a.jpg", "-w", "200"))
	assert.Equal(t, h.base+"/a.jpg?imageView2/2/w/200\n", h.out.String())

	assert.Error(t, h.run("storage", "thumb", "docs/readme.txt"))
}

func TestStoragePutAndRemove(t *testing.T) {
	h := newHarness(t, nil)
	local := test.NewHelper(t).TempFile("report-*.txt", []byte("quarterly"))

	require.NoError(t, h.run("storage", "put", local, "reports/q1.txt"))
	data, ok := h.client.Object("reports/q1.txt")
	require.True(t, ok)
	assert.Equal(t, "quarterly", string(data))
	assert.Equal(t, h.base+"/reports/q1.txt\n", h.out.String())

	require.NoError(t, h.run("storage", "rm", "reports/q1.txt"))
	_, ok = h.client.Object("reports/q1.txt")
	assert.False(t, ok)

	assert.Error(t, h.run("storage", "rm", "reports/q1.txt"))
	assert.NoError(t, h.run("storage", "rm", "--force", "reports/q1.txt"))
}

func TestStorageStaticDisk(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.run("storage", "url", "--disk", "static", "css/site.css"))
	assert.Equal(t, h.base+"/static/css/site.css\n", h.out.String())

	assert.Error(t, h.run("storage", "url", "--disk", "backup", "a.txt"))
}

func TestTokenCommand(t *testing.T) {
	h := newHarness(t, nil)

	require.NoError(t, h.run("token", "avatar.png"))
	var ticket upload.Ticket
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &ticket))
	assert.Equal(t, "uploads/avatar.png", ticket.Key)
	assert.Equal(t, "fake:test-bucket:uploads/avatar.png:3600", ticket.Token)

	assert.Error(t, h.run("token", "../escape.png"))
}

func TestAuthTokenCommand(t *testing.T) {
	h := newHarness(t, nil)
	assert.Error(t, h.run("auth-token"))

	h = newHarness(t, map[string]interface{}{server.KeyJWTSecret: "secret"})
	require.NoError(t, h.run("auth-token", "--subject", "uploader"))
	assert.Equal(t, 2, strings.Count(strings.TrimSpace(h.out.String()), "."))
}

func TestRoutesCommand(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.run("routes"))

	test.NewHelper(t).AssertContainsAll(h.out.String(),
		"GET", "POST", "/uploads/*filename", "/healthz")
}

func TestUploadsCommand(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.run("db", "migrate"))
	require.NoError(t, h.run("db", "status"))

	application, err := h.app.Application()
	require.NoError(t, err)
	srv, err := application.Server()
	require.NoError(t, err)
	test.NewHTTPClient(t, srv.Engine()).
		POST("/uploads", map[string]string{"key": "uploads/cat.jpg"}, nil).
		AssertStatus(t, 201)

	require.NoError(t, h.run("uploads"))
	assert.Contains(t, h.out.String(), "uploads/cat.jpg")
	assert.Contains(t, h.out.String(), h.base+"/uploads/cat.jpg")
}
