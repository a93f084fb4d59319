package upload_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zzliekkas/qiniustorage/test"
	"github.com/zzliekkas/qiniustorage/upload"
)

func newUploadAPI(t *testing.T, store upload.Store) (*test.HTTPClient, *test.FakeClient) {
	gin.SetMode(gin.TestMode)

	h := test.NewHelper(t)
	client := test.NewFakeClient()
	s := h.NewStorage(client, nil)

	issuer := upload.NewIssuer(s, upload.IssuerConfig{BasePath: "uploads"})
	recorder, err := upload.NewRecorder(documentTarget(t), "File", store, s, upload.WithRecorderLogger(h.Logger()))
	require.NoError(t, err)

	engine := gin.New()
	upload.NewHandler(issuer, recorder, h.Logger()).Register(engine.Group("/api/uploads"))
	return test.NewHTTPClient(t, engine), client
}

func TestHandler_IssueToken(t *testing.T) {
	api, _ := newUploadAPI(t, &memoryStore{})

	var ticket upload.Ticket
	resp := api.GET("/api/uploads/photos/cat.jpg", nil, nil).AssertStatus(t, http.StatusOK)
	require.NoError(t, resp.BindJSON(&ticket))

	assert.Equal(t, "uploads/photos/cat.jpg", ticket.Key)
	assert.Equal(t, "fake:test-bucket:uploads/photos/cat.jpg:3600", ticket.Token)
	assert.Equal(t, "http://upload.qiniup.com", ticket.URL)
}

func TestHandler_IssueTokenInvalidFilename(t *testing.T) {
	api, _ := newUploadAPI(t, &memoryStore{})

	resp := api.GET("/api/uploads/", nil, nil).AssertStatus(t, http.StatusBadRequest)
	body, err := resp.JSON()
	require.NoError(t, err)
	assert.Equal(t, float64(http.StatusBadRequest), body["code"])
	assert.NotEmpty(t, body["message"])
}

func TestHandler_Complete(t *testing.T) {
	store := &memoryStore{}
	api, _ := newUploadAPI(t, store)

	api.POST("/api/uploads", map[string]string{"key": "uploads/photos/cat.jpg"}, nil).
		AssertStatus(t, http.StatusCreated).
		AssertJSON(t, map[string]interface{}{"key": "uploads/photos/cat.jpg", "pk": float64(1)})

	require.Len(t, store.records, 1)
	assert.Equal(t, "uploads/photos/cat.jpg", store.records[0].(*document).File.Name)
}

func TestHandler_CompleteRejectsForeignKey(t *testing.T) {
	store := &memoryStore{}
	api, _ := newUploadAPI(t, store)

	api.POST("/api/uploads", map[string]string{"key": "private/secret.txt"}, nil).
		AssertStatus(t, http.StatusBadRequest)
	api.POST("/api/uploads", map[string]string{}, nil).
		AssertStatus(t, http.StatusBadRequest)
	assert.Empty(t, store.records)
}

func TestHandler_CompletePersistenceFailure(t *testing.T) {
	api, _ := newUploadAPI(t, &memoryStore{err: errors.New("db down")})

	api.POST("/api/uploads", map[string]string{"key": "uploads/a.txt"}, nil).
		AssertStatus(t, http.StatusInternalServerError).
		AssertJSONContains(t, "code", float64(http.StatusInternalServerError))
}
