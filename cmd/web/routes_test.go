package main

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AdamBeresnev/tournament-history/internal/config"
	"github.com/AdamBeresnev/tournament-history/internal/history"
	"github.com/AdamBeresnev/tournament-history/internal/storage"
	"github.com/AdamBeresnev/tournament-history/internal/store"
	"github.com/AdamBeresnev/tournament-history/internal/upload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	app    *application
	router http.Handler
	store  *store.TournamentStore
}

// setupTestServer wires the router to temporary data and upload folders
func setupTestServer(t *testing.T, basePath string) *testServer {
	t.Helper()

	root := t.TempDir()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.BasePath = basePath
	cfg.DataFolder = filepath.Join(root, "data")
	cfg.UploadFolder = filepath.Join(root, "uploads")

	tournamentStore, err := store.NewTournamentStore(cfg.DataFolder)
	require.NoError(t, err)
	uploader, err := storage.NewDiskUploader(cfg.UploadFolder, cfg.BasePath+"/uploads")
	require.NoError(t, err)

	app := newApplication(cfg, tournamentStore, upload.NewImages(uploader))
	return &testServer{app: app, router: newRouter(app), store: tournamentStore}
}

type formFile struct {
	name    string
	content string
}

func tournamentForm(t *testing.T, fields map[string]string, file *formFile) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		part, err := mw.CreateFormFile("bracket_image", file.name)
		require.NoError(t, err)
		_, err = part.Write([]byte(file.content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func springOpenForm() map[string]string {
	return map[string]string{
		"tournament_name": "Spring Open",
		"date":            "2024-03-01",
		"organizer":       "ACME",
		"first_place":     "Team X",
	}
}

func (s *testServer) do(t *testing.T, method, path string, fields map[string]string, file *formFile) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if fields == nil && file == nil {
		req = httptest.NewRequest(method, path, nil)
	} else {
		body, contentType := tournamentForm(t, fields, file)
		req = httptest.NewRequest(method, path, body)
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), "body: %s", rec.Body.String())
	return body
}

func (s *testServer) create(t *testing.T, fields map[string]string, file *formFile) string {
	t.Helper()

	rec := s.do(t, http.MethodPost, s.app.cfg.BasePath+"/add", fields, file)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeBody(t, rec)["tournament_id"].(string)
}

func (s *testServer) stored(t *testing.T) []history.Tournament {
	t.Helper()

	tournaments, err := s.store.Load(context.Background())
	require.NoError(t, err)
	return tournaments
}

func TestAddTournament(t *testing.T) {
	s := setupTestServer(t, "")

	rec := s.do(t, http.MethodPost, "/add", springOpenForm(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	id, ok := body["tournament_id"].(string)
	require.True(t, ok)
	assert.NotEmpty(t, id)
	assert.Equal(t, "/tournament/"+id, body["redirect_url"])

	tournaments := s.stored(t)
	require.Len(t, tournaments, 1)
	assert.Equal(t, id, tournaments[0].ID)
	assert.Nil(t, tournaments[0].BracketImage)

	page := s.do(t, http.MethodGet, "/", nil, nil)
	assert.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "Spring Open")
}

func TestAddTournamentValidation(t *testing.T) {
	s := setupTestServer(t, "")
	s.create(t, springOpenForm(), nil)

	for _, missing := range []string{"tournament_name", "date", "organizer", "first_place"} {
		t.Run(missing, func(t *testing.T) {
			fields := springOpenForm()
			fields[missing] = "   "

			rec := s.do(t, http.MethodPost, "/add", fields, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, map[string]any{"error": "必須項目を入力してください"}, decodeBody(t, rec))
			assert.Len(t, s.stored(t), 1)
		})
	}
}

func TestAddTournamentSkipsDisallowedImage(t *testing.T) {
	s := setupTestServer(t, "")

	id := s.create(t, springOpenForm(), &formFile{name: "bracket.exe", content: "MZ"})

	tournaments := s.stored(t)
	require.Len(t, tournaments, 1)
	assert.Equal(t, id, tournaments[0].ID)
	assert.Nil(t, tournaments[0].BracketImage)

	entries, err := os.ReadDir(s.app.cfg.UploadFolder)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAddTournamentWithImageIsServed(t *testing.T) {
	s := setupTestServer(t, "")

	id := s.create(t, springOpenForm(), &formFile{name: "bracket.png", content: "png-bytes"})

	tournaments := s.stored(t)
	require.Len(t, tournaments, 1)
	image := tournaments[0].ImageName()
	require.NotEmpty(t, image)
	assert.FileExists(t, filepath.Join(s.app.cfg.UploadFolder, image))

	detail := s.do(t, http.MethodGet, "/tournament/"+id, nil, nil)
	require.Equal(t, http.StatusOK, detail.Code)
	assert.Contains(t, detail.Body.String(), `src="/uploads/`+image+`"`)

	served := s.do(t, http.MethodGet, "/uploads/"+image, nil, nil)
	assert.Equal(t, http.StatusOK, served.Code)
	assert.Equal(t, "png-bytes", served.Body.String())
}

func TestListingOrder(t *testing.T) {
	s := setupTestServer(t, "")

	b := springOpenForm()
	b["tournament_name"] = "Summer Cup"
	b["date"] = "2024-06-01"
	s.create(t, b, nil)
	s.create(t, springOpenForm(), nil)

	page := s.do(t, http.MethodGet, "/", nil, nil)
	require.Equal(t, http.StatusOK, page.Code)

	html := page.Body.String()
	summer := strings.Index(html, "Summer Cup")
	spring := strings.Index(html, "Spring Open")
	require.NotEqual(t, -1, summer)
	require.NotEqual(t, -1, spring)
	assert.Less(t, summer, spring)
}

func TestViewsNotFound(t *testing.T) {
	s := setupTestServer(t, "")

	for _, path := range []string{"/tournament/missing", "/edit/missing"} {
		rec := s.do(t, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, "大会が見つかりません\n", rec.Body.String(), path)
	}
}

func TestFormPages(t *testing.T) {
	s := setupTestServer(t, "")
	id := s.create(t, springOpenForm(), nil)

	add := s.do(t, http.MethodGet, "/add", nil, nil)
	assert.Equal(t, http.StatusOK, add.Code)
	assert.Contains(t, add.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, add.Body.String(), `name="bracket_image"`)

	edit := s.do(t, http.MethodGet, "/edit/"+id, nil, nil)
	assert.Equal(t, http.StatusOK, edit.Code)
	assert.Contains(t, edit.Body.String(), `value="Spring Open"`)
}

func TestEditTournament(t *testing.T) {
	s := setupTestServer(t, "")
	id := s.create(t, springOpenForm(), nil)
	before := s.stored(t)[0]

	fields := springOpenForm()
	fields["second_place"] = "Team Y"
	rec := s.do(t, http.MethodPost, "/edit/"+id, fields, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, id, body["tournament_id"])
	assert.Equal(t, "/tournament/"+id, body["redirect_url"])

	after := s.stored(t)[0]
	assert.Equal(t, "Team Y", after.SecondPlace)
	assert.Equal(t, before.CreatedAt, after.CreatedAt)
	require.NotNil(t, after.UpdatedAt)
	assert.Equal(t, before.TournamentName, after.TournamentName)
	assert.Equal(t, before.FirstPlace, after.FirstPlace)
}

func TestEditTournamentReplacesImage(t *testing.T) {
	s := setupTestServer(t, "")
	id := s.create(t, springOpenForm(), &formFile{name: "old.png", content: "old"})
	oldImage := s.stored(t)[0].ImageName()

	rec := s.do(t, http.MethodPost, "/edit/"+id, springOpenForm(), &formFile{name: "new.jpg", content: "new"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	newImage := s.stored(t)[0].ImageName()
	assert.NotEqual(t, oldImage, newImage)
	assert.NoFileExists(t, filepath.Join(s.app.cfg.UploadFolder, oldImage))
	assert.FileExists(t, filepath.Join(s.app.cfg.UploadFolder, newImage))
}

func TestEditUnknownTournament(t *testing.T) {
	s := setupTestServer(t, "")

	rec := s.do(t, http.MethodPost, "/edit/missing", springOpenForm(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, map[string]any{"error": "大会が見つかりません"}, decodeBody(t, rec))
}

func TestDeleteTournament(t *testing.T) {
	s := setupTestServer(t, "")
	id := s.create(t, springOpenForm(), &formFile{name: "bracket.gif", content: "gif"})
	image := s.stored(t)[0].ImageName()

	rec := s.do(t, http.MethodPost, "/delete/"+id, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, map[string]any{"success": true, "redirect_url": "/"}, decodeBody(t, rec))

	assert.Empty(t, s.stored(t))
	assert.NoFileExists(t, filepath.Join(s.app.cfg.UploadFolder, image))

	gone := s.do(t, http.MethodGet, "/tournament/"+id, nil, nil)
	assert.Equal(t, http.StatusNotFound, gone.Code)

	again := s.do(t, http.MethodPost, "/delete/"+id, nil, nil)
	assert.Equal(t, http.StatusNotFound, again.Code)
	assert.Equal(t, map[string]any{"error": "大会が見つかりません"}, decodeBody(t, again))
}

func TestUploadTooLarge(t *testing.T) {
	tests := []struct {
		name    string
		chunked bool
	}{
		{name: "declared length", chunked: false},
		{name: "chunked body", chunked: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := setupTestServer(t, "")
			s.app.cfg.MaxUploadBytes = 1024
			s.router = newRouter(s.app)

			body, contentType := tournamentForm(t, springOpenForm(), &formFile{name: "bracket.png", content: strings.Repeat("x", 4096)})
			req := httptest.NewRequest(http.MethodPost, "/add", body)
			req.Header.Set("Content-Type", contentType)
			if tt.chunked {
				req.ContentLength = -1
			}
			rec := httptest.NewRecorder()
			s.router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
			assert.Equal(t, map[string]any{"error": "ファイルサイズが大きすぎます"}, decodeBody(t, rec))
			assert.Empty(t, s.stored(t))

			entries, err := os.ReadDir(s.app.cfg.UploadFolder)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestUploadFolderIsNotListed(t *testing.T) {
	s := setupTestServer(t, "")
	s.create(t, springOpenForm(), &formFile{name: "bracket.png", content: "png"})
	image := s.stored(t)[0].ImageName()
	require.NoError(t, os.Mkdir(filepath.Join(s.app.cfg.UploadFolder, "nested"), 0o755))

	for _, path := range []string{"/uploads/", "/uploads/nested", "/uploads/nested/"} {
		rec := s.do(t, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.NotContains(t, rec.Body.String(), image, path)
	}

	served := s.do(t, http.MethodGet, "/uploads/"+image, nil, nil)
	assert.Equal(t, http.StatusOK, served.Code)
}

func TestMalformedDataFileIsServerError(t *testing.T) {
	s := setupTestServer(t, "")
	require.NoError(t, os.WriteFile(s.store.Path(), []byte("{not json"), 0o644))

	rec := s.do(t, http.MethodPost, "/add", springOpenForm(), nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	msg, ok := decodeBody(t, rec)["error"].(string)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(msg, "エラーが発生しました: "), msg)

	page := s.do(t, http.MethodGet, "/", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, page.Code)
}

func TestBasePath(t *testing.T) {
	s := setupTestServer(t, "/tournament")

	id := s.create(t, springOpenForm(), &formFile{name: "bracket.png", content: "png"})
	image := s.stored(t)[0].ImageName()

	rec := s.do(t, http.MethodPost, "/tournament/edit/"+id, springOpenForm(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/tournament/tournament/"+id, decodeBody(t, rec)["redirect_url"])

	index := s.do(t, http.MethodGet, "/tournament/", nil, nil)
	assert.Equal(t, http.StatusOK, index.Code)
	assert.Contains(t, index.Body.String(), `href="/tournament/tournament/`+id+`"`)

	served := s.do(t, http.MethodGet, "/tournament/uploads/"+image, nil, nil)
	assert.Equal(t, http.StatusOK, served.Code)
	assert.Equal(t, "png", served.Body.String())

	outside := s.do(t, http.MethodGet, "/add", nil, nil)
	assert.Equal(t, http.StatusNotFound, outside.Code)

	deleted := s.do(t, http.MethodPost, "/tournament/delete/"+id, nil, nil)
	require.Equal(t, http.StatusOK, deleted.Code)
	assert.Equal(t, "/tournament/", decodeBody(t, deleted)["redirect_url"])
}

func TestHealthAndMetrics(t *testing.T) {
	s := setupTestServer(t, "")

	health := s.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, health.Code)

	s.do(t, http.MethodGet, "/", nil, nil)
	m := s.do(t, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, m.Code)
	assert.Contains(t, m.Body.String(), "http_requests_total")
}

func TestCORSWhenConfigured(t *testing.T) {
	s := setupTestServer(t, "")
	s.app.cfg.CORSOrigins = []string{"https://club.example"}
	s.router = newRouter(s.app)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://club.example")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, "https://club.example", rec.Header().Get("Access-Control-Allow-Origin"))
}
