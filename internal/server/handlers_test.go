// internal/server/handlers_test.go
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yasupon0729/log-analysis-sub002/pkg/fetch"
	"github.com/yasupon0729/log-analysis-sub002/pkg/logdecode"
)

type memStore struct {
	objects map[string][]byte
}

func (s *memStore) List(_ context.Context, prefix string) ([]fetch.ObjectInfo, error) {
	var infos []fetch.ObjectInfo
	for key, body := range s.objects {
		if strings.HasPrefix(key, prefix) {
			infos = append(infos, fetch.ObjectInfo{Key: key, Size: int64(len(body))})
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

func (s *memStore) Get(_ context.Context, key string) ([]byte, error) {
	return s.objects[key], nil
}

func multipartUpload(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func decodeBody(t *testing.T, resp *httptest.ResponseRecorder, into any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
}

func TestHandleDecodePlainUpload(t *testing.T) {
	srv := New(Config{})
	body, contentType := multipartUpload(t, "app.log", []byte("hello\n"), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/decode", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	srv.Handler().ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)

	var result logdecode.Result
	decodeBody(t, resp, &result)
	assert.Equal(t, "hello\n", result.LogText)
	assert.False(t, result.DidDecompress)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, "app.log", result.Entries[0].Name)
}

func TestHandleDecodeEncryptedUpload(t *testing.T) {
	key, err := logdecode.GenerateKey()
	require.NoError(t, err)
	envelope, err := logdecode.Seal([]byte("secret log line\n"), key, logdecode.FlagGzip)
	require.NoError(t, err)

	srv := New(Config{Key: key})
	body, contentType := multipartUpload(t, "app.log.gz.enc", envelope, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/decode", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	srv.Handler().ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)

	var result logdecode.Result
	decodeBody(t, resp, &result)
	assert.Equal(t, "secret log line\n", result.LogText)
	assert.True(t, result.DidDecompress)
}

func TestHandleDecodeUndetectedDefaultsToEncrypted(t *testing.T) {
	// No configured key and an undetectable filename: the encrypted-by-default
	// policy applies and the request fails on the missing key.
	srv := New(Config{})
	body, contentType := multipartUpload(t, "mystery.bin", []byte("some bytes"), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/decode", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	srv.Handler().ServeHTTP(resp, req)

	require.Equal(t, http.StatusInternalServerError, resp.Code)

	var payload map[string]string
	decodeBody(t, resp, &payload)
	assert.Contains(t, payload["error"], "key is not configured")
}

func TestHandleDecodeWrongKey(t *testing.T) {
	key, err := logdecode.GenerateKey()
	require.NoError(t, err)
	other, err := logdecode.GenerateKey()
	require.NoError(t, err)
	envelope, err := logdecode.Seal([]byte("secret"), key, logdecode.FlagGzip)
	require.NoError(t, err)

	srv := New(Config{Key: other})
	body, contentType := multipartUpload(t, "app.enc", envelope, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/decode", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	srv.Handler().ServeHTTP(resp, req)

	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	var payload map[string]string
	decodeBody(t, resp, &payload)
	assert.Equal(t, "decryption failed", payload["error"])
}

func TestHandleDecodeExplicitKeyOverride(t *testing.T) {
	key, err := logdecode.GenerateKey()
	require.NoError(t, err)
	envelope, err := logdecode.Seal([]byte("override\n"), key, logdecode.FlagGzip)
	require.NoError(t, err)

	srv := New(Config{}) // no default key
	body, contentType := multipartUpload(t, "app.enc", envelope, map[string]string{"key": key.Hex()})

	req := httptest.NewRequest(http.MethodPost, "/api/decode", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	srv.Handler().ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)

	var result logdecode.Result
	decodeBody(t, resp, &result)
	assert.Equal(t, "override\n", result.LogText)
}

func TestHandleDecodeBadExplicitKey(t *testing.T) {
	srv := New(Config{})
	body, contentType := multipartUpload(t, "app.enc", []byte("whatever"), map[string]string{"key": "short"})

	req := httptest.NewRequest(http.MethodPost, "/api/decode", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	srv.Handler().ServeHTTP(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestHandleLogsDate(t *testing.T) {
	store := &memStore{objects: map[string][]byte{
		"2026-08-25/a.log": []byte("A\n"),
		"2026-08-25/b.log": []byte("B\n"),
	}}
	srv := New(Config{Fetcher: &fetch.Fetcher{Store: store}})

	req := httptest.NewRequest(http.MethodGet, "/api/logs/2026-08-25", nil)
	resp := httptest.NewRecorder()
	srv.Handler().ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)

	var result fetch.Result
	decodeBody(t, resp, &result)
	assert.Equal(t, 2, result.ObjectCount)
	require.Len(t, result.Entries, 2)
	assert.Contains(t, result.LogText, "----- 2026-08-25/a.log -----\nA\n")
}

func TestHandleLogsDateNotFound(t *testing.T) {
	srv := New(Config{Fetcher: &fetch.Fetcher{Store: &memStore{objects: map[string][]byte{}}}})

	req := httptest.NewRequest(http.MethodGet, "/api/logs/2026-08-25", nil)
	resp := httptest.NewRecorder()
	srv.Handler().ServeHTTP(resp, req)

	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestHandleLogsRange(t *testing.T) {
	store := &memStore{objects: map[string][]byte{
		"2026-08-24/a.log": []byte("A\n"),
		"2026-08-26/b.log": []byte("B\n"),
	}}
	srv := New(Config{Fetcher: &fetch.Fetcher{Store: store}})

	req := httptest.NewRequest(http.MethodGet, "/api/logs?from=2026-08-24&to=2026-08-26", nil)
	resp := httptest.NewRecorder()
	srv.Handler().ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)

	var result fetch.Result
	decodeBody(t, resp, &result)
	assert.Equal(t, 2, result.ObjectCount)
	assert.Equal(t, []string{"2026-08-25"}, result.MissingDates)
}

func TestHandleLogsRangeValidation(t *testing.T) {
	srv := New(Config{Fetcher: &fetch.Fetcher{Store: &memStore{}}})

	for _, url := range []string{
		"/api/logs?from=bad-date",
		"/api/logs?from=2026-08-25&to=not-a-date",
		"/api/logs?from=2026-08-25&to=2026-08-24",
		"/api/logs?from=2026-01-01&to=2026-12-31",
		"/api/logs/25-08-2026",
	} {
		req := httptest.NewRequest(http.MethodGet, url, nil)
		resp := httptest.NewRecorder()
		srv.Handler().ServeHTTP(resp, req)
		assert.Equal(t, http.StatusBadRequest, resp.Code, url)
	}
}

func TestHandleLogsWithoutStore(t *testing.T) {
	srv := New(Config{})

	req := httptest.NewRequest(http.MethodGet, "/api/logs/2026-08-25", nil)
	resp := httptest.NewRecorder()
	srv.Handler().ServeHTTP(resp, req)

	require.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

func TestHandleHealth(t *testing.T) {
	srv := New(Config{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp := httptest.NewRecorder()
	srv.Handler().ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)

	var payload map[string]string
	decodeBody(t, resp, &payload)
	assert.Equal(t, "ok", payload["status"])
}
