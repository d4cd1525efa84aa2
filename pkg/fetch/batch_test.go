// pkg/fetch/batch_test.go
package fetch_test

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	ignore "github.com/sabhiram/go-gitignore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yasupon0729/log-analysis-sub002/pkg/fetch"
	"github.com/yasupon0729/log-analysis-sub002/pkg/logdecode"
)

// fakeStore is an in-memory ObjectStore
type fakeStore struct {
	objects map[string][]byte
	getErr  map[string]error
}

func (s *fakeStore) List(_ context.Context, prefix string) ([]fetch.ObjectInfo, error) {
	var infos []fetch.ObjectInfo
	for key, body := range s.objects {
		if strings.HasPrefix(key, prefix) {
			infos = append(infos, fetch.ObjectInfo{Key: key, Size: int64(len(body))})
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

func (s *fakeStore) Get(_ context.Context, key string) ([]byte, error) {
	if err, ok := s.getErr[key]; ok {
		return nil, err
	}
	body, ok := s.objects[key]
	if !ok {
		return nil, assert.AnError
	}
	return body, nil
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(fetch.DateLayout, s)
	require.NoError(t, err)
	return d
}

func TestFetchSingleDate(t *testing.T) {
	key, err := logdecode.GenerateKey()
	require.NoError(t, err)
	envelope, err := logdecode.Seal([]byte("encrypted line\n"), key, logdecode.FlagGzip)
	require.NoError(t, err)

	store := &fakeStore{objects: map[string][]byte{
		"logs/2026-08-25/app.log.gz.enc": envelope,
		"logs/2026-08-25/extra.log":      []byte("plain line\n"),
	}}

	fetcher := &fetch.Fetcher{Store: store, Key: key}
	req := fetch.NewRequest("logs", day(t, "2026-08-25"))

	result, err := fetcher.Fetch(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 2, result.ObjectCount)
	require.Len(t, result.Entries, 2)
	// Lexicographic key order: app.log.gz.enc before extra.log
	assert.Equal(t, "logs/2026-08-25/app.log.gz.enc", result.Entries[0].Name)
	assert.Equal(t, "logs/2026-08-25/extra.log", result.Entries[1].Name)
	assert.Contains(t, result.LogText, "----- logs/2026-08-25/app.log.gz.enc -----\nencrypted line\n")
	assert.Contains(t, result.LogText, "----- logs/2026-08-25/extra.log -----\nplain line\n")
	assert.True(t, result.DidDecompress)
	assert.Empty(t, result.MissingDates)
	assert.Empty(t, result.Skipped)
}

func TestFetchSkipsUnsupportedObjects(t *testing.T) {
	// Scenario: one decodable object, one with an unsupported extension.
	store := &fakeStore{objects: map[string][]byte{
		"logs/2026-08-25/good.log":       []byte("good\n"),
		"logs/2026-08-25/weird.dat":      []byte("???"),
		"logs/2026-08-25/corrupt.log.gz": []byte("not gzip"),
	}}

	fetcher := &fetch.Fetcher{Store: store}
	req := fetch.NewRequest("logs", day(t, "2026-08-25"))

	result, err := fetcher.Fetch(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, result.ObjectCount)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, "logs/2026-08-25/good.log", result.Entries[0].Name)

	require.Len(t, result.Skipped, 2)
	reasons := map[string]string{}
	for _, s := range result.Skipped {
		reasons[s.Key] = s.Reason
	}
	assert.Equal(t, "unsupported file type", reasons["logs/2026-08-25/weird.dat"])
	assert.Contains(t, reasons["logs/2026-08-25/corrupt.log.gz"], "decode failed")
}

func TestFetchDateRange(t *testing.T) {
	store := &fakeStore{objects: map[string][]byte{
		"logs/2026-08-24/a.log":    []byte("day one\n"),
		"logs/2026-08-26/b.log.gz": gzipBytes(t, []byte("day three\n")),
	}}

	fetcher := &fetch.Fetcher{Store: store}
	req := &fetch.Request{
		Prefix:     "logs",
		From:       day(t, "2026-08-24"),
		To:         day(t, "2026-08-26"),
		Decompress: true,
	}

	result, err := fetcher.Fetch(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 2, result.ObjectCount)
	assert.Equal(t, []string{"2026-08-25"}, result.MissingDates)
	require.Len(t, result.Entries, 2)
	assert.Equal(t, "logs/2026-08-24/a.log", result.Entries[0].Name)
	assert.Equal(t, "logs/2026-08-26/b.log.gz", result.Entries[1].Name)
	assert.True(t, result.DidDecompress)
}

func TestFetchNoData(t *testing.T) {
	fetcher := &fetch.Fetcher{Store: &fakeStore{objects: map[string][]byte{}}}
	req := fetch.NewRequest("logs", day(t, "2026-08-25"))

	_, err := fetcher.Fetch(context.Background(), req)
	require.ErrorIs(t, err, logdecode.ErrNoDataFound)
}

func TestFetchAllObjectsSkippedIsNoData(t *testing.T) {
	store := &fakeStore{objects: map[string][]byte{
		"logs/2026-08-25/only.dat": []byte("unsupported"),
	}}
	fetcher := &fetch.Fetcher{Store: store}

	_, err := fetcher.Fetch(context.Background(), fetch.NewRequest("logs", day(t, "2026-08-25")))
	require.ErrorIs(t, err, logdecode.ErrNoDataFound)
}

func TestFetchExcludePatterns(t *testing.T) {
	store := &fakeStore{objects: map[string][]byte{
		"logs/2026-08-25/app.log":   []byte("keep\n"),
		"logs/2026-08-25/debug.log": []byte("drop\n"),
	}}

	fetcher := &fetch.Fetcher{
		Store:   store,
		Exclude: ignore.CompileIgnoreLines("debug.log"),
	}

	result, err := fetcher.Fetch(context.Background(), fetch.NewRequest("logs", day(t, "2026-08-25")))
	require.NoError(t, err)

	assert.Equal(t, 1, result.ObjectCount)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "excluded by pattern", result.Skipped[0].Reason)
}

func TestFetchEncryptedWithoutKeyIsFatal(t *testing.T) {
	key, err := logdecode.GenerateKey()
	require.NoError(t, err)
	envelope, err := logdecode.Seal([]byte("secret"), key, logdecode.FlagGzip)
	require.NoError(t, err)

	store := &fakeStore{objects: map[string][]byte{
		"logs/2026-08-25/app.log.gz.enc": envelope,
	}}
	fetcher := &fetch.Fetcher{Store: store} // no key configured

	_, err = fetcher.Fetch(context.Background(), fetch.NewRequest("logs", day(t, "2026-08-25")))
	require.ErrorIs(t, err, logdecode.ErrNoKey)
}

func TestFetchFetchErrorIsSkipped(t *testing.T) {
	store := &fakeStore{
		objects: map[string][]byte{
			"logs/2026-08-25/a.log": []byte("ok\n"),
			"logs/2026-08-25/b.log": []byte("never fetched\n"),
		},
		getErr: map[string]error{"logs/2026-08-25/b.log": assert.AnError},
	}
	fetcher := &fetch.Fetcher{Store: store}

	result, err := fetcher.Fetch(context.Background(), fetch.NewRequest("logs", day(t, "2026-08-25")))
	require.NoError(t, err)

	assert.Equal(t, 1, result.ObjectCount)
	require.Len(t, result.Skipped, 1)
	assert.Contains(t, result.Skipped[0].Reason, "fetch failed")
}

func TestFetchInvalidRange(t *testing.T) {
	fetcher := &fetch.Fetcher{Store: &fakeStore{}}

	_, err := fetcher.Fetch(context.Background(), &fetch.Request{Prefix: "logs"})
	require.Error(t, err)

	_, err = fetcher.Fetch(context.Background(), &fetch.Request{
		Prefix: "logs",
		From:   day(t, "2026-08-26"),
		To:     day(t, "2026-08-25"),
	})
	require.Error(t, err)
}

func TestFetchCancelledContext(t *testing.T) {
	store := &fakeStore{objects: map[string][]byte{
		"logs/2026-08-25/a.log": []byte("ok\n"),
	}}
	fetcher := &fetch.Fetcher{Store: store}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fetcher.Fetch(ctx, fetch.NewRequest("logs", day(t, "2026-08-25")))
	require.ErrorIs(t, err, context.Canceled)
}
