// internal/server/handlers.go
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/yasupon0729/log-analysis-sub002/internal/format"
	"github.com/yasupon0729/log-analysis-sub002/pkg/fetch"
	"github.com/yasupon0729/log-analysis-sub002/pkg/logdecode"
)

// handleDecode decodes one uploaded file.
//
// Multipart fields: file (required), type, encoding, decompress, key.
// When the type field is absent and the filename is undetectable, the
// upload is treated as encrypted. That is a policy default for the
// shipping pipeline, not format detection.
func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("parse upload: %w", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("missing file field: %w", err))
		return
	}
	defer file.Close()

	buffer, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("read upload: %w", err))
		return
	}
	if len(buffer) > maxUploadSize {
		s.writeError(w, r, http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d bytes", maxUploadSize))
		return
	}

	fileType := format.Parse(r.FormValue("type"))
	if fileType == format.TypeUnknown {
		fileType = format.Detect(header.Filename)
	}
	if fileType == format.TypeUnknown {
		fileType = format.TypeEncrypted // encrypted-by-default upload policy
	}

	key := s.key
	if explicit := r.FormValue("key"); explicit != "" {
		key, err = logdecode.ParseKey(explicit)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, err)
			return
		}
	}

	req := logdecode.NewRequest(buffer, fileType)
	req.Filename = header.Filename
	req.Key = key
	if enc := r.FormValue("encoding"); enc != "" {
		req.Encoding = enc
	}
	if v := r.FormValue("decompress"); v == "false" || v == "0" {
		req.Decompress = false
	}

	result, err := logdecode.Decode(r.Context(), req)
	if err != nil {
		s.writeDecodeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

// handleLogsDate fetches and decodes one date partition from object storage
func (s *Server) handleLogsDate(w http.ResponseWriter, r *http.Request) {
	if s.fetcher == nil {
		s.writeError(w, r, http.StatusServiceUnavailable, errors.New("object storage is not configured"))
		return
	}

	date, err := time.Parse(fetch.DateLayout, r.PathValue("date"))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid date, want YYYY-MM-DD"))
		return
	}

	req := fetch.NewRequest(r.URL.Query().Get("prefix"), date)
	s.serveFetch(w, r, req)
}

// handleLogsRange fetches and decodes an inclusive date range
func (s *Server) handleLogsRange(w http.ResponseWriter, r *http.Request) {
	if s.fetcher == nil {
		s.writeError(w, r, http.StatusServiceUnavailable, errors.New("object storage is not configured"))
		return
	}

	q := r.URL.Query()
	from, err := time.Parse(fetch.DateLayout, q.Get("from"))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid from date, want YYYY-MM-DD"))
		return
	}
	to := from
	if v := q.Get("to"); v != "" {
		to, err = time.Parse(fetch.DateLayout, v)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid to date, want YYYY-MM-DD"))
			return
		}
	}
	if to.Before(from) {
		s.writeError(w, r, http.StatusBadRequest, errors.New("to is before from"))
		return
	}
	if to.Sub(from) > maxRangeDays*24*time.Hour {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("range exceeds %d days", maxRangeDays))
		return
	}

	req := &fetch.Request{
		Prefix:     q.Get("prefix"),
		From:       from,
		To:         to,
		Decompress: true,
	}
	s.serveFetch(w, r, req)
}

func (s *Server) serveFetch(w http.ResponseWriter, r *http.Request, req *fetch.Request) {
	q := r.URL.Query()
	if enc := q.Get("encoding"); enc != "" {
		req.Encoding = enc
	}
	if v := q.Get("decompress"); v == "false" || v == "0" {
		req.Decompress = false
	}

	result, err := s.fetcher.Fetch(r.Context(), req)
	if err != nil {
		s.writeDecodeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeDecodeError maps pipeline errors to HTTP statuses. Messages stay
// generic; server-side logs carry the detail.
func (s *Server) writeDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, logdecode.ErrNoKey):
		// Configuration problem, not a client one. Never echo key detail.
		s.writeError(w, r, http.StatusInternalServerError, errors.New("decryption key is not configured"))
	case errors.Is(err, logdecode.ErrDecryptionFailed):
		s.writeError(w, r, http.StatusUnprocessableEntity, logdecode.ErrDecryptionFailed)
	case errors.Is(err, logdecode.ErrNoDataFound):
		s.writeError(w, r, http.StatusNotFound, logdecode.ErrNoDataFound)
	case errors.Is(err, logdecode.ErrMalformedEnvelope),
		errors.Is(err, logdecode.ErrDecompressionFailed),
		errors.Is(err, logdecode.ErrEmptyArchive),
		errors.Is(err, logdecode.ErrUnsupportedFileType),
		errors.Is(err, logdecode.ErrEmptyBuffer),
		errors.Is(err, logdecode.ErrUnknownEncoding),
		errors.Is(err, logdecode.ErrInvalidKeySize):
		s.writeError(w, r, http.StatusBadRequest, err)
	default:
		s.logger.Error("decode request failed", zap.String("path", r.URL.Path), zap.Error(err))
		s.writeError(w, r, http.StatusInternalServerError, errors.New("internal error"))
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= 500 {
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	} else {
		s.logger.Warn("request rejected", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write response", zap.Error(err))
	}
}
