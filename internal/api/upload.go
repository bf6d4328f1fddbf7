package api

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docoutline/internal/parser"
)

// uploadError carries the HTTP status for a rejected file.
type uploadError struct {
	msg  string
	code int
}

func (e *uploadError) Error() string { return e.msg }

// readUpload validates and reads one uploaded file.
func (s *Server) readUpload(fh *multipart.FileHeader) (string, []byte, error) {
	filename := sanitizeFilename(fh.Filename)
	if !parser.IsSupportedExtension(filename) {
		return filename, nil, &uploadError{
			msg:  fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)),
			code: http.StatusBadRequest,
		}
	}

	f, err := fh.Open()
	if err != nil {
		return filename, nil, &uploadError{msg: "failed to open file", code: http.StatusInternalServerError}
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return filename, nil, &uploadError{msg: "failed to read file", code: http.StatusInternalServerError}
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return filename, nil, &uploadError{
			msg:  fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes),
			code: http.StatusRequestEntityTooLarge,
		}
	}
	return filename, data, nil
}

// parseSingleUpload parses the multipart form and reads its "file" field.
func (s *Server) parseSingleUpload(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return "", nil, false
	}

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		r.MultipartForm.RemoveAll()
		jsonError(w, "file is required", http.StatusBadRequest)
		return "", nil, false
	}

	filename, data, err := s.readUpload(files[0])
	if err != nil {
		r.MultipartForm.RemoveAll()
		writeUploadError(w, err)
		return "", nil, false
	}
	return filename, data, true
}

func writeUploadError(w http.ResponseWriter, err error) {
	if ue, ok := err.(*uploadError); ok {
		jsonError(w, ue.msg, ue.code)
		return
	}
	jsonError(w, err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
