package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/shahzod418/musicbox/pkg/musicbox"
)

const (
	defaultMaxUploadMemory = 32 << 20
	defaultMaxUploadSize   = 64 << 20
)

// uploadForm holds a parsed request form and the files opened from it
type uploadForm struct {
	r       *http.Request
	closers []io.Closer
}

// parseForm reads a multipart or urlencoded body of at most h.maxBody bytes.
func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) (*uploadForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)

	err := r.ParseMultipartForm(h.maxMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", errTooLarge, tooLarge.Limit)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", musicbox.ErrValidation, err)
	}
	return &uploadForm{r: r}, nil
}

func (f *uploadForm) Close() {
	for _, c := range f.closers {
		_ = c.Close()
	}
}

// String returns the field value, or nil when the field was not sent
func (f *uploadForm) String(key string) *string {
	values, ok := f.r.PostForm[key]
	if !ok || len(values) == 0 {
		return nil
	}
	return &values[0]
}

func (f *uploadForm) Value(key string) string {
	return f.r.PostForm.Get(key)
}

func (f *uploadForm) Status(key string) *musicbox.Status {
	v := f.String(key)
	if v == nil {
		return nil
	}
	status := musicbox.Status(*v)
	return &status
}

func (f *uploadForm) Int64(key string) (*int64, error) {
	v := f.String(key)
	if v == nil || *v == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(*v, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer", musicbox.ErrValidation, key)
	}
	return &id, nil
}

func (f *uploadForm) Bool(key string) (*bool, error) {
	v := f.String(key)
	if v == nil || *v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(*v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a boolean", musicbox.ErrValidation, key)
	}
	return &b, nil
}

// File opens an uploaded file. A missing part yields nil.
func (f *uploadForm) File(key string) (*musicbox.File, error) {
	if f.r.MultipartForm == nil {
		return nil, nil
	}
	file, header, err := f.r.FormFile(key)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", musicbox.ErrValidation, key, err)
	}
	f.closers = append(f.closers, file)
	return fileFromPart(file, header), nil
}

func fileFromPart(file multipart.File, header *multipart.FileHeader) *musicbox.File {
	return &musicbox.File{
		Name:   header.Filename,
		Size:   header.Size,
		Reader: file,
	}
}

func pathID(r *http.Request, key string) (int64, error) {
	raw := chi.URLParam(r, key)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", musicbox.ErrValidation, key, raw)
	}
	return id, nil
}

func queryID(r *http.Request, key string) (*int64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s %q", musicbox.ErrValidation, key, raw)
	}
	return &id, nil
}
