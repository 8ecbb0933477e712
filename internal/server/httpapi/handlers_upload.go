package httpapi

import (
	"errors"
	"net/http"

	"github.com/recipehub/recipehub/internal/common"
	"github.com/recipehub/recipehub/internal/server/services"
	"github.com/recipehub/recipehub/internal/server/storage"
)

// multipartOverhead leaves room for boundaries and headers around the file.
const multipartOverhead = 1 << 20

type uploadResponse struct {
	URL string `json:"url"`
}

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	f, cleanup, err := s.formFile(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer cleanup()

	url, err := s.uploads.UploadImage(r.Context(), f, services.FolderImages)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, uploadResponse{URL: url})
}

func (s *Server) handleUploadProfile(w http.ResponseWriter, r *http.Request) {
	f, cleanup, err := s.formFile(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer cleanup()

	userID, _ := UserID(r.Context())
	url, err := s.users.ChangeProfileImage(r.Context(), userID, f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, uploadResponse{URL: url})
}

// formFile reads the "file" part of a multipart request. A missing part
// yields a nil file, which the upload service rejects.
func (s *Server) formFile(w http.ResponseWriter, r *http.Request) (*storage.File, func(), error) {
	noop := func() {}
	if s.maxFileSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxFileSize+multipartOverhead)
	}

	file, hdr, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return nil, noop, services.ErrFileTooLarge
		case errors.Is(err, http.ErrMissingFile):
			return nil, noop, services.ErrNoFile
		default:
			return nil, noop, common.NewError(common.ErrorValidation, "request must be multipart/form-data with a file field")
		}
	}

	cleanup := func() {
		_ = file.Close()
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}
	return &storage.File{
		Name:        hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Size:        hdr.Size,
		Body:        file,
	}, cleanup, nil
}
