package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"

	"github.com/shahzod418/musicbox/pkg/musicbox"
)

// Library lists the artists in the caller's library that the caller can see
func (h *Handler) Library(w http.ResponseWriter, r *http.Request) {
	artists, err := h.service.Library(r.Context(), ViewerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, artists)
}

// AddToLibrary links the artist named by the artist_id field
func (h *Handler) AddToLibrary(w http.ResponseWriter, r *http.Request) {
	form, err := h.parseForm(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer form.Close()

	artistID, err := form.Int64("artist_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if artistID == nil {
		writeError(w, r, fmt.Errorf("%w: artist_id is required", musicbox.ErrValidation))
		return
	}

	if err := h.service.AddToLibrary(r.Context(), ViewerFrom(r.Context()), *artistID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RemoveFromLibrary(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.service.RemoveFromLibrary(r.Context(), ViewerFrom(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetProfile returns the caller's own artist with all of its content
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	details, err := h.service.GetProfile(r.Context(), ViewerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, details)
}

// CreateProfile creates a pending artist for the caller from fields name and
// description and optional avatar and cover parts.
func (h *Handler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	req, form, err := h.profileRequest(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer form.Close()

	artist, err := h.service.CreateProfile(r.Context(), ViewerFrom(r.Context()), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, artist)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	req, form, err := h.profileRequest(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer form.Close()

	artist, err := h.service.UpdateProfile(r.Context(), ViewerFrom(r.Context()), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, artist)
}

func (h *Handler) profileRequest(w http.ResponseWriter, r *http.Request) (musicbox.ProfileRequest, *uploadForm, error) {
	form, err := h.parseForm(w, r)
	if err != nil {
		return musicbox.ProfileRequest{}, nil, err
	}

	req := musicbox.ProfileRequest{
		Name:        form.String("name"),
		Description: form.String("description"),
	}
	if req.Avatar, err = form.File("avatar"); err != nil {
		form.Close()
		return musicbox.ProfileRequest{}, nil, err
	}
	if req.Cover, err = form.File("cover"); err != nil {
		form.Close()
		return musicbox.ProfileRequest{}, nil, err
	}
	return req, form, nil
}
