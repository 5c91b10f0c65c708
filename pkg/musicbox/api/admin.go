package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/shahzod418/musicbox/pkg/musicbox"
)

// CreateArtist creates an artist from a multipart form with fields
// user_id, name, description, status and optional avatar and cover parts.
func (h *Handler) CreateArtist(w http.ResponseWriter, r *http.Request) {
	form, err := h.parseForm(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer form.Close()

	req := musicbox.CreateArtistRequest{
		Name:        form.Value("name"),
		Description: form.Value("description"),
		Status:      musicbox.Status(form.Value("status")),
	}
	userID, err := form.Int64("user_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if userID != nil {
		req.UserID = *userID
	}
	if req.Avatar, err = form.File("avatar"); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Cover, err = form.File("cover"); err != nil {
		writeError(w, r, err)
		return
	}

	artist, err := h.service.CreateArtist(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, artist)
}

func (h *Handler) UpdateArtist(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	form, err := h.parseForm(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer form.Close()

	req := musicbox.UpdateArtistRequest{
		ID:          id,
		Name:        form.String("name"),
		Description: form.String("description"),
		Status:      form.Status("status"),
	}
	if req.Avatar, err = form.File("avatar"); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Cover, err = form.File("cover"); err != nil {
		writeError(w, r, err)
		return
	}

	artist, err := h.service.UpdateArtist(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, artist)
}

func (h *Handler) RemoveArtist(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.service.RemoveArtist)
}

// RemoveArtistResource detaches the artist's avatar or cover
func (h *Handler) RemoveArtistResource(w http.ResponseWriter, r *http.Request) {
	typ := musicbox.ResourceType(chi.URLParam(r, "resource"))
	h.remove(w, r, func(ctx context.Context, id int64) error {
		return h.service.RemoveArtistResource(ctx, id, typ)
	})
}

// CreateAlbum creates an album from fields artist_id, name, status and an
// optional cover part.
func (h *Handler) CreateAlbum(w http.ResponseWriter, r *http.Request) {
	form, err := h.parseForm(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer form.Close()

	req := musicbox.CreateAlbumRequest{
		Name:   form.Value("name"),
		Status: musicbox.Status(form.Value("status")),
	}
	artistID, err := form.Int64("artist_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if artistID != nil {
		req.ArtistID = *artistID
	}
	if req.Cover, err = form.File("cover"); err != nil {
		writeError(w, r, err)
		return
	}

	album, err := h.service.CreateAlbum(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, album)
}

func (h *Handler) UpdateAlbum(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	form, err := h.parseForm(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer form.Close()

	req := musicbox.UpdateAlbumRequest{
		ID:     id,
		Name:   form.String("name"),
		Status: form.Status("status"),
	}
	if req.Cover, err = form.File("cover"); err != nil {
		writeError(w, r, err)
		return
	}

	album, err := h.service.UpdateAlbum(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, album)
}

func (h *Handler) RemoveAlbum(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.service.RemoveAlbum)
}

func (h *Handler) RemoveAlbumCover(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.service.RemoveAlbumCover)
}

// CreateSong creates a song from fields artist_id, album_id, name, text,
// explicit, status and the cover and audio parts. Audio is required.
func (h *Handler) CreateSong(w http.ResponseWriter, r *http.Request) {
	form, err := h.parseForm(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer form.Close()

	req := musicbox.CreateSongRequest{
		Name:   form.Value("name"),
		Text:   form.Value("text"),
		Status: musicbox.Status(form.Value("status")),
	}
	artistID, err := form.Int64("artist_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if artistID != nil {
		req.ArtistID = *artistID
	}
	if req.AlbumID, err = form.Int64("album_id"); err != nil {
		writeError(w, r, err)
		return
	}
	explicit, err := form.Bool("explicit")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if explicit != nil {
		req.Explicit = *explicit
	}
	if req.Cover, err = form.File("cover"); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Audio, err = form.File("audio"); err != nil {
		writeError(w, r, err)
		return
	}

	song, err := h.service.CreateSong(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, song)
}

func (h *Handler) UpdateSong(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	form, err := h.parseForm(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer form.Close()

	req := musicbox.UpdateSongRequest{
		ID:     id,
		Name:   form.String("name"),
		Text:   form.String("text"),
		Status: form.Status("status"),
	}
	if req.AlbumID, err = form.Int64("album_id"); err != nil {
		writeError(w, r, err)
		return
	}
	detach, err := form.Bool("detach_album")
	if err != nil {
		writeError(w, r, err)
		return
	}
	req.DetachAlbum = detach != nil && *detach
	if req.Explicit, err = form.Bool("explicit"); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Cover, err = form.File("cover"); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Audio, err = form.File("audio"); err != nil {
		writeError(w, r, err)
		return
	}

	song, err := h.service.UpdateSong(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, song)
}

func (h *Handler) RemoveSong(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.service.RemoveSong)
}

func (h *Handler) RemoveSongCover(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.service.RemoveSongCover)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, users)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, user)
}

// UpdateRoleRequest is the body of a role change
type UpdateRoleRequest struct {
	Role musicbox.Role `json:"role"`
}

func (h *Handler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req UpdateRoleRequest
	if err := render.DecodeJSON(http.MaxBytesReader(w, r.Body, h.maxBody), &req); err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", musicbox.ErrValidation, err))
		return
	}
	user, err := h.service.UpdateUserRole(r.Context(), id, req.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, user)
}

func (h *Handler) RemoveUser(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.service.RemoveUser)
}

func (h *Handler) SetUserAvatar(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.setAvatar(w, r, id)
}

func (h *Handler) RemoveUserAvatar(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.service.RemoveUserAvatar)
}

// SweepOrphans removes storage namespaces whose owner row is gone
func (h *Handler) SweepOrphans(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.SweepOrphans(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, report)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id int64) error) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := fn(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
