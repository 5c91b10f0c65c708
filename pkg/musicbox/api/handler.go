package api

import (
	"net/http"
	"strconv"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"

	"github.com/shahzod418/musicbox/pkg/musicbox"
)

// Handler exposes the catalogue over HTTP
type Handler struct {
	service   musicbox.Service
	auth      *jwtauth.JWTAuth
	maxMemory int64
	maxBody   int64
}

// HandlerOption configures a Handler
type HandlerOption func(*Handler)

// WithMaxUploadSize caps the size of a request body. Larger bodies are
// rejected with 413 before any of them is buffered.
func WithMaxUploadSize(n int64) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.maxBody = n
		}
	}
}

// NewHandler creates a handler. With a nil auth every request is anonymous.
func NewHandler(service musicbox.Service, auth *jwtauth.JWTAuth, options ...HandlerOption) *Handler {
	h := &Handler{
		service:   service,
		auth:      auth,
		maxMemory: defaultMaxUploadMemory,
		maxBody:   defaultMaxUploadSize,
	}
	for _, option := range options {
		option(h)
	}
	return h
}

// Routes returns the router for catalogue and admin endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	if h.auth != nil {
		r.Use(jwtauth.Verifier(h.auth))
	}
	r.Use(Identify)

	r.Get("/artists", h.ListArtists)
	r.Get("/artists/{id}", h.GetArtist)
	r.Get("/artists/{id}/{resource}", h.GetArtistFile)

	r.Get("/albums", h.ListAlbums)
	r.Get("/albums/{id}", h.GetAlbum)
	r.Get("/albums/{id}/cover", h.GetAlbumCover)

	r.Get("/songs", h.ListSongs)
	r.Get("/songs/{id}", h.GetSong)
	r.Get("/songs/{id}/{resource}", h.GetSongFile)

	r.Get("/users/{id}/avatar", h.GetUserAvatar)

	r.Group(func(r chi.Router) {
		r.Use(RequireRole(musicbox.RoleUser, musicbox.RoleArtist, musicbox.RoleAdmin))
		r.Put("/me/avatar", h.SetOwnAvatar)
		r.Delete("/me/avatar", h.RemoveOwnAvatar)

		r.Get("/me/artists", h.Library)
		r.Put("/me/artists", h.AddToLibrary)
		r.Delete("/me/artists/{id}", h.RemoveFromLibrary)

		r.Get("/me/artist", h.GetProfile)
		r.Post("/me/artist", h.CreateProfile)
		r.Patch("/me/artist", h.UpdateProfile)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(RequireRole(musicbox.RoleAdmin))

		r.Post("/artists", h.CreateArtist)
		r.Patch("/artists/{id}", h.UpdateArtist)
		r.Delete("/artists/{id}", h.RemoveArtist)
		r.Delete("/artists/{id}/{resource}", h.RemoveArtistResource)

		r.Post("/albums", h.CreateAlbum)
		r.Patch("/albums/{id}", h.UpdateAlbum)
		r.Delete("/albums/{id}", h.RemoveAlbum)
		r.Delete("/albums/{id}/cover", h.RemoveAlbumCover)

		r.Post("/songs", h.CreateSong)
		r.Patch("/songs/{id}", h.UpdateSong)
		r.Delete("/songs/{id}", h.RemoveSong)
		r.Delete("/songs/{id}/cover", h.RemoveSongCover)

		r.Get("/users", h.ListUsers)
		r.Get("/users/{id}", h.GetUser)
		r.Patch("/users/{id}/role", h.UpdateUserRole)
		r.Delete("/users/{id}", h.RemoveUser)
		r.Put("/users/{id}/avatar", h.SetUserAvatar)
		r.Delete("/users/{id}/avatar", h.RemoveUserAvatar)

		r.Post("/sweep", h.SweepOrphans)
	})
	return r
}

// ListArtists returns the artists visible to the caller
func (h *Handler) ListArtists(w http.ResponseWriter, r *http.Request) {
	artists, err := h.service.ListArtists(r.Context(), ViewerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, artists)
}

// GetArtist returns an artist with its visible albums and songs
func (h *Handler) GetArtist(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	artist, err := h.service.GetArtist(r.Context(), id, ViewerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, artist)
}

func (h *Handler) GetArtistFile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	typ := musicbox.ResourceType(chi.URLParam(r, "resource"))
	data, err := h.service.ArtistFile(r.Context(), id, typ, ViewerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeFile(w, data)
}

// ListAlbums returns visible albums, optionally narrowed by artist_id
func (h *Handler) ListAlbums(w http.ResponseWriter, r *http.Request) {
	artistID, err := queryID(r, "artist_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	albums, err := h.service.ListAlbums(r.Context(), musicbox.AlbumFilter{ArtistID: artistID}, ViewerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, albums)
}

func (h *Handler) GetAlbum(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	album, err := h.service.GetAlbum(r.Context(), id, ViewerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, album)
}

func (h *Handler) GetAlbumCover(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	data, err := h.service.AlbumCover(r.Context(), id, ViewerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeFile(w, data)
}

// ListSongs returns visible songs, optionally narrowed by artist_id and album_id
func (h *Handler) ListSongs(w http.ResponseWriter, r *http.Request) {
	artistID, err := queryID(r, "artist_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	albumID, err := queryID(r, "album_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	filter := musicbox.SongFilter{ArtistID: artistID, AlbumID: albumID}
	songs, err := h.service.ListSongs(r.Context(), filter, ViewerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, songs)
}

func (h *Handler) GetSong(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	song, err := h.service.GetSong(r.Context(), id, ViewerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, song)
}

func (h *Handler) GetSongFile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	typ := musicbox.ResourceType(chi.URLParam(r, "resource"))
	data, err := h.service.SongFile(r.Context(), id, typ, ViewerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeFile(w, data)
}

func (h *Handler) GetUserAvatar(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	data, err := h.service.UserAvatar(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeFile(w, data)
}

// SetOwnAvatar replaces the caller's avatar with the "avatar" part
func (h *Handler) SetOwnAvatar(w http.ResponseWriter, r *http.Request) {
	h.setAvatar(w, r, ViewerFrom(r.Context()).UserID)
}

func (h *Handler) RemoveOwnAvatar(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RemoveUserAvatar(r.Context(), ViewerFrom(r.Context()).UserID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setAvatar(w http.ResponseWriter, r *http.Request, userID int64) {
	form, err := h.parseForm(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer form.Close()

	avatar, err := form.File("avatar")
	if err != nil {
		writeError(w, r, err)
		return
	}
	user, err := h.service.SetUserAvatar(r.Context(), userID, avatar)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, user)
}

func writeFile(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", mimetype.Detect(data).String())
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
