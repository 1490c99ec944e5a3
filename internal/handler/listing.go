package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/sakif/tradecircle/internal/apperror"
	"github.com/sakif/tradecircle/internal/auth"
	"github.com/sakif/tradecircle/internal/service"
)

// maxUploadBytes bounds how much of a multipart body is held in memory while
// parsing. Larger files spill to temp files; anything truly hostile is cut
// off by the server's request limits.
const maxUploadBytes = 10 << 20 // 10 MiB

// ImageSaver persists an uploaded image and returns its public relative path.
type ImageSaver interface {
	Save(src io.Reader, originalName string) (string, error)
}

// ListingHandler exposes the listing CRUD and search endpoints.
type ListingHandler struct {
	listings *service.ListingService
	images   ImageSaver
	logger   *slog.Logger
}

// NewListingHandler creates a ListingHandler.
func NewListingHandler(listings *service.ListingService, images ImageSaver, logger *slog.Logger) *ListingHandler {
	return &ListingHandler{
		listings: listings,
		images:   images,
		logger:   logger,
	}
}

// flexPrice tolerates the price arriving as a JSON number, a numeric string,
// null, or garbage. Anything that does not parse becomes 0 — a bad price is
// never a reason to reject a listing.
type flexPrice float64

func (p *flexPrice) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*p = flexPrice(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			*p = flexPrice(n)
			return nil
		}
	}
	*p = 0
	return nil
}

// listingRequest is the JSON body shape for create and update. Image uploads
// only arrive via multipart form encoding, so there is no image field here.
type listingRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       flexPrice `json:"price"`
}

// listingInput is the decoded body regardless of encoding.
type listingInput struct {
	Title       string
	Description string
	Price       float64
	Image       string // relative stored path, "" = no upload
}

// decodeListingBody accepts either a multipart form (the browser upload path,
// with an optional "image" file part) or a plain JSON body.
func (h *ListingHandler) decodeListingBody(r *http.Request) (listingInput, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var req listingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return listingInput{}, apperror.ValidationFailed("body", "Invalid request body")
		}
		return listingInput{
			Title:       req.Title,
			Description: req.Description,
			Price:       float64(req.Price),
		}, nil
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return listingInput{}, apperror.ValidationFailed("body", "Invalid multipart form")
	}

	in := listingInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Price:       parsePrice(r.FormValue("price")),
	}

	file, header, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return in, nil
	case err != nil:
		return listingInput{}, apperror.ValidationFailed("image", "Invalid image upload")
	}
	defer file.Close()

	relPath, err := h.images.Save(file, header.Filename)
	if err != nil {
		h.logger.Error("saving uploaded image", slog.String("error", err.Error()))
		return listingInput{}, err
	}
	in.Image = relPath
	return in, nil
}

// parsePrice mirrors flexPrice for form-encoded values: unparseable input is
// coerced to 0, never rejected.
func parsePrice(raw string) float64 {
	if raw == "" {
		return 0
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return n
}

// parseID extracts the {id} path parameter.
func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.ValidationFailed("id", "Invalid listing id")
	}
	return id, nil
}

// HandleCreate creates a listing owned by the authenticated user.
//
// HTTP: POST /add-listing
// Auth: required
// BODY: multipart form (title, description, price?, image file?) or JSON
//
// Responds 201 {"id": n}.
func (h *ListingHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	in, err := h.decodeListingBody(r)
	if err != nil {
		writeError(w, err)
		return
	}

	listing, err := h.listings.Create(r.Context(), claims.UserID, in.Title, in.Description, in.Price, in.Image)
	if err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("listing created",
		slog.Int64("listingID", listing.ID),
		slog.Int64("userID", claims.UserID),
	)
	writeJSON(w, http.StatusCreated, map[string]int64{"id": listing.ID})
}

// HandleUpdate overwrites a listing the authenticated user owns.
//
// HTTP: PUT /listings/{id}
// Auth: required
//
// Responds 200 {"updated": n}. When no new image is uploaded the existing
// one is kept.
func (h *ListingHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	id, err := parseID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	in, err := h.decodeListingBody(r)
	if err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.listings.Update(r.Context(), id, claims.UserID, in.Title, in.Description, in.Price, in.Image)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}

// HandleDelete removes a listing the authenticated user owns.
//
// HTTP: DELETE /listings/{id}
// Auth: required
//
// Responds 200 {"deleted": n}. The stored image is cleaned up in the
// background and never delays the response.
func (h *ListingHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	id, err := parseID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	deleted, err := h.listings.Delete(r.Context(), id, claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

// HandleMyListings returns the authenticated user's own listings, newest
// first.
//
// HTTP: GET /my-listings
// Auth: required
func (h *ListingHandler) HandleMyListings(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	listings, err := h.listings.ListByOwner(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listings)
}

// HandleSearch returns listings whose title or description contains the
// query, newest first. An empty query behaves like the recent-listings feed.
//
// HTTP: GET /search?q=bike
func (h *ListingHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	listings, err := h.listings.Search(r.Context(), r.URL.Query().Get("q"), service.MaxListLimit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listings)
}

// HandleList returns the most recent listings.
//
// HTTP: GET /listings
func (h *ListingHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	listings, err := h.listings.Recent(r.Context(), service.MaxListLimit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listings)
}
