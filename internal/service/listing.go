package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/sakif/tradecircle/internal/apperror"
	"github.com/sakif/tradecircle/internal/metrics"
	"github.com/sakif/tradecircle/internal/model"
	"github.com/sakif/tradecircle/internal/repository"
)

// List bounds. The browse and search endpoints cap at MaxListLimit; an empty
// search query falls back to the smaller recent feed.
const (
	MaxListLimit      = 100
	EmptySearchLimit  = 40
	MaxTitleLength    = 200
	MaxDescriptionLen = 5000
)

// ImageCleaner removes a stored image asset by relative path. Satisfied by
// *storage.ImageStore; tests substitute a recorder.
type ImageCleaner interface {
	Remove(relPath string)
}

// ListingService handles marketplace listing rules: validation, price
// coercion, ownership enforcement, and image lifecycle.
type ListingService struct {
	repo   repository.ListingRepository
	images ImageCleaner
	logger *slog.Logger
}

// NewListingService wires a ListingService.
func NewListingService(repo repository.ListingRepository, images ImageCleaner, logger *slog.Logger) *ListingService {
	return &ListingService{
		repo:   repo,
		images: images,
		logger: logger,
	}
}

// Create validates and stores a new listing. Title and description are
// required; price has already been parsed by the caller but is still clamped
// here so no path can store a negative or non-finite value.
func (s *ListingService) Create(ctx context.Context, ownerID int64, title, description string, price float64, image string) (*model.Listing, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)

	if title == "" || description == "" {
		return nil, apperror.ValidationFailed("title", "Missing title or description")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	if len(description) > MaxDescriptionLen {
		return nil, apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxDescriptionLen))
	}

	listing := &model.Listing{
		UserID:      ownerID,
		Title:       title,
		Description: description,
		Price:       clampPrice(price),
		Image:       image,
	}

	if err := s.repo.CreateListing(ctx, listing); err != nil {
		s.logger.Error("failed to create listing",
			slog.Int64("ownerID", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating listing: %w", err)
	}

	metrics.ListingsCreatedTotal.Inc()
	s.logger.Info("listing created",
		slog.Int64("id", listing.ID),
		slog.Int64("ownerID", ownerID),
	)

	return listing, nil
}

// Recent returns the newest listings, capped at limit (clamped to
// 1..MaxListLimit).
func (s *ListingService) Recent(ctx context.Context, limit int) ([]model.Listing, error) {
	listings, err := s.repo.ListRecent(ctx, clampLimit(limit))
	if err != nil {
		s.logger.Error("failed to list recent listings", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing recent listings: %w", err)
	}
	return listings, nil
}

// Search returns listings matching query as a literal substring of title or
// description. An empty query is "no filter" and degenerates to the recent
// feed with its own, smaller cap.
func (s *ListingService) Search(ctx context.Context, query string, limit int) ([]model.Listing, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.Recent(ctx, EmptySearchLimit)
	}

	listings, err := s.repo.SearchListings(ctx, query, clampLimit(limit))
	if err != nil {
		s.logger.Error("failed to search listings",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("searching listings: %w", err)
	}
	return listings, nil
}

// ListByOwner returns all of one user's listings, newest first.
func (s *ListingService) ListByOwner(ctx context.Context, ownerID int64) ([]model.Listing, error) {
	listings, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("failed to list listings by owner",
			slog.Int64("ownerID", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing by owner: %w", err)
	}
	return listings, nil
}

// Update overwrites a listing's mutable fields. Only the owner may update;
// an empty image means "keep the current one". Returns the number of rows
// changed — 0 only when the listing vanished between the ownership check and
// the conditional UPDATE, which callers report as success with updated=0.
func (s *ListingService) Update(ctx context.Context, id, requesterID int64, title, description string, price float64, image string) (int64, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" || description == "" {
		return 0, apperror.ValidationFailed("title", "Missing title or description")
	}

	existing, err := s.repo.GetListing(ctx, id)
	if err != nil {
		return 0, err // already an apperror.NotFound for absent rows
	}
	if existing.UserID != requesterID {
		return 0, apperror.Forbidden("not the owner of this listing")
	}

	if image == "" {
		image = existing.Image
	}

	updated := &model.Listing{
		ID:          id,
		UserID:      requesterID, // the conditional UPDATE re-checks ownership
		Title:       title,
		Description: description,
		Price:       clampPrice(price),
		Image:       image,
	}

	changed, err := s.repo.UpdateListing(ctx, updated)
	if err != nil {
		s.logger.Error("failed to update listing",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("updating listing: %w", err)
	}

	s.logger.Info("listing updated", slog.Int64("id", id), slog.Int64("changed", changed))
	return changed, nil
}

// Delete removes a listing. Only the owner may delete. The stored image is
// cleaned up in a detached goroutine: asset removal is best-effort and must
// never block or fail the response.
func (s *ListingService) Delete(ctx context.Context, id, requesterID int64) (int64, error) {
	existing, err := s.repo.GetListing(ctx, id)
	if err != nil {
		return 0, err
	}
	if existing.UserID != requesterID {
		return 0, apperror.Forbidden("not the owner of this listing")
	}

	deleted, err := s.repo.DeleteListing(ctx, id, requesterID)
	if err != nil {
		s.logger.Error("failed to delete listing",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("deleting listing: %w", err)
	}

	if deleted > 0 && existing.Image != "" {
		// Fire-and-forget; ImageStore logs failures itself.
		go s.images.Remove(existing.Image)
	}

	s.logger.Info("listing deleted", slog.Int64("id", id), slog.Int64("deleted", deleted))
	return deleted, nil
}

// clampPrice coerces anything that isn't a finite, non-negative number to 0.
// Garbage prices are stored as 0, never rejected.
func clampPrice(p float64) float64 {
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
		return 0
	}
	return p
}

// clampLimit bounds a caller-supplied limit to 1..MaxListLimit.
func clampLimit(limit int) int {
	if limit <= 0 || limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
