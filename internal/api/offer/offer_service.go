package offer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-secondhand-market/app/observability/metrics"
	"github.com/FACorreiaa/go-secondhand-market/internal/app/imagestore"
	"github.com/FACorreiaa/go-secondhand-market/internal/types"
)

var _ OfferService = (*OfferServiceImpl)(nil)

// OfferService defines the business logic contract for offer operations.
type OfferService interface {
	Publish(ctx context.Context, userID uuid.UUID, params types.PublishOfferParams) (*types.Offer, error)
	Update(ctx context.Context, userID uuid.UUID, params types.UpdateOfferParams) (*types.Offer, error)
	Delete(ctx context.Context, userID uuid.UUID, offerID uuid.UUID) error
	Search(ctx context.Context, filter types.OfferFilter) (*types.OfferList, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Offer, error)
}

// OfferServiceImpl provides the implementation for OfferService.
type OfferServiceImpl struct {
	logger *slog.Logger
	repo   OfferRepo
	images imagestore.Store
}

// NewOfferService creates a new offer service instance.
func NewOfferService(repo OfferRepo, images imagestore.Store, logger *slog.Logger) *OfferServiceImpl {
	return &OfferServiceImpl{
		logger: logger,
		repo:   repo,
		images: images,
	}
}

// previewImageName is the object name of an offer's primary image inside its
// storage folder.
const previewImageName = "preview"

func acceptedImageType(contentType string) bool {
	return contentType == "image/png" || contentType == "image/jpeg"
}

// Publish creates an offer in two phases: persist a draft without the image,
// upload the image to the per-offer folder, then attach the descriptor and
// flip the offer to published. A crash between the phases leaves a draft that
// DeleteStaleDrafts can reap.
func (s *OfferServiceImpl) Publish(ctx context.Context, userID uuid.UUID, params types.PublishOfferParams) (*types.Offer, error) {
	ctx, span := otel.Tracer("OfferService").Start(ctx, "Publish", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Publish"), slog.String("userID", userID.String()))

	if params.Title == "" || !params.HasPrice || params.Picture == nil {
		return nil, fmt.Errorf("%w: title, price and picture are required", types.ErrValidation)
	}
	if params.PictureCount > 1 {
		return nil, fmt.Errorf("%w: only one single image accepted", types.ErrValidation)
	}
	if !acceptedImageType(params.Picture.ContentType) {
		return nil, fmt.Errorf("%w: only jpeg and png formats accepted", types.ErrUnsupportedMedia)
	}

	title := params.Title
	price := params.Price
	description := params.Description
	if err := ValidateOfferBounds(&title, &price, &description); err != nil {
		return nil, err
	}

	draft := &types.Offer{
		Name:        params.Title,
		Description: params.Description,
		Price:       params.Price,
		Details: []types.Facet{
			{Key: "brand", Value: params.Brand},
			{Key: "size", Value: params.Size},
			{Key: "condition", Value: params.Condition},
			{Key: "color", Value: params.Color},
			{Key: "city", Value: params.City},
		},
	}

	id, err := s.repo.CreateDraft(ctx, draft, userID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to create draft offer", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create draft offer")
		return nil, err
	}

	image, err := s.images.Upload(ctx, imagestore.OfferFolder(id.String()), previewImageName, params.Picture)
	if err != nil {
		l.ErrorContext(ctx, "Image upload failed, offer left in draft state",
			slog.String("offerID", id.String()), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Image upload failed")
		return nil, err
	}

	if err := s.repo.PublishWithImage(ctx, id, image); err != nil {
		l.ErrorContext(ctx, "Failed to publish offer", slog.Any("error", err))
		span.RecordError(err)
		return nil, err
	}

	published, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	metrics.Get().OffersPublishedTotal.Add(ctx, 1)
	l.InfoContext(ctx, "Offer published", slog.String("offerID", id.String()))
	span.SetStatus(codes.Ok, "Offer published")
	return published, nil
}

// requireOwner enforces that the authenticated user created the offer.
func requireOwner(offer *types.Offer, userID uuid.UUID) error {
	if offer.Owner == nil || offer.Owner.ID != userID {
		return types.ErrUnauthenticated
	}
	return nil
}

// Update merges only the supplied fields into the stored offer. Facet values
// are overwritten by key when present; a replacement picture removes the
// previously hosted image first.
func (s *OfferServiceImpl) Update(ctx context.Context, userID uuid.UUID, params types.UpdateOfferParams) (*types.Offer, error) {
	ctx, span := otel.Tracer("OfferService").Start(ctx, "Update", trace.WithAttributes(
		attribute.String("offer.id", params.ID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Update"), slog.String("offerID", params.ID.String()))

	offer, err := s.repo.GetByID(ctx, params.ID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := requireOwner(offer, userID); err != nil {
		l.WarnContext(ctx, "Ownership check failed", slog.String("userID", userID.String()))
		return nil, err
	}

	if err := ValidateOfferBounds(params.Title, params.Price, params.Description); err != nil {
		return nil, err
	}

	if params.Title != nil {
		offer.Name = *params.Title
	}
	if params.Description != nil {
		offer.Description = *params.Description
	}
	if params.Price != nil {
		offer.Price = *params.Price
	}
	if params.Brand != nil {
		offer.SetFacet("brand", *params.Brand)
	}
	if params.Size != nil {
		offer.SetFacet("size", *params.Size)
	}
	if params.Condition != nil {
		offer.SetFacet("condition", *params.Condition)
	}
	if params.Color != nil {
		offer.SetFacet("color", *params.Color)
	}
	if params.City != nil {
		offer.SetFacet("city", *params.City)
	}

	if params.Picture != nil {
		if !acceptedImageType(params.Picture.ContentType) {
			return nil, fmt.Errorf("%w: only jpeg and png formats accepted", types.ErrUnsupportedMedia)
		}
		folder := imagestore.OfferFolder(offer.ID.String())
		if err := s.images.DeleteByPrefix(ctx, folder); err != nil {
			// The new upload overwrites the preview key anyway.
			l.WarnContext(ctx, "Failed to remove previous offer image", slog.Any("error", err))
		}
		image, err := s.images.Upload(ctx, folder, previewImageName, params.Picture)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		offer.Image = image
		offer.Images = []types.ImageDescriptor{*image}
	}

	if err := s.repo.Update(ctx, offer); err != nil {
		l.ErrorContext(ctx, "Failed to update offer", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to update offer")
		return nil, err
	}

	l.InfoContext(ctx, "Offer updated")
	span.SetStatus(codes.Ok, "Offer updated")
	return offer, nil
}

// Delete removes the hosted images best effort, then the record. A failed
// image cleanup never leaves the database row behind.
func (s *OfferServiceImpl) Delete(ctx context.Context, userID uuid.UUID, offerID uuid.UUID) error {
	ctx, span := otel.Tracer("OfferService").Start(ctx, "Delete", trace.WithAttributes(
		attribute.String("offer.id", offerID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Delete"), slog.String("offerID", offerID.String()))

	offer, err := s.repo.GetByID(ctx, offerID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if err := requireOwner(offer, userID); err != nil {
		l.WarnContext(ctx, "Ownership check failed", slog.String("userID", userID.String()))
		return err
	}

	if err := s.images.DeleteByPrefix(ctx, imagestore.OfferFolder(offerID.String())); err != nil {
		l.WarnContext(ctx, "Hosted image cleanup failed, deleting record anyway", slog.Any("error", err))
	}

	if err := s.repo.Delete(ctx, offerID); err != nil {
		l.ErrorContext(ctx, "Failed to delete offer", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to delete offer")
		return err
	}

	metrics.Get().OffersDeletedTotal.Add(ctx, 1)
	l.InfoContext(ctx, "Offer deleted")
	span.SetStatus(codes.Ok, "Offer deleted")
	return nil
}

// Search returns one page of published offers and the total match count.
func (s *OfferServiceImpl) Search(ctx context.Context, filter types.OfferFilter) (*types.OfferList, error) {
	metrics.Get().OfferSearchesTotal.Add(ctx, 1)

	offers, count, err := s.repo.Search(ctx, filter)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to search offers", slog.Any("error", err))
		return nil, fmt.Errorf("error searching offers: %w", err)
	}

	return &types.OfferList{Count: count, Offers: offers}, nil
}

// Get fetches one published offer with its owner populated. Drafts are not
// publicly visible.
func (s *OfferServiceImpl) Get(ctx context.Context, id uuid.UUID) (*types.Offer, error) {
	offer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if offer.Status != types.OfferStatusPublished {
		return nil, types.ErrNotFound
	}
	return offer, nil
}
