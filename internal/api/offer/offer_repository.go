package offer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/FACorreiaa/go-secondhand-market/app/observability/metrics"
	"github.com/FACorreiaa/go-secondhand-market/internal/api"
	"github.com/FACorreiaa/go-secondhand-market/internal/types"
)

var _ OfferRepo = (*OfferRepoFactory)(nil)

// OfferRepo is the storage contract for offer records.
type OfferRepo interface {
	CreateDraft(ctx context.Context, offer *types.Offer, ownerID uuid.UUID) (uuid.UUID, error)
	PublishWithImage(ctx context.Context, id uuid.UUID, image *types.ImageDescriptor) error
	GetByID(ctx context.Context, id uuid.UUID) (*types.Offer, error)
	Search(ctx context.Context, filter types.OfferFilter) ([]types.Offer, int, error)
	Update(ctx context.Context, offer *types.Offer) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteStaleDrafts(ctx context.Context, before time.Time) (int64, error)
}

type OfferRepoFactory struct {
	logger *slog.Logger
	pgpool api.PGXQuerier
}

func NewOfferRepoFactory(pgpool api.PGXQuerier, logger *slog.Logger) *OfferRepoFactory {
	return &OfferRepoFactory{
		logger: logger,
		pgpool: pgpool,
	}
}

// CreateDraft inserts the offer without an image in draft state. The image
// is attached and the status flipped by PublishWithImage once the upload
// succeeded.
func (r *OfferRepoFactory) CreateDraft(ctx context.Context, offer *types.Offer, ownerID uuid.UUID) (uuid.UUID, error) {
	start := time.Now()
	var id uuid.UUID
	err := r.pgpool.QueryRow(ctx,
		`INSERT INTO offers (product_name, product_description, product_price, product_details, status, owner_id)
         VALUES ($1, $2, $3, $4, $5, $6)
         RETURNING id`,
		offer.Name, offer.Description, offer.Price, offer.Details, types.OfferStatusDraft, ownerID).Scan(&id)
	metrics.Get().DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		return uuid.Nil, fmt.Errorf("create draft: db insert failed: %w", err)
	}
	return id, nil
}

func (r *OfferRepoFactory) PublishWithImage(ctx context.Context, id uuid.UUID, image *types.ImageDescriptor) error {
	tag, err := r.pgpool.Exec(ctx,
		`UPDATE offers
         SET product_image = $1, product_images = $2, status = $3
         WHERE id = $4`,
		image, []types.ImageDescriptor{*image}, types.OfferStatusPublished, id)
	if err != nil {
		return fmt.Errorf("publish offer: db update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

const offerColumns = `o.id, o.product_name, o.product_description, o.product_price,
       o.product_details, o.product_image, o.product_images, o.status, o.created_at,
       u.id, u.username, u.avatar`

// GetByID fetches one offer of any status with its owner's public account
// populated.
func (r *OfferRepoFactory) GetByID(ctx context.Context, id uuid.UUID) (*types.Offer, error) {
	row := r.pgpool.QueryRow(ctx,
		`SELECT `+offerColumns+`
         FROM offers o
         JOIN users u ON u.id = o.owner_id
         WHERE o.id = $1`, id)

	offer, err := scanOffer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("get offer: query failed: %w", err)
	}
	return offer, nil
}

// Search returns one page of published offers matching the filter plus the
// total match count. The count query reuses the exact same predicate so
// pagination and count can never disagree.
func (r *OfferRepoFactory) Search(ctx context.Context, filter types.OfferFilter) ([]types.Offer, int, error) {
	l := r.logger.With(slog.String("method", "Search"))

	where := `o.status = $1`
	args := []interface{}{types.OfferStatusPublished}
	argIndex := 2

	if filter.Title != "" {
		where += fmt.Sprintf(` AND o.product_name ILIKE $%d`, argIndex)
		args = append(args, "%"+filter.Title+"%")
		argIndex++
	}
	if filter.PriceMin != nil {
		where += fmt.Sprintf(` AND o.product_price >= $%d`, argIndex)
		args = append(args, *filter.PriceMin)
		argIndex++
	}
	if filter.PriceMax != nil {
		where += fmt.Sprintf(` AND o.product_price <= $%d`, argIndex)
		args = append(args, *filter.PriceMax)
		argIndex++
	}

	order := `o.product_price DESC`
	if filter.Sort == types.SortPriceAsc {
		order = `o.product_price ASC`
	}

	var count int
	start := time.Now()
	err := r.pgpool.QueryRow(ctx,
		`SELECT count(*) FROM offers o WHERE `+where, args...).Scan(&count)
	if err != nil {
		return nil, 0, fmt.Errorf("search offers: count query failed: %w", err)
	}

	query := fmt.Sprintf(`SELECT `+offerColumns+`
         FROM offers o
         JOIN users u ON u.id = o.owner_id
         WHERE `+where+`
         ORDER BY `+order+`
         LIMIT $%d OFFSET $%d`, argIndex, argIndex+1)
	args = append(args, filter.Limit, filter.Offset())

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		l.ErrorContext(ctx, "Failed to execute offer search", slog.Any("error", err))
		return nil, 0, fmt.Errorf("search offers: query failed: %w", err)
	}
	defer rows.Close()

	offers := []types.Offer{}
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("search offers: scan failed: %w", err)
		}
		offers = append(offers, *offer)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("search offers: rows failed: %w", err)
	}
	metrics.Get().DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds())

	return offers, count, nil
}

// Update persists the merged mutable fields of an offer.
func (r *OfferRepoFactory) Update(ctx context.Context, offer *types.Offer) error {
	tag, err := r.pgpool.Exec(ctx,
		`UPDATE offers
         SET product_name = $1, product_description = $2, product_price = $3,
             product_details = $4, product_image = $5, product_images = $6
         WHERE id = $7`,
		offer.Name, offer.Description, offer.Price,
		offer.Details, offer.Image, offer.Images, offer.ID)
	if err != nil {
		return fmt.Errorf("update offer: db update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (r *OfferRepoFactory) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx, "DELETE FROM offers WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete offer: db delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

// DeleteStaleDrafts removes drafts abandoned before the cutoff, i.e. offers
// whose image upload never completed. Operational cleanup, not wired to a
// scheduler.
func (r *OfferRepoFactory) DeleteStaleDrafts(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pgpool.Exec(ctx,
		"DELETE FROM offers WHERE status = $1 AND created_at < $2",
		types.OfferStatusDraft, before)
	if err != nil {
		return 0, fmt.Errorf("delete stale drafts: db delete failed: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanOffer(row pgx.Row) (*types.Offer, error) {
	var offer types.Offer
	var owner types.OfferOwner
	err := row.Scan(
		&offer.ID,
		&offer.Name,
		&offer.Description,
		&offer.Price,
		&offer.Details,
		&offer.Image,
		&offer.Images,
		&offer.Status,
		&offer.CreatedAt,
		&owner.ID,
		&owner.Account.Username,
		&owner.Account.Avatar,
	)
	if err != nil {
		return nil, err
	}
	offer.Owner = &owner
	return &offer, nil
}
