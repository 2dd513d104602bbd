package offer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-secondhand-market/internal/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockOfferRepo is a mock implementation of the OfferRepo interface
type MockOfferRepo struct {
	mock.Mock
}

func (m *MockOfferRepo) CreateDraft(ctx context.Context, offer *types.Offer, ownerID uuid.UUID) (uuid.UUID, error) {
	args := m.Called(ctx, offer, ownerID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockOfferRepo) PublishWithImage(ctx context.Context, id uuid.UUID, image *types.ImageDescriptor) error {
	args := m.Called(ctx, id, image)
	return args.Error(0)
}

func (m *MockOfferRepo) GetByID(ctx context.Context, id uuid.UUID) (*types.Offer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Offer), args.Error(1)
}

func (m *MockOfferRepo) Search(ctx context.Context, filter types.OfferFilter) ([]types.Offer, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]types.Offer), args.Int(1), args.Error(2)
}

func (m *MockOfferRepo) Update(ctx context.Context, offer *types.Offer) error {
	args := m.Called(ctx, offer)
	return args.Error(0)
}

func (m *MockOfferRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOfferRepo) DeleteStaleDrafts(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// MockImageStore is a mock implementation of the imagestore.Store interface
type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) Upload(ctx context.Context, folder, name string, img *types.ImageUpload) (*types.ImageDescriptor, error) {
	args := m.Called(ctx, folder, name, img)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.ImageDescriptor), args.Error(1)
}

func (m *MockImageStore) DeleteByPrefix(ctx context.Context, prefix string) error {
	args := m.Called(ctx, prefix)
	return args.Error(0)
}

func pngUpload() *types.ImageUpload {
	return &types.ImageUpload{Filename: "photo.png", ContentType: "image/png", Data: []byte{1, 2, 3}}
}

func publishParams() types.PublishOfferParams {
	return types.PublishOfferParams{
		Title:        "Wool jacket",
		Description:  "Barely worn",
		Price:        49.90,
		HasPrice:     true,
		Brand:        "Acme",
		Size:         "M",
		Condition:    "good",
		Color:        "navy",
		City:         "Porto",
		Picture:      pngUpload(),
		PictureCount: 1,
	}
}

func TestPublish(t *testing.T) {
	logger := testLogger()
	userID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockOfferRepo)
		mockImages := new(MockImageStore)
		service := NewOfferService(mockRepo, mockImages, logger)

		ctx := context.Background()
		offerID := uuid.New()
		image := &types.ImageDescriptor{PublicID: "offers/" + offerID.String() + "/preview", SecureURL: "https://img/preview"}
		published := &types.Offer{ID: offerID, Name: "Wool jacket", Status: types.OfferStatusPublished, Image: image}

		mockRepo.On("CreateDraft", mock.Anything, mock.AnythingOfType("*types.Offer"), userID).
			Return(offerID, nil).Once()
		mockImages.On("Upload", mock.Anything, "offers/"+offerID.String(), "preview", mock.AnythingOfType("*types.ImageUpload")).
			Return(image, nil).Once()
		mockRepo.On("PublishWithImage", mock.Anything, offerID, image).Return(nil).Once()
		mockRepo.On("GetByID", mock.Anything, offerID).Return(published, nil).Once()

		offer, err := service.Publish(ctx, userID, publishParams())

		require.NoError(t, err)
		assert.Equal(t, published, offer)

		// The draft carries the facets in their canonical order
		draft := mockRepo.Calls[0].Arguments.Get(1).(*types.Offer)
		assert.Equal(t, []types.Facet{
			{Key: "brand", Value: "Acme"},
			{Key: "size", Value: "M"},
			{Key: "condition", Value: "good"},
			{Key: "color", Value: "navy"},
			{Key: "city", Value: "Porto"},
		}, draft.Details)

		mockRepo.AssertExpectations(t)
		mockImages.AssertExpectations(t)
	})

	t.Run("MissingTitle", func(t *testing.T) {
		mockRepo := new(MockOfferRepo)
		service := NewOfferService(mockRepo, new(MockImageStore), logger)

		params := publishParams()
		params.Title = ""

		offer, err := service.Publish(context.Background(), userID, params)
		assert.Nil(t, offer)
		assert.ErrorIs(t, err, types.ErrValidation)
		mockRepo.AssertNotCalled(t, "CreateDraft", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("MissingPrice", func(t *testing.T) {
		service := NewOfferService(new(MockOfferRepo), new(MockImageStore), logger)

		params := publishParams()
		params.HasPrice = false
		params.Price = 0

		_, err := service.Publish(context.Background(), userID, params)
		assert.ErrorIs(t, err, types.ErrValidation)
	})

	t.Run("MissingPicture", func(t *testing.T) {
		service := NewOfferService(new(MockOfferRepo), new(MockImageStore), logger)

		params := publishParams()
		params.Picture = nil
		params.PictureCount = 0

		_, err := service.Publish(context.Background(), userID, params)
		assert.ErrorIs(t, err, types.ErrValidation)
	})

	t.Run("MultiplePictures", func(t *testing.T) {
		service := NewOfferService(new(MockOfferRepo), new(MockImageStore), logger)

		params := publishParams()
		params.PictureCount = 2

		_, err := service.Publish(context.Background(), userID, params)
		assert.ErrorIs(t, err, types.ErrValidation)
	})

	t.Run("UnsupportedImageFormat", func(t *testing.T) {
		service := NewOfferService(new(MockOfferRepo), new(MockImageStore), logger)

		params := publishParams()
		params.Picture.ContentType = "image/gif"

		_, err := service.Publish(context.Background(), userID, params)
		assert.ErrorIs(t, err, types.ErrUnsupportedMedia)
	})

	t.Run("TitleOverLimit", func(t *testing.T) {
		mockRepo := new(MockOfferRepo)
		service := NewOfferService(mockRepo, new(MockImageStore), logger)

		params := publishParams()
		params.Title = "this title is definitely much much longer than the allowed fifty characters"

		_, err := service.Publish(context.Background(), userID, params)
		assert.ErrorIs(t, err, types.ErrValidation)
		mockRepo.AssertNotCalled(t, "CreateDraft", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("UploadFailureLeavesDraft", func(t *testing.T) {
		mockRepo := new(MockOfferRepo)
		mockImages := new(MockImageStore)
		service := NewOfferService(mockRepo, mockImages, logger)

		ctx := context.Background()
		offerID := uuid.New()

		mockRepo.On("CreateDraft", mock.Anything, mock.AnythingOfType("*types.Offer"), userID).
			Return(offerID, nil).Once()
		mockImages.On("Upload", mock.Anything, "offers/"+offerID.String(), "preview", mock.Anything).
			Return(nil, errors.New("bucket unreachable")).Once()

		offer, err := service.Publish(ctx, userID, publishParams())

		assert.Nil(t, offer)
		assert.Error(t, err)
		mockRepo.AssertNotCalled(t, "PublishWithImage", mock.Anything, mock.Anything, mock.Anything)
	})
}

func storedOffer(ownerID uuid.UUID) *types.Offer {
	return &types.Offer{
		ID:          uuid.New(),
		Name:        "Wool jacket",
		Description: "Barely worn",
		Price:       49.90,
		Details: []types.Facet{
			{Key: "brand", Value: "Acme"},
			{Key: "size", Value: "M"},
		},
		Image:  &types.ImageDescriptor{PublicID: "offers/x/preview", SecureURL: "https://img/preview"},
		Status: types.OfferStatusPublished,
		Owner:  &types.OfferOwner{ID: ownerID, Account: types.Account{Username: "ana"}},
	}
}

func TestUpdate(t *testing.T) {
	logger := testLogger()
	ownerID := uuid.New()

	t.Run("MergesOnlySuppliedFields", func(t *testing.T) {
		mockRepo := new(MockOfferRepo)
		service := NewOfferService(mockRepo, new(MockImageStore), logger)

		ctx := context.Background()
		stored := storedOffer(ownerID)

		mockRepo.On("GetByID", mock.Anything, stored.ID).Return(stored, nil).Once()
		mockRepo.On("Update", mock.Anything, mock.AnythingOfType("*types.Offer")).Return(nil).Once()

		newTitle := "Wool jacket (navy)"
		newBrand := "Patagonia"
		updated, err := service.Update(ctx, ownerID, types.UpdateOfferParams{
			ID:    stored.ID,
			Title: &newTitle,
			Brand: &newBrand,
		})

		require.NoError(t, err)
		assert.Equal(t, "Wool jacket (navy)", updated.Name)
		assert.Equal(t, "Barely worn", updated.Description)
		assert.Equal(t, 49.90, updated.Price)

		// Facet overwritten in place, never appended
		assert.Equal(t, []types.Facet{
			{Key: "brand", Value: "Patagonia"},
			{Key: "size", Value: "M"},
		}, updated.Details)

		mockRepo.AssertExpectations(t)
	})

	t.Run("NotOwner", func(t *testing.T) {
		mockRepo := new(MockOfferRepo)
		service := NewOfferService(mockRepo, new(MockImageStore), logger)

		ctx := context.Background()
		stored := storedOffer(ownerID)
		mockRepo.On("GetByID", mock.Anything, stored.ID).Return(stored, nil).Once()

		newTitle := "hijacked"
		updated, err := service.Update(ctx, uuid.New(), types.UpdateOfferParams{
			ID:    stored.ID,
			Title: &newTitle,
		})

		assert.Nil(t, updated)
		assert.ErrorIs(t, err, types.ErrUnauthenticated)
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("OfferNotFound", func(t *testing.T) {
		mockRepo := new(MockOfferRepo)
		service := NewOfferService(mockRepo, new(MockImageStore), logger)

		offerID := uuid.New()
		mockRepo.On("GetByID", mock.Anything, offerID).Return(nil, types.ErrNotFound).Once()

		updated, err := service.Update(context.Background(), ownerID, types.UpdateOfferParams{ID: offerID})
		assert.Nil(t, updated)
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("DescriptionOverLimit", func(t *testing.T) {
		mockRepo := new(MockOfferRepo)
		service := NewOfferService(mockRepo, new(MockImageStore), logger)

		stored := storedOffer(ownerID)
		mockRepo.On("GetByID", mock.Anything, stored.ID).Return(stored, nil).Once()

		long := make([]byte, 501)
		for i := range long {
			long[i] = 'd'
		}
		description := string(long)

		updated, err := service.Update(context.Background(), ownerID, types.UpdateOfferParams{
			ID:          stored.ID,
			Description: &description,
		})

		assert.Nil(t, updated)
		assert.ErrorIs(t, err, types.ErrValidation)
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("ReplacementPicture", func(t *testing.T) {
		mockRepo := new(MockOfferRepo)
		mockImages := new(MockImageStore)
		service := NewOfferService(mockRepo, mockImages, logger)

		ctx := context.Background()
		stored := storedOffer(ownerID)
		folder := "offers/" + stored.ID.String()
		replacement := &types.ImageDescriptor{PublicID: folder + "/preview", SecureURL: "https://img/new"}

		mockRepo.On("GetByID", mock.Anything, stored.ID).Return(stored, nil).Once()
		mockImages.On("DeleteByPrefix", mock.Anything, folder).Return(nil).Once()
		mockImages.On("Upload", mock.Anything, folder, "preview", mock.AnythingOfType("*types.ImageUpload")).
			Return(replacement, nil).Once()
		mockRepo.On("Update", mock.Anything, mock.AnythingOfType("*types.Offer")).Return(nil).Once()

		updated, err := service.Update(ctx, ownerID, types.UpdateOfferParams{
			ID:      stored.ID,
			Picture: pngUpload(),
		})

		require.NoError(t, err)
		assert.Equal(t, replacement, updated.Image)
		assert.Equal(t, []types.ImageDescriptor{*replacement}, updated.Images)
		mockImages.AssertExpectations(t)
	})

	t.Run("ReplacementPictureSurvivesCleanupFailure", func(t *testing.T) {
		mockRepo := new(MockOfferRepo)
		mockImages := new(MockImageStore)
		service := NewOfferService(mockRepo, mockImages, logger)

		stored := storedOffer(ownerID)
		folder := "offers/" + stored.ID.String()
		replacement := &types.ImageDescriptor{PublicID: folder + "/preview", SecureURL: "https://img/new"}

		mockRepo.On("GetByID", mock.Anything, stored.ID).Return(stored, nil).Once()
		mockImages.On("DeleteByPrefix", mock.Anything, folder).Return(errors.New("listing failed")).Once()
		mockImages.On("Upload", mock.Anything, folder, "preview", mock.Anything).Return(replacement, nil).Once()
		mockRepo.On("Update", mock.Anything, mock.Anything).Return(nil).Once()

		updated, err := service.Update(context.Background(), ownerID, types.UpdateOfferParams{
			ID:      stored.ID,
			Picture: pngUpload(),
		})

		require.NoError(t, err)
		assert.Equal(t, replacement, updated.Image)
	})
}

func TestDelete(t *testing.T) {
	logger := testLogger()
	ownerID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockOfferRepo)
		mockImages := new(MockImageStore)
		service := NewOfferService(mockRepo, mockImages, logger)

		ctx := context.Background()
		stored := storedOffer(ownerID)

		mockRepo.On("GetByID", mock.Anything, stored.ID).Return(stored, nil).Once()
		mockImages.On("DeleteByPrefix", mock.Anything, "offers/"+stored.ID.String()).Return(nil).Once()
		mockRepo.On("Delete", mock.Anything, stored.ID).Return(nil).Once()

		assert.NoError(t, service.Delete(ctx, ownerID, stored.ID))
		mockRepo.AssertExpectations(t)
		mockImages.AssertExpectations(t)
	})

	t.Run("CleanupFailureStillDeletesRecord", func(t *testing.T) {
		mockRepo := new(MockOfferRepo)
		mockImages := new(MockImageStore)
		service := NewOfferService(mockRepo, mockImages, logger)

		stored := storedOffer(ownerID)

		mockRepo.On("GetByID", mock.Anything, stored.ID).Return(stored, nil).Once()
		mockImages.On("DeleteByPrefix", mock.Anything, mock.Anything).
			Return(errors.New("bucket unreachable")).Once()
		mockRepo.On("Delete", mock.Anything, stored.ID).Return(nil).Once()

		assert.NoError(t, service.Delete(context.Background(), ownerID, stored.ID))
		mockRepo.AssertExpectations(t)
	})

	t.Run("NotOwner", func(t *testing.T) {
		mockRepo := new(MockOfferRepo)
		mockImages := new(MockImageStore)
		service := NewOfferService(mockRepo, mockImages, logger)

		stored := storedOffer(ownerID)
		mockRepo.On("GetByID", mock.Anything, stored.ID).Return(stored, nil).Once()

		err := service.Delete(context.Background(), uuid.New(), stored.ID)
		assert.ErrorIs(t, err, types.ErrUnauthenticated)
		mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
		mockImages.AssertNotCalled(t, "DeleteByPrefix", mock.Anything, mock.Anything)
	})
}

func TestSearch(t *testing.T) {
	mockRepo := new(MockOfferRepo)
	service := NewOfferService(mockRepo, new(MockImageStore), testLogger())

	ctx := context.Background()
	filter := types.OfferFilter{Title: "jacket", Sort: types.SortPriceDesc, Page: 1, Limit: 20}
	offers := []types.Offer{*storedOffer(uuid.New()), *storedOffer(uuid.New())}

	mockRepo.On("Search", mock.Anything, filter).Return(offers, 42, nil).Once()

	result, err := service.Search(ctx, filter)

	require.NoError(t, err)
	assert.Equal(t, 42, result.Count)
	assert.Len(t, result.Offers, 2)
	mockRepo.AssertExpectations(t)
}

func TestGet(t *testing.T) {
	logger := testLogger()

	t.Run("Published", func(t *testing.T) {
		mockRepo := new(MockOfferRepo)
		service := NewOfferService(mockRepo, new(MockImageStore), logger)

		stored := storedOffer(uuid.New())
		mockRepo.On("GetByID", mock.Anything, stored.ID).Return(stored, nil).Once()

		offer, err := service.Get(context.Background(), stored.ID)
		require.NoError(t, err)
		assert.Equal(t, stored, offer)
	})

	t.Run("DraftHidden", func(t *testing.T) {
		mockRepo := new(MockOfferRepo)
		service := NewOfferService(mockRepo, new(MockImageStore), logger)

		stored := storedOffer(uuid.New())
		stored.Status = types.OfferStatusDraft
		mockRepo.On("GetByID", mock.Anything, stored.ID).Return(stored, nil).Once()

		offer, err := service.Get(context.Background(), stored.ID)
		assert.Nil(t, offer)
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("Missing", func(t *testing.T) {
		mockRepo := new(MockOfferRepo)
		service := NewOfferService(mockRepo, new(MockImageStore), logger)

		id := uuid.New()
		mockRepo.On("GetByID", mock.Anything, id).Return(nil, types.ErrNotFound).Once()

		offer, err := service.Get(context.Background(), id)
		assert.Nil(t, offer)
		assert.ErrorIs(t, err, types.ErrNotFound)
	})
}
