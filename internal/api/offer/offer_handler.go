package offer

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/go-secondhand-market/internal/api"
	"github.com/FACorreiaa/go-secondhand-market/internal/api/auth"
	"github.com/FACorreiaa/go-secondhand-market/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	Publish(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	offerService OfferService
	logger       *slog.Logger
}

// NewHandlerImpl creates a new offer HandlerImpl instance.
func NewHandlerImpl(offerService OfferService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		offerService: offerService,
		logger:       logger,
	}
}

const maxOfferFormBytes = 12 << 20

// Publish godoc
// @Summary      Publish a new offer
// @Description  Creates an offer from a multipart form. Requires title, price and exactly one PNG or JPEG picture.
// @Tags         Offer
// @Accept       multipart/form-data
// @Produce      json
// @Success      200 {object} types.Offer "Published offer"
// @Failure      400 {object} types.Response "Missing or over-limit fields"
// @Failure      401 {object} types.Response "Unauthorized"
// @Failure      415 {object} types.Response "Unsupported image format"
// @Security     BearerAuth
// @Router       /offer/publish [post]
func (h *HandlerImpl) Publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "Publish"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		l.ErrorContext(ctx, "User ID not found in context")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	if err := r.ParseMultipartForm(maxOfferFormBytes); err != nil {
		l.WarnContext(ctx, "Failed to parse multipart form", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	params := types.PublishOfferParams{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Brand:       r.FormValue("brand"),
		Size:        r.FormValue("size"),
		Condition:   r.FormValue("condition"),
		Color:       r.FormValue("color"),
		City:        r.FormValue("city"),
	}

	if raw := r.FormValue("price"); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid price")
			return
		}
		params.Price = price
		params.HasPrice = true
	}

	picture, count, err := api.ReadFormImage(r, "picture")
	if err != nil {
		l.WarnContext(ctx, "Failed to read picture upload", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid picture upload")
		return
	}
	params.Picture = picture
	params.PictureCount = count

	offer, err := h.offerService.Publish(ctx, userID, params)
	if err != nil {
		l.WarnContext(ctx, "Publish failed", slog.Any("error", err))
		api.ErrorResponse(w, r, api.StatusFromError(err), err.Error())
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, offer)
}

// Update godoc
// @Summary      Update an offer
// @Description  Merges the supplied subset of fields into the stored offer. Only the offer's owner may update it.
// @Tags         Offer
// @Accept       multipart/form-data
// @Produce      json
// @Success      200 {object} types.Offer "Updated offer"
// @Failure      400 {object} types.Response "Invalid input"
// @Failure      401 {object} types.Response "Not the owner"
// @Failure      404 {object} types.Response "Offer not found"
// @Security     BearerAuth
// @Router       /offer/update [put]
func (h *HandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "Update"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		l.ErrorContext(ctx, "User ID not found in context")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	if err := r.ParseMultipartForm(maxOfferFormBytes); err != nil {
		l.WarnContext(ctx, "Failed to parse multipart form", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	offerID, err := uuid.Parse(r.FormValue("id"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid offer id")
		return
	}

	params := types.UpdateOfferParams{
		ID:          offerID,
		Title:       formValuePtr(r, "title"),
		Description: formValuePtr(r, "description"),
		Brand:       formValuePtr(r, "brand"),
		Size:        formValuePtr(r, "size"),
		Condition:   formValuePtr(r, "condition"),
		Color:       formValuePtr(r, "color"),
		City:        formValuePtr(r, "city"),
	}

	if raw := formValuePtr(r, "price"); raw != nil {
		price, err := strconv.ParseFloat(*raw, 64)
		if err != nil {
			api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid price")
			return
		}
		params.Price = &price
	}

	picture, _, err := api.ReadFormImage(r, "picture")
	if err != nil {
		l.WarnContext(ctx, "Failed to read picture upload", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid picture upload")
		return
	}
	params.Picture = picture

	offer, err := h.offerService.Update(ctx, userID, params)
	if err != nil {
		l.WarnContext(ctx, "Update failed", slog.Any("error", err))
		api.ErrorResponse(w, r, api.StatusFromError(err), err.Error())
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, offer)
}

// DeleteRequest is the JSON body of DELETE /offer/delete.
type DeleteRequest struct {
	ID string `json:"id"`
}

// Delete godoc
// @Summary      Delete an offer
// @Description  Removes the offer's hosted images and the record. Only the offer's owner may delete it.
// @Tags         Offer
// @Accept       json
// @Produce      json
// @Success      200 {object} types.Response "Deleted"
// @Failure      401 {object} types.Response "Not the owner"
// @Failure      404 {object} types.Response "Offer not found"
// @Security     BearerAuth
// @Router       /offer/delete [delete]
func (h *HandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "Delete"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		l.ErrorContext(ctx, "User ID not found in context")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req DeleteRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	offerID, err := uuid.Parse(req.ID)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid offer id")
		return
	}

	if err := h.offerService.Delete(ctx, userID, offerID); err != nil {
		l.WarnContext(ctx, "Delete failed", slog.Any("error", err))
		api.ErrorResponse(w, r, api.StatusFromError(err), err.Error())
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Message: "Offer deleted",
	})
}

// List handles GET /offers: filter, sort and paginate published offers.
func (h *HandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "List"))

	filter := BuildOfferFilter(r.URL.Query())

	result, err := h.offerService.Search(ctx, filter)
	if err != nil {
		l.ErrorContext(ctx, "Search failed", slog.Any("error", err))
		api.ErrorResponse(w, r, api.StatusFromError(err), "Failed to search offers")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, result)
}

// Get handles GET /offer/{id}.
func (h *HandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "Get"))

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid offer id")
		return
	}

	offer, err := h.offerService.Get(ctx, id)
	if err != nil {
		l.WarnContext(ctx, "Get offer failed", slog.Any("error", err))
		api.ErrorResponse(w, r, api.StatusFromError(err), err.Error())
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, offer)
}

// formValuePtr distinguishes an absent form field (nil) from an empty one.
func formValuePtr(r *http.Request, name string) *string {
	if r.MultipartForm == nil {
		return nil
	}
	values, ok := r.MultipartForm.Value[name]
	if !ok || len(values) == 0 {
		return nil
	}
	return &values[0]
}
