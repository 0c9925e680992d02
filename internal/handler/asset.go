package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/jdvansice-cloud/reservepty-api/internal/model"
	"github.com/jdvansice-cloud/reservepty-api/internal/repository"
)

// AssetHandler exposes the family asset inventory.  All reads are
// scoped to the caller's family; mutation routes additionally sit
// behind the RequireTier middleware.
type AssetHandler struct {
	Assets *repository.AssetRepo
}

func NewAssetHandler(assets *repository.AssetRepo) *AssetHandler {
	if assets == nil {
		panic("nil repository passed to NewAssetHandler")
	}
	return &AssetHandler{Assets: assets}
}

type assetResp struct {
	ID       uint64            `json:"id"`
	FamilyID uint64            `json:"family_id"`
	Name     string            `json:"name"`
	Type     string            `json:"type"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func toAssetResp(a *model.Asset) assetResp {
	return assetResp{ID: a.ID, FamilyID: a.FamilyID, Name: a.Name, Type: a.Type, Metadata: a.Metadata}
}

// Create handles POST /v1/assets.  The asset is registered under the
// caller's family; the type must be one of plane|boat|home|vehicle.
func (h *AssetHandler) Create(c echo.Context) error {
	req, err := getRequester(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Name     string            `json:"name"`
		Type     string            `json:"type"`
		Metadata map[string]string `json:"metadata"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Name = strings.TrimSpace(body.Name)
	body.Type = strings.ToLower(strings.TrimSpace(body.Type))
	if body.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if !model.ValidAssetType(body.Type) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "type must be one of plane, boat, home, vehicle"})
	}

	asset := &model.Asset{FamilyID: req.FamilyID, Name: body.Name, Type: body.Type, Metadata: body.Metadata}
	if err := h.Assets.Create(c.Request().Context(), asset); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return c.JSON(http.StatusConflict, echo.Map{"error": "asset name already exists in family"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create asset"})
	}
	return c.JSON(http.StatusCreated, toAssetResp(asset))
}

// List handles GET /v1/assets and returns the family's inventory.
func (h *AssetHandler) List(c echo.Context) error {
	req, err := getRequester(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	assets, err := h.Assets.ListByFamily(c.Request().Context(), req.FamilyID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load assets"})
	}
	items := make([]assetResp, 0, len(assets))
	for i := range assets {
		items = append(items, toAssetResp(&assets[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/assets/:id.  An asset belonging to a different
// family reads as 404, never 403.
func (h *AssetHandler) Get(c echo.Context) error {
	req, err := getRequester(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid asset id"})
	}
	asset, err := h.Assets.GetByIDAndFamily(c.Request().Context(), id, req.FamilyID)
	if err != nil {
		if errors.Is(err, repository.ErrAssetNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "asset not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load asset"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": toAssetResp(asset)})
}

// Delete handles DELETE /v1/assets/:id.  Deletion is refused with
// 409 while non-cancelled reservations reference the asset.
func (h *AssetHandler) Delete(c echo.Context) error {
	req, err := getRequester(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid asset id"})
	}
	switch err := h.Assets.Delete(c.Request().Context(), id, req.FamilyID); {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, repository.ErrAssetNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "asset not found"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "asset has non-cancelled reservations"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete asset"})
	}
}
