package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/catalog-backend/internal/domain/catalog"
	"github.com/yungbote/catalog-backend/internal/http/response"
	"github.com/yungbote/catalog-backend/internal/platform/logger"
	"github.com/yungbote/catalog-backend/internal/services"
)

var errProductNotFound = errors.New("product not found")

type CatalogHandler struct {
	log     *logger.Logger
	catalog services.CatalogService
}

func NewCatalogHandler(log *logger.Logger, catalog services.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		log:     log.With("handler", "CatalogHandler"),
		catalog: catalog,
	}
}

// GET /api/products
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	products, err := h.catalog.ListProducts(c.Request.Context())
	if err != nil {
		h.log.Error("ListProducts failed", "error", err)
		response.RespondCatalogError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"products": products})
}

// GET /api/products/:id
// The id is the external product id; a UUID selects the stored record instead.
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	raw := strings.TrimSpace(c.Param("id"))
	var (
		product *types.Product
		ok      bool
		err     error
	)
	if id, perr := uuid.Parse(raw); perr == nil {
		product, ok, err = h.catalog.GetProduct(c.Request.Context(), id)
	} else {
		ext, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_product_id", perr)
			return
		}
		product, ok, err = h.catalog.GetProductByExternalID(c.Request.Context(), ext)
	}
	if err != nil {
		response.RespondCatalogError(c, err)
		return
	}
	if !ok {
		response.RespondError(c, http.StatusNotFound, "product_not_found", errProductNotFound)
		return
	}
	response.RespondOK(c, gin.H{"product": product})
}

// GET /api/products/find?name=&version=&release=&arch=&imprecise=
func (h *CatalogHandler) FindProduct(c *gin.Context) {
	ident := types.ProductIdent{
		Name:    c.Query("name"),
		Version: optionalQuery(c, "version"),
		Release: optionalQuery(c, "release"),
		Arch:    optionalQuery(c, "arch"),
	}
	imprecise, _ := strconv.ParseBool(c.DefaultQuery("imprecise", "false"))

	product, ok, err := h.catalog.FindProduct(c.Request.Context(), ident, imprecise)
	if err != nil {
		response.RespondCatalogError(c, err)
		return
	}
	if !ok {
		response.RespondError(c, http.StatusNotFound, "product_not_found", errProductNotFound)
		return
	}
	response.RespondOK(c, gin.H{"product": product})
}

// GET /api/products/:id/tree
func (h *CatalogHandler) ExtensionTree(c *gin.Context) {
	ext, ok := externalIDParam(c)
	if !ok {
		return
	}
	tree, found, err := h.catalog.ExtensionTree(c.Request.Context(), ext)
	if err != nil {
		h.log.Warn("ExtensionTree failed", "product_id", ext, "error", err)
		response.RespondCatalogError(c, err)
		return
	}
	if !found {
		response.RespondError(c, http.StatusNotFound, "product_not_found", errProductNotFound)
		return
	}
	response.RespondOK(c, gin.H{"tree": tree})
}

// GET /api/products/:id/neighbors
func (h *CatalogHandler) Neighbors(c *gin.Context) {
	ext, ok := externalIDParam(c)
	if !ok {
		return
	}
	n, found, err := h.catalog.Neighbors(c.Request.Context(), ext)
	if err != nil {
		response.RespondCatalogError(c, err)
		return
	}
	if !found {
		response.RespondError(c, http.StatusNotFound, "product_not_found", errProductNotFound)
		return
	}
	response.RespondOK(c, n)
}

// GET /api/extensions/recommended
func (h *CatalogHandler) RecommendedExtensions(c *gin.Context) {
	edges, err := h.catalog.RecommendedExtensions(c.Request.Context())
	if err != nil {
		response.RespondCatalogError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"extensions": edges})
}

type mandatoryChannelsRequest struct {
	Channels []string `json:"channels"`
}

// POST /api/channels/mandatory
func (h *CatalogHandler) MandatoryChannels(c *gin.Context) {
	var req mandatoryChannelsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	out, err := h.catalog.MandatoryChannels(c.Request.Context(), req.Channels)
	if err != nil {
		response.RespondCatalogError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"mandatory_channels": out})
}

// GET /api/channels/:label?product_id=
func (h *CatalogHandler) LookupChannel(c *gin.Context) {
	ext, err := strconv.ParseInt(c.Query("product_id"), 10, 64)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_product_id", err)
		return
	}
	ch, ok, err := h.catalog.LookupChannel(c.Request.Context(), c.Param("label"), ext)
	if err != nil {
		response.RespondCatalogError(c, err)
		return
	}
	if !ok {
		response.RespondError(c, http.StatusNotFound, "channel_not_found", errors.New("channel not found"))
		return
	}
	response.RespondOK(c, gin.H{"channel": ch})
}

// GET /api/refresh-runs?limit=
func (h *CatalogHandler) RefreshRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	runs, err := h.catalog.RefreshRuns(c.Request.Context(), limit)
	if err != nil {
		response.RespondCatalogError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"runs": runs})
}

func externalIDParam(c *gin.Context) (int64, bool) {
	ext, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_product_id", err)
		return 0, false
	}
	return ext, true
}

func optionalQuery(c *gin.Context, key string) *string {
	v, ok := c.GetQuery(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	return &v
}
