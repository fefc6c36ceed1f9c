package tracker

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"

	"slimelist/internal/auth"
	"slimelist/internal/catalog"
	"slimelist/internal/library"
	"slimelist/pkg/models"
)

const maxImportBytes = 4 << 20

// CatalogLookup resolves the catalog record snapshotted when a title is added.
type CatalogLookup interface {
	GetByID(ctx context.Context, id int) (*models.CatalogEntry, error)
}

type Handler struct {
	Service *Service
	Catalog CatalogLookup
	Logger  hclog.Logger
}

func NewHandler(svc *Service, lookup CatalogLookup, logger hclog.Logger) *Handler {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Handler{Service: svc, Catalog: lookup, Logger: logger}
}

// RegisterRoutes expects rg to be behind auth.Middleware.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/list", h.list)
	rg.POST("/list", h.add)
	rg.GET("/list/stats", h.stats)
	rg.GET("/list/export", h.exportCSV)
	rg.POST("/list/import", h.importCSV)
	rg.GET("/list/:anime_id", h.getOne)
	rg.PATCH("/list/:anime_id", h.update)
	rg.POST("/list/:anime_id/episodes", h.increment)
	rg.DELETE("/list/:anime_id", h.remove)
}

type addReq struct {
	AnimeID         int    `json:"anime_id"`
	Status          string `json:"status"`
	EpisodesWatched *int   `json:"episodes_watched,omitempty"`
	Score           *int   `json:"score,omitempty"`
}

type updateReq struct {
	Status          string `json:"status,omitempty"`
	EpisodesWatched *int   `json:"episodes_watched,omitempty"`
	Delta           int    `json:"delta,omitempty"`
	Score           *int   `json:"score,omitempty"`
}

type incrementReq struct {
	Delta *int `json:"delta,omitempty"`
}

func (h *Handler) list(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var status models.Status
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status = models.ParseStatus(raw)
		if status == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
			return
		}
	}

	items, err := h.Service.List(c.Request.Context(), claims.UserID, status)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(items), "items": items})
}

func (h *Handler) stats(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	stats, err := h.Service.Stats(c.Request.Context(), claims.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) getOne(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	animeID, ok := parseAnimeID(c)
	if !ok {
		return
	}

	entry, err := h.Service.Get(c.Request.Context(), claims.UserID, animeID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if entry == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *Handler) add(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req addReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.AnimeID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "anime_id required"})
		return
	}
	status := models.ParseStatus(req.Status)
	if status == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "status must be one of: watching, completed, plan_to_watch, dropped",
		})
		return
	}

	anime, err := h.Catalog.GetByID(c.Request.Context(), req.AnimeID)
	if err != nil {
		h.fail(c, err)
		return
	}

	entry, err := h.Service.Add(c.Request.Context(), claims.UserID, *anime, status, req.EpisodesWatched, req.Score)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *Handler) update(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	animeID, ok := parseAnimeID(c)
	if !ok {
		return
	}

	var req updateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Status == "" && req.EpisodesWatched == nil && req.Delta == 0 && req.Score == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}
	var status models.Status
	if req.Status != "" {
		if status = models.ParseStatus(req.Status); status == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
	}

	entry, err := h.Service.Apply(c.Request.Context(), claims.UserID, animeID,
		Update(status, req.EpisodesWatched, req.Delta, req.Score))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *Handler) increment(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	animeID, ok := parseAnimeID(c)
	if !ok {
		return
	}

	var req incrementReq
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
	}
	delta := 1
	if req.Delta != nil {
		delta = *req.Delta
	}

	entry, err := h.Service.IncrementEpisodes(c.Request.Context(), claims.UserID, animeID, delta)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *Handler) remove(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	animeID, ok := parseAnimeID(c)
	if !ok {
		return
	}

	if err := h.Service.Remove(c.Request.Context(), claims.UserID, animeID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (h *Handler) exportCSV(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	items, err := h.Service.List(c.Request.Context(), claims.UserID, "")
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="animelist.csv"`)
	c.Status(http.StatusOK)
	if err := library.WriteCSV(c.Writer, items); err != nil {
		h.Logger.Error("write csv export", "user_id", claims.UserID, "error", err)
	}
}

func (h *Handler) importCSV(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes)
	entries, err := library.ReadCSV(body, claims.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	n, err := h.Service.Import(c.Request.Context(), claims.UserID, entries)
	if err != nil {
		h.Logger.Warn("list import stopped", "user_id", claims.UserID, "imported", n, "error", err)
		status, msg := errorStatus(err)
		c.JSON(status, gin.H{"error": msg, "imported": n})
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": n})
}

func (h *Handler) fail(c *gin.Context, err error) {
	status, msg := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.Logger.Error("list request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": msg})
}

func errorStatus(err error) (int, string) {
	var (
		violation *models.InvariantViolation
		remote    *catalog.RemoteError
		storeErr  *library.StoreError
	)
	switch {
	case errors.Is(err, ErrNotInList):
		return http.StatusNotFound, "not found"
	case errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrInvalidScore),
		errors.Is(err, ErrInvalidAnime), errors.Is(err, ErrInvalidAction),
		errors.Is(err, catalog.ErrInvalidID), errors.As(err, &violation):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &remote):
		if remote.StatusCode == http.StatusNotFound {
			return http.StatusNotFound, "anime not found"
		}
		return http.StatusBadGateway, "catalog unavailable"
	case errors.Is(err, catalog.ErrRateLimited):
		return http.StatusServiceUnavailable, "catalog rate limited"
	case errors.Is(err, context.Canceled):
		return 499, "request canceled"
	case errors.As(err, &storeErr):
		return http.StatusInternalServerError, "list store failed"
	default:
		var transport *catalog.TransportError
		if errors.As(err, &transport) {
			return http.StatusBadGateway, "catalog unavailable"
		}
		return http.StatusInternalServerError, "internal error"
	}
}

func parseAnimeID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(c.Param("anime_id")))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "anime_id must be a positive integer"})
		return 0, false
	}
	return id, true
}
