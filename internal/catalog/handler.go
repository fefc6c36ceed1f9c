package catalog

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"slimelist/pkg/models"
)

type Handler struct {
	Client *Client
	Logger hclog.Logger
}

func NewHandler(client *Client, logger hclog.Logger) *Handler {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Handler{Client: client, Logger: logger}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/top", h.popular)       // GET /anime/top
	rg.GET("/seasonal", h.seasonal) // GET /anime/seasonal
	rg.GET("/search", h.search)     // GET /anime/search?q=
	rg.GET("/random", h.random)     // GET /anime/random
	rg.GET("/:id", h.detail)        // GET /anime/:id
	rg.GET("/:id/recommendations", h.recommendations)
}

func (h *Handler) popular(c *gin.Context) {
	items, err := h.Client.ListPopular(c.Request.Context(), parseInt(c.Query("page"), 1), parseInt(c.Query("limit"), 0))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) seasonal(c *gin.Context) {
	items, err := h.Client.ListSeasonal(c.Request.Context(), parseInt(c.Query("page"), 1), parseInt(c.Query("limit"), 0))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) search(c *gin.Context) {
	res, err := h.Client.Search(c.Request.Context(), c.Query("q"), parseInt(c.Query("page"), 1), parseInt(c.Query("limit"), 0))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items":     res.Entries,
		"last_page": res.LastPage,
	})
}

func (h *Handler) random(c *gin.Context) {
	entry, err := h.Client.Random(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// detail loads the title and its recommendations in parallel; both requests
// share the client's gate.
func (h *Handler) detail(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var (
		entry *models.CatalogEntry
		recs  []models.RecommendationStub
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		var err error
		entry, err = h.Client.GetByID(ctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		recs, err = h.Client.GetRecommendations(ctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"anime":           entry,
		"recommendations": recs,
	})
}

func (h *Handler) recommendations(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	recs, err := h.Client.GetRecommendations(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": recs})
}

// fail maps the catalog error taxonomy onto HTTP statuses.
func (h *Handler) fail(c *gin.Context, err error) {
	var remote *RemoteError
	var transport *TransportError
	switch {
	case errors.Is(err, ErrInvalidID):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &remote) && remote.StatusCode == http.StatusNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.As(err, &remote):
		h.Logger.Warn("catalog upstream error", "path", remote.Path, "status", remote.StatusCode)
		c.JSON(http.StatusBadGateway, gin.H{"error": "catalog unavailable", "upstream_status": remote.StatusCode})
	case errors.Is(err, ErrRateLimited):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "catalog busy, try again"})
	case errors.Is(err, context.Canceled):
		// client went away
		c.Status(499)
	case errors.As(err, &transport):
		h.Logger.Warn("catalog transport error", "path", transport.Path, "error", transport.Err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "catalog unreachable"})
	default:
		h.Logger.Error("catalog request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "catalog request failed"})
	}
}

func parseID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(c.Param("id")))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a positive integer"})
		return 0, false
	}
	return id, true
}

func parseInt(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
