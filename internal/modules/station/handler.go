package station

import (
	"errors"
	"net/http"
	"strconv"

	"railbook/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	index *Index
}

func NewHandler(index *Index) *Handler {
	return &Handler{index: index}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/stations", h.ListStations)
	rg.GET("/stations/distance", h.GetDistance)
}

// ListStations handles GET /api/v1/stations?q=&limit=
func (h *Handler) ListStations(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	response.Success(c, http.StatusOK, gin.H{"stations": h.index.Suggest(c.Query("q"), limit)})
}

// GetDistance handles GET /api/v1/stations/distance?from=&to=
func (h *Handler) GetDistance(c *gin.Context) {
	from, to := c.Query("from"), c.Query("to")
	if from == "" || to == "" {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "from and to are required")
		return
	}

	km, err := h.index.Distance(from, to)
	if err != nil {
		if errors.Is(err, ErrStationNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Sorry, we couldn't calculate the distance for that route")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to calculate distance")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"from": from, "to": to, "distance_km": km})
}
