package catalog

import (
	"errors"
	"net/http"

	"railbook/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	trains := rg.Group("/trains")
	{
		trains.GET("", h.ListTrains)
		trains.GET("/search", h.SearchTrains)
		trains.GET("/:no", h.GetTrain)
	}
}

// ListTrains handles GET /api/v1/trains
func (h *Handler) ListTrains(c *gin.Context) {
	trains := h.service.All()
	response.Success(c, http.StatusOK, gin.H{"trains": trains, "total": len(trains)})
}

// SearchTrains handles GET /api/v1/trains/search?source=&destination=
func (h *Handler) SearchTrains(c *gin.Context) {
	var q SearchTrainsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "source and destination are required")
		return
	}

	trains := h.service.Search(q.Source, q.Destination)
	if len(trains) == 0 {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "No trains found for that route")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"trains": trains, "total": len(trains)})
}

// GetTrain handles GET /api/v1/trains/:no
func (h *Handler) GetTrain(c *gin.Context) {
	t, err := h.service.Get(c.Param("no"))
	if err != nil {
		if errors.Is(err, ErrTrainNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Invalid train number")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load train")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"train": t})
}
