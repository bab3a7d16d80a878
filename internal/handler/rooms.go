package handler

import (
	"context"
	"net/http"
	"strings"

	"roomassist/internal/catalog"
	"roomassist/internal/model"
	"roomassist/internal/service"

	"github.com/gin-gonic/gin"
)

// RebuildFunc builds a fresh retriever index over the given rooms. The
// concrete implementation depends on the configured backend.
type RebuildFunc func(ctx context.Context, rooms []model.Room) (service.Retriever, error)

// RoomsHandler handles catalog administration requests.
type RoomsHandler struct {
	engine  *service.Engine
	store   *catalog.Store
	rebuild RebuildFunc
}

// NewRoomsHandler creates a new rooms handler
func NewRoomsHandler(engine *service.Engine, store *catalog.Store, rebuild RebuildFunc) *RoomsHandler {
	return &RoomsHandler{engine: engine, store: store, rebuild: rebuild}
}

// List handles GET /api/v1/rooms
func (h *RoomsHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.store.Rooms()})
}

// Add handles POST /api/v1/rooms. The room is persisted first; queries keep
// running against the old snapshot until the new index is swapped in.
func (h *RoomsHandler) Add(c *gin.Context) {
	var req model.AddRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	room := model.Room{
		Name:         strings.TrimSpace(req.Name),
		Price:        req.Price,
		Area:         req.Area,
		Features:     req.Features,
		Style:        req.Style,
		MaxOccupancy: req.MaxOccupancy,
	}
	if room.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Room name must not be blank"})
		return
	}

	saved, err := h.store.Append(room)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Failed to add room: " + err.Error()})
		return
	}

	if err := h.reindex(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Room saved but index rebuild failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, model.AddRoomResponse{Success: true, Room: &saved})
}

// AutoRecommend handles POST /api/v1/rooms/auto. The generated room is not
// persisted; callers review it and submit through Add.
func (h *RoomsHandler) AutoRecommend(c *gin.Context) {
	room, err := h.engine.AutoRecommendRoom(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Room generation failed: " + err.Error()})
		return
	}
	if room == nil {
		c.JSON(http.StatusOK, model.AutoRecommendResponse{
			Success: false,
			Message: "無法產生有效的房型建議，請稍後再試",
		})
		return
	}

	c.JSON(http.StatusOK, model.AutoRecommendResponse{Success: true, Room: room})
}

func (h *RoomsHandler) reindex(ctx context.Context) error {
	rooms := h.store.Rooms()
	ret, err := h.rebuild(ctx, rooms)
	if err != nil {
		return err
	}
	h.engine.Reload(rooms, ret)
	return nil
}
