package admin

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"wumpus-simulator/messages"
	"wumpus-simulator/persistence"
	"wumpus-simulator/services"
)

// Simulator is what the control API drives
type Simulator interface {
	CreateWorld(config services.WorldConfig) error
	LoadWorld(path string) error
	SaveWorld(dest string) error
	Spawn(id int) error
	Status() services.Status
	Tiles() []services.TileView
}

// Handler serves the HTTP control API
type Handler struct {
	Sim Simulator
}

func (h Handler) RegisterRoutes(s *server.Hertz) {
	world := s.Group("/api/world")
	world.POST("/create", h.create)
	world.POST("/load", h.load)
	world.POST("/save", h.save)
	world.POST("/spawn", h.spawn)
	world.GET("/status", h.status)
	world.GET("/tiles", h.tiles)
}

func (h Handler) create(_ context.Context, ctx *app.RequestContext) {
	var req messages.CreateWorld
	if err := decodeJSON(ctx, &req); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	err := h.Sim.CreateWorld(services.WorldConfig{
		HasArrow:    req.HasArrow,
		WumpusCount: req.WumpusCount,
		TrapCount:   req.TrapCount,
		Size:        req.Size,
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, h.Sim.Status())
}

func (h Handler) load(_ context.Context, ctx *app.RequestContext) {
	var req messages.LoadWorld
	if err := decodeJSON(ctx, &req); err != nil || req.WorldPath == "" {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "world_path is required")
		return
	}
	if err := h.Sim.LoadWorld(req.WorldPath); err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, h.Sim.Status())
}

func (h Handler) save(_ context.Context, ctx *app.RequestContext) {
	var req messages.SaveWorld
	if err := decodeJSON(ctx, &req); err != nil || req.Destination == "" {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "destination is required")
		return
	}
	if err := h.Sim.SaveWorld(req.Destination); err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{"saved": req.Destination})
}

func (h Handler) spawn(_ context.Context, ctx *app.RequestContext) {
	var req messages.SpawnParticipant
	if err := decodeJSON(ctx, &req); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	if err := h.Sim.Spawn(req.AgentID); err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, h.Sim.Status())
}

func (h Handler) status(_ context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, h.Sim.Status())
}

func (h Handler) tiles(_ context.Context, ctx *app.RequestContext) {
	tiles := h.Sim.Tiles()
	if tiles == nil {
		writeErrorBody(ctx, consts.StatusConflict, "not_ready", "no world loaded")
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{"tiles": tiles})
}

func decodeJSON(ctx *app.RequestContext, out any) error {
	body := ctx.Request.Body()
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

func writeError(ctx *app.RequestContext, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidWorldConfig),
		errors.Is(err, services.ErrInvalidID):
		writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, services.ErrInvalidState):
		writeErrorBody(ctx, consts.StatusConflict, "not_ready", err.Error())
	case errors.Is(err, services.ErrAlreadyLoaded):
		writeErrorBody(ctx, consts.StatusConflict, "already_loaded", err.Error())
	case errors.Is(err, services.ErrPlacementConflict),
		errors.Is(err, services.ErrNoPlacement):
		writeErrorBody(ctx, consts.StatusConflict, "placement_failed", err.Error())
	case errors.Is(err, persistence.ErrWorldNotFound):
		writeErrorBody(ctx, consts.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, persistence.ErrParse):
		writeErrorBody(ctx, consts.StatusUnprocessableEntity, "parse_error", err.Error())
	case errors.Is(err, persistence.ErrIO):
		writeErrorBody(ctx, consts.StatusInternalServerError, "io_error", err.Error())
	default:
		writeErrorBody(ctx, consts.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeErrorBody(ctx *app.RequestContext, status int, code, message string) {
	ctx.JSON(status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
