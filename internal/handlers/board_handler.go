package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"salescrm/internal/logger"
	"salescrm/internal/models"
	"salescrm/internal/realtime"
	"salescrm/internal/services"
)

type BoardHandler struct {
	Leads *services.LeadService
	Coord *services.Coordinator
	Hub   *realtime.BoardHub
	Log   logger.Logger
}

func NewBoardHandler(leads *services.LeadService, coord *services.Coordinator, hub *realtime.BoardHub, log logger.Logger) *BoardHandler {
	return &BoardHandler{Leads: leads, Coord: coord, Hub: hub, Log: log}
}

// MoveRequest is one drop of a card: the card, the column it was dragged from and the column
// it was dropped on.
type MoveRequest struct {
	LeadID    int          `json:"lead_id" binding:"required,gt=0"`
	FromStage models.Stage `json:"from_stage"`
	ToStage   models.Stage `json:"to_stage" binding:"required"`
}

type MoveResponse struct {
	MutationID string      `json:"mutation_id"`
	Status     string      `json:"status"` // pending, confirmed
	Lead       models.Lead `json:"lead"`
}

type StageInfo struct {
	Key   models.Stage `json:"key"`
	Label string       `json:"label"`
	Order int          `json:"order"`
}

// @Summary      Stage catalog
// @Tags         Board
// @Produce      json
// @Success      200  {array}  StageInfo
// @Router       /stages [get]
func (h *BoardHandler) Stages(c *gin.Context) {
	out := make([]StageInfo, 0, len(models.Stages))
	for i, s := range models.Stages {
		out = append(out, StageInfo{Key: s, Label: s.Label(), Order: i})
	}
	c.JSON(http.StatusOK, out)
}

// @Summary      Kanban board of the caller
// @Tags         Board
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   services.PipelineColumn
// @Failure      401  {object}  map[string]string
// @Router       /board [get]
func (h *BoardHandler) Get(c *gin.Context) {
	v, ok := viewer(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.Leads.Board(v).Columns())
}

// @Summary      Move a card to another column
// @Description  Applies the change at once and reconciles it with the CRM. With wait=false the
// @Description  call returns 202 after the optimistic apply; the outcome arrives on /board/stream.
// @Tags         Board
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        move  body   MoveRequest  true   "Card move"
// @Param        wait  query  bool         false  "Wait for the CRM answer (default true)"
// @Success      200  {object}  MoveResponse
// @Success      202  {object}  MoveResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Failure      502  {object}  ErrorResponse
// @Failure      504  {object}  ErrorResponse
// @Router       /board/moves [post]
func (h *BoardHandler) Move(c *gin.Context) {
	v, ok := viewer(c)
	if !ok {
		return
	}
	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: "bad_request"})
		return
	}
	wait := true
	if raw, present := c.GetQuery("wait"); present {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "wait must be a boolean", Kind: "bad_request"})
			return
		}
		wait = parsed
	}

	p, err := h.Coord.Begin(c.Request.Context(), v, services.Move{
		LeadID:    req.LeadID,
		FromStage: req.FromStage,
		ToStage:   req.ToStage,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	if !wait {
		c.JSON(http.StatusAccepted, MoveResponse{MutationID: p.ID, Status: "pending", Lead: p.Optimistic})
		return
	}

	lead, err := p.Wait(c.Request.Context())
	if err != nil {
		if c.Request.Context().Err() != nil {
			// client went away; reconciliation carries on without it
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MoveResponse{MutationID: p.ID, Status: "confirmed", Lead: lead})
}

// @Summary      Live board updates
// @Description  Websocket; every message carries the event and the caller's full board.
// @Tags         Board
// @Security     BearerAuth
// @Param        access_token  query  string  false  "Token for clients that cannot set headers"
// @Failure      503  {object}  ErrorResponse
// @Router       /board/stream [get]
func (h *BoardHandler) Stream(c *gin.Context) {
	v, ok := viewer(c)
	if !ok {
		return
	}
	sub, err := h.Hub.Register(v)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error(), Kind: "unavailable"})
		return
	}
	if err := h.Hub.Serve(c.Writer, c.Request, sub); err != nil {
		h.Log.Debug("board stream ended", "viewer_id", v.ID, "error", err)
	}
}
