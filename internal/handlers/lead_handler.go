package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"salescrm/internal/models"
	"salescrm/internal/services"
)

type LeadHandler struct {
	Service *services.LeadService
}

func NewLeadHandler(service *services.LeadService) *LeadHandler {
	return &LeadHandler{Service: service}
}

// @Summary      Visible leads
// @Tags         Leads
// @Produce      json
// @Security     BearerAuth
// @Param        stage   query  string  false  "Filter by stage"
// @Param        status  query  string  false  "Filter by status"
// @Param        source  query  string  false  "Filter by source"
// @Param        limit   query  int     false  "Page size (default 50)"
// @Param        offset  query  int     false  "Offset"
// @Success      200  {object}  models.LeadList
// @Router       /leads [get]
func (h *LeadHandler) List(c *gin.Context) {
	v, ok := viewer(c)
	if !ok {
		return
	}
	limit := queryInt(c, "limit", 50)
	if limit == 0 || limit > 500 {
		limit = 50
	}
	list := h.Service.List(v, services.LeadFilter{
		Stage:  models.Stage(c.Query("stage")),
		Status: models.LeadStatus(c.Query("status")),
		Source: models.LeadSource(c.Query("source")),
		Limit:  limit,
		Offset: queryInt(c, "offset", 0),
	})
	c.JSON(http.StatusOK, list)
}

// @Summary      Lead by id
// @Tags         Leads
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Lead ID"
// @Success      200  {object}  models.Lead
// @Failure      404  {object}  ErrorResponse
// @Router       /leads/{id} [get]
func (h *LeadHandler) GetByID(c *gin.Context) {
	v, ok := viewer(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	lead, err := h.Service.Get(v, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

// @Summary      Confirmed stage changes of a lead
// @Tags         Leads
// @Produce      json
// @Security     BearerAuth
// @Param        id     path   int  true   "Lead ID"
// @Param        limit  query  int  false  "Max entries (default 100)"
// @Success      200  {array}   models.StageChange
// @Failure      404  {object}  ErrorResponse
// @Router       /leads/{id}/history [get]
func (h *LeadHandler) History(c *gin.Context) {
	v, ok := viewer(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	changes, err := h.Service.History(c.Request.Context(), v, id, queryInt(c, "limit", 100))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, changes)
}
