package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"rankboard/pkg/db/pagination"
	"rankboard/pkg/errutil"
	"rankboard/pkg/health"
	"rankboard/pkg/middleware"
	"rankboard/services/board"
	"rankboard/services/member"
	"rankboard/services/orchestrator"
	"rankboard/services/reward"
	"rankboard/services/standings"
)

var Module = fx.Module("httpapi",
	fx.Provide(NewHandler, NewRouter),
)

type Handler struct {
	boards       *board.Service
	members      *member.Service
	standings    *standings.Service
	rewards      *reward.Service
	orchestrator *orchestrator.Service
	health       health.HealthService
}

type HandlerParams struct {
	fx.In

	Boards       *board.Service
	Members      *member.Service
	Standings    *standings.Service
	Rewards      *reward.Service
	Orchestrator *orchestrator.Service
	Health       health.HealthService
}

func NewHandler(p HandlerParams) *Handler {
	return &Handler{
		boards:       p.Boards,
		members:      p.Members,
		standings:    p.Standings,
		rewards:      p.Rewards,
		orchestrator: p.Orchestrator,
		health:       p.Health,
	}
}

func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Error())

	r.GET("/healthz", h.health.Liveness)
	r.GET("/readyz", h.health.Readiness)

	v1 := r.Group("/v1")
	{
		v1.GET("/members", h.ListMembers)

		v1.POST("/boards", h.CreateBoard)
		v1.GET("/boards", h.ListBoards)
		v1.GET("/boards/:id", h.GetBoard)
		v1.PUT("/boards/:id", h.UpdateBoard)
		v1.DELETE("/boards/:id", h.DeleteBoard)

		v1.GET("/boards/:id/standings", h.GetStandings)
		v1.POST("/boards/:id/recompute", h.RecomputeBoard)
		v1.POST("/recompute", h.RecomputeAll)

		v1.GET("/boards/:id/goal", h.GetGoal)
		v1.POST("/boards/:id/goal/reset", h.ResetGoal)

		v1.PUT("/boards/:id/entries", h.UpsertManualEntry)
		v1.GET("/boards/:id/entries", h.ListManualEntries)

		v1.GET("/members/:id/wallet", h.GetWallet)
		v1.GET("/members/:id/holdings", h.GetHoldings)
		v1.GET("/members/:id/equipped", h.GetEquipped)
	}

	return r
}

func (h *Handler) ListMembers(c *gin.Context) {
	var p pagination.Pagination
	if err := c.ShouldBindQuery(&p); err != nil {
		c.Error(errutil.BadRequest("invalid pagination", err))
		return
	}

	members, pageInfo, err := h.members.ListPage(c.Request.Context(), p)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": members, "page_info": pageInfo})
}

func (h *Handler) CreateBoard(c *gin.Context) {
	var req board.Board
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid board payload", err))
		return
	}

	created, err := h.boards.Create(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) ListBoards(c *gin.Context) {
	boards, err := h.boards.List(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": boards})
}

func (h *Handler) GetBoard(c *gin.Context) {
	b, err := h.boards.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	if b == nil {
		c.Error(errutil.NotFound("board not found", nil))
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) UpdateBoard(c *gin.Context) {
	var req board.Board
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid board payload", err))
		return
	}
	req.ID = c.Param("id")

	updated, err := h.boards.Update(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteBoard(c *gin.Context) {
	if err := h.boards.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.Error(err)
		return
	}
	h.standings.Invalidate(c.Param("id"))
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetStandings(c *gin.Context) {
	snap, err := h.standings.Standings(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// RecomputeBoard runs a full cycle synchronously and reports every reward
// mutation, failed ones included, so an administrator sees exactly what a
// pass did.
func (h *Handler) RecomputeBoard(c *gin.Context) {
	results, err := h.orchestrator.RecomputeBoard(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"actions": results})
}

func (h *Handler) RecomputeAll(c *gin.Context) {
	if err := h.orchestrator.RecomputeAll(c.Request.Context()); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusAccepted)
}

func (h *Handler) GetGoal(c *gin.Context) {
	goal, err := h.boards.GoalState(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	if goal == nil {
		c.Error(errutil.NotFound("board has no group goal", nil))
		return
	}
	c.JSON(http.StatusOK, goal)
}

func (h *Handler) ResetGoal(c *gin.Context) {
	if err := h.boards.ResetGroupGoal(c.Request.Context(), c.Param("id")); err != nil {
		c.Error(err)
		return
	}
	h.standings.Invalidate(c.Param("id"))
	c.Status(http.StatusNoContent)
}

func (h *Handler) UpsertManualEntry(c *gin.Context) {
	var req board.ManualEntry
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid entry payload", err))
		return
	}
	req.BoardID = c.Param("id")

	entry, err := h.boards.UpsertManualEntry(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}
	h.standings.Invalidate(req.BoardID)
	c.JSON(http.StatusOK, entry)
}

func (h *Handler) ListManualEntries(c *gin.Context) {
	entries, err := h.boards.ManualEntries(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entries})
}

func (h *Handler) GetWallet(c *gin.Context) {
	memberID := c.Param("id")
	ctx := c.Request.Context()

	balance, err := h.rewards.WalletBalance(ctx, memberID)
	if err != nil {
		c.Error(err)
		return
	}
	entries, err := h.rewards.WalletEntries(ctx, memberID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance, "entries": entries})
}

func (h *Handler) GetHoldings(c *gin.Context) {
	holdings, err := h.rewards.Holdings(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": holdings})
}

func (h *Handler) GetEquipped(c *gin.Context) {
	equipped, err := h.rewards.Equipped(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": equipped})
}
