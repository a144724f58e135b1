package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/neurogarden-backend/internal/domain/content"
	"github.com/yungbote/neurogarden-backend/internal/http/response"
	"github.com/yungbote/neurogarden-backend/internal/modules/retention"
	"github.com/yungbote/neurogarden-backend/internal/platform/apierr"
	"github.com/yungbote/neurogarden-backend/internal/services"
)

const maxDueLimit = 200

type RetentionHandler struct {
	svc services.RetentionService
	now func() time.Time
}

func NewRetentionHandler(svc services.RetentionService) *RetentionHandler {
	return &RetentionHandler{svc: svc, now: time.Now}
}

type recallRequest struct {
	QuestionIndex int    `json:"question_index"`
	Answer        string `json:"answer"`
}

type reviewRequest struct {
	Outcome string `json:"outcome"`
}

// POST /api/items/:id/enrich
func (h *RetentionHandler) Enrich(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}
	res, err := h.svc.EnsureEnriched(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, retentionError(err))
		return
	}
	response.RespondOK(c, gin.H{"result": res})
}

// POST /api/items/:id/summary
func (h *RetentionHandler) Summary(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}
	res, err := h.svc.EnsureSummary(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, retentionError(err))
		return
	}
	response.RespondOK(c, gin.H{"result": res})
}

// GET /api/review/due?kind=&limit=
func (h *RetentionHandler) ListDue(c *gin.Context) {
	var filter services.DueFilter
	if raw := strings.TrimSpace(c.Query("kind")); raw != "" {
		kind, err := content.ParseKind(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_kind", err)
			return
		}
		filter.Kind = kind
	}
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > maxDueLimit {
			response.RespondError(c, http.StatusBadRequest, "invalid_limit", errors.New("limit must be an integer in [0,200]"))
			return
		}
		filter.Limit = n
	}
	items, err := h.svc.ListDue(c.Request.Context(), filter, h.now())
	if err != nil {
		response.RespondAPIError(c, retentionError(err))
		return
	}
	response.RespondOK(c, gin.H{"items": items})
}

// POST /api/items/:id/recall
func (h *RetentionHandler) SubmitRecall(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}
	var req recallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	attempt, err := h.svc.SubmitRecall(c.Request.Context(), id, req.QuestionIndex, req.Answer)
	if err != nil && attempt == nil {
		response.RespondAPIError(c, retentionError(err))
		return
	}
	// A degraded attempt still carries user-facing feedback.
	response.RespondOK(c, gin.H{"attempt": attempt, "degraded": attempt.Degraded})
}

// POST /api/items/:id/review
func (h *RetentionHandler) RecordReview(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	outcome, err := services.ParseReviewOutcome(req.Outcome)
	if err != nil {
		response.RespondAPIError(c, retentionError(err))
		return
	}
	rs, err := h.svc.RecordReview(c.Request.Context(), id, outcome)
	if err != nil {
		response.RespondAPIError(c, retentionError(err))
		return
	}
	response.RespondOK(c, gin.H{"review": gin.H{
		"review_stage":     rs.Stage,
		"review_interval":  rs.Interval,
		"last_reviewed_at": rs.LastReviewedAt,
	}})
}

func itemID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_item_id", err)
		return uuid.Nil, false
	}
	return id, true
}

var retentionErrorRules = []apierr.Rule{
	{Target: retention.ErrNotFound, Status: http.StatusNotFound, Code: "item_not_found"},
	{Target: retention.ErrInvalidInput, Status: http.StatusBadRequest, Code: "invalid_input"},
	{Target: retention.ErrAlreadyRunning, Status: http.StatusConflict, Code: "enrichment_running", Retryable: true},
	{Target: retention.ErrGatewayUnavailable, Status: http.StatusBadGateway, Code: "gateway_error", Retryable: true},
	{Target: retention.ErrGatewayMalformedResponse, Status: http.StatusBadGateway, Code: "gateway_error"},
}

func retentionError(err error) error {
	return apierr.Map(err, retentionErrorRules...)
}
