package handler

import (
	"context"
	"strconv"

	apptreasury "github.com/erp/treasury/internal/application/treasury"
	"github.com/erp/treasury/internal/domain/shared"
	"github.com/erp/treasury/internal/domain/treasury"
	"github.com/erp/treasury/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CheckbookHandler handles checkbook endpoints
type CheckbookHandler struct {
	BaseHandler
	checkbookService *apptreasury.CheckbookService
}

// NewCheckbookHandler creates a new CheckbookHandler
func NewCheckbookHandler(checkbookService *apptreasury.CheckbookService) *CheckbookHandler {
	return &CheckbookHandler{checkbookService: checkbookService}
}

// CreateCheckbookRequest represents a request to create a checkbook.
// Without range_start a free range of the given length is suggested.
type CreateCheckbookRequest struct {
	BankAccountID  string `json:"bank_account_id" binding:"required,uuid"`
	Description    string `json:"description" binding:"max=200" example:"Main account, book 4"`
	RangeStart     int64  `json:"range_start" binding:"gte=0" example:"10001"`
	RangeEnd       int64  `json:"range_end" binding:"gte=0" example:"10050"`
	NextNumber     int64  `json:"next_number" binding:"gte=0" example:"10001"`
	Length         int64  `json:"length" binding:"gte=0,lte=1000000" example:"50"`
	PreferredStart *int64 `json:"preferred_start" binding:"omitempty,gt=0"`
}

// UpdateCheckbookRequest represents a checkbook edit. A zero next_number keeps
// the cursor.
type UpdateCheckbookRequest struct {
	Description string `json:"description" binding:"max=200"`
	RangeStart  int64  `json:"range_start" binding:"required,gt=0"`
	RangeEnd    int64  `json:"range_end" binding:"required,gt=0"`
	NextNumber  int64  `json:"next_number" binding:"gte=0"`
}

// CheckbookReasonRequest carries the reason of a void or block
type CheckbookReasonRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// ListCheckbooksQuery holds the filters of a checkbook listing
type ListCheckbooksQuery struct {
	dto.ListRequest
	BankAccountID string `form:"bank_account_id" binding:"omitempty,uuid"`
	State         string `form:"state" binding:"omitempty,oneof=active exhausted blocked voided"`
}

// Create godoc
//
//	@Summary	Create a checkbook
//	@Tags		checkbooks
//	@Accept		json
//	@Produce	json
//	@Param		request	body		CreateCheckbookRequest	true	"Checkbook"
//	@Success	201		{object}	APIResponse[apptreasury.CheckbookResponse]
//	@Failure	409		{object}	ErrorResponse
//	@Security	BearerAuth
//	@Router		/treasury/checkbooks [post]
func (h *CheckbookHandler) Create(c *gin.Context) {
	var req CreateCheckbookRequest
	if !h.bindJSON(c, &req) {
		return
	}
	account, err := parseOptionalID("bank_account_id", req.BankAccountID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	book, err := h.checkbookService.Create(c.Request.Context(), apptreasury.CreateCheckbookRequest{
		BankAccountID:  *account,
		Description:    req.Description,
		RangeStart:     req.RangeStart,
		RangeEnd:       req.RangeEnd,
		NextNumber:     req.NextNumber,
		Length:         req.Length,
		PreferredStart: req.PreferredStart,
	}, actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, book)
}

// GetByID godoc
//
//	@Summary	Get a checkbook
//	@Tags		checkbooks
//	@Produce	json
//	@Param		id	path		string	true	"Checkbook ID"	format(uuid)
//	@Success	200	{object}	APIResponse[apptreasury.CheckbookResponse]
//	@Failure	404	{object}	ErrorResponse
//	@Security	BearerAuth
//	@Router		/treasury/checkbooks/{id} [get]
func (h *CheckbookHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	book, err := h.checkbookService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, book)
}

// List godoc
//
//	@Summary	List checkbooks
//	@Tags		checkbooks
//	@Produce	json
//	@Param		bank_account_id	query		string	false	"Bank account"	format(uuid)
//	@Param		state			query		string	false	"Checkbook state"
//	@Success	200				{object}	APIResponse[[]apptreasury.CheckbookResponse]
//	@Security	BearerAuth
//	@Router		/treasury/checkbooks [get]
func (h *CheckbookHandler) List(c *gin.Context) {
	var q ListCheckbooksQuery
	if !h.bindQuery(c, &q) {
		return
	}
	filter := treasury.CheckbookFilter{Filter: q.ListRequest.Filter()}
	var err error
	if filter.BankAccountID, err = parseOptionalID("bank_account_id", q.BankAccountID); err != nil {
		h.HandleError(c, err)
		return
	}
	if q.State != "" {
		s := treasury.CheckbookState(q.State)
		filter.State = &s
	}

	page, err := h.checkbookService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// Update godoc
//
//	@Summary		Update a checkbook
//	@Description	The new range must still contain every used serial and must not overlap another checkbook of the account
//	@Tags			checkbooks
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Checkbook ID"	format(uuid)
//	@Param			request	body		UpdateCheckbookRequest	true	"Checkbook fields"
//	@Success		200		{object}	APIResponse[apptreasury.CheckbookResponse]
//	@Failure		409		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/treasury/checkbooks/{id} [put]
func (h *CheckbookHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req UpdateCheckbookRequest
	if !h.bindJSON(c, &req) {
		return
	}

	book, err := h.checkbookService.Update(c.Request.Context(), id, apptreasury.UpdateCheckbookRequest{
		Description: req.Description,
		RangeStart:  req.RangeStart,
		RangeEnd:    req.RangeEnd,
		NextNumber:  req.NextNumber,
	}, actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, book)
}

// Delete godoc
//
//	@Summary		Delete a checkbook
//	@Description	A checkbook with checks needs force=true and is voided instead
//	@Tags			checkbooks
//	@Produce		json
//	@Param			id		path		string	true	"Checkbook ID"	format(uuid)
//	@Param			force	query		bool	false	"Void when checks exist"
//	@Param			reason	query		string	false	"Void reason"
//	@Success		200		{object}	APIResponse[apptreasury.DeleteCheckbookResult]
//	@Failure		409		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/treasury/checkbooks/{id} [delete]
func (h *CheckbookHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	force, err := queryBool(c, "force")
	if err != nil {
		h.HandleError(c, err)
		return
	}

	result, err := h.checkbookService.Delete(c.Request.Context(), id, apptreasury.DeleteCheckbookRequest{
		Force:  force,
		Reason: c.Query("reason"),
	}, actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Void godoc
//
//	@Summary	Void a checkbook
//	@Tags		checkbooks
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string					true	"Checkbook ID"	format(uuid)
//	@Param		request	body		CheckbookReasonRequest	false	"Reason"
//	@Success	200		{object}	APIResponse[apptreasury.CheckbookResponse]
//	@Security	BearerAuth
//	@Router		/treasury/checkbooks/{id}/void [post]
func (h *CheckbookHandler) Void(c *gin.Context) {
	h.changeState(c, h.checkbookService.Void)
}

// Block godoc
//
//	@Summary	Block a checkbook
//	@Tags		checkbooks
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string					true	"Checkbook ID"	format(uuid)
//	@Param		request	body		CheckbookReasonRequest	false	"Reason"
//	@Success	200		{object}	APIResponse[apptreasury.CheckbookResponse]
//	@Security	BearerAuth
//	@Router		/treasury/checkbooks/{id}/block [post]
func (h *CheckbookHandler) Block(c *gin.Context) {
	h.changeState(c, h.checkbookService.Block)
}

type checkbookStateChange func(ctx context.Context, id uuid.UUID, reason string, actor *shared.Actor) (*apptreasury.CheckbookResponse, error)

func (h *CheckbookHandler) changeState(c *gin.Context, change checkbookStateChange) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req CheckbookReasonRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}

	book, err := change(c.Request.Context(), id, req.Reason, actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, book)
}

// SuggestRange godoc
//
//	@Summary		Suggest a free serial range
//	@Description	Returns the lowest free range of the given length, starting at preferred_start when it is free
//	@Tags			checkbooks
//	@Produce		json
//	@Param			id				path		string	true	"Bank account ID"	format(uuid)
//	@Param			length			query		int		true	"Range length"
//	@Param			preferred_start	query		int		false	"Preferred first serial"
//	@Success		200				{object}	APIResponse[apptreasury.RangeSuggestion]
//	@Failure		404				{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/treasury/bank-accounts/{id}/checkbooks/suggest-range [get]
func (h *CheckbookHandler) SuggestRange(c *gin.Context) {
	accountID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	length, err := strconv.ParseInt(c.Query("length"), 10, 64)
	if err != nil || length <= 0 {
		h.HandleError(c, shared.NewValidationError("length", "Must be a positive integer"))
		return
	}
	var preferred *int64
	if raw := c.Query("preferred_start"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 {
			h.HandleError(c, shared.NewValidationError("preferred_start", "Must be a positive integer"))
			return
		}
		preferred = &v
	}

	suggestion, err := h.checkbookService.SuggestRange(c.Request.Context(), accountID, length, preferred)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, suggestion)
}
