package handler

import (
	apptreasury "github.com/erp/treasury/internal/application/treasury"
	"github.com/erp/treasury/internal/domain/treasury"
	"github.com/erp/treasury/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CheckHandler handles check registry endpoints
type CheckHandler struct {
	BaseHandler
	checkService *apptreasury.CheckService
}

// NewCheckHandler creates a new CheckHandler
func NewCheckHandler(checkService *apptreasury.CheckService) *CheckHandler {
	return &CheckHandler{checkService: checkService}
}

// CreateCheckRequest represents a request to register a check
//
//	@Description	Issued checks name a checkbook and may omit serial_number to take the next free serial
type CreateCheckRequest struct {
	Direction              string          `json:"direction" binding:"required,oneof=received issued" example:"received"`
	Channel                string          `json:"channel" binding:"required,oneof=C1 C2" example:"C1"`
	Format                 string          `json:"format" binding:"required,oneof=physical electronic" example:"physical"`
	BankID                 string          `json:"bank_id" binding:"omitempty,uuid"`
	CheckbookID            string          `json:"checkbook_id" binding:"omitempty,uuid"`
	SerialNumber           int64           `json:"serial_number" binding:"gte=0" example:"10000"`
	Amount                 decimal.Decimal `json:"amount" binding:"decimal_gte0" swaggertype:"string" example:"1500.00"`
	IssueDate              string          `json:"issue_date" example:"2026-03-01"`
	DueDate                string          `json:"due_date" example:"2026-04-01"`
	ExpectedCollectionDate string          `json:"expected_collection_date" example:"2026-04-02"`
	CustomerID             string          `json:"customer_id" binding:"omitempty,uuid"`
	SupplierID             string          `json:"supplier_id" binding:"omitempty,uuid"`
	SaleID                 string          `json:"sale_id" binding:"omitempty,uuid"`
	PurchaseID             string          `json:"purchase_id" binding:"omitempty,uuid"`
	PayeeName              string          `json:"payee_name" binding:"max=200"`
	Notes                  string          `json:"notes" binding:"max=2000"`
}

// UpdateCheckRequest replaces the editable fields of a check
type UpdateCheckRequest struct {
	Channel                string          `json:"channel" binding:"required,oneof=C1 C2"`
	Format                 string          `json:"format" binding:"required,oneof=physical electronic"`
	BankID                 string          `json:"bank_id" binding:"omitempty,uuid"`
	SerialNumber           int64           `json:"serial_number" binding:"gte=0"`
	Amount                 decimal.Decimal `json:"amount" binding:"decimal_gte0" swaggertype:"string"`
	IssueDate              string          `json:"issue_date"`
	DueDate                string          `json:"due_date"`
	ExpectedCollectionDate string          `json:"expected_collection_date"`
	CustomerID             string          `json:"customer_id" binding:"omitempty,uuid"`
	SupplierID             string          `json:"supplier_id" binding:"omitempty,uuid"`
	SaleID                 string          `json:"sale_id" binding:"omitempty,uuid"`
	PurchaseID             string          `json:"purchase_id" binding:"omitempty,uuid"`
	PayeeName              string          `json:"payee_name" binding:"max=200"`
	Notes                  string          `json:"notes" binding:"max=2000"`
}

// ListChecksQuery holds the filters of a check listing
type ListChecksQuery struct {
	dto.ListRequest
	Direction   string `form:"direction" binding:"omitempty,oneof=received issued"`
	State       string `form:"state"`
	Channel     string `form:"channel" binding:"omitempty,oneof=C1 C2"`
	BankID      string `form:"bank_id" binding:"omitempty,uuid"`
	CheckbookID string `form:"checkbook_id" binding:"omitempty,uuid"`
	DueFrom     string `form:"due_from"`
	DueTo       string `form:"due_to"`
	Search      string `form:"search" binding:"max=100"`
}

// DepositCheckRequest represents a deposit
type DepositCheckRequest struct {
	BankAccountID          string `json:"bank_account_id" binding:"required,uuid"`
	Date                   string `json:"date" example:"2026-03-10"`
	ExpectedCollectionDate string `json:"expected_collection_date" example:"2026-03-12"`
	Notes                  string `json:"notes" binding:"max=2000"`
}

// AccreditCheckRequest represents an accreditation
type AccreditCheckRequest struct {
	BankAccountID string `json:"bank_account_id" binding:"omitempty,uuid"`
	Date          string `json:"date"`
	Notes         string `json:"notes" binding:"max=2000"`
}

// RejectCheckRequest represents a rejection
type RejectCheckRequest struct {
	Reason string `json:"reason" binding:"required,max=500" example:"Insufficient funds"`
	Date   string `json:"date"`
}

// ApplyCheckRequest represents a supplier application
type ApplyCheckRequest struct {
	SupplierID string `json:"supplier_id" binding:"required,uuid"`
	PurchaseID string `json:"purchase_id" binding:"omitempty,uuid"`
	Date       string `json:"date"`
	Notes      string `json:"notes" binding:"max=2000"`
}

// DeliverCheckRequest represents a delivery
type DeliverCheckRequest struct {
	SupplierID string `json:"supplier_id" binding:"omitempty,uuid"`
	Recipient  string `json:"recipient" binding:"max=200"`
	Date       string `json:"date"`
	Notes      string `json:"notes" binding:"max=2000"`
}

// ClearCheckRequest represents a clearing
type ClearCheckRequest struct {
	Date  string `json:"date"`
	Notes string `json:"notes" binding:"max=2000"`
}

// VoidCheckRequest represents a void
type VoidCheckRequest struct {
	Reason string `json:"reason" binding:"required,max=500" example:"Printed with the wrong amount"`
	Date   string `json:"date"`
}

// Create godoc
//
//	@Summary	Register a check
//	@Tags		checks
//	@Accept		json
//	@Produce	json
//	@Param		request	body		CreateCheckRequest	true	"Check"
//	@Success	201		{object}	APIResponse[apptreasury.CheckResponse]
//	@Failure	400		{object}	ErrorResponse
//	@Failure	409		{object}	ErrorResponse
//	@Security	BearerAuth
//	@Router		/treasury/checks [post]
func (h *CheckHandler) Create(c *gin.Context) {
	var req CreateCheckRequest
	if !h.bindJSON(c, &req) {
		return
	}

	appReq, err := req.toApp()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	check, err := h.checkService.Create(c.Request.Context(), appReq, actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, check)
}

func (r CreateCheckRequest) toApp() (apptreasury.CreateCheckRequest, error) {
	out := apptreasury.CreateCheckRequest{
		Direction:    treasury.Direction(r.Direction),
		Channel:      treasury.Channel(r.Channel),
		Format:       treasury.Format(r.Format),
		SerialNumber: r.SerialNumber,
		Amount:       r.Amount,
		PayeeName:    r.PayeeName,
		Notes:        r.Notes,
	}
	var err error
	if out.BankID, err = parseOptionalID("bank_id", r.BankID); err != nil {
		return out, err
	}
	if out.CheckbookID, err = parseOptionalID("checkbook_id", r.CheckbookID); err != nil {
		return out, err
	}
	if out.CustomerID, err = parseOptionalID("customer_id", r.CustomerID); err != nil {
		return out, err
	}
	if out.SupplierID, err = parseOptionalID("supplier_id", r.SupplierID); err != nil {
		return out, err
	}
	if out.SaleID, err = parseOptionalID("sale_id", r.SaleID); err != nil {
		return out, err
	}
	if out.PurchaseID, err = parseOptionalID("purchase_id", r.PurchaseID); err != nil {
		return out, err
	}
	if out.IssueDate, err = parseDate("issue_date", r.IssueDate); err != nil {
		return out, err
	}
	if out.DueDate, err = parseDate("due_date", r.DueDate); err != nil {
		return out, err
	}
	if out.ExpectedCollectionDate, err = parseDate("expected_collection_date", r.ExpectedCollectionDate); err != nil {
		return out, err
	}
	return out, nil
}

// GetByID godoc
//
//	@Summary	Get a check
//	@Tags		checks
//	@Produce	json
//	@Param		id	path		string	true	"Check ID"	format(uuid)
//	@Success	200	{object}	APIResponse[apptreasury.CheckResponse]
//	@Failure	404	{object}	ErrorResponse
//	@Security	BearerAuth
//	@Router		/treasury/checks/{id} [get]
func (h *CheckHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	check, err := h.checkService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, check)
}

// List godoc
//
//	@Summary	List checks
//	@Tags		checks
//	@Produce	json
//	@Param		direction	query		string	false	"received or issued"
//	@Param		state		query		string	false	"Check state"
//	@Success	200			{object}	APIResponse[[]apptreasury.CheckResponse]
//	@Security	BearerAuth
//	@Router		/treasury/checks [get]
func (h *CheckHandler) List(c *gin.Context) {
	var q ListChecksQuery
	if !h.bindQuery(c, &q) {
		return
	}

	filter, err := q.toFilter()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page, err := h.checkService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

func (q ListChecksQuery) toFilter() (treasury.CheckFilter, error) {
	filter := treasury.CheckFilter{Filter: q.ListRequest.Filter(), Search: q.Search}
	if q.Direction != "" {
		d := treasury.Direction(q.Direction)
		filter.Direction = &d
	}
	if q.State != "" {
		s := treasury.CheckState(q.State)
		if !s.IsValid() {
			return filter, invalidEnum("state", q.State)
		}
		filter.State = &s
	}
	if q.Channel != "" {
		ch := treasury.Channel(q.Channel)
		filter.Channel = &ch
	}
	var err error
	if filter.BankID, err = parseOptionalID("bank_id", q.BankID); err != nil {
		return filter, err
	}
	if filter.CheckbookID, err = parseOptionalID("checkbook_id", q.CheckbookID); err != nil {
		return filter, err
	}
	if filter.DueFrom, err = parseDate("due_from", q.DueFrom); err != nil {
		return filter, err
	}
	if filter.DueTo, err = parseDate("due_to", q.DueTo); err != nil {
		return filter, err
	}
	return filter, nil
}

// Update godoc
//
//	@Summary		Update a check
//	@Description	Only non-terminal checks can be edited. The cash-flow projection is re-derived.
//	@Tags			checks
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Check ID"	format(uuid)
//	@Param			request	body		UpdateCheckRequest	true	"Check fields"
//	@Success		200		{object}	APIResponse[apptreasury.CheckResponse]
//	@Failure		409		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/treasury/checks/{id} [put]
func (h *CheckHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req UpdateCheckRequest
	if !h.bindJSON(c, &req) {
		return
	}

	appReq, err := req.toApp()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	check, err := h.checkService.Update(c.Request.Context(), id, appReq, actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, check)
}

func (r UpdateCheckRequest) toApp() (apptreasury.UpdateCheckRequest, error) {
	out := apptreasury.UpdateCheckRequest{
		Channel:      treasury.Channel(r.Channel),
		Format:       treasury.Format(r.Format),
		SerialNumber: r.SerialNumber,
		Amount:       r.Amount,
		PayeeName:    r.PayeeName,
		Notes:        r.Notes,
	}
	var err error
	if out.BankID, err = parseOptionalID("bank_id", r.BankID); err != nil {
		return out, err
	}
	if out.CustomerID, err = parseOptionalID("customer_id", r.CustomerID); err != nil {
		return out, err
	}
	if out.SupplierID, err = parseOptionalID("supplier_id", r.SupplierID); err != nil {
		return out, err
	}
	if out.SaleID, err = parseOptionalID("sale_id", r.SaleID); err != nil {
		return out, err
	}
	if out.PurchaseID, err = parseOptionalID("purchase_id", r.PurchaseID); err != nil {
		return out, err
	}
	if out.IssueDate, err = parseDate("issue_date", r.IssueDate); err != nil {
		return out, err
	}
	if out.DueDate, err = parseDate("due_date", r.DueDate); err != nil {
		return out, err
	}
	if out.ExpectedCollectionDate, err = parseDate("expected_collection_date", r.ExpectedCollectionDate); err != nil {
		return out, err
	}
	return out, nil
}

// Delete godoc
//
//	@Summary		Delete a check
//	@Description	A check with history needs force=true and is voided instead of deleted
//	@Tags			checks
//	@Produce		json
//	@Param			id		path		string	true	"Check ID"	format(uuid)
//	@Param			force	query		bool	false	"Void when the check has history"
//	@Param			reason	query		string	false	"Void reason"
//	@Success		200		{object}	APIResponse[apptreasury.DeleteCheckResult]
//	@Failure		409		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/treasury/checks/{id} [delete]
func (h *CheckHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	force, err := queryBool(c, "force")
	if err != nil {
		h.HandleError(c, err)
		return
	}

	result, err := h.checkService.Delete(c.Request.Context(), id, apptreasury.DeleteCheckRequest{
		Force:  force,
		Reason: c.Query("reason"),
	}, actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Movements godoc
//
//	@Summary	Movement history of a check
//	@Tags		checks
//	@Produce	json
//	@Param		id	path		string	true	"Check ID"	format(uuid)
//	@Success	200	{object}	APIResponse[[]apptreasury.MovementResponse]
//	@Security	BearerAuth
//	@Router		/treasury/checks/{id}/movements [get]
func (h *CheckHandler) Movements(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	movements, err := h.checkService.Movements(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, movements)
}

// Projection godoc
//
//	@Summary	Current cash-flow projection of a check
//	@Tags		checks
//	@Produce	json
//	@Param		id	path		string	true	"Check ID"	format(uuid)
//	@Success	200	{object}	APIResponse[apptreasury.ProjectionResponse]
//	@Failure	404	{object}	ErrorResponse
//	@Security	BearerAuth
//	@Router		/treasury/checks/{id}/projection [get]
func (h *CheckHandler) Projection(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	projection, err := h.checkService.Projection(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, projection)
}

// Deposit godoc
//
//	@Summary	Deposit a received check
//	@Tags		checks
//	@Accept		json
//	@Produce	json
//	@Param		id				path		string				true	"Check ID"	format(uuid)
//	@Param		Idempotency-Key	header		string				false	"Replay protection key"
//	@Param		request			body		DepositCheckRequest	true	"Deposit"
//	@Success	200				{object}	APIResponse[apptreasury.CheckResponse]
//	@Failure	422				{object}	ErrorResponse
//	@Failure	503				{object}	ErrorResponse
//	@Security	BearerAuth
//	@Router		/treasury/checks/{id}/deposit [post]
func (h *CheckHandler) Deposit(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req DepositCheckRequest
	if !h.bindJSON(c, &req) {
		return
	}

	account, err := parseOptionalID("bank_account_id", req.BankAccountID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	date, err := dateOrZero("date", req.Date)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	expected, err := parseDate("expected_collection_date", req.ExpectedCollectionDate)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	check, err := h.checkService.Deposit(c.Request.Context(), id, apptreasury.DepositRequest{
		BankAccountID:          *account,
		Date:                   date,
		ExpectedCollectionDate: expected,
		Notes:                  req.Notes,
	}, actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, check)
}

// Accredit godoc
//
//	@Summary		Accredit a deposited check
//	@Description	Without bank_account_id the account of the deposit is credited
//	@Tags			checks
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Check ID"	format(uuid)
//	@Param			request	body		AccreditCheckRequest	false	"Accreditation"
//	@Success		200		{object}	APIResponse[apptreasury.CheckResponse]
//	@Failure		422		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/treasury/checks/{id}/accredit [post]
func (h *CheckHandler) Accredit(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req AccreditCheckRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}

	account, err := parseOptionalID("bank_account_id", req.BankAccountID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	date, err := dateOrZero("date", req.Date)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	check, err := h.checkService.Accredit(c.Request.Context(), id, apptreasury.AccreditRequest{
		BankAccountID: account,
		Date:          date,
		Notes:         req.Notes,
	}, actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, check)
}

// Reject godoc
//
//	@Summary	Reject a deposited check
//	@Tags		checks
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string				true	"Check ID"	format(uuid)
//	@Param		request	body		RejectCheckRequest	true	"Rejection"
//	@Success	200		{object}	APIResponse[apptreasury.CheckResponse]
//	@Failure	422		{object}	ErrorResponse
//	@Security	BearerAuth
//	@Router		/treasury/checks/{id}/reject [post]
func (h *CheckHandler) Reject(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req RejectCheckRequest
	if !h.bindJSON(c, &req) {
		return
	}
	date, err := dateOrZero("date", req.Date)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	check, err := h.checkService.Reject(c.Request.Context(), id, apptreasury.RejectRequest{
		Reason: req.Reason,
		Date:   date,
	}, actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, check)
}

// ApplyToSupplier godoc
//
//	@Summary	Apply a check to a supplier
//	@Tags		checks
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string				true	"Check ID"	format(uuid)
//	@Param		request	body		ApplyCheckRequest	true	"Application"
//	@Success	200		{object}	APIResponse[apptreasury.CheckResponse]
//	@Failure	422		{object}	ErrorResponse
//	@Security	BearerAuth
//	@Router		/treasury/checks/{id}/apply-to-supplier [post]
func (h *CheckHandler) ApplyToSupplier(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req ApplyCheckRequest
	if !h.bindJSON(c, &req) {
		return
	}

	supplier, err := parseOptionalID("supplier_id", req.SupplierID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	purchase, err := parseOptionalID("purchase_id", req.PurchaseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	date, err := dateOrZero("date", req.Date)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	check, err := h.checkService.ApplyToSupplier(c.Request.Context(), id, apptreasury.ApplyToSupplierRequest{
		SupplierID: *supplier,
		PurchaseID: purchase,
		Date:       date,
		Notes:      req.Notes,
	}, actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, check)
}

// Deliver godoc
//
//	@Summary	Deliver a check
//	@Tags		checks
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string				true	"Check ID"	format(uuid)
//	@Param		request	body		DeliverCheckRequest	true	"Delivery"
//	@Success	200		{object}	APIResponse[apptreasury.CheckResponse]
//	@Failure	422		{object}	ErrorResponse
//	@Security	BearerAuth
//	@Router		/treasury/checks/{id}/deliver [post]
func (h *CheckHandler) Deliver(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req DeliverCheckRequest
	if !h.bindJSON(c, &req) {
		return
	}

	supplier, err := parseOptionalID("supplier_id", req.SupplierID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	date, err := dateOrZero("date", req.Date)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	check, err := h.checkService.Deliver(c.Request.Context(), id, apptreasury.DeliverRequest{
		SupplierID: supplier,
		Recipient:  req.Recipient,
		Date:       date,
		Notes:      req.Notes,
	}, actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, check)
}

// Clear godoc
//
//	@Summary	Clear a delivered issued check
//	@Tags		checks
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string				true	"Check ID"	format(uuid)
//	@Param		request	body		ClearCheckRequest	false	"Clearing"
//	@Success	200		{object}	APIResponse[apptreasury.CheckResponse]
//	@Failure	422		{object}	ErrorResponse
//	@Security	BearerAuth
//	@Router		/treasury/checks/{id}/clear [post]
func (h *CheckHandler) Clear(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req ClearCheckRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}
	date, err := dateOrZero("date", req.Date)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	check, err := h.checkService.Clear(c.Request.Context(), id, apptreasury.ClearRequest{
		Date:  date,
		Notes: req.Notes,
	}, actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, check)
}

// Void godoc
//
//	@Summary	Void a check
//	@Tags		checks
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string				true	"Check ID"	format(uuid)
//	@Param		request	body		VoidCheckRequest	true	"Void"
//	@Success	200		{object}	APIResponse[apptreasury.CheckResponse]
//	@Failure	422		{object}	ErrorResponse
//	@Security	BearerAuth
//	@Router		/treasury/checks/{id}/void [post]
func (h *CheckHandler) Void(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req VoidCheckRequest
	if !h.bindJSON(c, &req) {
		return
	}
	date, err := dateOrZero("date", req.Date)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	check, err := h.checkService.Void(c.Request.Context(), id, apptreasury.VoidRequest{
		Reason: req.Reason,
		Date:   date,
	}, actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, check)
}
