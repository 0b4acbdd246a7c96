package handler

import (
	"net/http"

	apptreasury "github.com/erp/treasury/internal/application/treasury"
	"github.com/erp/treasury/internal/domain/treasury"
	"github.com/erp/treasury/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CashFlowHandler serves cash-flow projections and bank ledgers
type CashFlowHandler struct {
	BaseHandler
	cashFlowService *apptreasury.CashFlowService
}

// NewCashFlowHandler creates a new CashFlowHandler
func NewCashFlowHandler(cashFlowService *apptreasury.CashFlowService) *CashFlowHandler {
	return &CashFlowHandler{cashFlowService: cashFlowService}
}

// CashFlowQuery holds the filters of the projection listing
type CashFlowQuery struct {
	dto.ListRequest
	From    string `form:"from"`
	To      string `form:"to"`
	Channel string `form:"channel" binding:"omitempty,oneof=C1 C2"`
	Sign    string `form:"sign" binding:"omitempty,oneof=inflow outflow"`
}

// LedgerQuery holds the filters of a bank ledger listing
type LedgerQuery struct {
	dto.ListRequest
	From string `form:"from"`
	To   string `form:"to"`
}

// CashFlowData is the payload of the projection listing
type CashFlowData struct {
	Items        []apptreasury.ProjectionResponse `json:"items"`
	TotalInflow  decimal.Decimal                  `json:"total_inflow" swaggertype:"string"`
	TotalOutflow decimal.Decimal                  `json:"total_outflow" swaggertype:"string"`
	Net          decimal.Decimal                  `json:"net" swaggertype:"string"`
}

// Projections godoc
//
//	@Summary		List pending cash events
//	@Description	Totals cover every projection matching the filter, not only the page
//	@Tags			cash-flow
//	@Produce		json
//	@Param			from	query		string	false	"First day (YYYY-MM-DD)"
//	@Param			to		query		string	false	"Last day (YYYY-MM-DD)"
//	@Param			channel	query		string	false	"C1 or C2"
//	@Param			sign	query		string	false	"inflow or outflow"
//	@Success		200		{object}	APIResponse[CashFlowData]
//	@Security		BearerAuth
//	@Router			/treasury/cash-flow [get]
func (h *CashFlowHandler) Projections(c *gin.Context) {
	var q CashFlowQuery
	if !h.bindQuery(c, &q) {
		return
	}

	filter := treasury.ProjectionFilter{Filter: q.ListRequest.Filter()}
	var err error
	if filter.From, err = parseDate("from", q.From); err != nil {
		h.HandleError(c, err)
		return
	}
	if filter.To, err = parseDate("to", q.To); err != nil {
		h.HandleError(c, err)
		return
	}
	if q.Channel != "" {
		ch := treasury.Channel(q.Channel)
		filter.Channel = &ch
	}
	if q.Sign != "" {
		sign := treasury.ProjectionSign(q.Sign)
		filter.Sign = &sign
	}

	summary, err := h.cashFlowService.Projections(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := summary.Items
	if items == nil {
		items = []apptreasury.ProjectionResponse{}
	}
	c.JSON(http.StatusOK, dto.Response{
		Success: true,
		Data: CashFlowData{
			Items:        items,
			TotalInflow:  summary.TotalInflow,
			TotalOutflow: summary.TotalOutflow,
			Net:          summary.Net,
		},
		Meta: &dto.Meta{
			Total:      summary.Total,
			Page:       summary.Page,
			PageSize:   summary.PageSize,
			TotalPages: summary.TotalPages,
		},
	})
}

// Ledger godoc
//
//	@Summary	Bank ledger of an account
//	@Tags		cash-flow
//	@Produce	json
//	@Param		id		path		string	true	"Bank account ID"	format(uuid)
//	@Param		from	query		string	false	"First day (YYYY-MM-DD)"
//	@Param		to		query		string	false	"Last day (YYYY-MM-DD)"
//	@Success	200		{object}	APIResponse[[]apptreasury.LedgerEntryResponse]
//	@Failure	404		{object}	ErrorResponse
//	@Security	BearerAuth
//	@Router		/treasury/bank-accounts/{id}/ledger [get]
func (h *CashFlowHandler) Ledger(c *gin.Context) {
	accountID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var q LedgerQuery
	if !h.bindQuery(c, &q) {
		return
	}

	filter := treasury.LedgerFilter{Filter: q.ListRequest.Filter(), BankAccountID: accountID}
	var err error
	if filter.From, err = parseDate("from", q.From); err != nil {
		h.HandleError(c, err)
		return
	}
	if filter.To, err = parseDate("to", q.To); err != nil {
		h.HandleError(c, err)
		return
	}

	page, err := h.cashFlowService.Ledger(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}
