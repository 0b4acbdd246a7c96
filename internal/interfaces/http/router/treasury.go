package router

import (
	"github.com/erp/treasury/internal/interfaces/http/handler"
)

// TreasuryHandlers bundles the handlers served under /treasury
type TreasuryHandlers struct {
	Checks     *handler.CheckHandler
	Checkbooks *handler.CheckbookHandler
	CashFlow   *handler.CashFlowHandler
}

// NewTreasuryRoutes builds the /treasury route group
func NewTreasuryRoutes(h TreasuryHandlers) *DomainGroup {
	treasury := NewDomainGroup("treasury", "/treasury")

	checks := treasury.Group("checks", "/checks")
	checks.POST("", h.Checks.Create).
		GET("", h.Checks.List).
		GET("/:id", h.Checks.GetByID).
		PUT("/:id", h.Checks.Update).
		DELETE("/:id", h.Checks.Delete).
		GET("/:id/movements", h.Checks.Movements).
		GET("/:id/projection", h.Checks.Projection).
		POST("/:id/deposit", h.Checks.Deposit).
		POST("/:id/accredit", h.Checks.Accredit).
		POST("/:id/reject", h.Checks.Reject).
		POST("/:id/apply-to-supplier", h.Checks.ApplyToSupplier).
		POST("/:id/deliver", h.Checks.Deliver).
		POST("/:id/clear", h.Checks.Clear).
		POST("/:id/void", h.Checks.Void)

	checkbooks := treasury.Group("checkbooks", "/checkbooks")
	checkbooks.POST("", h.Checkbooks.Create).
		GET("", h.Checkbooks.List).
		GET("/:id", h.Checkbooks.GetByID).
		PUT("/:id", h.Checkbooks.Update).
		DELETE("/:id", h.Checkbooks.Delete).
		POST("/:id/void", h.Checkbooks.Void).
		POST("/:id/block", h.Checkbooks.Block)

	accounts := treasury.Group("bank-accounts", "/bank-accounts")
	accounts.GET("/:id/checkbooks/suggest-range", h.Checkbooks.SuggestRange).
		GET("/:id/ledger", h.CashFlow.Ledger)

	treasury.GET("/cash-flow", h.CashFlow.Projections)

	return treasury
}
