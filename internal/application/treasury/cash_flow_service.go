package treasury

import (
	"context"

	"github.com/erp/treasury/internal/domain/shared"
	"github.com/erp/treasury/internal/domain/treasury"
	"github.com/shopspring/decimal"
)

// CashFlowSummary is a page of projections with the totals of the whole
// filtered set.
type CashFlowSummary struct {
	shared.Paginated[ProjectionResponse]
	TotalInflow  decimal.Decimal `json:"total_inflow"`
	TotalOutflow decimal.Decimal `json:"total_outflow"`
	Net          decimal.Decimal `json:"net"`
}

// CashFlowService serves the read side of projections and the bank ledger
type CashFlowService struct {
	serviceBase
	repos    TransactionalRepositories
	accounts BankAccountDirectory
}

// NewCashFlowService creates a new CashFlowService
func NewCashFlowService(repos TransactionalRepositories, accounts BankAccountDirectory, opts ...ServiceOption) *CashFlowService {
	return &CashFlowService{
		serviceBase: newServiceBase(nil, opts),
		repos:       repos,
		accounts:    accounts,
	}
}

// Projections lists the pending cash events ordered by date. Totals cover
// every row matching the filter, not only the returned page.
func (s *CashFlowService) Projections(ctx context.Context, filter treasury.ProjectionFilter) (*CashFlowSummary, error) {
	filter.Filter = filter.Filter.Normalize()
	rows, total, err := s.repos.Projections().FindAll(ctx, filter)
	if err != nil {
		return nil, s.fail(ctx, "cash_flow.list", err)
	}
	items := make([]ProjectionResponse, len(rows))
	for i := range rows {
		items[i] = ToProjectionResponse(&rows[i])
	}

	inflow, outflow, err := s.repos.Projections().Totals(ctx, filter)
	if err != nil {
		return nil, s.fail(ctx, "cash_flow.list", err)
	}

	return &CashFlowSummary{
		Paginated:    shared.NewPaginated(items, total, filter.Page, filter.PageSize),
		TotalInflow:  inflow,
		TotalOutflow: outflow,
		Net:          inflow.Sub(outflow),
	}, nil
}

// Ledger lists the bank ledger lines of an account
func (s *CashFlowService) Ledger(ctx context.Context, filter treasury.LedgerFilter) (*shared.Paginated[LedgerEntryResponse], error) {
	if s.accounts != nil {
		if _, err := s.accounts.FindBankAccount(ctx, filter.BankAccountID); err != nil {
			return nil, s.fail(ctx, "ledger.list", err)
		}
	}
	filter.Filter = filter.Filter.Normalize()
	entries, total, err := s.repos.Ledger().FindAll(ctx, filter)
	if err != nil {
		return nil, s.fail(ctx, "ledger.list", err)
	}
	items := make([]LedgerEntryResponse, len(entries))
	for i := range entries {
		items[i] = ToLedgerEntryResponse(&entries[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}
