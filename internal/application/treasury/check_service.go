package treasury

import (
	"context"
	"fmt"

	"github.com/erp/treasury/internal/domain/shared"
	"github.com/erp/treasury/internal/domain/treasury"
	"github.com/erp/treasury/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// defaultDeleteVoidReason is recorded when a forced delete turns into a void
// and the caller gave no reason.
const defaultDeleteVoidReason = "Voided on delete request"

// CheckService runs the check lifecycle: registration, edits, transitions and
// deletion. Every mutation runs inside one unit of work holding the check row
// lease, so state, movement log, projection and ledger commit together.
type CheckService struct {
	serviceBase
	repos    TransactionalRepositories
	accounts BankAccountDirectory
	partners PartnerDirectory
}

// NewCheckService creates a new CheckService. repos serves reads outside a
// unit of work.
func NewCheckService(
	uow UnitOfWork,
	repos TransactionalRepositories,
	accounts BankAccountDirectory,
	partners PartnerDirectory,
	opts ...ServiceOption,
) *CheckService {
	return &CheckService{
		serviceBase: newServiceBase(uow, opts),
		repos:       repos,
		accounts:    accounts,
		partners:    partners,
	}
}

// Create registers a new check. Issued checks take their bank and, unless
// given, their serial from the checkbook, whose row is leased while the
// cursor moves.
func (s *CheckService) Create(ctx context.Context, req CreateCheckRequest, actor *shared.Actor) (*CheckResponse, error) {
	const op = "check.create"
	ctx, span := telemetry.StartServiceSpan(ctx, "check", "create")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrDirection, string(req.Direction),
		telemetry.SpanAttrAmount, req.Amount.String(),
	)

	if err := verifyPartners(ctx, s.partners, req.CustomerID, req.SupplierID); err != nil {
		telemetry.RecordError(span, err)
		return nil, s.fail(ctx, op, err)
	}

	var created *treasury.Check
	err := s.uow.Execute(ctx, func(repos TransactionalRepositories) error {
		in := treasury.NewCheckInput{
			Direction:    req.Direction,
			CheckDetails: createDetails(req),
		}

		if req.Direction == treasury.DirectionIssued && nonNilID(req.CheckbookID) != nil {
			book, err := repos.Checkbooks().FindByIDForUpdate(ctx, *req.CheckbookID)
			if err != nil {
				return err
			}
			before := book.Version
			serial := req.SerialNumber
			if serial == 0 {
				if serial, err = book.AssignSerial(actor); err != nil {
					return err
				}
			} else if err := book.ReserveSerial(serial, actor); err != nil {
				return err
			}
			if book.Version != before {
				if err := repos.Checkbooks().Save(ctx, book); err != nil {
					return err
				}
			}
			bookID := book.ID
			in.CheckbookID = &bookID
			in.BankID = book.BankID
			in.SerialNumber = serial
		}

		c, movement, err := treasury.NewCheck(in, actor)
		if err != nil {
			return err
		}
		if err := ensureUniqueIdentity(ctx, repos.Checks(), c.BankID, c.SerialNumber, c.Format, uuid.Nil); err != nil {
			return err
		}
		if err := repos.Checks().Create(ctx, c); err != nil {
			return err
		}
		if err := repos.Movements().Append(ctx, movement); err != nil {
			return err
		}
		if err := syncProjection(ctx, repos, c); err != nil {
			return err
		}
		created = c
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, s.fail(ctx, op, err)
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrCheckID, created.ID.String())
	telemetry.SetOK(span)
	s.succeed(ctx, op, actor,
		fmt.Sprintf("Registered %s check #%d for %s", created.Direction, created.SerialNumber, created.Amount.StringFixed(2)),
		zap.String("check_id", created.ID.String()),
	)
	resp := ToCheckResponse(created)
	return &resp, nil
}

// Update edits a non-terminal check and re-derives its projection from scratch
func (s *CheckService) Update(ctx context.Context, id uuid.UUID, req UpdateCheckRequest, actor *shared.Actor) (*CheckResponse, error) {
	const op = "check.update"
	ctx, span := telemetry.StartServiceSpan(ctx, "check", "update")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrCheckID, id.String())

	if err := verifyPartners(ctx, s.partners, req.CustomerID, req.SupplierID); err != nil {
		telemetry.RecordError(span, err)
		return nil, s.fail(ctx, op, err)
	}

	var updated *treasury.Check
	err := s.uow.Execute(ctx, func(repos TransactionalRepositories) error {
		c, err := repos.Checks().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if err := c.EnsureEditable(); err != nil {
			return err
		}
		d := updateDetails(req)
		if c.Direction == treasury.DirectionIssued {
			d.BankID = c.BankID
			if d.SerialNumber != c.SerialNumber && c.CheckbookID != nil {
				book, err := repos.Checkbooks().FindByID(ctx, *c.CheckbookID)
				if err != nil {
					return err
				}
				if !book.Range().Contains(d.SerialNumber) {
					return shared.NewValidationError("serial_number",
						fmt.Sprintf("Serial %d is outside checkbook range [%d,%d]", d.SerialNumber, book.RangeStart, book.RangeEnd)).
						WithDetail("reason", treasury.ReasonSerialOutOfBook)
				}
			}
		}
		if c.IdentityChanged(d) {
			if err := ensureUniqueIdentity(ctx, repos.Checks(), d.BankID, d.SerialNumber, d.Format, c.ID); err != nil {
				return err
			}
		}
		if err := c.Update(d, actor); err != nil {
			return err
		}
		if err := repos.Checks().Save(ctx, c); err != nil {
			return err
		}
		if err := syncProjection(ctx, repos, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, s.fail(ctx, op, err)
	}

	telemetry.SetOK(span)
	s.succeed(ctx, op, actor,
		fmt.Sprintf("Updated check #%d", updated.SerialNumber),
		zap.String("check_id", updated.ID.String()),
	)
	resp := ToCheckResponse(updated)
	return &resp, nil
}

// Delete physically removes a check that was never acted upon. A check with
// ledger history is never removed; one with movements beyond creation is
// voided instead, and only when the caller forces it.
func (s *CheckService) Delete(ctx context.Context, id uuid.UUID, req DeleteCheckRequest, actor *shared.Actor) (*DeleteCheckResult, error) {
	const op = "check.delete"
	ctx, span := telemetry.StartServiceSpan(ctx, "check", "delete")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrCheckID, id.String(),
		"force", req.Force,
	)

	result := &DeleteCheckResult{}
	var target *treasury.Check
	err := s.uow.Execute(ctx, func(repos TransactionalRepositories) error {
		c, err := repos.Checks().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		entries, err := repos.Ledger().CountByCheck(ctx, c.ID)
		if err != nil {
			return err
		}
		if entries > 0 {
			return shared.NewConflictError("LEDGER_LINKED",
				"Check has bank ledger entries and cannot be deleted",
				map[string]any{"check_id": c.ID.String(), "ledger_entries": entries})
		}

		movements, err := repos.Movements().CountByCheck(ctx, c.ID)
		if err != nil {
			return err
		}
		if movements > 1 {
			if !req.Force {
				return shared.NewDependencyBlockedError(
					fmt.Sprintf("Check has %d movements; deleting it requires force and voids it instead", movements),
					map[string]any{"check_id": c.ID.String(), "movement_count": movements})
			}
			reason := req.Reason
			if reason == "" {
				reason = defaultDeleteVoidReason
			}
			res, err := c.Void(treasury.VoidInput{Reason: reason}, actor)
			if err != nil {
				return err
			}
			if err := persistTransition(ctx, repos, c, res); err != nil {
				return err
			}
			result.Voided = true
			target = c
			return nil
		}

		if err := repos.Projections().Delete(ctx, c.ID); err != nil {
			return err
		}
		if err := repos.Movements().DeleteByCheck(ctx, c.ID); err != nil {
			return err
		}
		if err := repos.Checks().Delete(ctx, c.ID); err != nil {
			return err
		}
		result.Deleted = true
		target = c
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, s.fail(ctx, op, err)
	}

	telemetry.SetOK(span)
	if result.Voided {
		resp := ToCheckResponse(target)
		result.Check = &resp
		s.succeed(ctx, op, actor,
			fmt.Sprintf("Voided check #%d on forced delete", target.SerialNumber),
			zap.String("check_id", target.ID.String()),
		)
		return result, nil
	}
	s.succeed(ctx, op, actor,
		fmt.Sprintf("Deleted check #%d", target.SerialNumber),
		zap.String("check_id", target.ID.String()),
	)
	return result, nil
}

// GetByID returns one check
func (s *CheckService) GetByID(ctx context.Context, id uuid.UUID) (*CheckResponse, error) {
	c, err := s.repos.Checks().FindByID(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, "check.get", err)
	}
	resp := ToCheckResponse(c)
	return &resp, nil
}

// List returns a page of checks
func (s *CheckService) List(ctx context.Context, filter treasury.CheckFilter) (*shared.Paginated[CheckResponse], error) {
	filter.Filter = filter.Filter.Normalize()
	checks, total, err := s.repos.Checks().FindAll(ctx, filter)
	if err != nil {
		return nil, s.fail(ctx, "check.list", err)
	}
	items := make([]CheckResponse, len(checks))
	for i := range checks {
		items[i] = ToCheckResponse(&checks[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Movements returns the movement history of a check, oldest first
func (s *CheckService) Movements(ctx context.Context, id uuid.UUID) ([]MovementResponse, error) {
	if _, err := s.repos.Checks().FindByID(ctx, id); err != nil {
		return nil, s.fail(ctx, "check.movements", err)
	}
	movements, err := s.repos.Movements().ListByCheck(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, "check.movements", err)
	}
	out := make([]MovementResponse, len(movements))
	for i := range movements {
		out[i] = ToMovementResponse(&movements[i])
	}
	return out, nil
}

// Projection returns the current projection of a check, or nil when the
// check has no pending cash event.
func (s *CheckService) Projection(ctx context.Context, id uuid.UUID) (*ProjectionResponse, error) {
	if _, err := s.repos.Checks().FindByID(ctx, id); err != nil {
		return nil, s.fail(ctx, "check.projection", err)
	}
	p, err := s.repos.Projections().FindByCheck(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, "check.projection", err)
	}
	if p == nil {
		return nil, nil
	}
	resp := ToProjectionResponse(p)
	return &resp, nil
}

// Deposit sends a received check to a bank account
func (s *CheckService) Deposit(ctx context.Context, id uuid.UUID, req DepositRequest, actor *shared.Actor) (*CheckResponse, error) {
	account := req.BankAccountID
	prepare := func(ctx context.Context) error {
		_, err := lookupBankAccount(ctx, s.accounts, account, "bank_account_id")
		return err
	}
	return s.runTransition(ctx, id, treasury.TransitionDeposit, actor, prepare,
		func(ctx context.Context, _ TransactionalRepositories, c *treasury.Check) (*treasury.TransitionResult, error) {
			return c.Deposit(treasury.DepositInput{
				BankAccountID:          account,
				Date:                   req.Date,
				ExpectedCollectionDate: req.ExpectedCollectionDate,
				Notes:                  req.Notes,
			}, actor)
		})
}

// Accredit confirms a deposited check was credited. Without an explicit
// account the destination of the last deposit movement is used.
func (s *CheckService) Accredit(ctx context.Context, id uuid.UUID, req AccreditRequest, actor *shared.Actor) (*CheckResponse, error) {
	explicit := nonNilID(req.BankAccountID)
	prepare := func(ctx context.Context) error {
		if explicit == nil {
			return nil
		}
		_, err := lookupBankAccount(ctx, s.accounts, *explicit, "bank_account_id")
		return err
	}
	return s.runTransition(ctx, id, treasury.TransitionAccredit, actor, prepare,
		func(ctx context.Context, repos TransactionalRepositories, c *treasury.Check) (*treasury.TransitionResult, error) {
			account := derefID(explicit)
			if account == uuid.Nil && treasury.CanTransition(treasury.TransitionAccredit, c.Direction, c.State) {
				deposit, err := repos.Movements().LastByAction(ctx, c.ID, treasury.ActionDeposited)
				if err != nil {
					return nil, err
				}
				if deposit != nil && deposit.ReferenceKind == treasury.ReferenceBankAccount {
					account = derefID(deposit.ReferenceID)
				}
			}
			return c.Accredit(treasury.AccreditInput{
				BankAccountID: account,
				Date:          req.Date,
				Notes:         req.Notes,
			}, actor)
		})
}

// Reject records that the bank bounced a deposited check
func (s *CheckService) Reject(ctx context.Context, id uuid.UUID, req RejectRequest, actor *shared.Actor) (*CheckResponse, error) {
	return s.runTransition(ctx, id, treasury.TransitionReject, actor, nil,
		func(_ context.Context, _ TransactionalRepositories, c *treasury.Check) (*treasury.TransitionResult, error) {
			return c.Reject(treasury.RejectInput{Reason: req.Reason, Date: req.Date}, actor)
		})
}

// ApplyToSupplier hands the check to a supplier against a purchase
func (s *CheckService) ApplyToSupplier(ctx context.Context, id uuid.UUID, req ApplyToSupplierRequest, actor *shared.Actor) (*CheckResponse, error) {
	supplier := req.SupplierID
	prepare := func(ctx context.Context) error {
		return verifyPartners(ctx, s.partners, nil, &supplier)
	}
	return s.runTransition(ctx, id, treasury.TransitionApplyToSupplier, actor, prepare,
		func(_ context.Context, _ TransactionalRepositories, c *treasury.Check) (*treasury.TransitionResult, error) {
			return c.ApplyToSupplier(treasury.ApplyToSupplierInput{
				SupplierID: supplier,
				PurchaseID: nonNilID(req.PurchaseID),
				Date:       req.Date,
				Notes:      req.Notes,
			}, actor)
		})
}

// Deliver hands the physical check to a supplier or recipient
func (s *CheckService) Deliver(ctx context.Context, id uuid.UUID, req DeliverRequest, actor *shared.Actor) (*CheckResponse, error) {
	supplier := nonNilID(req.SupplierID)
	prepare := func(ctx context.Context) error {
		return verifyPartners(ctx, s.partners, nil, supplier)
	}
	return s.runTransition(ctx, id, treasury.TransitionDeliver, actor, prepare,
		func(_ context.Context, _ TransactionalRepositories, c *treasury.Check) (*treasury.TransitionResult, error) {
			return c.Deliver(treasury.DeliverInput{
				SupplierID: supplier,
				Recipient:  req.Recipient,
				Date:       req.Date,
				Notes:      req.Notes,
			}, actor)
		})
}

// Clear records that a delivered issued check was debited from the
// checkbook's bank account.
func (s *CheckService) Clear(ctx context.Context, id uuid.UUID, req ClearRequest, actor *shared.Actor) (*CheckResponse, error) {
	return s.runTransition(ctx, id, treasury.TransitionClear, actor, nil,
		func(ctx context.Context, repos TransactionalRepositories, c *treasury.Check) (*treasury.TransitionResult, error) {
			var account uuid.UUID
			if c.CheckbookID != nil && treasury.CanTransition(treasury.TransitionClear, c.Direction, c.State) {
				book, err := repos.Checkbooks().FindByID(ctx, *c.CheckbookID)
				if err != nil {
					return nil, err
				}
				account = book.BankAccountID
			}
			return c.Clear(treasury.ClearInput{
				BankAccountID: account,
				Date:          req.Date,
				Notes:         req.Notes,
			}, actor)
		})
}

// Void cancels a check, keeping its row and history
func (s *CheckService) Void(ctx context.Context, id uuid.UUID, req VoidRequest, actor *shared.Actor) (*CheckResponse, error) {
	return s.runTransition(ctx, id, treasury.TransitionVoid, actor, nil,
		func(_ context.Context, _ TransactionalRepositories, c *treasury.Check) (*treasury.TransitionResult, error) {
			return c.Void(treasury.VoidInput{Reason: req.Reason, Date: req.Date}, actor)
		})
}

type transitionFunc func(ctx context.Context, repos TransactionalRepositories, c *treasury.Check) (*treasury.TransitionResult, error)

// runTransition executes one transition: prepare runs collaborator lookups
// before the unit of work, apply runs against the leased check, and the
// check, movement, ledger entry and projection are written together.
func (s *CheckService) runTransition(
	ctx context.Context,
	id uuid.UUID,
	tr treasury.Transition,
	actor *shared.Actor,
	prepare func(ctx context.Context) error,
	apply transitionFunc,
) (*CheckResponse, error) {
	op := "check." + tr.String()
	ctx, span := telemetry.StartServiceSpan(ctx, "check", tr.String())
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrCheckID, id.String(),
		telemetry.SpanAttrTransition, tr.String(),
	)

	if prepare != nil {
		if err := prepare(ctx); err != nil {
			telemetry.RecordError(span, err)
			return nil, s.fail(ctx, op, err)
		}
	}

	var (
		updated *treasury.Check
		result  *treasury.TransitionResult
	)
	err := s.uow.Execute(ctx, func(repos TransactionalRepositories) error {
		c, err := repos.Checks().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		res, err := apply(ctx, repos, c)
		if err != nil {
			return err
		}
		if err := persistTransition(ctx, repos, c, res); err != nil {
			return err
		}
		updated, result = c, res
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, s.fail(ctx, op, err)
	}

	fields := []zap.Field{
		zap.String("check_id", updated.ID.String()),
		zap.String("from_state", result.Movement.FromState.String()),
		zap.String("to_state", result.Movement.ToState.String()),
	}
	if result.LedgerEntry != nil {
		fields = append(fields, zap.String("ledger_entry_id", result.LedgerEntry.ID.String()))
		telemetry.AddEvent(span, "ledger_entry_appended",
			"ledger_entry_id", result.LedgerEntry.ID.String(),
			telemetry.SpanAttrBankAccountID, result.LedgerEntry.BankAccountID.String(),
		)
	}
	telemetry.SetOK(span)
	s.succeed(ctx, op, actor,
		fmt.Sprintf("Check #%d %s -> %s", updated.SerialNumber, result.Movement.FromState, result.Movement.ToState),
		fields...,
	)
	resp := ToCheckResponse(updated)
	return &resp, nil
}

// ensureUniqueIdentity enforces the (bank, serial, format) key. self is the
// check being edited, or uuid.Nil on create.
func ensureUniqueIdentity(ctx context.Context, checks treasury.CheckRepository, bankID uuid.UUID, serial int64, format treasury.Format, self uuid.UUID) error {
	existing, err := checks.FindByIdentity(ctx, bankID, serial, format)
	if err != nil {
		return err
	}
	if existing == nil || existing.ID == self {
		return nil
	}
	return shared.NewConflictError("DUPLICATE_CHECK",
		fmt.Sprintf("A %s check #%d already exists for this bank", format, serial),
		map[string]any{
			"bank_id":           bankID.String(),
			"serial_number":     serial,
			"format":            string(format),
			"existing_check_id": existing.ID.String(),
		})
}

func createDetails(req CreateCheckRequest) treasury.CheckDetails {
	return treasury.CheckDetails{
		Channel:                req.Channel,
		Format:                 req.Format,
		BankID:                 derefID(req.BankID),
		SerialNumber:           req.SerialNumber,
		Amount:                 req.Amount,
		IssueDate:              req.IssueDate,
		DueDate:                req.DueDate,
		ExpectedCollectionDate: req.ExpectedCollectionDate,
		CustomerID:             nonNilID(req.CustomerID),
		SupplierID:             nonNilID(req.SupplierID),
		SaleID:                 nonNilID(req.SaleID),
		PurchaseID:             nonNilID(req.PurchaseID),
		PayeeName:              req.PayeeName,
		Notes:                  req.Notes,
	}
}

func updateDetails(req UpdateCheckRequest) treasury.CheckDetails {
	return treasury.CheckDetails{
		Channel:                req.Channel,
		Format:                 req.Format,
		BankID:                 derefID(req.BankID),
		SerialNumber:           req.SerialNumber,
		Amount:                 req.Amount,
		IssueDate:              req.IssueDate,
		DueDate:                req.DueDate,
		ExpectedCollectionDate: req.ExpectedCollectionDate,
		CustomerID:             nonNilID(req.CustomerID),
		SupplierID:             nonNilID(req.SupplierID),
		SaleID:                 nonNilID(req.SaleID),
		PurchaseID:             nonNilID(req.PurchaseID),
		PayeeName:              req.PayeeName,
		Notes:                  req.Notes,
	}
}
