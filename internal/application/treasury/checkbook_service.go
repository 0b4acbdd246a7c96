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

// defaultCheckbookVoidReason is recorded when a forced delete turns into a void
const defaultCheckbookVoidReason = "Voided on delete request"

// CheckbookService manages checkbooks and their serial ranges. Range
// decisions are taken while every checkbook of the bank account is leased.
type CheckbookService struct {
	serviceBase
	repos    TransactionalRepositories
	accounts BankAccountDirectory
}

// NewCheckbookService creates a new CheckbookService
func NewCheckbookService(
	uow UnitOfWork,
	repos TransactionalRepositories,
	accounts BankAccountDirectory,
	opts ...ServiceOption,
) *CheckbookService {
	return &CheckbookService{
		serviceBase: newServiceBase(uow, opts),
		repos:       repos,
		accounts:    accounts,
	}
}

// Create creates a checkbook. Without an explicit range one of Length serials
// is suggested, starting at PreferredStart when it fits.
func (s *CheckbookService) Create(ctx context.Context, req CreateCheckbookRequest, actor *shared.Actor) (*CheckbookResponse, error) {
	const op = "checkbook.create"
	ctx, span := telemetry.StartServiceSpan(ctx, "checkbook", "create")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrBankAccountID, req.BankAccountID.String())

	account, err := lookupBankAccount(ctx, s.accounts, req.BankAccountID, "bank_account_id")
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, s.fail(ctx, op, err)
	}

	var created *treasury.Checkbook
	err = s.uow.Execute(ctx, func(repos TransactionalRepositories) error {
		ranges, err := repos.Checkbooks().LockRangesByBankAccount(ctx, account.ID)
		if err != nil {
			return err
		}

		start, end := req.RangeStart, req.RangeEnd
		if start == 0 && end == 0 {
			suggested, err := treasury.SuggestRange(ranges, req.Length, req.PreferredStart)
			if err != nil {
				return err
			}
			start, end = suggested.Start, suggested.End
		}

		book, err := treasury.NewCheckbook(treasury.CheckbookInput{
			BankAccountID: account.ID,
			BankID:        account.BankID,
			Description:   req.Description,
			RangeStart:    start,
			RangeEnd:      end,
			NextNumber:    req.NextNumber,
		}, actor)
		if err != nil {
			return err
		}
		if other, ok := treasury.FindOverlap(ranges, start, end, uuid.Nil); ok {
			return treasury.NewOverlapError(start, end, other)
		}
		if err := repos.Checkbooks().Create(ctx, book); err != nil {
			return err
		}
		created = book
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, s.fail(ctx, op, err)
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrCheckbookID, created.ID.String())
	telemetry.SetOK(span)
	s.succeed(ctx, op, actor,
		fmt.Sprintf("Created checkbook [%d,%d] for account %s", created.RangeStart, created.RangeEnd, account.Name),
		zap.String("checkbook_id", created.ID.String()),
		zap.String("bank_account_id", created.BankAccountID.String()),
	)
	resp := ToCheckbookResponse(created)
	return &resp, nil
}

// Update edits description and range. Serials already issued from the
// checkbook must stay inside the new range and below the cursor.
func (s *CheckbookService) Update(ctx context.Context, id uuid.UUID, req UpdateCheckbookRequest, actor *shared.Actor) (*CheckbookResponse, error) {
	const op = "checkbook.update"
	ctx, span := telemetry.StartServiceSpan(ctx, "checkbook", "update")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrCheckbookID, id.String())

	var updated *treasury.Checkbook
	err := s.uow.Execute(ctx, func(repos TransactionalRepositories) error {
		current, err := repos.Checkbooks().FindByID(ctx, id)
		if err != nil {
			return err
		}
		// Lease the whole account first, always in range order, then re-read.
		ranges, err := repos.Checkbooks().LockRangesByBankAccount(ctx, current.BankAccountID)
		if err != nil {
			return err
		}
		book, err := repos.Checkbooks().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		minSerial, maxSerial, found, err := repos.Checks().SerialBoundsByCheckbook(ctx, id)
		if err != nil {
			return err
		}
		if found && (req.RangeStart > minSerial || req.RangeEnd < maxSerial) {
			return shared.NewConflictError(treasury.ReasonIssuedOutside,
				fmt.Sprintf("Checks numbered %d to %d were already issued from this checkbook", minSerial, maxSerial),
				map[string]any{
					"checkbook_id": id.String(),
					"min_serial":   minSerial,
					"max_serial":   maxSerial,
				})
		}

		var lastIssued int64
		if found {
			lastIssued = maxSerial
		}
		if err := book.Update(treasury.CheckbookInput{
			Description: req.Description,
			RangeStart:  req.RangeStart,
			RangeEnd:    req.RangeEnd,
			NextNumber:  req.NextNumber,
			LastIssued:  lastIssued,
		}, actor); err != nil {
			return err
		}
		if other, ok := treasury.FindOverlap(ranges, book.RangeStart, book.RangeEnd, book.ID); ok {
			return treasury.NewOverlapError(book.RangeStart, book.RangeEnd, other)
		}
		if err := repos.Checkbooks().Save(ctx, book); err != nil {
			return err
		}
		updated = book
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, s.fail(ctx, op, err)
	}

	telemetry.SetOK(span)
	s.succeed(ctx, op, actor,
		fmt.Sprintf("Updated checkbook range to [%d,%d]", updated.RangeStart, updated.RangeEnd),
		zap.String("checkbook_id", updated.ID.String()),
	)
	resp := ToCheckbookResponse(updated)
	return &resp, nil
}

// Delete removes a checkbook with no checks. With dependent checks it is
// blocked unless forced, and a forced delete voids the checkbook instead.
func (s *CheckbookService) Delete(ctx context.Context, id uuid.UUID, req DeleteCheckbookRequest, actor *shared.Actor) (*DeleteCheckbookResult, error) {
	const op = "checkbook.delete"
	ctx, span := telemetry.StartServiceSpan(ctx, "checkbook", "delete")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrCheckbookID, id.String(),
		"force", req.Force,
	)

	result := &DeleteCheckbookResult{}
	var target *treasury.Checkbook
	err := s.uow.Execute(ctx, func(repos TransactionalRepositories) error {
		book, err := repos.Checkbooks().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		target = book

		checks, err := repos.Checks().CountByCheckbook(ctx, id)
		if err != nil {
			return err
		}
		if checks == 0 {
			if err := repos.Checkbooks().Delete(ctx, id); err != nil {
				return err
			}
			result.Deleted = true
			return nil
		}

		if !req.Force {
			return shared.NewDependencyBlockedError(
				fmt.Sprintf("Checkbook has %d checks; deleting it requires force and voids it instead", checks),
				map[string]any{"checkbook_id": id.String(), "check_count": checks})
		}
		reason := req.Reason
		if reason == "" {
			reason = defaultCheckbookVoidReason
		}
		if err := book.Void(reason, actor); err != nil {
			return err
		}
		if err := repos.Checkbooks().Save(ctx, book); err != nil {
			return err
		}
		result.Voided = true
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, s.fail(ctx, op, err)
	}

	telemetry.SetOK(span)
	if result.Voided {
		resp := ToCheckbookResponse(target)
		result.Checkbook = &resp
		s.succeed(ctx, op, actor,
			fmt.Sprintf("Voided checkbook [%d,%d] on forced delete", target.RangeStart, target.RangeEnd),
			zap.String("checkbook_id", id.String()),
		)
		return result, nil
	}
	s.succeed(ctx, op, actor,
		fmt.Sprintf("Deleted checkbook [%d,%d]", target.RangeStart, target.RangeEnd),
		zap.String("checkbook_id", id.String()),
	)
	return result, nil
}

// Void retires a checkbook. Its range stays occupied.
func (s *CheckbookService) Void(ctx context.Context, id uuid.UUID, reason string, actor *shared.Actor) (*CheckbookResponse, error) {
	return s.changeState(ctx, id, "void", actor, func(b *treasury.Checkbook) error {
		return b.Void(reason, actor)
	})
}

// Block stops a checkbook from issuing serials
func (s *CheckbookService) Block(ctx context.Context, id uuid.UUID, reason string, actor *shared.Actor) (*CheckbookResponse, error) {
	return s.changeState(ctx, id, "block", actor, func(b *treasury.Checkbook) error {
		return b.Block(reason, actor)
	})
}

func (s *CheckbookService) changeState(ctx context.Context, id uuid.UUID, action string, actor *shared.Actor, apply func(*treasury.Checkbook) error) (*CheckbookResponse, error) {
	op := "checkbook." + action
	ctx, span := telemetry.StartServiceSpan(ctx, "checkbook", action)
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrCheckbookID, id.String())

	var changed *treasury.Checkbook
	err := s.uow.Execute(ctx, func(repos TransactionalRepositories) error {
		book, err := repos.Checkbooks().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := apply(book); err != nil {
			return err
		}
		if err := repos.Checkbooks().Save(ctx, book); err != nil {
			return err
		}
		changed = book
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, s.fail(ctx, op, err)
	}

	telemetry.SetOK(span)
	s.succeed(ctx, op, actor,
		fmt.Sprintf("Checkbook [%d,%d] is now %s", changed.RangeStart, changed.RangeEnd, changed.State),
		zap.String("checkbook_id", id.String()),
	)
	resp := ToCheckbookResponse(changed)
	return &resp, nil
}

// GetByID returns one checkbook
func (s *CheckbookService) GetByID(ctx context.Context, id uuid.UUID) (*CheckbookResponse, error) {
	book, err := s.repos.Checkbooks().FindByID(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, "checkbook.get", err)
	}
	resp := ToCheckbookResponse(book)
	return &resp, nil
}

// List returns a page of checkbooks
func (s *CheckbookService) List(ctx context.Context, filter treasury.CheckbookFilter) (*shared.Paginated[CheckbookResponse], error) {
	filter.Filter = filter.Filter.Normalize()
	books, total, err := s.repos.Checkbooks().FindAll(ctx, filter)
	if err != nil {
		return nil, s.fail(ctx, "checkbook.list", err)
	}
	items := make([]CheckbookResponse, len(books))
	for i := range books {
		items[i] = ToCheckbookResponse(&books[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// SuggestRange proposes a free range of length serials on the account. It
// takes no lease; Create re-validates under one.
func (s *CheckbookService) SuggestRange(ctx context.Context, bankAccountID uuid.UUID, length int64, preferredStart *int64) (*RangeSuggestion, error) {
	const op = "checkbook.suggest_range"
	ctx, span := telemetry.StartServiceSpan(ctx, "checkbook", "suggest_range")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrBankAccountID, bankAccountID.String(),
		"length", length,
	)

	if _, err := lookupBankAccount(ctx, s.accounts, bankAccountID, "bank_account_id"); err != nil {
		telemetry.RecordError(span, err)
		return nil, s.fail(ctx, op, err)
	}
	ranges, err := s.repos.Checkbooks().FindRangesByBankAccount(ctx, bankAccountID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, s.fail(ctx, op, err)
	}
	r, err := treasury.SuggestRange(ranges, length, preferredStart)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, s.fail(ctx, op, err)
	}
	telemetry.SetOK(span)
	return &RangeSuggestion{
		BankAccountID: bankAccountID,
		RangeStart:    r.Start,
		RangeEnd:      r.End,
		Length:        r.Len(),
	}, nil
}
