package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
	"github.com/polkiloo/storefront/internal/lock"
)

const (
	sweepLockKey        = "reconcile:sweep"
	defaultSweepBatch   = 1000
	defaultSweepLockTTL = 2 * time.Minute
)

// EngineOptions tunes the reconciliation engine.
type EngineOptions struct {
	SweepBatch   int
	SweepLockTTL time.Duration
	// SweepWorkers bounds how many orders a sweep matches concurrently.
	SweepWorkers int
}

// ReconciliationEngine turns payment signals into exactly one paid transition
// per order and cascades it to stock, promotion and sales counters, vouchers
// and the wallet ledger. Every side effect is a step recorded in the cascade
// ledger so partial failures can be retried without repeating settled steps.
type ReconciliationEngine struct {
	orders    repository.OrderRepository
	inventory repository.InventoryRepository
	vouchers  VoucherConsumer
	ledger    Ledger
	steps     repository.CascadeStepRepository
	bank      repository.BankTransactionRepository
	events    EventPublisher
	locker    lock.Locker
	logger    *slog.Logger
	opts      EngineOptions
}

// EngineDeps groups engine collaborators.
type EngineDeps struct {
	Orders    repository.OrderRepository
	Inventory repository.InventoryRepository
	Vouchers  VoucherConsumer
	Ledger    Ledger
	Steps     repository.CascadeStepRepository
	Bank      repository.BankTransactionRepository
	Events    EventPublisher
	Locker    lock.Locker
	Logger    *slog.Logger
}

// NewReconciliationEngine constructs ReconciliationEngine.
func NewReconciliationEngine(deps EngineDeps, opts EngineOptions) *ReconciliationEngine {
	if opts.SweepBatch <= 0 {
		opts.SweepBatch = defaultSweepBatch
	}
	if opts.SweepLockTTL <= 0 {
		opts.SweepLockTTL = defaultSweepLockTTL
	}
	if opts.SweepWorkers <= 0 {
		opts.SweepWorkers = 1
	}
	return &ReconciliationEngine{
		orders:    deps.Orders,
		inventory: deps.Inventory,
		vouchers:  deps.Vouchers,
		ledger:    deps.Ledger,
		steps:     deps.Steps,
		bank:      deps.Bank,
		events:    deps.Events,
		locker:    deps.Locker,
		logger:    deps.Logger,
		opts:      opts,
	}
}

// skipReason marks a step that cannot apply for a business reason.
type skipReason string

func (s skipReason) Error() string { return string(s) }

var skippable = []error{
	domainErrors.ErrInsufficientStock,
	domainErrors.ErrPromotionSoldOut,
	domainErrors.ErrVoucherUnavailable,
	domainErrors.ErrInsufficientBalance,
	domainErrors.ErrNotFound,
	domainErrors.ErrInvalidAmount,
}

func classify(key string, err error) model.StepResult {
	res := model.StepResult{Key: key, State: model.StepDone}
	if err == nil {
		return res
	}
	if errors.Is(err, domainErrors.ErrAlreadyExists) {
		res.Detail = "already applied"
		return res
	}
	res.Detail = err.Error()
	var skip skipReason
	if errors.As(err, &skip) {
		res.State = model.StepSkipped
		return res
	}
	for _, target := range skippable {
		if errors.Is(err, target) {
			res.State = model.StepSkipped
			return res
		}
	}
	res.State = model.StepFailed
	return res
}

func (e *ReconciliationEngine) ledgerStates(ctx context.Context, orderID string) (map[string]model.StepState, error) {
	steps, err := e.steps.List(ctx, orderID)
	if err != nil {
		return nil, err
	}
	states := make(map[string]model.StepState, len(steps))
	for _, s := range steps {
		states[s.Key] = s.State
	}
	return states, nil
}

// run executes one isolated step unless the ledger already settled it.
func (e *ReconciliationEngine) run(ctx context.Context, orderID string, key model.StepKey, states map[string]model.StepState, fn func() error) model.StepResult {
	name := key.String()
	if state, ok := states[name]; ok && state.Settled() {
		return model.StepResult{Key: name, State: state, Detail: "previously settled"}
	}

	res := classify(name, fn())
	logger := e.logger.With(slog.String("order", orderID), slog.String("step", name))
	switch res.State {
	case model.StepSkipped:
		logger.Warn("cascade step skipped", slog.String("reason", res.Detail))
	case model.StepFailed:
		logger.Error("cascade step failed", slog.String("error", res.Detail))
	}

	if err := e.steps.Record(ctx, orderID, name, res.State, res.Detail); err != nil {
		logger.Error("record cascade step", slog.String("error", err.Error()))
	}
	states[name] = res.State
	return res
}

func (e *ReconciliationEngine) runForward(ctx context.Context, order *model.Order) []model.StepResult {
	states, err := e.ledgerStates(ctx, order.ID)
	if err != nil {
		e.logger.Error("load cascade ledger", slog.String("order", order.ID), slog.String("error", err.Error()))
		return []model.StepResult{{Key: "ledger", State: model.StepFailed, Detail: err.Error()}}
	}

	results := make([]model.StepResult, 0, len(order.Items)*3+1)
	for i, item := range order.Items {
		if item.FromPromotion() {
			results = append(results, e.run(ctx, order.ID, model.StepKey{Kind: model.StepPromotion, Item: i}, states, func() error {
				return e.inventory.IncrementPromotionSold(ctx, item.PromotionVariantID, item.Quantity)
			}))
		}
		results = append(results, e.run(ctx, order.ID, model.StepKey{Kind: model.StepStock, Item: i}, states, func() error {
			return e.inventory.DecrementStock(ctx, item.VariantID, item.Quantity)
		}))
		results = append(results, e.run(ctx, order.ID, model.StepKey{Kind: model.StepSales, Item: i}, states, func() error {
			return e.inventory.IncrementSold(ctx, item.CatalogItemID, item.Quantity)
		}))
	}

	if order.VoucherCode != "" {
		results = append(results, e.run(ctx, order.ID, model.StepKey{Kind: model.StepVoucher, Item: -1}, states, func() error {
			outcome, err := e.vouchers.Consume(ctx, order.VoucherCode, order.Email, order.ID)
			if err != nil {
				return err
			}
			if outcome != model.ConsumeApplied {
				return skipReason("voucher " + string(outcome))
			}
			return nil
		}))
	}
	return results
}

// runReverse undoes forward steps that were applied and refunds the wallet.
func (e *ReconciliationEngine) runReverse(ctx context.Context, order *model.Order) []model.StepResult {
	states, err := e.ledgerStates(ctx, order.ID)
	if err != nil {
		e.logger.Error("load cascade ledger", slog.String("order", order.ID), slog.String("error", err.Error()))
		return []model.StepResult{{Key: "ledger", State: model.StepFailed, Detail: err.Error()}}
	}

	results := make([]model.StepResult, 0, len(order.Items)*2+1)
	for i, item := range order.Items {
		restock := model.StepKey{Kind: model.StepRestock, Item: i}
		if states[model.StepKey{Kind: model.StepStock, Item: i}.String()] == model.StepDone {
			results = append(results, e.run(ctx, order.ID, restock, states, func() error {
				return e.inventory.IncrementStock(ctx, item.VariantID, item.Quantity)
			}))
		} else {
			results = append(results, model.StepResult{Key: restock.String(), State: model.StepSkipped, Detail: "stock was not taken"})
		}

		unsales := model.StepKey{Kind: model.StepUnsales, Item: i}
		if states[model.StepKey{Kind: model.StepSales, Item: i}.String()] == model.StepDone {
			results = append(results, e.run(ctx, order.ID, unsales, states, func() error {
				return e.inventory.DecrementSold(ctx, item.CatalogItemID, item.Quantity)
			}))
		} else {
			results = append(results, model.StepResult{Key: unsales.String(), State: model.StepSkipped, Detail: "sales were not counted"})
		}
	}

	refund := model.StepKey{Kind: model.StepRefund, Item: -1}
	if order.Total <= 0 {
		return append(results, model.StepResult{Key: refund.String(), State: model.StepSkipped, Detail: "nothing to refund"})
	}
	results = append(results, e.run(ctx, order.ID, refund, states, func() error {
		_, err := e.ledger.Credit(ctx, model.LedgerRequest{
			Identity:      order.Email,
			Amount:        order.Total,
			Kind:          model.MovementRefund,
			Reference:     order.ID,
			PaymentMethod: order.PaymentMethod,
		})
		return err
	}))
	return results
}

func (e *ReconciliationEngine) publish(ctx context.Context, event model.OrderEvent) {
	if err := e.events.Publish(ctx, event); err != nil {
		e.logger.Warn("publish order event", slog.String("order", event.OrderID), slog.String("error", err.Error()))
	}
}

// ConfirmPayment marks the order paid and runs the forward cascade. Only the
// caller that wins the pending→paid claim runs the cascade; later callers get
// a report with Claimed=false. Cancelled orders fail with ErrInvalidTransition.
func (e *ReconciliationEngine) ConfirmPayment(ctx context.Context, orderID string, source model.PaymentSource) (*model.CascadeReport, error) {
	order, claimed, err := e.orders.ClaimPayment(ctx, orderID)
	if err != nil {
		return nil, err
	}
	report := &model.CascadeReport{Order: order, Claimed: claimed, Source: source}
	if !claimed {
		if order.Status == model.OrderStatusCancelled && !order.Paid() {
			return report, fmt.Errorf("confirm cancelled order %s: %w", orderID, domainErrors.ErrInvalidTransition)
		}
		e.logger.Info("payment already confirmed", slog.String("order", orderID), slog.String("source", string(source)))
		return report, nil
	}

	e.logger.Info("payment confirmed", slog.String("order", orderID), slog.String("source", string(source)))
	report.Steps = e.runForward(ctx, order)
	e.publish(ctx, orderEvent(model.OrderEventPaid, order, source))
	return report, nil
}

// UpdateStatus moves the order along its fulfilment lifecycle. Cancelling a
// paid order runs the reverse cascade; delivering an unpaid cash-on-delivery
// order confirms its payment.
func (e *ReconciliationEngine) UpdateStatus(ctx context.Context, orderID string, next model.OrderStatus) (*model.CascadeReport, error) {
	order, err := e.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransition(next) {
		return nil, fmt.Errorf("%s -> %s: %w", order.Status, next, domainErrors.ErrInvalidTransition)
	}

	updated, err := e.orders.UpdateStatus(ctx, orderID, order.Status, next)
	if err != nil {
		return nil, err
	}
	e.logger.Info("order status changed", slog.String("order", orderID),
		slog.String("from", string(order.Status)), slog.String("to", string(next)))

	report := &model.CascadeReport{Order: updated}
	switch {
	case next == model.OrderStatusCancelled:
		if updated.Paid() {
			report.Steps = e.runReverse(ctx, updated)
		}
		e.publish(ctx, orderEvent(model.OrderEventCancelled, updated, ""))
	case next == model.OrderStatusDelivered && updated.PaymentMethod == model.PaymentMethodCOD && !updated.Paid():
		e.publish(ctx, orderEvent(model.OrderEventStatusChanged, updated, ""))
		confirm, err := e.ConfirmPayment(ctx, orderID, model.PaymentSourceDelivery)
		if err != nil {
			return report, err
		}
		return confirm, nil
	default:
		e.publish(ctx, orderEvent(model.OrderEventStatusChanged, updated, ""))
	}
	return report, nil
}

// Reprocess retries cascade steps that failed or never ran for a paid order.
func (e *ReconciliationEngine) Reprocess(ctx context.Context, orderID string) (*model.CascadeReport, error) {
	order, err := e.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Paid() {
		return nil, fmt.Errorf("reprocess unpaid order %s: %w", orderID, domainErrors.ErrInvalidTransition)
	}

	report := &model.CascadeReport{Order: order}
	if order.Status == model.OrderStatusCancelled {
		report.Steps = e.runReverse(ctx, order)
	} else {
		report.Steps = e.runForward(ctx, order)
	}
	return report, nil
}

// HandleGatewayCallback confirms the order when the gateway reports success
// for at least the order total. Only unknown orders produce an error; other
// problems, underpayment included, are logged.
func (e *ReconciliationEngine) HandleGatewayCallback(ctx context.Context, cb model.GatewayCallback) error {
	logger := e.logger.With(slog.String("order", cb.OrderID), slog.String("transaction", cb.ExternalTransactionID))

	order, err := e.orders.GetByID(ctx, cb.OrderID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return err
		}
		logger.Error("load order for gateway callback", slog.String("error", err.Error()))
		return nil
	}

	if cb.ResultCode != 0 {
		logger.Info("gateway reported unsuccessful payment", slog.Int("result_code", cb.ResultCode))
		return nil
	}
	switch {
	case cb.Amount != 0 && cb.Amount < order.Total:
		logger.Warn("gateway amount below order total, payment left pending",
			slog.Int64("amount", cb.Amount), slog.Int64("total", order.Total))
		return nil
	case cb.Amount > order.Total:
		logger.Warn("gateway amount exceeds order total",
			slog.Int64("amount", cb.Amount), slog.Int64("total", order.Total))
	}

	if _, err := e.ConfirmPayment(ctx, cb.OrderID, model.PaymentSourceGateway); err != nil {
		logger.Error("confirm gateway payment", slog.String("error", err.Error()))
	}
	return nil
}

// MatchBankTransfer looks for an unmatched bank transaction settling the
// order, claims it and confirms the payment. matched reports that a fitting
// transaction was seen, updated that this call confirmed the order.
func (e *ReconciliationEngine) MatchBankTransfer(ctx context.Context, order model.Order) (matched, updated bool, err error) {
	if order.TransferToken == "" {
		return false, false, nil
	}

	candidates, err := e.bank.FindCandidates(ctx, order.Total, order.TransferToken)
	if err != nil {
		return false, false, err
	}

	for i := range candidates {
		tx := &candidates[i]
		if !tx.Matches(&order) {
			continue
		}
		matched = true

		claimed, err := e.bank.Claim(ctx, tx.ID, order.ID)
		if err != nil {
			return matched, false, err
		}
		if !claimed {
			continue
		}

		report, err := e.ConfirmPayment(ctx, order.ID, model.PaymentSourceBank)
		if err != nil || !report.Claimed {
			if relErr := e.bank.Release(ctx, tx.ID, order.ID); relErr != nil {
				e.logger.Error("release bank transaction", slog.String("transaction", tx.ID), slog.String("error", relErr.Error()))
			}
			return matched, false, err
		}
		e.logger.Info("bank transfer matched", slog.String("order", order.ID), slog.String("transaction", tx.ID))
		return matched, true, nil
	}
	return matched, false, nil
}

// ScanAndAutoConfirm sweeps pending orders against the bank transaction inbox.
// Only one sweep runs at a time across instances.
func (e *ReconciliationEngine) ScanAndAutoConfirm(ctx context.Context) (*model.SweepReport, error) {
	unlock, err := e.locker.Acquire(ctx, sweepLockKey, e.opts.SweepLockTTL)
	switch {
	case errors.Is(err, lock.ErrNotAcquired):
		return nil, domainErrors.ErrSweepInProgress
	case err != nil:
		e.logger.Warn("sweep lock unavailable, continuing", slog.String("error", err.Error()))
	default:
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				e.logger.Warn("release sweep lock", slog.String("error", err.Error()))
			}
		}()
	}

	var (
		report = &model.SweepReport{}
		mu     sync.Mutex
		wg     sync.WaitGroup
		jobs   = make(chan model.Order)
	)
	for i := 0; i < e.opts.SweepWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for order := range jobs {
				matched, updated, err := e.MatchBankTransfer(ctx, order)
				if err != nil {
					e.logger.Error("bank reconciliation failed", slog.String("order", order.ID), slog.String("error", err.Error()))
				}
				mu.Lock()
				switch {
				case err != nil:
					report.Errors++
				case !matched:
					report.Skipped++
				}
				if matched {
					report.Matched++
				}
				if updated {
					report.Updated++
				}
				mu.Unlock()
			}
		}()
	}

	listErr := e.dispatchPending(ctx, jobs, func() {
		mu.Lock()
		report.Scanned++
		mu.Unlock()
	})
	close(jobs)
	wg.Wait()
	if listErr != nil {
		return nil, listErr
	}

	e.logger.Info("bank sweep finished",
		slog.Int("scanned", report.Scanned), slog.Int("matched", report.Matched),
		slog.Int("updated", report.Updated), slog.Int("skipped", report.Skipped), slog.Int("errors", report.Errors))
	return report, nil
}

// dispatchPending pages through every pending transfer order by (created_at, id)
// and hands each one to the workers.
func (e *ReconciliationEngine) dispatchPending(ctx context.Context, jobs chan<- model.Order, scanned func()) error {
	var cursor model.PendingCursor
	for {
		page, err := e.orders.ListPendingTransfers(ctx, cursor, e.opts.SweepBatch)
		if err != nil {
			return err
		}
		for _, order := range page {
			if ctx.Err() != nil {
				return nil
			}
			scanned()
			jobs <- order
		}
		if len(page) < e.opts.SweepBatch {
			return nil
		}
		last := page[len(page)-1]
		cursor = model.PendingCursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
}

// PayWithWallet debits the customer wallet and confirms the order.
func (e *ReconciliationEngine) PayWithWallet(ctx context.Context, orderID, identity string) (*model.CascadeReport, error) {
	order, err := e.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Email != NormalizeEmail(identity) {
		return nil, domainErrors.ErrNotFound
	}
	if order.PaymentMethod != model.PaymentMethodWallet {
		return nil, domainErrors.ErrInvalidOrder
	}
	if order.Paid() {
		return &model.CascadeReport{Order: order, Source: model.PaymentSourceWallet}, nil
	}
	if order.Status == model.OrderStatusCancelled {
		return nil, fmt.Errorf("pay cancelled order %s: %w", orderID, domainErrors.ErrInvalidTransition)
	}

	if order.Total > 0 {
		_, err = e.ledger.Debit(ctx, model.LedgerRequest{
			Identity:      order.Email,
			Amount:        order.Total,
			Kind:          model.MovementOrderPayment,
			Reference:     order.ID,
			PaymentMethod: model.PaymentMethodWallet,
		})
		if err != nil && !errors.Is(err, domainErrors.ErrAlreadyExists) {
			return nil, err
		}
	}

	report, err := e.ConfirmPayment(ctx, orderID, model.PaymentSourceWallet)
	if errors.Is(err, domainErrors.ErrInvalidTransition) && order.Total > 0 {
		_, refundErr := e.ledger.Credit(ctx, model.LedgerRequest{
			Identity:      order.Email,
			Amount:        order.Total,
			Kind:          model.MovementRefund,
			Reference:     order.ID,
			PaymentMethod: model.PaymentMethodWallet,
		})
		if refundErr != nil && !errors.Is(refundErr, domainErrors.ErrAlreadyExists) {
			e.logger.Error("refund wallet payment of cancelled order", slog.String("order", orderID), slog.String("error", refundErr.Error()))
		}
	}
	return report, err
}
