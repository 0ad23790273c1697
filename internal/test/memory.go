package test

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

// MemoryStore is a mutex guarded in-memory implementation of every repository.
// Conditional writes mirror the SQL guards so concurrency properties can be exercised.
type MemoryStore struct {
	mu sync.Mutex

	// Fail injects an error for the named operation, e.g. "DecrementStock".
	Fail map[string]error
	// Now stamps created and updated times.
	Now func() time.Time

	users    map[string]*model.User
	nextUser int64

	orders     map[string]*model.Order
	dedupeKeys map[string]string

	variants   map[string]*model.Variant
	promotions map[string]*model.PromotionVariant
	catalog    map[string]*model.CatalogItem

	publicVouchers map[string]*model.PublicVoucher
	giftVouchers   map[string]*model.GiftVoucher
	usages         []model.VoucherUsage

	wallets    map[string]*model.Wallet
	nextWallet int64
	deposits   []model.Deposit
	movements  []model.Movement

	bank        map[string]*model.BankTransaction
	bankOrder   []string
	claimedFrom map[string]model.BankTransactionStatus

	steps map[string]map[string]*model.CascadeStep

	// Calls counts successful operations by name.
	Calls map[string]int
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		Fail:           make(map[string]error),
		Now:            time.Now,
		users:          make(map[string]*model.User),
		orders:         make(map[string]*model.Order),
		dedupeKeys:     make(map[string]string),
		variants:       make(map[string]*model.Variant),
		promotions:     make(map[string]*model.PromotionVariant),
		catalog:        make(map[string]*model.CatalogItem),
		publicVouchers: make(map[string]*model.PublicVoucher),
		giftVouchers:   make(map[string]*model.GiftVoucher),
		wallets:        make(map[string]*model.Wallet),
		bank:           make(map[string]*model.BankTransaction),
		claimedFrom:    make(map[string]model.BankTransactionStatus),
		steps:          make(map[string]map[string]*model.CascadeStep),
		Calls:          make(map[string]int),
	}
}

var _ repository.Factory = (*MemoryStore)(nil)

func (s *MemoryStore) Users() repository.UserRepository         { return memoryUsers{s} }
func (s *MemoryStore) Orders() repository.OrderRepository       { return memoryOrders{s} }
func (s *MemoryStore) Inventory() repository.InventoryRepository { return memoryInventory{s} }
func (s *MemoryStore) Vouchers() repository.VoucherRepository   { return memoryVouchers{s} }
func (s *MemoryStore) Wallets() repository.WalletRepository     { return memoryWallets{s} }
func (s *MemoryStore) CascadeSteps() repository.CascadeStepRepository {
	return memoryCascade{s}
}
func (s *MemoryStore) BankTransactions() repository.BankTransactionRepository {
	return memoryBank{s}
}

// SetFail configures an injected error under the store lock.
func (s *MemoryStore) SetFail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.Fail, op)
		return
	}
	s.Fail[op] = err
}

// CallCount returns how many times op succeeded.
func (s *MemoryStore) CallCount(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Calls[op]
}

// must be called with mu held.
func (s *MemoryStore) fail(op string) error {
	if err, ok := s.Fail[op]; ok {
		return err
	}
	return nil
}

func (s *MemoryStore) done(op string) {
	s.Calls[op]++
}

// Seeding helpers.

// PutCatalogItem stores a catalog item.
func (s *MemoryStore) PutCatalogItem(item model.CatalogItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog[item.ID] = &item
}

// PutVariant stores a variant.
func (s *MemoryStore) PutVariant(v model.Variant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.variants[v.ID] = &v
}

// PutPromotionVariant stores a promotion variant.
func (s *MemoryStore) PutPromotionVariant(p model.PromotionVariant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.promotions[p.ID] = &p
}

// PutOrder stores an order without dedupe bookkeeping.
func (s *MemoryStore) PutOrder(o model.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = cloneOrder(&o)
}

// PutPublicVoucher stores a public voucher.
func (s *MemoryStore) PutPublicVoucher(v model.PublicVoucher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publicVouchers[v.Code] = &v
}

// PutGiftVoucher stores a gift voucher.
func (s *MemoryStore) PutGiftVoucher(v model.GiftVoucher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.giftVouchers[v.Code] = &v
}

// PutBankTransaction stores a bank transaction.
func (s *MemoryStore) PutBankTransaction(tx model.BankTransaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bank[tx.ID]; !ok {
		s.bankOrder = append(s.bankOrder, tx.ID)
	}
	s.bank[tx.ID] = &tx
}

// Snapshot helpers.

// Variant returns a copy of the stored variant.
func (s *MemoryStore) Variant(id string) model.Variant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.variants[id]
}

// PromotionVariant returns a copy of the stored promotion variant.
func (s *MemoryStore) PromotionVariant(id string) model.PromotionVariant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.promotions[id]
}

// CatalogItem returns a copy of the stored catalog item.
func (s *MemoryStore) CatalogItem(id string) model.CatalogItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.catalog[id]
}

// PublicVoucher returns a copy of the stored public voucher.
func (s *MemoryStore) PublicVoucher(code string) model.PublicVoucher {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.publicVouchers[code]
}

// GiftVoucher returns a copy of the stored gift voucher.
func (s *MemoryStore) GiftVoucher(code string) model.GiftVoucher {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.giftVouchers[code]
}

// Order returns a copy of the stored order.
func (s *MemoryStore) Order(id string) model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *cloneOrder(s.orders[id])
}

// BankTransaction returns a copy of the stored transaction.
func (s *MemoryStore) BankTransaction(id string) model.BankTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.bank[id]
}

// Usages returns all recorded voucher usages.
func (s *MemoryStore) Usages() []model.VoucherUsage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.VoucherUsage(nil), s.usages...)
}

// Movements returns all wallet movements.
func (s *MemoryStore) Movements() []model.Movement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Movement(nil), s.movements...)
}

// Deposits returns all wallet deposits.
func (s *MemoryStore) Deposits() []model.Deposit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Deposit(nil), s.deposits...)
}

func cloneOrder(o *model.Order) *model.Order {
	c := *o
	c.Items = append([]model.OrderItem(nil), o.Items...)
	if o.PaidAt != nil {
		at := *o.PaidAt
		c.PaidAt = &at
	}
	return &c
}

// Users.

type memoryUsers struct{ s *MemoryStore }

func (r memoryUsers) Create(_ context.Context, email, passwordHash string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("CreateUser"); err != nil {
		return nil, err
	}
	if _, ok := r.s.users[email]; ok {
		return nil, domainErrors.ErrAlreadyExists
	}
	r.s.nextUser++
	u := &model.User{ID: r.s.nextUser, Email: email, PasswordHash: passwordHash, CreatedAt: r.s.Now()}
	r.s.users[email] = u
	c := *u
	return &c, nil
}

func (r memoryUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("GetUser"); err != nil {
		return nil, err
	}
	if u, ok := r.s.users[email]; ok {
		c := *u
		return &c, nil
	}
	return nil, domainErrors.ErrNotFound
}

func (r memoryUsers) GetByID(_ context.Context, id int64) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("GetUser"); err != nil {
		return nil, err
	}
	for _, u := range r.s.users {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

// Orders.

type memoryOrders struct{ s *MemoryStore }

func (r memoryOrders) Create(_ context.Context, order *model.Order, dedupeKey string) (*model.Order, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("CreateOrder"); err != nil {
		return nil, false, err
	}
	if id, ok := r.s.dedupeKeys[dedupeKey]; ok {
		if existing := r.s.orders[id]; existing != nil && existing.PaymentStatus == model.PaymentStatusPending &&
			existing.Status != model.OrderStatusCancelled {
			dup := r.findDuplicate(repository.DuplicateCriteria{Phone: order.Phone, Total: order.Total, PaymentMethod: order.PaymentMethod})
			if dup == nil {
				return nil, false, domainErrors.ErrNotFound
			}
			return cloneOrder(dup), false, nil
		}
	}
	if _, ok := r.s.orders[order.ID]; ok {
		return nil, false, domainErrors.ErrAlreadyExists
	}
	if order.TransferToken != "" {
		for _, o := range r.s.orders {
			open := o.PaymentStatus == model.PaymentStatusPending && o.Status != model.OrderStatusCancelled
			if open && o.TransferToken == order.TransferToken {
				return nil, false, domainErrors.ErrAlreadyExists
			}
		}
	}
	stored := cloneOrder(order)
	now := r.s.Now()
	stored.CreatedAt, stored.UpdatedAt = now, now
	r.s.orders[stored.ID] = stored
	r.s.dedupeKeys[dedupeKey] = stored.ID
	r.s.done("CreateOrder")
	return cloneOrder(stored), true, nil
}

func (r memoryOrders) GetByID(_ context.Context, id string) (*model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("GetOrder"); err != nil {
		return nil, err
	}
	if o, ok := r.s.orders[id]; ok {
		return cloneOrder(o), nil
	}
	return nil, domainErrors.ErrNotFound
}

func (r memoryOrders) findDuplicate(c repository.DuplicateCriteria) *model.Order {
	var found *model.Order
	for _, o := range r.s.orders {
		if o.Phone != c.Phone || o.Total != c.Total || o.PaymentMethod != c.PaymentMethod {
			continue
		}
		if o.PaymentStatus != model.PaymentStatusPending || o.Status == model.OrderStatusCancelled {
			continue
		}
		if !c.Since.IsZero() && o.CreatedAt.Before(c.Since) {
			continue
		}
		if found == nil || o.CreatedAt.Before(found.CreatedAt) {
			found = o
		}
	}
	return found
}

func (r memoryOrders) FindPendingDuplicate(_ context.Context, criteria repository.DuplicateCriteria) (*model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if dup := r.findDuplicate(criteria); dup != nil {
		return cloneOrder(dup), nil
	}
	return nil, domainErrors.ErrNotFound
}

func (r memoryOrders) ListByEmail(_ context.Context, email string) ([]model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []model.Order
	for _, o := range r.s.orders {
		if strings.EqualFold(o.Email, email) {
			result = append(result, *cloneOrder(o))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (r memoryOrders) ListPendingTransfers(_ context.Context, after model.PendingCursor, limit int) ([]model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("ListPendingTransfers"); err != nil {
		return nil, err
	}
	r.s.done("ListPendingTransfers")
	var result []model.Order
	for _, o := range r.s.orders {
		if o.PaymentStatus != model.PaymentStatusPending || o.Status == model.OrderStatusCancelled {
			continue
		}
		if o.TransferToken != "" && after.After(*o) {
			result = append(result, *cloneOrder(o))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r memoryOrders) ClaimPayment(_ context.Context, id string) (*model.Order, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("ClaimPayment"); err != nil {
		return nil, false, err
	}
	o, ok := r.s.orders[id]
	if !ok {
		return nil, false, domainErrors.ErrNotFound
	}
	if o.PaymentStatus != model.PaymentStatusPending || o.Status == model.OrderStatusCancelled {
		return cloneOrder(o), false, nil
	}
	now := r.s.Now()
	o.PaymentStatus = model.PaymentStatusPaid
	o.PaidAt = &now
	o.UpdatedAt = now
	r.s.done("ClaimPayment")
	return cloneOrder(o), true, nil
}

func (r memoryOrders) UpdateStatus(_ context.Context, id string, from, to model.OrderStatus) (*model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("UpdateStatus"); err != nil {
		return nil, err
	}
	o, ok := r.s.orders[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	if o.Status != from {
		return nil, domainErrors.ErrConcurrentUpdate
	}
	o.Status = to
	o.UpdatedAt = r.s.Now()
	r.s.done("UpdateStatus")
	return cloneOrder(o), nil
}

// Inventory.

type memoryInventory struct{ s *MemoryStore }

func (r memoryInventory) GetVariant(_ context.Context, id string) (*model.Variant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if v, ok := r.s.variants[id]; ok {
		c := *v
		return &c, nil
	}
	return nil, domainErrors.ErrNotFound
}

func (r memoryInventory) GetPromotionVariant(_ context.Context, id string) (*model.PromotionVariant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p, ok := r.s.promotions[id]; ok {
		c := *p
		return &c, nil
	}
	return nil, domainErrors.ErrNotFound
}

func (r memoryInventory) GetCatalogItem(_ context.Context, id string) (*model.CatalogItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if item, ok := r.s.catalog[id]; ok {
		c := *item
		return &c, nil
	}
	return nil, domainErrors.ErrNotFound
}

func (r memoryInventory) UpdateCatalogItem(_ context.Context, id string, name *string, price *int64) (*model.CatalogItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item, ok := r.s.catalog[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	if name != nil {
		item.Name = *name
	}
	if price != nil {
		item.Price = *price
	}
	item.UpdatedAt = r.s.Now()
	c := *item
	return &c, nil
}

func (r memoryInventory) counter(op string, qty int, apply func() error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail(op); err != nil {
		return err
	}
	if qty <= 0 {
		return domainErrors.ErrInvalidAmount
	}
	if err := apply(); err != nil {
		return err
	}
	r.s.done(op)
	return nil
}

func (r memoryInventory) DecrementStock(_ context.Context, variantID string, qty int) error {
	return r.counter("DecrementStock", qty, func() error {
		v, ok := r.s.variants[variantID]
		if !ok || v.Stock < qty {
			return domainErrors.ErrInsufficientStock
		}
		v.Stock -= qty
		return nil
	})
}

func (r memoryInventory) IncrementStock(_ context.Context, variantID string, qty int) error {
	return r.counter("IncrementStock", qty, func() error {
		v, ok := r.s.variants[variantID]
		if !ok {
			return domainErrors.ErrNotFound
		}
		v.Stock += qty
		return nil
	})
}

func (r memoryInventory) IncrementPromotionSold(_ context.Context, promotionVariantID string, qty int) error {
	return r.counter("IncrementPromotionSold", qty, func() error {
		p, ok := r.s.promotions[promotionVariantID]
		if !ok || p.Sold+qty > p.Quantity {
			return domainErrors.ErrPromotionSoldOut
		}
		p.Sold += qty
		return nil
	})
}

func (r memoryInventory) IncrementSold(_ context.Context, catalogItemID string, qty int) error {
	return r.counter("IncrementSold", qty, func() error {
		item, ok := r.s.catalog[catalogItemID]
		if !ok {
			return domainErrors.ErrNotFound
		}
		item.Sold += qty
		return nil
	})
}

func (r memoryInventory) DecrementSold(_ context.Context, catalogItemID string, qty int) error {
	return r.counter("DecrementSold", qty, func() error {
		item, ok := r.s.catalog[catalogItemID]
		if !ok {
			return domainErrors.ErrNotFound
		}
		item.Sold -= qty
		if item.Sold < 0 {
			item.Sold = 0
		}
		return nil
	})
}

// Vouchers.

type memoryVouchers struct{ s *MemoryStore }

func (r memoryVouchers) exists(code string) bool {
	_, public := r.s.publicVouchers[code]
	_, gift := r.s.giftVouchers[code]
	return public || gift
}

func (r memoryVouchers) clearPopup() {
	for _, v := range r.s.publicVouchers {
		v.Popup = false
	}
}

func (r memoryVouchers) CreatePublic(_ context.Context, v *model.PublicVoucher) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.exists(v.Code) {
		return domainErrors.ErrAlreadyExists
	}
	if v.Popup {
		r.clearPopup()
	}
	c := *v
	c.CreatedAt = r.s.Now()
	r.s.publicVouchers[v.Code] = &c
	return nil
}

func (r memoryVouchers) CreateGift(_ context.Context, v *model.GiftVoucher) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.exists(v.Code) {
		return domainErrors.ErrAlreadyExists
	}
	c := *v
	c.CreatedAt = r.s.Now()
	r.s.giftVouchers[v.Code] = &c
	return nil
}

func (r memoryVouchers) GetByCode(_ context.Context, code string) (model.Voucher, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("GetVoucher"); err != nil {
		return nil, err
	}
	if v, ok := r.s.publicVouchers[code]; ok {
		c := *v
		return &c, nil
	}
	if v, ok := r.s.giftVouchers[code]; ok {
		c := *v
		return &c, nil
	}
	return nil, domainErrors.ErrNotFound
}

func (r memoryVouchers) GetPopup(_ context.Context) (*model.PublicVoucher, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, v := range r.s.publicVouchers {
		if v.Popup {
			c := *v
			return &c, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

func (r memoryVouchers) SetPopup(_ context.Context, code string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.publicVouchers[code]
	if !ok || v.Remaining() <= 0 {
		return domainErrors.ErrVoucherUnavailable
	}
	r.clearPopup()
	v.Popup = true
	return nil
}

func (r memoryVouchers) HasUsed(_ context.Context, identity, code string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.usages {
		if u.Identity == identity && u.Code == code && u.Used {
			return true, nil
		}
	}
	return false, nil
}

func (r memoryVouchers) record(usage model.VoucherUsage) {
	usage.ID = int64(len(r.s.usages) + 1)
	usage.Used = true
	if usage.UsedAt.IsZero() {
		usage.UsedAt = r.s.Now()
	}
	r.s.usages = append(r.s.usages, usage)
}

func (r memoryVouchers) ConsumePublic(_ context.Context, usage model.VoucherUsage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("ConsumePublic"); err != nil {
		return err
	}
	v, ok := r.s.publicVouchers[usage.Code]
	if !ok || v.Used >= v.Quantity {
		return domainErrors.ErrVoucherUnavailable
	}
	v.Used++
	if v.Used >= v.Quantity {
		v.Popup = false
	}
	r.record(usage)
	r.s.done("ConsumePublic")
	return nil
}

func (r memoryVouchers) ConsumeGift(_ context.Context, usage model.VoucherUsage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("ConsumeGift"); err != nil {
		return err
	}
	v, ok := r.s.giftVouchers[usage.Code]
	if !ok || v.Used || v.Disabled {
		return domainErrors.ErrVoucherUnavailable
	}
	v.Used = true
	r.record(usage)
	r.s.done("ConsumeGift")
	return nil
}

func (r memoryVouchers) ListUsages(_ context.Context, identity string) ([]model.VoucherUsage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []model.VoucherUsage
	for _, u := range r.s.usages {
		if u.Identity == identity {
			result = append(result, u)
		}
	}
	return result, nil
}

// Wallets.

type memoryWallets struct{ s *MemoryStore }

func (r memoryWallets) wallet(identity string) *model.Wallet {
	w, ok := r.s.wallets[identity]
	if !ok {
		r.s.nextWallet++
		now := r.s.Now()
		w = &model.Wallet{ID: r.s.nextWallet, Identity: identity, CreatedAt: now, UpdatedAt: now}
		r.s.wallets[identity] = w
	}
	return w
}

func (r memoryWallets) GetOrCreate(_ context.Context, identity string) (*model.Wallet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("GetWallet"); err != nil {
		return nil, err
	}
	c := *r.wallet(identity)
	return &c, nil
}

func (r memoryWallets) Deposit(_ context.Context, identity string, amount int64, reference string) (*model.Wallet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if amount <= 0 {
		return nil, domainErrors.ErrInvalidAmount
	}
	w := r.wallet(identity)
	r.s.deposits = append(r.s.deposits, model.Deposit{
		ID: int64(len(r.s.deposits) + 1), WalletID: w.ID, Amount: amount, Reference: reference, CreatedAt: r.s.Now(),
	})
	w.Balance += amount
	w.UpdatedAt = r.s.Now()
	c := *w
	return &c, nil
}

func (r memoryWallets) move(op string, req model.LedgerRequest, signed int64) (*model.Wallet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail(op); err != nil {
		return nil, err
	}
	if req.Amount <= 0 {
		return nil, domainErrors.ErrInvalidAmount
	}
	w := r.wallet(req.Identity)
	if signed < 0 && w.Balance < req.Amount {
		return nil, domainErrors.ErrInsufficientBalance
	}
	if req.Reference != "" {
		for _, m := range r.s.movements {
			if m.WalletID == w.ID && m.Kind == req.Kind && m.Reference == req.Reference {
				return nil, domainErrors.ErrAlreadyExists
			}
		}
	}
	r.s.movements = append(r.s.movements, model.Movement{
		ID:            int64(len(r.s.movements) + 1),
		WalletID:      w.ID,
		Amount:        signed,
		Kind:          req.Kind,
		Reference:     req.Reference,
		PaymentMethod: req.PaymentMethod,
		CreatedAt:     r.s.Now(),
	})
	w.Balance += signed
	w.UpdatedAt = r.s.Now()
	r.s.done(op)
	c := *w
	return &c, nil
}

func (r memoryWallets) Credit(_ context.Context, req model.LedgerRequest) (*model.Wallet, error) {
	return r.move("Credit", req, req.Amount)
}

func (r memoryWallets) Debit(_ context.Context, req model.LedgerRequest) (*model.Wallet, error) {
	return r.move("Debit", req, -req.Amount)
}

func (r memoryWallets) History(_ context.Context, identity string) ([]model.LedgerEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.wallets[identity]
	if !ok {
		return nil, nil
	}
	var result []model.LedgerEntry
	for _, d := range r.s.deposits {
		if d.WalletID == w.ID {
			result = append(result, model.LedgerEntry{Type: model.LedgerEntryDeposit, Amount: d.Amount, Reference: d.Reference, CreatedAt: d.CreatedAt})
		}
	}
	for _, m := range r.s.movements {
		if m.WalletID == w.ID {
			result = append(result, model.LedgerEntry{
				Type: model.LedgerEntryMovement, Amount: m.Amount, Kind: m.Kind, Reference: m.Reference,
				PaymentMethod: m.PaymentMethod, CreatedAt: m.CreatedAt,
			})
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

// Bank transactions.

type memoryBank struct{ s *MemoryStore }

func (r memoryBank) Import(_ context.Context, txs []model.BankTransaction) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("ImportBank"); err != nil {
		return 0, err
	}
	inserted := 0
	for _, tx := range txs {
		known := false
		for _, existing := range r.s.bank {
			if existing.ExternalID == tx.ExternalID {
				known = true
				break
			}
		}
		if known {
			continue
		}
		if tx.ID == "" {
			tx.ID = fmt.Sprintf("bank-%d", len(r.s.bankOrder)+1)
		}
		stored := tx
		r.s.bank[tx.ID] = &stored
		r.s.bankOrder = append(r.s.bankOrder, tx.ID)
		inserted++
	}
	return inserted, nil
}

func (r memoryBank) FindCandidates(_ context.Context, amount int64, token string) ([]model.BankTransaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("FindCandidates"); err != nil {
		return nil, err
	}
	var result []model.BankTransaction
	for _, id := range r.s.bankOrder {
		tx := r.s.bank[id]
		if tx.Amount != amount || tx.Status == model.BankTransactionMatched {
			continue
		}
		if !strings.Contains(strings.ToLower(tx.Description), strings.ToLower(token)) {
			continue
		}
		result = append(result, *tx)
	}
	return result, nil
}

func (r memoryBank) Claim(_ context.Context, id, orderID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("ClaimBank"); err != nil {
		return false, err
	}
	tx, ok := r.s.bank[id]
	if !ok || tx.Status == model.BankTransactionMatched {
		return false, nil
	}
	now := r.s.Now()
	r.s.claimedFrom[id] = tx.Status
	tx.Status = model.BankTransactionMatched
	tx.OrderID = orderID
	tx.MatchedAt = &now
	r.s.done("ClaimBank")
	return true, nil
}

func (r memoryBank) Release(_ context.Context, id, orderID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	tx, ok := r.s.bank[id]
	if !ok || tx.OrderID != orderID || tx.Status != model.BankTransactionMatched {
		return nil
	}
	tx.Status = model.BankTransactionCompleted
	if prev, ok := r.s.claimedFrom[id]; ok && prev != "" {
		tx.Status = prev
	}
	delete(r.s.claimedFrom, id)
	tx.OrderID = ""
	tx.MatchedAt = nil
	r.s.done("ReleaseBank")
	return nil
}

func (r memoryBank) ListUnmatched(_ context.Context, limit int) ([]model.BankTransaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []model.BankTransaction
	for _, id := range r.s.bankOrder {
		if tx := r.s.bank[id]; tx.Status != model.BankTransactionMatched {
			result = append(result, *tx)
		}
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

// Cascade steps.

type memoryCascade struct{ s *MemoryStore }

func (r memoryCascade) List(_ context.Context, orderID string) ([]model.CascadeStep, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("ListSteps"); err != nil {
		return nil, err
	}
	var result []model.CascadeStep
	for _, step := range r.s.steps[orderID] {
		result = append(result, *step)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result, nil
}

func (r memoryCascade) Record(_ context.Context, orderID, key string, state model.StepState, detail string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("RecordStep"); err != nil {
		return err
	}
	steps, ok := r.s.steps[orderID]
	if !ok {
		steps = make(map[string]*model.CascadeStep)
		r.s.steps[orderID] = steps
	}
	step, ok := steps[key]
	if !ok {
		step = &model.CascadeStep{OrderID: orderID, Key: key}
		steps[key] = step
	}
	step.State = state
	step.Detail = detail
	step.Attempts++
	step.UpdatedAt = r.s.Now()
	return nil
}
