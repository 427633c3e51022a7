package invoice

import (
	"context"
	"fmt"
	"time"

	"stockroom/internal/core/apperror"
	appctx "stockroom/internal/core/context"
	"stockroom/internal/core/entity"
	"stockroom/internal/core/history"
	"stockroom/internal/core/id"
	"stockroom/internal/core/numerator"
	"stockroom/internal/core/outbox"
	"stockroom/internal/core/security"
	"stockroom/internal/core/tx"
	"stockroom/internal/core/types"
	"stockroom/internal/domain"
	"stockroom/internal/domain/catalog"
	"stockroom/internal/domain/credit"
	"stockroom/internal/domain/inventory"
	"stockroom/pkg/logger"
)

// Stock is the inventory surface invoices drive.
type Stock interface {
	ReceiveForDocument(ctx context.Context, req inventory.ReceiveRequest) (*inventory.Change, error)
	Dispatch(ctx context.Context, req inventory.DispatchRequest) (*inventory.Dispatched, error)
	Withdraw(ctx context.Context, key inventory.EntryKey, quantity int64, reason string, ref inventory.Reference) (*inventory.Change, error)
}

// Ledger is the credit surface invoices drive.
type Ledger interface {
	Accrue(ctx context.Context, account credit.Account, amount types.Money) (*credit.Balance, error)
	Settle(ctx context.Context, account credit.Account, amount types.Money) (*credit.Balance, error)
}

const referenceType = "invoice"

// Service is the invoice engine. Creating an invoice, moving its stock
// and accruing its credit happen in one transaction.
type Service struct {
	repo      Repository
	catalog   catalog.Reader
	stock     Stock
	ledger    Ledger
	numerator numerator.Generator
	txManager tx.Manager
	events    outbox.Publisher
	history   history.Recorder
}

// Deps groups the collaborators of the invoice engine.
type Deps struct {
	Repo      Repository
	Catalog   catalog.Reader
	Stock     Stock
	Ledger    Ledger
	Numerator numerator.Generator
	TxManager tx.Manager
	Events    outbox.Publisher
	History   history.Recorder
}

// NewService creates a new invoice service.
func NewService(d Deps) *Service {
	return &Service{
		repo:      d.Repo,
		catalog:   d.Catalog,
		stock:     d.Stock,
		ledger:    d.Ledger,
		numerator: d.Numerator,
		txManager: d.TxManager,
		events:    d.Events,
		history:   d.History,
	}
}

// ItemRequest is one requested line. UnitPrice nil means the product's
// catalog price. Location is required for distributions and optional
// for outlet sales.
type ItemRequest struct {
	ProductID id.ID
	Quantity  int64
	UnitPrice *types.Money
	Location  *entity.Location
}

// PaymentRequest carries the payment split. CreditAmount and PaidAmount
// are read only for the mixed method.
type PaymentRequest struct {
	Method       PaymentMethod
	CreditAmount types.Money
	PaidAmount   types.Money
}

// DistributionRequest moves goods from an admin into a store.
type DistributionRequest struct {
	StoreID id.ID
	Items   []ItemRequest
	Payment PaymentRequest
	Notes   string
}

// OutletSaleRequest moves goods from a store to one of its outlets.
type OutletSaleRequest struct {
	StoreID  id.ID
	OutletID id.ID
	Items    []ItemRequest
	Payment  PaymentRequest
	Notes    string
}

// line is a validated item with its resolved product and price.
type line struct {
	req     ItemRequest
	product *catalog.Product
	price   types.Money
	total   types.Money
}

// CreateDistribution creates a pending distribution invoice, credits
// stock at each item's location and accrues credit to the store.
func (s *Service) CreateDistribution(ctx context.Context, req DistributionRequest) (*Invoice, error) {
	actor, err := security.Actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := security.RequireRole(actor, appctx.RoleSuperadmin, appctx.RoleAdmin); err != nil {
		return nil, err
	}
	if err := validateItems(req.Items, true); err != nil {
		return nil, err
	}

	var inv *Invoice
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		store, err := s.accessibleStore(ctx, actor, req.StoreID)
		if err != nil {
			return err
		}
		lines, total, err := s.resolveLines(ctx, actor, store, req.Items)
		if err != nil {
			return err
		}
		inv, err = s.newInvoice(ctx, actor, TypeDistribution, numerator.PrefixDistribution, store, total, req.Payment, req.Notes)
		if err != nil {
			return err
		}
		inv.Status = StatusPending
		if inv.CreditAmount.IsPositive() {
			kind := credit.AccountStore
			inv.CreditAccountKind, inv.CreditAccountID = &kind, &store.ID
		}
		if err := s.repo.Create(ctx, inv); err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}

		ref := inventory.Reference{Type: referenceType, ID: inv.ID}
		reason := "Distribution " + inv.InvoiceNumber
		for _, l := range lines {
			loc := *l.req.Location
			if _, err := s.stock.ReceiveForDocument(ctx, inventory.ReceiveRequest{
				StoreID:      store.ID,
				ProductID:    l.product.ID,
				Location:     loc,
				Quantity:     l.req.Quantity,
				ReorderLevel: l.product.ThresholdQuantity,
				Reason:       reason,
				Reference:    ref,
			}); err != nil {
				return err
			}
			inv.Items = append(inv.Items, newItem(inv.ID, l, loc))
		}
		return s.finishCreate(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "distribution invoice created",
		"invoice_id", inv.ID,
		"invoice_number", inv.InvoiceNumber,
		"store_id", inv.StoreID,
		"total", inv.TotalAmount.String())
	return inv, nil
}

// CreateOutletSale creates a completed sale invoice, debits stock
// strictly and accrues credit to the outlet.
func (s *Service) CreateOutletSale(ctx context.Context, req OutletSaleRequest) (*Invoice, error) {
	actor, err := security.Actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateItems(req.Items, false); err != nil {
		return nil, err
	}

	var inv *Invoice
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		store, err := s.accessibleStore(ctx, actor, req.StoreID)
		if err != nil {
			return err
		}
		outlet, err := s.catalog.GetOutlet(ctx, req.OutletID)
		if err != nil {
			return err
		}
		if outlet.StoreID != store.ID {
			return apperror.NewNotFound("outlet", req.OutletID)
		}
		if !store.IsActive {
			return apperror.NewValidation("store is inactive").WithDetail("store_id", store.ID)
		}
		if !outlet.IsActive {
			return apperror.NewValidation("outlet is inactive").WithDetail("outlet_id", outlet.ID)
		}
		lines, total, err := s.resolveLines(ctx, actor, store, req.Items)
		if err != nil {
			return err
		}
		inv, err = s.newInvoice(ctx, actor, TypeOutletSale, numerator.PrefixOutletSale, store, total, req.Payment, req.Notes)
		if err != nil {
			return err
		}
		inv.OutletID = &outlet.ID
		inv.Status = StatusCompleted
		if inv.CreditAmount.IsPositive() {
			kind := credit.AccountOutlet
			inv.CreditAccountKind, inv.CreditAccountID = &kind, &outlet.ID
		}
		if err := s.repo.Create(ctx, inv); err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}

		ref := inventory.Reference{Type: referenceType, ID: inv.ID}
		reason := "Outlet sale " + inv.InvoiceNumber
		for _, l := range lines {
			out, err := s.stock.Dispatch(ctx, inventory.DispatchRequest{
				StoreID:   store.ID,
				ProductID: l.product.ID,
				Location:  l.req.Location,
				Quantity:  l.req.Quantity,
				Reason:    reason,
				Reference: ref,
			})
			if err != nil {
				return err
			}
			inv.Items = append(inv.Items, newItem(inv.ID, l, out.Location))
		}
		return s.finishCreate(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "outlet sale invoice created",
		"invoice_id", inv.ID,
		"invoice_number", inv.InvoiceNumber,
		"outlet_id", req.OutletID,
		"total", inv.TotalAmount.String())
	return inv, nil
}

// finishCreate stores items, accrues credit and emits the event.
func (s *Service) finishCreate(ctx context.Context, inv *Invoice) error {
	if err := s.repo.AddItems(ctx, inv.Items); err != nil {
		return fmt.Errorf("add invoice items: %w", err)
	}
	if account, ok := inv.CreditAccount(); ok {
		if _, err := s.ledger.Accrue(ctx, account, inv.CreditAmount); err != nil {
			return err
		}
	}
	if err := s.events.Publish(ctx, outbox.Event{
		AggregateType: referenceType,
		AggregateID:   inv.ID,
		EventType:     outbox.EventInvoiceCreated,
		Payload: map[string]any{
			"invoiceNumber": inv.InvoiceNumber,
			"type":          inv.Type,
			"storeId":       inv.StoreID,
			"outletId":      inv.OutletID,
			"totalAmount":   inv.TotalAmount.String(),
			"creditAmount":  inv.CreditAmount.String(),
		},
	}); err != nil {
		return err
	}
	return s.history.Record(ctx, referenceType, inv.ID, history.ActionCreate, inv)
}

func (s *Service) newInvoice(
	ctx context.Context,
	actor *appctx.UserContext,
	typ Type,
	prefix string,
	store *catalog.Store,
	total types.Money,
	payment PaymentRequest,
	notes string,
) (*Invoice, error) {
	creditAmount, paidAmount, err := splitPayment(payment.Method, total, payment.CreditAmount, payment.PaidAmount)
	if err != nil {
		return nil, err
	}
	at := time.Now().UTC()
	number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig(prefix), numerator.DefaultOptions(), at)
	if err != nil {
		return nil, fmt.Errorf("next invoice number: %w", err)
	}
	return &Invoice{
		BaseEntity:     entity.NewBaseEntity(),
		InvoiceNumber:  number,
		Type:           typ,
		StoreID:        store.ID,
		AdminID:        store.AdminID,
		StoreManagerID: store.ManagerID,
		CreatedBy:      actor.UserID,
		PaymentMethod:  payment.Method,
		TotalAmount:    total,
		CreditAmount:   creditAmount,
		PaidAmount:     paidAmount,
		InvoiceDate:    at,
		Notes:          notes,
	}, nil
}

// resolveLines loads products, checks they belong to the store's admin
// and prices each line.
func (s *Service) resolveLines(ctx context.Context, actor *appctx.UserContext, store *catalog.Store, items []ItemRequest) ([]line, types.Money, error) {
	lines := make([]line, 0, len(items))
	total := types.Zero()
	for _, it := range items {
		product, err := s.catalog.GetProduct(ctx, it.ProductID)
		if err != nil {
			return nil, total, err
		}
		if !product.IsActive {
			return nil, total, apperror.NewValidation("product is inactive").WithDetail("product_id", product.ID)
		}
		if !actor.IsSuperadmin() && product.AdminID != store.AdminID {
			return nil, total, apperror.NewNotFound("product", it.ProductID)
		}
		price := product.UnitPrice
		if it.UnitPrice != nil {
			price = *it.UnitPrice
		}
		lineTotal := types.LineTotal(it.Quantity, price)
		lines = append(lines, line{req: it, product: product, price: price, total: lineTotal})
		total = total.Add(lineTotal)
	}
	return lines, total, nil
}

func newItem(invoiceID id.ID, l line, loc entity.Location) Item {
	return Item{
		ID:           id.New(),
		InvoiceID:    invoiceID,
		ProductID:    l.product.ID,
		Quantity:     l.req.Quantity,
		UnitPrice:    l.price,
		TotalPrice:   l.total,
		LocationKind: loc.Kind,
		LocationID:   loc.ID,
	}
}

func validateItems(items []ItemRequest, requireLocation bool) error {
	if len(items) == 0 {
		return apperror.NewValidation("at least one item is required").WithDetail("field", "items")
	}
	for i, it := range items {
		if id.IsNil(it.ProductID) {
			return apperror.NewValidation("product is required").WithDetail("item", i)
		}
		if it.Quantity <= 0 {
			return apperror.NewValidation("quantity must be a positive integer").WithDetail("item", i)
		}
		if it.UnitPrice != nil && it.UnitPrice.IsNegative() {
			return apperror.NewValidation("price must not be negative").WithDetail("item", i)
		}
		if it.Location == nil {
			if requireLocation {
				return apperror.NewValidation("location is required").WithDetail("item", i)
			}
			continue
		}
		if err := it.Location.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) accessibleStore(ctx context.Context, actor *appctx.UserContext, storeID id.ID) (*catalog.Store, error) {
	store, err := s.catalog.GetStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if err := security.RequireStoreAccess(actor, store.Owner()); err != nil {
		return nil, err
	}
	return store, nil
}

// Get returns an invoice with items and payments.
func (s *Service) Get(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	actor, err := security.Actor(ctx)
	if err != nil {
		return nil, err
	}
	inv, err := s.repo.Get(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if _, err := s.accessibleStore(ctx, actor, inv.StoreID); err != nil {
		return nil, err
	}
	if inv.Items, err = s.repo.Items(ctx, inv.ID); err != nil {
		return nil, fmt.Errorf("load invoice items: %w", err)
	}
	if inv.Payments, err = s.repo.Payments(ctx, inv.ID); err != nil {
		return nil, fmt.Errorf("load invoice payments: %w", err)
	}
	return inv, nil
}

// List lists invoice headers within the actor's stores.
func (s *Service) List(ctx context.Context, filter Filter) (domain.ListResult[Invoice], error) {
	_, scope, err := security.CurrentScope(ctx)
	if err != nil {
		return domain.ListResult[Invoice]{}, err
	}
	page := domain.Page{Limit: filter.Limit, Offset: filter.Offset}.Normalize()
	filter.Scope = scope
	filter.Limit, filter.Offset = page.Limit, page.Offset

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return domain.ListResult[Invoice]{}, fmt.Errorf("list invoices: %w", err)
	}
	return domain.NewListResult(items, total, page), nil
}
