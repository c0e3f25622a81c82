package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/inventory"
	"storefront/internal/model"
	"storefront/internal/ordernum"
	"storefront/internal/pricing"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// OrderServiceConfig bounds order creation.
type OrderServiceConfig struct {
	// MaxNumberAttempts caps order-number regeneration on collision.
	MaxNumberAttempts int
	// StoreTimeout bounds the creation transaction; an unacknowledged
	// store is treated like any other persistence failure.
	StoreTimeout time.Duration
}

// DefaultOrderServiceConfig returns the default creation bounds.
func DefaultOrderServiceConfig() OrderServiceConfig {
	return OrderServiceConfig{
		MaxNumberAttempts: 5,
		StoreTimeout:      10 * time.Second,
	}
}

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	paymentRepo repository.PaymentRepository
	ledger      inventory.Ledger
	pricer      *pricing.Calculator
	numbers     *ordernum.Generator
	cfg         OrderServiceConfig
	logger      zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	paymentRepo repository.PaymentRepository,
	ledger inventory.Ledger,
	pricer *pricing.Calculator,
	numbers *ordernum.Generator,
	cfg OrderServiceConfig,
	logger zerolog.Logger,
) OrderService {
	if cfg.MaxNumberAttempts < 1 {
		cfg.MaxNumberAttempts = DefaultOrderServiceConfig().MaxNumberAttempts
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = DefaultOrderServiceConfig().StoreTimeout
	}
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		paymentRepo: paymentRepo,
		ledger:      ledger,
		pricer:      pricer,
		numbers:     numbers,
		cfg:         cfg,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// CreateOrder validates the request, freezes catalog prices, prices the
// cart, then reserves stock, allocates an order number and persists the
// order with its items inside one transaction. Any failure after
// reservation rolls the transaction back, undoing the reservation with it:
// the reservation and the order share a single failure domain.
func (s *orderService) CreateOrder(ctx context.Context, userID string, req *model.OrderRequest) (*model.OrderResponse, error) {
	if err := validateOrderRequest(userID, req); err != nil {
		s.logger.Warn().Err(err).Msg("order request rejected")
		return nil, err
	}

	productIDs := make([]string, len(req.Items))
	for i, item := range req.Items {
		productIDs[i] = item.ProductID
	}

	products, err := s.productRepo.GetByIDs(ctx, productIDs)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to resolve products")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	byID := make(map[string]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	// Price snapshot: the catalog price at this instant is what the order
	// keeps, regardless of later catalog changes.
	lines := make([]pricing.Line, len(req.Items))
	for i, item := range req.Items {
		product, ok := byID[item.ProductID]
		if !ok {
			s.logger.Warn().Str("product_id", item.ProductID).Msg("unknown product in order")
			return nil, model.ErrProductNotFound
		}
		lines[i] = pricing.Line{UnitPrice: product.Price, Quantity: item.Quantity}
	}

	quote, err := s.pricer.Price(lines)
	if err != nil {
		return nil, model.NewDomainError(model.ErrCodeValidationFailed, err.Error())
	}

	// Bound the whole transactional section; a store that does not
	// acknowledge in time aborts and rolls back like any other failure.
	opCtx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	tx, err := s.orderRepo.BeginTx(opCtx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	// Rollback on any error below; this is also what undoes the stock
	// reservation when a later step fails.
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(opCtx); rbErr != nil && rbErr != pgx.ErrTxClosed {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	reservations := make([]inventory.Reservation, len(req.Items))
	for i, item := range req.Items {
		reservations[i] = inventory.Reservation{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	if err = s.ledger.Reserve(opCtx, tx, reservations); err != nil {
		s.logger.Warn().Err(err).Msg("stock reservation failed")
		return nil, err
	}

	var number string
	number, err = s.allocateOrderNumber(opCtx, tx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	country := req.ShippingCountry
	if country == "" {
		country = "US"
	}

	order := &model.Order{
		ID:              uuid.New(),
		UserID:          userID,
		OrderNumber:     number,
		Status:          model.StatusPending,
		PaymentStatus:   model.PaymentPending,
		Subtotal:        quote.Subtotal,
		TaxAmount:       quote.Tax,
		ShippingCost:    quote.Shipping,
		ShippingAddress: req.ShippingAddress,
		ShippingCity:    req.ShippingCity,
		ShippingState:   req.ShippingState,
		ShippingZipcode: req.ShippingZipcode,
		ShippingCountry: country,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	order.RecomputeTotal()

	if err = s.orderRepo.CreateOrder(opCtx, tx, order); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to create order")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	orderItems := make([]model.OrderItem, len(req.Items))
	for i, item := range req.Items {
		product := byID[item.ProductID]
		orderItems[i] = model.OrderItem{
			ID:           uuid.New(),
			OrderID:      order.ID,
			ProductID:    product.ID,
			ProductName:  product.Name,
			ProductPrice: product.Price,
			Quantity:     item.Quantity,
		}
		orderItems[i].RecomputeTotal()
	}

	if err = s.orderRepo.CreateOrderItems(opCtx, tx, orderItems); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Int("item_count", len(orderItems)).
			Msg("failed to create order items")
		return nil, fmt.Errorf("failed to create order items: %w", err)
	}

	if err = tx.Commit(opCtx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Str("total", order.TotalAmount.StringFixed(2)).
		Int("item_count", len(orderItems)).
		Msg("order created successfully")

	return &model.OrderResponse{
		Order:     order,
		Items:     orderItems,
		ItemCount: len(orderItems),
	}, nil
}

// allocateOrderNumber draws candidates until one is unused, up to the
// configured attempt budget. The unique index on orders.order_number is
// the backstop for the window between check and insert.
func (s *orderService) allocateOrderNumber(ctx context.Context, tx pgx.Tx) (string, error) {
	for attempt := 0; attempt < s.cfg.MaxNumberAttempts; attempt++ {
		number, err := s.numbers.Generate()
		if err != nil {
			return "", fmt.Errorf("failed to generate order number: %w", err)
		}

		exists, err := s.orderRepo.OrderNumberExists(ctx, tx, number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}

		s.logger.Warn().
			Str("order_number", number).
			Int("attempt", attempt+1).
			Msg("order number collision, regenerating")
	}

	s.logger.Error().
		Int("attempts", s.cfg.MaxNumberAttempts).
		Msg("order number attempts exhausted")
	return "", model.ErrOrderNumberExhausted
}

// GetByID materializes an order with its items, payment and item count.
func (s *orderService) GetByID(ctx context.Context, userID string, id uuid.UUID) (*model.OrderResponse, error) {
	order, items, err := s.loadOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	payment, err := s.paymentRepo.GetByOrderID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to load payment")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return &model.OrderResponse{
		Order:     order,
		Items:     items,
		Payment:   payment,
		ItemCount: len(items),
	}, nil
}

// ListByUser retrieves the caller's orders, newest first.
func (s *orderService) ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Order, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	orders, err := s.orderRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return orders, nil
}

// UpdateStatus advances the fulfillment lifecycle one step and stamps the
// matching timestamp. Cancellation is rejected here so that stock
// restoration can never be skipped.
func (s *orderService) UpdateStatus(ctx context.Context, userID string, id uuid.UUID, next model.Status) (*model.OrderResponse, error) {
	if !next.Valid() {
		return nil, model.NewDomainError(model.ErrCodeValidationFailed, fmt.Sprintf("Unknown order status %q", next))
	}

	order, items, err := s.loadOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if next == model.StatusCancelled || !order.Status.CanTransitionTo(next) {
		s.logger.Warn().
			Str("order_id", id.String()).
			Str("from", string(order.Status)).
			Str("to", string(next)).
			Msg("status transition rejected")
		return nil, &model.InvalidTransitionError{From: string(order.Status), To: string(next)}
	}

	prev := order.Status
	now := time.Now()
	order.Status = next
	order.UpdatedAt = now
	switch next {
	case model.StatusShipped:
		order.ShippedAt = &now
	case model.StatusDelivered:
		order.DeliveredAt = &now
	}

	if err := s.orderRepo.UpdateStatus(ctx, order, prev); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", id.String()).
		Str("status", string(next)).
		Msg("order status updated")

	return &model.OrderResponse{Order: order, Items: items, ItemCount: len(items)}, nil
}

// Cancel moves a pending or processing order to cancelled, then restores
// each item's stock. Restores are best-effort: a failed restore is
// surfaced as a warning for operational follow-up, but the cancellation
// stands, because the cancelled order is the customer-facing fact of
// record. A paid payment is left paid; there is no refund flow here.
func (s *orderService) Cancel(ctx context.Context, userID string, id uuid.UUID) (*model.OrderResponse, error) {
	order, items, err := s.loadOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if !order.Status.Cancellable() {
		s.logger.Warn().
			Str("order_id", id.String()).
			Str("status", string(order.Status)).
			Msg("cancellation rejected")
		return nil, &model.InvalidTransitionError{From: string(order.Status), To: string(model.StatusCancelled)}
	}

	prev := order.Status
	now := time.Now()
	order.Status = model.StatusCancelled
	order.CancelledAt = &now
	order.UpdatedAt = now

	if err := s.orderRepo.UpdateStatus(ctx, order, prev); err != nil {
		return nil, err
	}

	// The conditional status write above gates restoration: only the one
	// cancel that moved the row to cancelled reaches this point, so stock
	// is credited at most once per order.
	var warnings []string
	for _, item := range items {
		if err := s.ledger.Restore(ctx, item.ProductID, item.Quantity); err != nil {
			s.logger.Error().
				Err(err).
				Str("order_id", id.String()).
				Str("product_id", item.ProductID).
				Int("quantity", item.Quantity).
				Msg("stock restore failed after cancellation")
			warnings = append(warnings,
				fmt.Sprintf("stock restore failed for product %s (quantity %d): %v", item.ProductID, item.Quantity, err))
		}
	}

	payment, err := s.paymentRepo.GetByOrderID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to load payment")
		payment = nil
	}

	s.logger.Info().
		Str("order_id", id.String()).
		Str("order_number", order.OrderNumber).
		Int("restore_failures", len(warnings)).
		Msg("order cancelled")

	return &model.OrderResponse{
		Order:     order,
		Items:     items,
		Payment:   payment,
		ItemCount: len(items),
		Warnings:  warnings,
	}, nil
}

// loadOwned fetches an order and enforces the ownership precondition.
// Orders belonging to other users are reported as not found, matching the
// external behaviour of a per-user order listing.
func (s *orderService) loadOwned(ctx context.Context, userID string, id uuid.UUID) (*model.Order, []model.OrderItem, error) {
	order, items, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order == nil || order.UserID != userID {
		return nil, nil, model.ErrOrderNotFound
	}

	return order, items, nil
}

// validateOrderRequest checks the checkout request before any durable work.
func validateOrderRequest(userID string, req *model.OrderRequest) error {
	if userID == "" {
		return model.NewDomainError(model.ErrCodeValidationFailed, "User reference is required")
	}

	if req == nil {
		return model.NewDomainError(model.ErrCodeValidationFailed, "Order request is nil")
	}

	if len(req.Items) == 0 {
		return model.ErrEmptyOrder
	}

	for i, item := range req.Items {
		if item.ProductID == "" {
			return model.NewDomainError(model.ErrCodeValidationFailed, fmt.Sprintf("Item %d: product ID is required", i))
		}
		if item.Quantity < 1 {
			return model.ErrInvalidQuantity
		}
	}

	if req.ShippingAddress == "" || req.ShippingCity == "" || req.ShippingZipcode == "" {
		return model.NewDomainError(model.ErrCodeValidationFailed, "Shipping address, city and zipcode are required")
	}

	if req.CustomerEmail == "" {
		return model.NewDomainError(model.ErrCodeValidationFailed, "Customer email is required")
	}

	return nil
}
