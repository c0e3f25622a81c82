package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/gateway"
	"storefront/internal/handler"
	"storefront/internal/inventory"
	"storefront/internal/model"
	"storefront/internal/ordernum"
	"storefront/internal/pricing"
	"storefront/internal/repository"
	"storefront/internal/router"
	"storefront/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "test-api-key"

func setupTestServer(t *testing.T, testDB *TestDB) http.Handler {
	t.Helper()

	logger := zerolog.Nop()

	// Initialize repositories
	productRepo := repository.NewProductRepository(testDB.Pool, logger)
	orderRepo := repository.NewOrderRepository(testDB.Pool, logger)
	paymentRepo := repository.NewPaymentRepository(testDB.Pool, logger)

	// Initialize domain components
	ledger := inventory.NewLedger(productRepo, logger)
	pricer := pricing.NewCalculator(pricing.DefaultConfig())
	numbers := ordernum.New()
	paymentGateway := gateway.NewSimulated(logger)

	// Initialize services
	productService := service.NewProductService(productRepo, logger)
	orderService := service.NewOrderService(
		orderRepo, productRepo, paymentRepo, ledger, pricer, numbers,
		service.DefaultOrderServiceConfig(), logger)
	paymentService := service.NewPaymentService(orderRepo, paymentRepo, paymentGateway, "USD", logger)

	// Initialize handlers
	productHandler := handler.NewProductHandler(productService, logger)
	orderHandler := handler.NewOrderHandler(orderService, paymentService, logger)

	// Create router
	return router.New(productHandler, orderHandler, testAPIKey, logger)
}

// doJSON performs an authenticated request against the test server.
func doJSON(t *testing.T, server http.Handler, method, path, userID string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", testAPIKey)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

func orderPayload(items ...model.OrderItemRequest) model.OrderRequest {
	return model.OrderRequest{
		Items:           items,
		ShippingAddress: "1 Main St",
		ShippingCity:    "Springfield",
		ShippingZipcode: "12345",
		CustomerEmail:   "buyer@example.com",
	}
}

func TestProductAPI_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	SeedProducts(t, testDB.Pool)
	server := setupTestServer(t, testDB)

	t.Run("List products", func(t *testing.T) {
		w := doJSON(t, server, http.MethodGet, "/api/products", "user-1", nil)

		require.Equal(t, http.StatusOK, w.Code)

		var products []model.Product
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &products))
		assert.Len(t, products, 5)
	})

	t.Run("Get product carries price and stock", func(t *testing.T) {
		w := doJSON(t, server, http.MethodGet, "/api/products/P001", "user-1", nil)

		require.Equal(t, http.StatusOK, w.Code)

		var product model.Product
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &product))
		assert.Equal(t, "Test Product 1", product.Name)
		assert.Equal(t, "19.99", product.Price.StringFixed(2))
		assert.Equal(t, 10, product.Stock)
	})

	t.Run("Unknown product", func(t *testing.T) {
		w := doJSON(t, server, http.MethodGet, "/api/products/NOPE", "user-1", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Missing API key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
		w := httptest.NewRecorder()
		server.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Missing user reference", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
		req.Header.Set("X-API-Key", testAPIKey)
		w := httptest.NewRecorder()
		server.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Health check needs no credentials", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		server.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestOrderAPI_Lifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	SeedProducts(t, testDB.Pool)
	server := setupTestServer(t, testDB)

	// Create: 19.99*2 + 5.00 = 44.98, 8% tax 3.60, shipping 10.00
	w := doJSON(t, server, http.MethodPost, "/api/orders", "user-1", orderPayload(
		model.OrderItemRequest{ProductID: "P001", Quantity: 2},
		model.OrderItemRequest{ProductID: "P002", Quantity: 1},
	))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created model.OrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	orderID := created.Order.ID.String()

	assert.Equal(t, model.StatusPending, created.Order.Status)
	assert.Equal(t, model.PaymentPending, created.Order.PaymentStatus)
	assert.Len(t, created.Order.OrderNumber, 10)
	assert.Equal(t, "44.98", created.Order.Subtotal.StringFixed(2))
	assert.Equal(t, "3.60", created.Order.TaxAmount.StringFixed(2))
	assert.Equal(t, "10.00", created.Order.ShippingCost.StringFixed(2))
	assert.Equal(t, "58.58", created.Order.TotalAmount.StringFixed(2))
	assert.Equal(t, 2, created.ItemCount)

	// Stock reserved immediately
	assert.Equal(t, 8, ProductStock(t, testDB.Pool, "P001"))
	assert.Equal(t, 9, ProductStock(t, testDB.Pool, "P002"))

	t.Run("Owner reads the order back", func(t *testing.T) {
		w := doJSON(t, server, http.MethodGet, "/api/orders/"+orderID, "user-1", nil)

		require.Equal(t, http.StatusOK, w.Code)

		var got model.OrderResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, created.Order.OrderNumber, got.Order.OrderNumber)
		assert.Len(t, got.Items, 2)
		assert.Nil(t, got.Payment)
	})

	t.Run("Another user cannot see it", func(t *testing.T) {
		w := doJSON(t, server, http.MethodGet, "/api/orders/"+orderID, "user-2", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Order appears in the owner's listing", func(t *testing.T) {
		w := doJSON(t, server, http.MethodGet, "/api/orders", "user-1", nil)

		require.Equal(t, http.StatusOK, w.Code)

		var orders []model.Order
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &orders))
		require.Len(t, orders, 1)
		assert.Equal(t, created.Order.OrderNumber, orders[0].OrderNumber)
	})

	t.Run("Payment settles the order", func(t *testing.T) {
		w := doJSON(t, server, http.MethodPost, "/api/orders/"+orderID+"/payment", "user-1",
			model.PaymentRequest{Method: model.MethodCreditCard})

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var payment model.Payment
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payment))
		assert.Equal(t, model.PaymentPaid, payment.Status)
		assert.Equal(t, "58.58", payment.Amount.StringFixed(2))
		assert.Equal(t, "USD", payment.Currency)
		assert.NotEmpty(t, payment.PaymentID)

		// Order reflects the settlement
		w = doJSON(t, server, http.MethodGet, "/api/orders/"+orderID, "user-1", nil)
		var got model.OrderResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, model.PaymentPaid, got.Order.PaymentStatus)
		require.NotNil(t, got.Order.PaidAt)
		require.NotNil(t, got.Payment)
	})

	t.Run("Second payment is rejected", func(t *testing.T) {
		w := doJSON(t, server, http.MethodPost, "/api/orders/"+orderID+"/payment", "user-1",
			model.PaymentRequest{Method: model.MethodPayPal})

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Fulfillment walks one step at a time", func(t *testing.T) {
		// Skipping pending -> shipped is rejected
		w := doJSON(t, server, http.MethodPost, "/api/orders/"+orderID+"/status", "user-1",
			model.StatusUpdateRequest{Status: model.StatusShipped})
		assert.Equal(t, http.StatusConflict, w.Code)

		for _, status := range []model.Status{model.StatusProcessing, model.StatusShipped, model.StatusDelivered} {
			w := doJSON(t, server, http.MethodPost, "/api/orders/"+orderID+"/status", "user-1",
				model.StatusUpdateRequest{Status: status})
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		}

		w = doJSON(t, server, http.MethodGet, "/api/orders/"+orderID, "user-1", nil)
		var got model.OrderResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, model.StatusDelivered, got.Order.Status)
		require.NotNil(t, got.Order.ShippedAt)
		require.NotNil(t, got.Order.DeliveredAt)
	})

	t.Run("Delivered order cannot be cancelled", func(t *testing.T) {
		w := doJSON(t, server, http.MethodPost, "/api/orders/"+orderID+"/cancel", "user-1", nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestOrderAPI_CancellationRestoresStock(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	SeedProducts(t, testDB.Pool)
	server := setupTestServer(t, testDB)

	w := doJSON(t, server, http.MethodPost, "/api/orders", "user-1", orderPayload(
		model.OrderItemRequest{ProductID: "P003", Quantity: 2},
	))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created model.OrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Equal(t, 1, ProductStock(t, testDB.Pool, "P003"))

	w = doJSON(t, server, http.MethodPost, "/api/orders/"+created.Order.ID.String()+"/cancel", "user-1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var cancelled model.OrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cancelled))
	assert.Equal(t, model.StatusCancelled, cancelled.Order.Status)
	require.NotNil(t, cancelled.Order.CancelledAt)
	assert.Empty(t, cancelled.Warnings)

	// The two reserved units are back
	assert.Equal(t, 3, ProductStock(t, testDB.Pool, "P003"))

	t.Run("Cancelled order cannot be cancelled again", func(t *testing.T) {
		w := doJSON(t, server, http.MethodPost, "/api/orders/"+created.Order.ID.String()+"/cancel", "user-1", nil)
		assert.Equal(t, http.StatusConflict, w.Code)

		// Stock is not restored twice
		assert.Equal(t, 3, ProductStock(t, testDB.Pool, "P003"))
	})
}

func TestOrderAPI_InsufficientStock(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	SeedProducts(t, testDB.Pool)
	server := setupTestServer(t, testDB)

	// P004 has a single unit; P001 has plenty. The whole order must fail
	// and neither product may lose stock.
	w := doJSON(t, server, http.MethodPost, "/api/orders", "user-1", orderPayload(
		model.OrderItemRequest{ProductID: "P001", Quantity: 1},
		model.OrderItemRequest{ProductID: "P004", Quantity: 2},
	))

	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	var errResp model.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, model.ErrCodeInsufficientStock, errResp.Error)
	assert.Contains(t, errResp.Message, "P004")

	assert.Equal(t, 10, ProductStock(t, testDB.Pool, "P001"))
	assert.Equal(t, 1, ProductStock(t, testDB.Pool, "P004"))

	// No order row leaked out of the aborted transaction
	w = doJSON(t, server, http.MethodGet, "/api/orders", "user-1", nil)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestCORS_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	server := setupTestServer(t, testDB)

	req := httptest.NewRequest(http.MethodOptions, "/api/products", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
