// Package api is the HTTP edge: intake, polling, cancellation, and the
// product and customer admin endpoints. Handlers validate and translate;
// all business decisions live in the use cases and the worker.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/matheusmosca/order-fulfillment-service/internal/entities"
	"github.com/matheusmosca/order-fulfillment-service/internal/repository"
)

// OrderUseCaseInterface is the order surface the handlers depend on.
type OrderUseCaseInterface interface {
	PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*OrderTicket, error)
	GetOrder(ctx context.Context, orderID string) (*OrderView, error)
	CancelOrder(ctx context.Context, orderID string) (bool, error)
}

// ProductUseCaseInterface is the product surface the handlers depend on.
type ProductUseCaseInterface interface {
	CreateProduct(ctx context.Context, req CreateProductRequest) (*entities.Product, error)
	GetProduct(ctx context.Context, productID string, bypassCache bool) (*entities.PricedProduct, error)
}

// CustomerUseCaseInterface is the customer surface the handlers depend on.
type CustomerUseCaseInterface interface {
	CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*entities.Customer, error)
	GetCustomer(ctx context.Context, customerID string) (*entities.Customer, error)
}

// Handler holds the HTTP handlers.
type Handler struct {
	orders    OrderUseCaseInterface
	products  ProductUseCaseInterface
	customers CustomerUseCaseInterface
	tracer    trace.Tracer
}

// NewHandler builds the handler set.
func NewHandler(orders OrderUseCaseInterface, products ProductUseCaseInterface, customers CustomerUseCaseInterface) *Handler {
	return &Handler{
		orders:    orders,
		products:  products,
		customers: customers,
		tracer:    otel.Tracer("api"),
	}
}

// NewRouter mounts all routes with tracing middleware.
func NewRouter(h *Handler, serviceName string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))

	router.GET("/health", h.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/orders", h.PlaceOrder)
		v1.GET("/orders/:id", h.GetOrder)
		v1.POST("/orders/:id/cancel", h.CancelOrder)

		v1.POST("/products", h.CreateProduct)
		v1.GET("/products/:id", h.GetProduct)

		v1.POST("/customers", h.CreateCustomer)
		v1.GET("/customers/:id", h.GetCustomer)
	}

	return router
}

// PlaceOrder accepts an order and enqueues its fulfillment job. The 202
// is a receipt, not an outcome: the caller polls GetOrder for that.
func (h *Handler) PlaceOrder(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "place_order")
	defer span.End()

	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	span.SetAttributes(
		attribute.String("product_id", req.ProductID),
		attribute.String("customer_id", req.CustomerID),
	)

	ticket, err := h.orders.PlaceOrder(ctx, req)
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to queue order"})
		return
	}

	span.SetAttributes(attribute.String("order_id", ticket.OrderID))
	c.JSON(http.StatusAccepted, ticket)
}

// GetOrder polls the state of one order.
func (h *Handler) GetOrder(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "get_order")
	defer span.End()

	orderID := c.Param("id")
	span.SetAttributes(attribute.String("order_id", orderID))

	view, err := h.orders.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, view)
}

// CancelOrder reverses a completed order.
func (h *Handler) CancelOrder(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "cancel_order")
	defer span.End()

	orderID := c.Param("id")
	span.SetAttributes(attribute.String("order_id", orderID))

	cancelled, err := h.orders.CancelOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !cancelled {
		c.JSON(http.StatusConflict, gin.H{"error": "order is not cancellable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order_id": orderID,
		"status":   entities.OrderStatusCancelled,
	})
}

// CreateProduct registers a product.
func (h *Handler) CreateProduct(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "create_product")
	defer span.End()

	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := h.products.CreateProduct(ctx, req)
	if err != nil {
		if errors.Is(err, ErrInvalidPrice) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	span.SetAttributes(attribute.String("product_id", product.ProductID))
	c.JSON(http.StatusCreated, product)
}

// GetProduct serves the priced view. ?cache=false forces a fresh read
// from the store, bypassing both tiers.
func (h *Handler) GetProduct(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "get_product")
	defer span.End()

	productID := c.Param("id")
	bypassCache := c.Query("cache") == "false"
	span.SetAttributes(
		attribute.String("product_id", productID),
		attribute.Bool("cache_bypass", bypassCache),
	)

	view, err := h.products.GetProduct(ctx, productID, bypassCache)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, view)
}

// CreateCustomer registers a customer.
func (h *Handler) CreateCustomer(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "create_customer")
	defer span.End()

	var req CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customer, err := h.customers.CreateCustomer(ctx, req)
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	span.SetAttributes(attribute.String("customer_id", customer.CustomerID))
	c.JSON(http.StatusCreated, customer)
}

// GetCustomer reads one customer.
func (h *Handler) GetCustomer(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "get_customer")
	defer span.End()

	customerID := c.Param("id")
	span.SetAttributes(attribute.String("customer_id", customerID))

	customer, err := h.customers.GetCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "customer not found"})
			return
		}
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, customer)
}

// HealthCheck reports liveness.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "order-fulfillment-api",
	})
}
