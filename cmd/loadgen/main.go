// Command loadgen drives the API with concurrent orders for one product
// and reports how the contention resolved. Useful for eyeballing the
// oversell and overspend properties against a running stack.
package main

import (
	"flag"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/matheusmosca/order-fulfillment-service/internal/obs"
)

type ticket struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

type orderView struct {
	OrderID   string `json:"order_id"`
	Status    string `json:"status"`
	PricePaid string `json:"price_paid"`
	Reason    string `json:"reason"`
}

type createdProduct struct {
	ProductID string `json:"product_id"`
}

type createdCustomer struct {
	CustomerID string `json:"customer_id"`
}

func main() {
	baseURL := flag.String("base-url", "http://localhost:8080", "API base URL")
	orders := flag.Int("orders", 100, "number of orders to place")
	concurrency := flag.Int("concurrency", 20, "concurrent requesters")
	stock := flag.Int("stock", 10, "opening stock of the contended product")
	basePrice := flag.String("base-price", "100.00", "product base price")
	pollTimeout := flag.Duration("poll-timeout", 30*time.Second, "how long to wait for terminal states")
	flag.Parse()

	log := obs.NewLogger("order-fulfillment-loadgen")
	client := resty.New().SetBaseURL(*baseURL).SetTimeout(10 * time.Second)

	var customer createdCustomer
	resp, err := client.R().
		SetBody(map[string]string{"username": "loadgen"}).
		SetResult(&customer).
		Post("/api/v1/customers")
	if err != nil || resp.IsError() {
		log.Error("failed to create customer", "error", err, "status", resp.StatusCode())
		os.Exit(1)
	}

	var product createdProduct
	resp, err = client.R().
		SetBody(map[string]any{
			"name":       "loadgen-widget",
			"base_price": *basePrice,
			"stock":      *stock,
		}).
		SetResult(&product).
		Post("/api/v1/products")
	if err != nil || resp.IsError() {
		log.Error("failed to create product", "error", err, "status", resp.StatusCode())
		os.Exit(1)
	}

	log.Info("placing orders",
		"orders", *orders, "concurrency", *concurrency,
		"product_id", product.ProductID, "stock", *stock)

	orderIDs := make([]string, *orders)
	sem := make(chan struct{}, *concurrency)
	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < *orders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			var tk ticket
			resp, err := client.R().
				SetBody(map[string]string{
					"product_id":  product.ProductID,
					"customer_id": customer.CustomerID,
				}).
				SetResult(&tk).
				Post("/api/v1/orders")
			if err != nil || resp.IsError() {
				log.Warn("order rejected at intake", "error", err, "status", resp.StatusCode())
				return
			}
			orderIDs[i] = tk.OrderID
		}(i)
	}
	wg.Wait()
	log.Info("intake finished", "elapsed", time.Since(start).String())

	counts := map[string]int{}
	deadline := time.Now().Add(*pollTimeout)
	for _, orderID := range orderIDs {
		if orderID == "" {
			counts["INTAKE_ERROR"]++
			continue
		}
		counts[awaitTerminal(client, orderID, deadline)]++
	}

	fmt.Println("outcome summary:")
	for status, n := range counts {
		fmt.Printf("  %-14s %d\n", status, n)
	}
}

// awaitTerminal polls one order until it leaves PENDING or the shared
// deadline passes.
func awaitTerminal(client *resty.Client, orderID string, deadline time.Time) string {
	for {
		var view orderView
		resp, err := client.R().
			SetResult(&view).
			Get("/api/v1/orders/" + orderID)
		if err == nil && resp.IsSuccess() && view.Status != "" && view.Status != "PENDING" {
			return view.Status
		}
		if time.Now().After(deadline) {
			return "TIMED_OUT"
		}
		time.Sleep(200 * time.Millisecond)
	}
}
