//go:build pact
// +build pact

package consumer_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	pacttest "github.com/Apurer/restaurant-orders/test/pact"

	pactconsumer "github.com/pact-foundation/pact-go/v2/consumer"
	pactlog "github.com/pact-foundation/pact-go/v2/log"
	"github.com/pact-foundation/pact-go/v2/matchers"
	"github.com/stretchr/testify/require"
)

type orderPayload struct {
	ID            int64  `json:"id"`
	CustomerID    int64  `json:"customerId"`
	Status        string `json:"status"`
	PaymentStatus string `json:"paymentStatus"`
	TotalAmount   string `json:"totalAmount"`
}

type placementPayload struct {
	Order            orderPayload `json:"order"`
	PaymentSucceeded bool         `json:"paymentSucceeded"`
}

type statsPayload struct {
	MonitoredOrders       int   `json:"monitoredOrders"`
	CustomerNotifications int64 `json:"customerNotifications"`
}

type problemDetail struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

type apiError struct {
	status int
	title  string
	detail string
}

func (e apiError) Error() string {
	msg := e.title
	if msg == "" {
		msg = "api error"
	}
	if e.detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.detail)
	}
	return fmt.Sprintf("%s (status %d)", msg, e.status)
}

func (e apiError) Status() int {
	return e.status
}

func TestFrontOfHouseContract(t *testing.T) {
	t.Helper()
	pactlog.SetLogLevel("INFO")

	pact, err := pactconsumer.NewV2Pact(pactconsumer.MockHTTPProviderConfig{
		Consumer: pacttest.ConsumerName,
		Provider: pacttest.ProviderName,
		PactDir:  pacttest.PactDir(t),
		LogDir:   pacttest.LogDir(t),
	})
	require.NoError(t, err)

	orderMatcher := func(id int64, status string) matchers.Map {
		return matchers.Map{
			"id":            matchers.Like(id),
			"customerId":    matchers.Like(pacttest.ExampleCustomerID),
			"status":        matchers.Term(status, "pending|preparing|ready|delivered|completed|cancelled"),
			"paymentStatus": matchers.Term("completed", "pending|completed|failed"),
			"totalAmount":   matchers.Like("20"),
			"statusHistory": matchers.ArrayMinLike(matchers.Map{"status": matchers.Like("pending")}, 1),
		}
	}
	jsonContentType := matchers.Regex("application/json; charset=utf-8", "application\\/json(?:;\\s?charset=utf-8)?")

	pact.AddInteraction().
		Given(pacttest.StateOrdersBaseline).
		UponReceiving("a request to place a cash order").
		WithRequest("POST", "/v1/orders", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
			b.JSONBody(pacttest.ExamplePlaceOrderPayload())
		}).
		WillRespondWith(http.StatusCreated, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(matchers.Map{
				"order":            orderMatcher(1, "pending"),
				"paymentSucceeded": matchers.Like(true),
			})
		})

	pact.AddInteraction().
		Given(pacttest.StateOrderExists).
		UponReceiving("a request to fetch a pending order").
		WithRequest("GET", fmt.Sprintf("/v1/orders/%d", pacttest.ExistingOrderID)).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(orderMatcher(pacttest.ExistingOrderID, "pending"))
		})

	pact.AddInteraction().
		Given(pacttest.StateOrderExists).
		UponReceiving("a request to start preparing an order").
		WithRequest("PUT", fmt.Sprintf("/v1/orders/%d/status", pacttest.ExistingOrderID), func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
			b.JSONBody(map[string]any{"status": "preparing"})
		}).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(orderMatcher(pacttest.ExistingOrderID, "preparing"))
		})

	pact.AddInteraction().
		Given(pacttest.StateOrderMissing).
		UponReceiving("a request for a missing order").
		WithRequest("GET", fmt.Sprintf("/v1/orders/%d", pacttest.MissingOrderID)).
		WillRespondWith(http.StatusNotFound, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", matchers.S("application/problem+json"))
			b.JSONBody(matchers.Map{
				"type":   matchers.S("/problems/not-found"),
				"title":  matchers.S("Resource Not Found"),
				"status": matchers.Like(http.StatusNotFound),
			})
		})

	pact.AddInteraction().
		Given(pacttest.StateOrderExists).
		UponReceiving("a request for notification counters").
		WithRequest("GET", "/v1/notifications/stats").
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(matchers.Map{
				"monitoredOrders":       matchers.Like(1),
				"customerNotifications": matchers.Like(0),
				"kitchenNotifications":  matchers.Like(0),
				"deliveryNotifications": matchers.Like(0),
			})
		})

	err = pact.ExecuteTest(t, func(config pactconsumer.MockServerConfig) error {
		client := newOrderClient(config)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		placed, err := client.PlaceOrder(ctx, pacttest.ExamplePlaceOrderPayload())
		if err != nil {
			return fmt.Errorf("place order: %w", err)
		}
		if placed.Order.ID == 0 || !placed.PaymentSucceeded {
			return fmt.Errorf("expected a paid order, got %+v", placed)
		}

		fetched, err := client.GetOrder(ctx, pacttest.ExistingOrderID)
		if err != nil {
			return fmt.Errorf("get order: %w", err)
		}
		if fetched.ID != pacttest.ExistingOrderID {
			return fmt.Errorf("expected order id %d, got %+v", pacttest.ExistingOrderID, fetched)
		}

		updated, err := client.UpdateStatus(ctx, pacttest.ExistingOrderID, "preparing")
		if err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		if updated.Status != "preparing" {
			return fmt.Errorf("expected preparing, got %s", updated.Status)
		}

		if _, err := client.GetOrder(ctx, pacttest.MissingOrderID); err == nil {
			return fmt.Errorf("expected 404 for order %d", pacttest.MissingOrderID)
		} else if apiErr, ok := err.(apiError); ok && apiErr.Status() != http.StatusNotFound {
			return fmt.Errorf("expected 404, got %d", apiErr.Status())
		}

		stats, err := client.Stats(ctx)
		if err != nil {
			return fmt.Errorf("stats: %w", err)
		}
		if stats.MonitoredOrders < 1 {
			return fmt.Errorf("expected a monitored order, got %+v", stats)
		}
		return nil
	})
	require.NoError(t, err)
}

type orderClient struct {
	baseURL    string
	httpClient *http.Client
}

func newOrderClient(config pactconsumer.MockServerConfig) *orderClient {
	host := config.Host
	if host == "" {
		host = "localhost"
	}
	transport := &http.Transport{TLSClientConfig: config.TLSConfig}
	client := &http.Client{Transport: transport, Timeout: 10 * time.Second}
	return &orderClient{
		baseURL:    fmt.Sprintf("http://%s:%d", host, config.Port),
		httpClient: client,
	}
}

func (c *orderClient) PlaceOrder(ctx context.Context, order map[string]any) (*placementPayload, error) {
	var out placementPayload
	if err := c.do(ctx, http.MethodPost, "/v1/orders", order, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *orderClient) GetOrder(ctx context.Context, id int64) (*orderPayload, error) {
	var out orderPayload
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/orders/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *orderClient) UpdateStatus(ctx context.Context, id int64, status string) (*orderPayload, error) {
	var out orderPayload
	body := map[string]any{"status": status}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/v1/orders/%d/status", id), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *orderClient) Stats(ctx context.Context) (*statsPayload, error) {
	var out statsPayload
	if err := c.do(ctx, http.MethodGet, "/v1/notifications/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *orderClient) do(ctx context.Context, method, path string, body any, out any) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(res)
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func decodeAPIError(res *http.Response) error {
	var problem problemDetail
	_ = json.NewDecoder(res.Body).Decode(&problem)
	status := problem.Status
	if status == 0 {
		status = res.StatusCode
	}
	return apiError{
		status: status,
		title:  problem.Title,
		detail: problem.Detail,
	}
}
