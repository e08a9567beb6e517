//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "restaurant-orders-api"
	ConsumerName = "front-of-house"

	StateOrdersBaseline = "no orders placed"
	StateOrderExists    = "order with id 301 is pending"
	StateOrderMissing   = "no order with id 999"
)

const (
	ExistingOrderID   int64 = 301
	MissingOrderID    int64 = 999
	ExampleCustomerID int64 = 42
)

const ExampleContactAddress = "table-12@example.com"

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the front-of-house consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExamplePlaceOrderPayload is a cash order totalling 20.00.
func ExamplePlaceOrderPayload() map[string]any {
	return map[string]any{
		"customerId":     ExampleCustomerID,
		"contactAddress": ExampleContactAddress,
		"items": []map[string]any{
			{"itemId": 1, "quantity": 1, "unitPrice": "12.50"},
			{"itemId": 2, "quantity": 1, "unitPrice": "7.50"},
		},
		"payment": map[string]any{"method": "cash", "amountTendered": "25.00"},
	}
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
