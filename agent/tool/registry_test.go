package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	contractx "github.com/sornchai/shoptalk/agent/contract"
	commercex "github.com/sornchai/shoptalk/pkg/commerce"
)

// newTestRegistry backs the registry with a stub GraphQL endpoint that routes
// on the operation named in the query text.
func newTestRegistry(t *testing.T, handler http.HandlerFunc) *CommerceRegistry {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := commercex.NewClient(commercex.Config{Endpoint: server.URL})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	registry, err := NewCommerceRegistry(client)
	if err != nil {
		t.Fatalf("NewCommerceRegistry() error = %v", err)
	}
	return registry
}

func graphqlQuery(t *testing.T, r *http.Request) string {
	t.Helper()
	defer r.Body.Close()
	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		t.Errorf("decode request: %v", err)
	}
	return req.Query
}

func TestNewCommerceRegistryRequiresClient(t *testing.T) {
	t.Parallel()

	if _, err := NewCommerceRegistry(nil); err == nil {
		t.Fatal("NewCommerceRegistry(nil) error = nil")
	}
}

func TestCapabilitiesCatalogIsComplete(t *testing.T) {
	t.Parallel()

	registry := &CommerceRegistry{}
	want := []string{
		CapSearchProducts, CapGetProductDetails, CapCreateCart,
		CapAddToCart, CapGetCart, CapUpdateCartItem, CapRemoveCartItem,
	}

	caps := registry.Capabilities()
	if len(caps) != len(want) {
		t.Fatalf("len(Capabilities()) = %d, want %d", len(caps), len(want))
	}
	for i, name := range want {
		if caps[i].Name != name {
			t.Fatalf("Capabilities()[%d].Name = %q, want %q", i, caps[i].Name, name)
		}
	}
}

func TestInvokeUnknownCapability(t *testing.T) {
	t.Parallel()

	registry := &CommerceRegistry{}
	res := registry.Invoke(context.Background(), "teleport", nil, contractx.CallContext{})
	if res.Success {
		t.Fatal("Success = true for unknown capability")
	}
	if !strings.Contains(res.Error, "teleport") {
		t.Fatalf("Error = %q, want it to name the capability", res.Error)
	}
}

func TestInvokeMissingRequiredParameter(t *testing.T) {
	t.Parallel()

	registry := &CommerceRegistry{}
	ctx := context.Background()

	cases := []struct {
		capability string
		args       map[string]any
		wantParam  string
	}{
		{CapSearchProducts, nil, "query"},
		{CapGetProductDetails, map[string]any{}, "sku"},
		{CapAddToCart, map[string]any{"cartId": "c"}, "sku"},
		{CapAddToCart, map[string]any{"sku": "S"}, "cartId"},
		{CapGetCart, nil, "cartId"},
		{CapUpdateCartItem, map[string]any{"cartId": "c"}, "cartItemId"},
		{CapUpdateCartItem, map[string]any{"cartId": "c", "cartItemId": "i"}, "quantity"},
		{CapRemoveCartItem, map[string]any{"cartId": "c"}, "cartItemId"},
	}
	for _, tc := range cases {
		res := registry.Invoke(ctx, tc.capability, tc.args, contractx.CallContext{})
		if res.Success {
			t.Fatalf("%s: Success = true with args %v", tc.capability, tc.args)
		}
		if !strings.Contains(res.Error, tc.wantParam) {
			t.Fatalf("%s: Error = %q, want it to name %q", tc.capability, res.Error, tc.wantParam)
		}
	}
}

func TestInvokeSearchProducts(t *testing.T) {
	t.Parallel()

	registry := newTestRegistry(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"products":{"total_count":1,"items":[
			{"sku":"SHIRT-1","name":"Red Shirt","stock_status":"IN_STOCK",
			 "description":{"html":""},
			 "price_range":{"minimum_price":{"final_price":{"value":19.9,"currency":"USD"}}}}
		]}}}`)
	})

	res := registry.Invoke(context.Background(), CapSearchProducts, map[string]any{"query": "red shirt"}, contractx.CallContext{})
	if !res.Success {
		t.Fatalf("Invoke() failed: %s", res.Error)
	}
	page, ok := res.Data.(*commercex.ProductPage)
	if !ok {
		t.Fatalf("Data = %T, want *commerce.ProductPage", res.Data)
	}
	if page.TotalCount != 1 || page.Items[0].SKU != "SHIRT-1" {
		t.Fatalf("page = %+v", page)
	}
}

func TestInvokeBackendFailureBecomesResult(t *testing.T) {
	t.Parallel()

	registry := newTestRegistry(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})

	res := registry.Invoke(context.Background(), CapSearchProducts, map[string]any{"query": "x"}, contractx.CallContext{})
	if res.Success {
		t.Fatal("Success = true with a failing backend")
	}
	if res.Error == "" {
		t.Fatal("Error is empty")
	}
}

func TestInvokeAddToCartUsesCallContextCartID(t *testing.T) {
	t.Parallel()

	var gotVars map[string]any
	registry := newTestRegistry(t, func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req struct {
			Variables map[string]any `json:"variables"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotVars = req.Variables
		fmt.Fprint(w, `{"data":{"addProductsToCart":{"cart":{"id":"cart-ctx","total_quantity":1},"user_errors":[]}}}`)
	})

	res := registry.Invoke(context.Background(), CapAddToCart,
		map[string]any{"sku": "SHIRT-1"},
		contractx.CallContext{CartID: "cart-ctx"})
	if !res.Success {
		t.Fatalf("Invoke() failed: %s", res.Error)
	}
	if gotVars["cartId"] != "cart-ctx" {
		t.Fatalf("variables.cartId = %v, want cart-ctx", gotVars["cartId"])
	}
	if gotVars["quantity"] != float64(1) {
		t.Fatalf("variables.quantity = %v, want default 1", gotVars["quantity"])
	}
}

func TestInvokeCreateCartThenCartIDFromResult(t *testing.T) {
	t.Parallel()

	registry := newTestRegistry(t, func(w http.ResponseWriter, r *http.Request) {
		query := graphqlQuery(t, r)
		if !strings.Contains(query, "createEmptyCart") {
			t.Errorf("unexpected query: %s", query)
		}
		fmt.Fprint(w, `{"data":{"createEmptyCart":"cart-new"}}`)
	})

	res := registry.Invoke(context.Background(), CapCreateCart, nil, contractx.CallContext{})
	if !res.Success {
		t.Fatalf("Invoke() failed: %s", res.Error)
	}
	if got := CartIDFromResult(res); got != "cart-new" {
		t.Fatalf("CartIDFromResult() = %q, want cart-new", got)
	}
}

func TestCartIDFromResult(t *testing.T) {
	t.Parallel()

	if got := CartIDFromResult(contractx.CapabilityResult{Success: false, Data: CreateCartOutput{CartID: "x"}}); got != "" {
		t.Fatalf("failed result yielded cart id %q", got)
	}
	if got := CartIDFromResult(contractx.CapabilityResult{Success: true, Data: &commercex.Cart{ID: "cart-7"}}); got != "cart-7" {
		t.Fatalf("CartIDFromResult() = %q, want cart-7", got)
	}
	if got := CartIDFromResult(contractx.CapabilityResult{Success: true, Data: "noise"}); got != "" {
		t.Fatalf("unrelated data yielded cart id %q", got)
	}
}

func TestIntArgCoercions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw    any
		want   int
		wantOK bool
	}{
		{3, 3, true},
		{int64(4), 4, true},
		{float64(5), 5, true},
		{float64(5.5), 0, false},
		{"6", 6, true},
		{" 7 ", 7, true},
		{"12abc", 0, false},
		{"many", 0, false},
		{true, 0, false},
	}
	for _, tc := range cases {
		got, ok := intArg(map[string]any{"n": tc.raw}, "n")
		if got != tc.want || ok != tc.wantOK {
			t.Fatalf("intArg(%v) = (%d, %v), want (%d, %v)", tc.raw, got, ok, tc.want, tc.wantOK)
		}
	}
}
