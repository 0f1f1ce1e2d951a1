// Package tool exposes the commerce backend as a fixed catalog of named
// capabilities behind the contract.Registry boundary.
package tool

import (
	"context"
	"fmt"

	contractx "github.com/sornchai/shoptalk/agent/contract"
	commercex "github.com/sornchai/shoptalk/pkg/commerce"
)

// Capability names. This catalog is a boundary: the intent classifier and any
// external tool backend must agree on these exact names and parameters.
const (
	CapSearchProducts    = "search_products"
	CapGetProductDetails = "get_product_details"
	CapCreateCart        = "create_cart"
	CapAddToCart         = "add_to_cart"
	CapGetCart           = "get_cart"
	CapUpdateCartItem    = "update_cart_item"
	CapRemoveCartItem    = "remove_cart_item"
)

// CommerceRegistry satisfies contract.Registry with direct calls into the
// commerce backend. Other implementations (e.g. a mediated tool protocol)
// can replace it behind the same interface at configuration time.
type CommerceRegistry struct {
	client *commercex.Client
}

func NewCommerceRegistry(client *commercex.Client) (*CommerceRegistry, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: commerce client is required", contractx.ErrConfiguration)
	}
	return &CommerceRegistry{client: client}, nil
}

func (r *CommerceRegistry) Capabilities() []contractx.CapabilityInfo {
	return []contractx.CapabilityInfo{
		{
			Name:        CapSearchProducts,
			Description: "Search the product catalog by free text.",
			Parameters: []contractx.ParameterSpec{
				{Name: "query", Type: "string", Required: true, Description: "Search phrase"},
				{Name: "pageSize", Type: "integer", Description: "Results per page, default 10"},
				{Name: "currentPage", Type: "integer", Description: "Page to fetch, default 1"},
			},
		},
		{
			Name:        CapGetProductDetails,
			Description: "Fetch details for a single product by sku.",
			Parameters: []contractx.ParameterSpec{
				{Name: "sku", Type: "string", Required: true},
			},
		},
		{
			Name:        CapCreateCart,
			Description: "Create a new empty cart.",
		},
		{
			Name:        CapAddToCart,
			Description: "Add a product to a cart.",
			Parameters: []contractx.ParameterSpec{
				{Name: "sku", Type: "string", Required: true},
				{Name: "cartId", Type: "string", Required: true},
				{Name: "quantity", Type: "integer", Description: "Defaults to 1"},
			},
		},
		{
			Name:        CapGetCart,
			Description: "Fetch the current contents of a cart.",
			Parameters: []contractx.ParameterSpec{
				{Name: "cartId", Type: "string", Required: true},
			},
		},
		{
			Name:        CapUpdateCartItem,
			Description: "Change the quantity of one cart line.",
			Parameters: []contractx.ParameterSpec{
				{Name: "cartId", Type: "string", Required: true},
				{Name: "cartItemId", Type: "string", Required: true},
				{Name: "quantity", Type: "integer", Required: true},
			},
		},
		{
			Name:        CapRemoveCartItem,
			Description: "Remove one line from a cart.",
			Parameters: []contractx.ParameterSpec{
				{Name: "cartId", Type: "string", Required: true},
				{Name: "cartItemId", Type: "string", Required: true},
			},
		},
	}
}

// Invoke dispatches one named capability. It never panics or returns a Go
// error past this boundary: a mistyped name from the classifier comes back as
// a failed result.
func (r *CommerceRegistry) Invoke(ctx context.Context, name string, args map[string]any, cc contractx.CallContext) contractx.CapabilityResult {
	switch name {
	case CapSearchProducts:
		return r.searchProducts(ctx, args)
	case CapGetProductDetails:
		return r.productDetails(ctx, args)
	case CapCreateCart:
		return r.createCart(ctx, cc)
	case CapAddToCart:
		return r.addToCart(ctx, args, cc)
	case CapGetCart:
		return r.getCart(ctx, args, cc)
	case CapUpdateCartItem:
		return r.updateCartItem(ctx, args, cc)
	case CapRemoveCartItem:
		return r.removeCartItem(ctx, args, cc)
	default:
		return contractx.CapabilityResult{
			Name:  name,
			Error: fmt.Sprintf("unknown capability %q", name),
		}
	}
}
