package tool

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	contractx "github.com/sornchai/shoptalk/agent/contract"
	commercex "github.com/sornchai/shoptalk/pkg/commerce"
)

// CreateCartOutput is the payload of a successful create_cart call.
type CreateCartOutput struct {
	CartID string `json:"cart_id"`
}

func (r *CommerceRegistry) searchProducts(ctx context.Context, args map[string]any) contractx.CapabilityResult {
	query, ok := stringArg(args, "query")
	if !ok {
		return missingParam(CapSearchProducts, "query")
	}
	pageSize, _ := intArg(args, "pageSize")
	currentPage, _ := intArg(args, "currentPage")

	page, err := r.client.SearchProducts(ctx, query, pageSize, currentPage)
	if err != nil {
		return failed(CapSearchProducts, err)
	}
	return contractx.CapabilityResult{
		Name:    CapSearchProducts,
		Success: true,
		Data:    page,
		Message: fmt.Sprintf("found %d products for %q", page.TotalCount, query),
	}
}

func (r *CommerceRegistry) productDetails(ctx context.Context, args map[string]any) contractx.CapabilityResult {
	sku, ok := stringArg(args, "sku")
	if !ok {
		return missingParam(CapGetProductDetails, "sku")
	}

	product, err := r.client.ProductDetails(ctx, sku)
	if err != nil {
		return failed(CapGetProductDetails, err)
	}
	return contractx.CapabilityResult{
		Name:    CapGetProductDetails,
		Success: true,
		Data:    product,
		Message: fmt.Sprintf("details for %s", product.Name),
	}
}

func (r *CommerceRegistry) createCart(ctx context.Context, cc contractx.CallContext) contractx.CapabilityResult {
	cartID, err := r.client.CreateCart(ctx, cc.CustomerToken)
	if err != nil {
		return failed(CapCreateCart, err)
	}
	return contractx.CapabilityResult{
		Name:    CapCreateCart,
		Success: true,
		Data:    CreateCartOutput{CartID: cartID},
		Message: "created a new cart",
	}
}

func (r *CommerceRegistry) addToCart(ctx context.Context, args map[string]any, cc contractx.CallContext) contractx.CapabilityResult {
	sku, ok := stringArg(args, "sku")
	if !ok {
		return missingParam(CapAddToCart, "sku")
	}
	cartID := cartIDArg(args, cc)
	if cartID == "" {
		return missingParam(CapAddToCart, "cartId")
	}
	quantity, ok := intArg(args, "quantity")
	if !ok {
		quantity = 1
	}

	cart, err := r.client.AddToCart(ctx, cc.CustomerToken, cartID, sku, quantity)
	if err != nil {
		return failed(CapAddToCart, err)
	}
	return contractx.CapabilityResult{
		Name:    CapAddToCart,
		Success: true,
		Data:    cart,
		Message: fmt.Sprintf("added %d x %s to the cart", quantity, sku),
	}
}

func (r *CommerceRegistry) getCart(ctx context.Context, args map[string]any, cc contractx.CallContext) contractx.CapabilityResult {
	cartID := cartIDArg(args, cc)
	if cartID == "" {
		return missingParam(CapGetCart, "cartId")
	}

	cart, err := r.client.Cart(ctx, cc.CustomerToken, cartID)
	if err != nil {
		return failed(CapGetCart, err)
	}
	return contractx.CapabilityResult{
		Name:    CapGetCart,
		Success: true,
		Data:    cart,
		Message: fmt.Sprintf("cart has %d items", cart.ItemCount),
	}
}

func (r *CommerceRegistry) updateCartItem(ctx context.Context, args map[string]any, cc contractx.CallContext) contractx.CapabilityResult {
	cartID := cartIDArg(args, cc)
	if cartID == "" {
		return missingParam(CapUpdateCartItem, "cartId")
	}
	itemID, ok := stringArg(args, "cartItemId")
	if !ok {
		return missingParam(CapUpdateCartItem, "cartItemId")
	}
	quantity, ok := intArg(args, "quantity")
	if !ok {
		return missingParam(CapUpdateCartItem, "quantity")
	}

	cart, err := r.client.UpdateCartItem(ctx, cc.CustomerToken, cartID, itemID, quantity)
	if err != nil {
		return failed(CapUpdateCartItem, err)
	}
	return contractx.CapabilityResult{
		Name:    CapUpdateCartItem,
		Success: true,
		Data:    cart,
		Message: fmt.Sprintf("set item %s to quantity %d", itemID, quantity),
	}
}

func (r *CommerceRegistry) removeCartItem(ctx context.Context, args map[string]any, cc contractx.CallContext) contractx.CapabilityResult {
	cartID := cartIDArg(args, cc)
	if cartID == "" {
		return missingParam(CapRemoveCartItem, "cartId")
	}
	itemID, ok := stringArg(args, "cartItemId")
	if !ok {
		return missingParam(CapRemoveCartItem, "cartItemId")
	}

	cart, err := r.client.RemoveCartItem(ctx, cc.CustomerToken, cartID, itemID)
	if err != nil {
		return failed(CapRemoveCartItem, err)
	}
	return contractx.CapabilityResult{
		Name:    CapRemoveCartItem,
		Success: true,
		Data:    cart,
		Message: fmt.Sprintf("removed item %s", itemID),
	}
}

// CartIDFromResult extracts the cart reference a successful capability call
// produced, if any. The orchestrator threads it into later calls of the same
// turn (create_cart before add_to_cart).
func CartIDFromResult(res contractx.CapabilityResult) string {
	if !res.Success {
		return ""
	}
	switch data := res.Data.(type) {
	case CreateCartOutput:
		return data.CartID
	case *commercex.Cart:
		if data != nil {
			return data.ID
		}
	}
	return ""
}

func missingParam(capability, param string) contractx.CapabilityResult {
	return contractx.CapabilityResult{
		Name:  capability,
		Error: fmt.Sprintf("missing required parameter %q", param),
	}
}

// failed records the backend error on the result instead of propagating it;
// a capability failure never aborts the turn.
func failed(capability string, err error) contractx.CapabilityResult {
	return contractx.CapabilityResult{
		Name:  capability,
		Error: err.Error(),
	}
}

func stringArg(args map[string]any, key string) (string, bool) {
	raw, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	s = strings.TrimSpace(s)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// intArg accepts JSON numbers (float64), native ints, and numeric strings.
func intArg(args map[string]any, key string) (int, bool) {
	raw, ok := args[key]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func cartIDArg(args map[string]any, cc contractx.CallContext) string {
	if id, ok := stringArg(args, "cartId"); ok {
		return id
	}
	return cc.CartID
}
