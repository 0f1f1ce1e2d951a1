package commerce

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/sornchai/shoptalk/agent/contract"
)

type CartItem struct {
	UID      string  `json:"uid"`
	SKU      string  `json:"sku"`
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	RowTotal Money   `json:"row_total"`
}

type Cart struct {
	ID         string     `json:"id"`
	ItemCount  int        `json:"item_count"`
	Items      []CartItem `json:"items"`
	GrandTotal Money      `json:"grand_total"`
}

const cartFields = `
      id
      total_quantity
      items {
        uid
        quantity
        product { sku name }
        prices { row_total { value currency } }
      }
      prices { grand_total { value currency } }`

const createCartMutation = `
mutation {
  createEmptyCart
}`

const getCartQuery = `
query ($cartId: String!) {
  cart(cart_id: $cartId) {` + cartFields + `
  }
}`

const addToCartMutation = `
mutation ($cartId: String!, $sku: String!, $quantity: Float!) {
  addProductsToCart(cartId: $cartId, cartItems: [{ sku: $sku, quantity: $quantity }]) {
    cart {` + cartFields + `
    }
    user_errors { code message }
  }
}`

const updateCartItemMutation = `
mutation ($cartId: String!, $itemUid: ID!, $quantity: Float!) {
  updateCartItems(input: { cart_id: $cartId, cart_items: [{ cart_item_uid: $itemUid, quantity: $quantity }] }) {
    cart {` + cartFields + `
    }
  }
}`

const removeCartItemMutation = `
mutation ($cartId: String!, $itemUid: ID!) {
  removeItemFromCart(input: { cart_id: $cartId, cart_item_uid: $itemUid }) {
    cart {` + cartFields + `
    }
  }
}`

type wireUserError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type wireCart struct {
	ID            string  `json:"id"`
	TotalQuantity float64 `json:"total_quantity"`
	Items         []struct {
		UID      string  `json:"uid"`
		Quantity float64 `json:"quantity"`
		Product  struct {
			SKU  string `json:"sku"`
			Name string `json:"name"`
		} `json:"product"`
		Prices struct {
			RowTotal Money `json:"row_total"`
		} `json:"prices"`
	} `json:"items"`
	Prices struct {
		GrandTotal Money `json:"grand_total"`
	} `json:"prices"`
}

func (w wireCart) toCart() *Cart {
	cart := &Cart{
		ID:         w.ID,
		ItemCount:  int(w.TotalQuantity),
		GrandTotal: w.Prices.GrandTotal,
	}
	for _, item := range w.Items {
		cart.Items = append(cart.Items, CartItem{
			UID:      item.UID,
			SKU:      item.Product.SKU,
			Name:     item.Product.Name,
			Quantity: item.Quantity,
			RowTotal: item.Prices.RowTotal,
		})
	}
	return cart
}

// CreateCart creates an empty cart. With a customer token the backend binds
// the cart to that customer; without one it is a guest cart.
func (c *Client) CreateCart(ctx context.Context, token string) (string, error) {
	var out struct {
		CartID string `json:"createEmptyCart"`
	}
	if err := c.execute(ctx, token, createCartMutation, nil, &out); err != nil {
		return "", err
	}
	cartID := strings.TrimSpace(out.CartID)
	if cartID == "" {
		return "", fmt.Errorf("%w: backend returned empty cart id", contractx.ErrUpstream)
	}
	return cartID, nil
}

// Cart fetches the current contents of a cart.
func (c *Client) Cart(ctx context.Context, token, cartID string) (*Cart, error) {
	if strings.TrimSpace(cartID) == "" {
		return nil, errEmptyCartID
	}
	var out struct {
		Cart wireCart `json:"cart"`
	}
	if err := c.execute(ctx, token, getCartQuery, map[string]any{"cartId": cartID}, &out); err != nil {
		return nil, err
	}
	return out.Cart.toCart(), nil
}

// AddToCart adds quantity units of sku to the cart. Backend user errors
// (e.g. out of stock) surface as *APIError.
func (c *Client) AddToCart(ctx context.Context, token, cartID, sku string, quantity int) (*Cart, error) {
	if strings.TrimSpace(cartID) == "" {
		return nil, errEmptyCartID
	}
	if quantity <= 0 {
		quantity = 1
	}
	var out struct {
		AddProductsToCart struct {
			Cart       wireCart        `json:"cart"`
			UserErrors []wireUserError `json:"user_errors"`
		} `json:"addProductsToCart"`
	}
	err := c.execute(ctx, token, addToCartMutation, map[string]any{
		"cartId":   cartID,
		"sku":      sku,
		"quantity": float64(quantity),
	}, &out)
	if err != nil {
		return nil, err
	}
	if err := userErrorsToAPIError(out.AddProductsToCart.UserErrors); err != nil {
		return nil, err
	}
	return out.AddProductsToCart.Cart.toCart(), nil
}

// UpdateCartItem sets the quantity of one cart line.
func (c *Client) UpdateCartItem(ctx context.Context, token, cartID, itemUID string, quantity int) (*Cart, error) {
	if strings.TrimSpace(cartID) == "" {
		return nil, errEmptyCartID
	}
	var out struct {
		UpdateCartItems struct {
			Cart wireCart `json:"cart"`
		} `json:"updateCartItems"`
	}
	err := c.execute(ctx, token, updateCartItemMutation, map[string]any{
		"cartId":   cartID,
		"itemUid":  itemUID,
		"quantity": float64(quantity),
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.UpdateCartItems.Cart.toCart(), nil
}

// RemoveCartItem deletes one cart line.
func (c *Client) RemoveCartItem(ctx context.Context, token, cartID, itemUID string) (*Cart, error) {
	if strings.TrimSpace(cartID) == "" {
		return nil, errEmptyCartID
	}
	var out struct {
		RemoveItemFromCart struct {
			Cart wireCart `json:"cart"`
		} `json:"removeItemFromCart"`
	}
	err := c.execute(ctx, token, removeCartItemMutation, map[string]any{
		"cartId":  cartID,
		"itemUid": itemUID,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.RemoveItemFromCart.Cart.toCart(), nil
}
