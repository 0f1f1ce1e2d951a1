package commerce

import (
	"context"
	"fmt"
	"strings"
)

type Money struct {
	Value    float64 `json:"value"`
	Currency string  `json:"currency"`
}

type Product struct {
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	StockStatus string `json:"stock_status"`
	Description string `json:"description,omitempty"`
	Price       Money  `json:"price"`
}

type ProductPage struct {
	Items       []Product `json:"items"`
	TotalCount  int       `json:"total_count"`
	PageSize    int       `json:"page_size"`
	CurrentPage int       `json:"current_page"`
}

const searchProductsQuery = `
query ($search: String!, $pageSize: Int!, $currentPage: Int!) {
  products(search: $search, pageSize: $pageSize, currentPage: $currentPage) {
    total_count
    items {
      sku
      name
      stock_status
      description { html }
      price_range { minimum_price { final_price { value currency } } }
    }
  }
}`

const productDetailsQuery = `
query ($sku: String!) {
  products(filter: { sku: { eq: $sku } }) {
    total_count
    items {
      sku
      name
      stock_status
      description { html }
      price_range { minimum_price { final_price { value currency } } }
    }
  }
}`

type wireProduct struct {
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	StockStatus string `json:"stock_status"`
	Description struct {
		HTML string `json:"html"`
	} `json:"description"`
	PriceRange struct {
		MinimumPrice struct {
			FinalPrice Money `json:"final_price"`
		} `json:"minimum_price"`
	} `json:"price_range"`
}

type wireProducts struct {
	Products struct {
		TotalCount int           `json:"total_count"`
		Items      []wireProduct `json:"items"`
	} `json:"products"`
}

func (p wireProduct) toProduct() Product {
	return Product{
		SKU:         p.SKU,
		Name:        p.Name,
		StockStatus: p.StockStatus,
		Description: strings.TrimSpace(p.Description.HTML),
		Price:       p.PriceRange.MinimumPrice.FinalPrice,
	}
}

// SearchProducts runs a free-text catalog search.
func (c *Client) SearchProducts(ctx context.Context, query string, pageSize, currentPage int) (*ProductPage, error) {
	if pageSize <= 0 {
		pageSize = 10
	}
	if currentPage <= 0 {
		currentPage = 1
	}

	var out wireProducts
	err := c.execute(ctx, "", searchProductsQuery, map[string]any{
		"search":      query,
		"pageSize":    pageSize,
		"currentPage": currentPage,
	}, &out)
	if err != nil {
		return nil, err
	}

	page := &ProductPage{
		TotalCount:  out.Products.TotalCount,
		PageSize:    pageSize,
		CurrentPage: currentPage,
	}
	for _, item := range out.Products.Items {
		page.Items = append(page.Items, item.toProduct())
	}
	return page, nil
}

// ProductDetails fetches a single product by sku.
func (c *Client) ProductDetails(ctx context.Context, sku string) (*Product, error) {
	var out wireProducts
	err := c.execute(ctx, "", productDetailsQuery, map[string]any{"sku": sku}, &out)
	if err != nil {
		return nil, err
	}
	if len(out.Products.Items) == 0 {
		return nil, &APIError{Messages: []string{fmt.Sprintf("no product found for sku %q", sku)}}
	}
	product := out.Products.Items[0].toProduct()
	return &product, nil
}
