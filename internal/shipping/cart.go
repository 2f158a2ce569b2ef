package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
)

// CartLine is one line of an already normalized cart structure.
type CartLine struct {
	Key      string  `json:"key"`
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// CartContents is the cart shaped dataset: contents plus the destination
// the customer entered at checkout.
type CartContents struct {
	Contents    []CartLine `json:"contents"`
	Destination *Address   `json:"destination,omitempty"`
}

// Dataset is the input of a calculation. Exactly one of the fields is
// expected to be set; a zero Dataset normalizes to an empty cart.
type Dataset struct {
	Cart       *CartContents
	ProductIDs []string
	Products   []Product
}

// DecodeDataset recognizes the three JSON shapes a dataset can take: an
// object with contents, an array of product ids, or an array of product
// objects. Anything else yields the zero Dataset.
func DecodeDataset(raw []byte) Dataset {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Dataset{}
	}

	switch raw[0] {
	case '{':
		var shape map[string]json.RawMessage
		if err := json.Unmarshal(raw, &shape); err != nil {
			return Dataset{}
		}
		if _, ok := shape["contents"]; !ok {
			return Dataset{}
		}
		var cart CartContents
		if err := json.Unmarshal(raw, &cart); err != nil {
			return Dataset{}
		}
		return Dataset{Cart: &cart}
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err != nil || len(elems) == 0 {
			return Dataset{}
		}
		if ids, ok := decodeIDs(elems); ok {
			return Dataset{ProductIDs: ids}
		}
		var products []Product
		if err := json.Unmarshal(raw, &products); err != nil {
			return Dataset{}
		}
		return Dataset{Products: products}
	}
	return Dataset{}
}

// decodeIDs accepts integers and non-empty strings.
func decodeIDs(elems []json.RawMessage) ([]string, bool) {
	ids := make([]string, 0, len(elems))
	for _, e := range elems {
		var s string
		if err := json.Unmarshal(e, &s); err == nil {
			if s = strings.TrimSpace(s); s != "" {
				ids = append(ids, s)
				continue
			}
			return nil, false
		}
		var n json.Number
		if err := json.Unmarshal(e, &n); err == nil {
			if _, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
				ids = append(ids, n.String())
				continue
			}
		}
		return nil, false
	}
	return ids, true
}

// CartOverride applies to every item of the cart.
type CartOverride struct {
	Quantity int `json:"quantity,omitempty"`
}

// ItemOverride replaces values of one item. The product reference itself
// cannot be overridden.
type ItemOverride struct {
	Quantity int               `json:"quantity,omitempty"`
	Weight   *float64          `json:"weight,omitempty"`
	Length   *float64          `json:"length,omitempty"`
	Width    *float64          `json:"width,omitempty"`
	Height   *float64          `json:"height,omitempty"`
	Meta     map[string]string `json:"meta,omitempty"`
}

type Overrides struct {
	Cart  CartOverride            `json:"cart"`
	Items map[string]ItemOverride `json:"items,omitempty"`
}

// CartItem is one distinct product line of a normalized cart.
type CartItem struct {
	Key      string
	Product  Product
	Quantity int
	Override ItemOverride
	Meta     map[string]string
}

func (i CartItem) Weight() float64 {
	if i.Override.Weight != nil {
		return *i.Override.Weight
	}
	return i.Product.Weight
}

func (i CartItem) Length() float64 {
	if i.Override.Length != nil {
		return *i.Override.Length
	}
	return i.Product.Length
}

func (i CartItem) Width() float64 {
	if i.Override.Width != nil {
		return *i.Override.Width
	}
	return i.Product.Width
}

func (i CartItem) Height() float64 {
	if i.Override.Height != nil {
		return *i.Override.Height
	}
	return i.Product.Height
}

func (i CartItem) NeedsShipping() bool {
	return i.Product.NeedsShipping()
}

// Label identifies the item in package metadata.
func (i CartItem) Label() string {
	return i.Product.ID + "|" + i.Product.Name
}

// Cart is an ordered set of items with unique keys.
type Cart []CartItem

// CartNormalizer turns any dataset shape into a Cart.
type CartNormalizer struct {
	products ProductSource
	logger   *slog.Logger
}

func NewCartNormalizer(products ProductSource, logger *slog.Logger) *CartNormalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &CartNormalizer{products: products, logger: logger}
}

// Normalize returns the cart and, for cart shaped datasets, the destination
// address carried by the dataset.
func (n *CartNormalizer) Normalize(ctx context.Context, ds Dataset, overrides Overrides) (Cart, *Address) {
	switch {
	case ds.Cart != nil:
		cart := make(Cart, 0, len(ds.Cart.Contents))
		seen := make(map[string]bool, len(ds.Cart.Contents))
		for _, line := range ds.Cart.Contents {
			key := line.Key
			if key == "" {
				key = line.Product.ID
			}
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			qty := line.Quantity
			if qty < 1 {
				qty = 1
			}
			cart = append(cart, CartItem{Key: key, Product: line.Product, Quantity: qty})
		}
		return cart, ds.Cart.Destination

	case len(ds.ProductIDs) > 0:
		if n.products == nil {
			n.logger.Warn("NormalizeCart: no product source configured", "ids", len(ds.ProductIDs))
			return Cart{}, nil
		}
		products, err := n.products.FetchByIDs(ctx, ds.ProductIDs)
		if err != nil {
			n.logger.Error("NormalizeCart: failed to fetch products", "error", err)
			return Cart{}, nil
		}
		return n.fromProducts(products, overrides), nil

	case len(ds.Products) > 0:
		return n.fromProducts(ds.Products, overrides), nil
	}

	return Cart{}, nil
}

func (n *CartNormalizer) fromProducts(products []Product, overrides Overrides) Cart {
	cart := make(Cart, 0, len(products))
	seen := make(map[string]bool, len(products))
	for _, p := range products {
		if p.ID == "" || seen[p.ID] {
			continue
		}
		seen[p.ID] = true

		item := CartItem{Key: p.ID, Product: p, Quantity: 1}
		if overrides.Cart.Quantity > 0 {
			item.Quantity = overrides.Cart.Quantity
		}
		if o, ok := overrides.Items[p.ID]; ok {
			if o.Quantity > 0 {
				item.Quantity = o.Quantity
			}
			item.Override = o
			item.Meta = mergeMeta(o.Meta)
		}
		cart = append(cart, item)
	}
	return cart
}

func mergeMeta(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		if k == "product" || k == "data" {
			continue
		}
		out[k] = v
	}
	return out
}
