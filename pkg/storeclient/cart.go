package storeclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrNotInCart       = errors.New("product not in cart")
	ErrExceedsStock    = errors.New("quantity exceeds available stock")
)

// Line is a cart entry. Price is the price shown when the product was added;
// the server prices the order from live data at checkout.
type Line struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Stock     int             `json:"stock"`
}

// Cart holds the shopper's selection until checkout. It is safe for
// concurrent use and keeps lines in the order they were first added.
type Cart struct {
	mu    sync.Mutex
	lines []Line
}

func NewCart() *Cart { return &Cart{} }

func (c *Cart) find(id uuid.UUID) int {
	for i := range c.lines {
		if c.lines[i].ProductID == id {
			return i
		}
	}
	return -1
}

// Add puts qty units of p in the cart, merging with an existing line.
func (c *Cart) Add(p Product, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.find(p.ID); i >= 0 {
		next := c.lines[i].Quantity + qty
		if next > p.Stock {
			return fmt.Errorf("%w: %s", ErrExceedsStock, p.Name)
		}
		c.lines[i].Quantity = next
		c.lines[i].Stock = p.Stock
		return nil
	}
	if qty > p.Stock {
		return fmt.Errorf("%w: %s", ErrExceedsStock, p.Name)
	}
	c.lines = append(c.lines, Line{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Quantity:  qty,
		Stock:     p.Stock,
	})
	return nil
}

// SetQuantity replaces a line's quantity. Zero removes the line.
func (c *Cart) SetQuantity(id uuid.UUID, qty int) error {
	if qty < 0 {
		return ErrInvalidQuantity
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.find(id)
	if i < 0 {
		return ErrNotInCart
	}
	if qty == 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
		return nil
	}
	if qty > c.lines[i].Stock {
		return fmt.Errorf("%w: %s", ErrExceedsStock, c.lines[i].Name)
	}
	c.lines[i].Quantity = qty
	return nil
}

func (c *Cart) Remove(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.find(id); i >= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
	}
}

func (c *Cart) Clear() {
	c.mu.Lock()
	c.lines = nil
	c.mu.Unlock()
}

// Lines returns a copy of the cart contents.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Line(nil), c.lines...)
}

// Count is the number of units across all lines.
func (c *Cart) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) Subtotal() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

func (c *Cart) Save(w io.Writer) error {
	return json.NewEncoder(w).Encode(c.Lines())
}

func LoadCart(r io.Reader) (*Cart, error) {
	var lines []Line
	if err := json.NewDecoder(r).Decode(&lines); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	cart := NewCart()
	for _, l := range lines {
		if l.Quantity < 1 || l.ProductID == uuid.Nil {
			continue
		}
		cart.lines = append(cart.lines, l)
	}
	return cart, nil
}

// Checkout builds the order payload from the cart.
func (c *Cart) Checkout(shippingAddress string) Checkout {
	lines := c.Lines()
	req := Checkout{
		Items:           make([]OrderLine, 0, len(lines)),
		ShippingAddress: shippingAddress,
	}
	for _, l := range lines {
		req.Items = append(req.Items, OrderLine{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return req
}
