package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrDuplicateRedemption = errors.New("pledge receipt was already redeemed in this cart")

// CartLine is one display row of the cart. Duplicate scans of the same item
// merge into a single line by incrementing Quantity. A pledge-refund line is
// fixed at quantity 1 and carries the refund as a negative price.
type CartLine struct {
	ID          string
	Name        string
	Price       decimal.Decimal
	PledgeValue decimal.Decimal
	Quantity    int
	IsPledge    bool
	IsOrganic   bool
	ImageURL    string
}

// Subtotal is the line's contribution to the cart total.
func (l CartLine) Subtotal() decimal.Decimal {
	if l.IsPledge {
		return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
	}
	return l.Price.Add(l.PledgeValue).Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart holds the lines scanned during one kiosk session. It is owned by a
// single session controller and never shared across sessions, so it carries
// no lock and no durability: a restarted kiosk starts with an empty cart.
type Cart struct {
	Lines []CartLine
}

// ApplyItem merges a purchasable item into the cart: an existing line with
// the same item id gains quantity, otherwise a new line is appended.
// It returns the affected line.
func (c *Cart) ApplyItem(item ScannableItem) CartLine {
	for i := range c.Lines {
		if !c.Lines[i].IsPledge && c.Lines[i].ID == item.ID {
			c.Lines[i].Quantity++
			return c.Lines[i]
		}
	}
	line := CartLine{
		ID:          item.ID,
		Name:        item.Name,
		Price:       item.Price,
		PledgeValue: item.PledgeValue,
		Quantity:    1,
		IsOrganic:   item.IsOrganic,
		ImageURL:    item.ImageURL,
	}
	c.Lines = append(c.Lines, line)
	return line
}

// ApplyRedemption inserts a deposit-refund line. The line id is the
// redemption id, not time-based, so a receipt can be cashed in at most once
// per cart.
func (c *Cart) ApplyRedemption(r PledgeRedemption) error {
	for i := range c.Lines {
		if c.Lines[i].IsPledge && c.Lines[i].ID == r.ID {
			return ErrDuplicateRedemption
		}
	}
	c.Lines = append(c.Lines, CartLine{
		ID:       r.ID,
		Name:     "Pfand-Bon",
		Price:    r.Value.Neg(),
		Quantity: 1,
		IsPledge: true,
	})
	return nil
}

// UpdateQuantity adds delta to a line's quantity, clamped at zero; a line
// reaching zero is removed. Pledge lines expose no quantity controls, so the
// call is a no-op for them.
func (c *Cart) UpdateQuantity(lineID string, delta int) {
	for i := range c.Lines {
		if c.Lines[i].ID != lineID {
			continue
		}
		if c.Lines[i].IsPledge {
			return
		}
		q := c.Lines[i].Quantity + delta
		if q < 0 {
			q = 0
		}
		if q == 0 {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return
		}
		c.Lines[i].Quantity = q
		return
	}
}

// RemoveLine deletes a line unconditionally, regardless of type.
func (c *Cart) RemoveLine(lineID string) {
	for i := range c.Lines {
		if c.Lines[i].ID == lineID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return
		}
	}
}

// Total is recomputed from the lines on every call, never cached, so it
// cannot drift after a mutation.
func (c *Cart) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.Lines {
		sum = sum.Add(l.Subtotal())
	}
	return sum
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

func (c *Cart) Clear() {
	c.Lines = nil
}

// Items returns the purchasable lines in transaction wire shape.
func (c *Cart) Items() []TransactionItem {
	var items []TransactionItem
	for _, l := range c.Lines {
		if l.IsPledge {
			continue
		}
		items = append(items, TransactionItem{ItemID: l.ID, Quantity: l.Quantity})
	}
	return items
}

// PledgeIDs returns the redemption ids of all pledge-refund lines.
func (c *Cart) PledgeIDs() []string {
	var ids []string
	for _, l := range c.Lines {
		if l.IsPledge {
			ids = append(ids, l.ID)
		}
	}
	return ids
}
