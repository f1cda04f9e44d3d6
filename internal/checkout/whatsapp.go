package checkout

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/example/babyshop/internal/cart"
)

var ErrEmptyCart = errors.New("cart is empty")

// Message renders the cart as the human-readable order text handed to
// WhatsApp. This is the entire checkout surface: no order record is
// created anywhere.
func Message(state cart.State) string {
	var b strings.Builder
	b.WriteString("Hello! I would like to place an order:\n\n")

	for i, item := range state.Items {
		fmt.Fprintf(&b, "%d. %s", i+1, item.Product.Name)
		var variants []string
		if item.Color != "" {
			variants = append(variants, "Color: "+item.Color)
		}
		if item.Size != "" {
			variants = append(variants, "Size: "+item.Size)
		}
		if len(variants) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(variants, ", "))
		}
		fmt.Fprintf(&b, " x%d - ₹%d\n", item.Quantity, item.Product.SpecialPrice*item.Quantity)
	}

	fmt.Fprintf(&b, "\nTotal: ₹%d", state.Total)
	return b.String()
}

// Link builds the wa.me deep link carrying the order message.
func Link(number string, state cart.State) (string, error) {
	if len(state.Items) == 0 {
		return "", ErrEmptyCart
	}
	return "https://wa.me/" + number + "?text=" + url.QueryEscape(Message(state)), nil
}
