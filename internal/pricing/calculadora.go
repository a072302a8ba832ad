// Package pricing turns a cart into totals and a deferred-payment schedule.
// Everything here is pure: no I/O, no clock reads, decimal arithmetic only.
package pricing

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// TaxaCrediario is the surcharge applied to the subtotal of crediário sales.
var TaxaCrediario = decimal.RequireFromString("0.055")

// MetodoCrediario is the only payment method that carries a surcharge.
const MetodoCrediario = "crediario"

// ErrValorInsuficiente is returned when cash tendered does not cover the total.
var ErrValorInsuficiente = errors.New("valor recebido é menor que o total")

// ErrValorForaDoLimite is returned for amounts a DECIMAL(12,2) column cannot hold.
var ErrValorForaDoLimite = errors.New("valor fora do limite permitido")

// ValorMaximo is the largest amount stored in any money column.
var ValorMaximo = decimal.RequireFromString("9999999999.99")

const (
	digitosInteirosMax = 10
	casasDecimaisMax   = 20
)

// LinhaCarrinho is one cart line: a price snapshot plus quantity and a per-unit discount.
type LinhaCarrinho struct {
	PrecoUnitario decimal.Decimal
	Quantidade    int
	Desconto      decimal.Decimal
}

// Totais is the outcome of pricing a cart.
type Totais struct {
	Subtotal decimal.Decimal
	Taxa     decimal.Decimal
	Total    decimal.Decimal
}

// SubtotalLinha returns (price − discount) × quantity. A discount above the
// price yields a negative contribution; it is not floored.
func SubtotalLinha(l LinhaCarrinho) decimal.Decimal {
	return l.PrecoUnitario.Sub(l.Desconto).Mul(decimal.NewFromInt(int64(QuantidadeEfetiva(l.Quantidade))))
}

// QuantidadeEfetiva treats blank or non-positive quantities as 1.
func QuantidadeEfetiva(q int) int {
	if q < 1 {
		return 1
	}
	return q
}

// Calcular prices the cart for the given payment method.
func Calcular(linhas []LinhaCarrinho, metodo string) Totais {
	subtotal := decimal.Zero
	for _, l := range linhas {
		subtotal = subtotal.Add(SubtotalLinha(l))
	}
	subtotal = subtotal.Round(2)

	taxa := decimal.Zero
	if metodo == MetodoCrediario {
		taxa = subtotal.Mul(TaxaCrediario).Round(2)
	}
	return Totais{Subtotal: subtotal, Taxa: taxa, Total: subtotal.Add(taxa)}
}

// Troco returns the cash change for a payment. Tendering less than the total
// is a validation failure, not a negative change.
func Troco(recebido, total decimal.Decimal) (decimal.Decimal, error) {
	if recebido.LessThan(total) {
		return decimal.Zero, ErrValorInsuficiente
	}
	return recebido.Sub(total), nil
}

// ParseValor reads a money amount typed at the register. Both "12.50" and
// "12,50" are accepted; blank, partial or garbage input reads as zero.
// Amounts beyond ValorMaximo, or with more than 20 decimal places, return
// ErrValorForaDoLimite before any arithmetic can blow up their coefficient.
func ParseValor(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	if strings.Contains(s, ",") {
		// "1.234,56" → "1234.56"
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsZero() {
		// "0e9999999" still carries its exponent
		return decimal.Zero, nil
	}
	if !dentroDoLimite(d) {
		return decimal.Zero, ErrValorForaDoLimite
	}
	return d, nil
}

// ConferirLimite fails when any of the amounts does not fit a money column.
func ConferirLimite(valores ...decimal.Decimal) error {
	for _, v := range valores {
		if !dentroDoLimite(v) {
			return ErrValorForaDoLimite
		}
	}
	return nil
}

// dentroDoLimite looks at exponent and digit count first so that values like
// 1e30000000 are refused without being rescaled.
func dentroDoLimite(d decimal.Decimal) bool {
	if d.IsZero() {
		return true
	}
	exp := int(d.Exponent())
	if exp < -casasDecimaisMax || exp > digitosInteirosMax {
		return false
	}
	if d.NumDigits()+exp > digitosInteirosMax {
		return false
	}
	return d.Abs().LessThanOrEqual(ValorMaximo)
}
