package dto

import (
	"strings"

	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/pricing"
	"github.com/shopspring/decimal"
)

// Valor is a money amount as typed at the register. It accepts JSON numbers
// and strings ("12.50", "12,50"); null, blank or garbage decode as zero
// instead of failing the whole request. Amounts above pricing.ValorMaximo do
// fail it.
type Valor struct {
	decimal.Decimal
}

// NewValor parses s; an out-of-range amount reads as zero.
func NewValor(s string) Valor {
	d, _ := pricing.ParseValor(s)
	return Valor{d}
}

func (v *Valor) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "null" {
		v.Decimal = decimal.Zero
		return nil
	}
	d, err := pricing.ParseValor(s)
	if err != nil {
		return err
	}
	v.Decimal = d
	return nil
}

func (v Valor) MarshalJSON() ([]byte, error) { return v.Decimal.MarshalJSON() }
