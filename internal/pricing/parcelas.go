package pricing

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// IntervaloParcelas is the fixed step between installment due dates.
const IntervaloParcelas = 30 * 24 * time.Hour

// MaxParcelas bounds the installment count accepted at the register.
const MaxParcelas = 24

// ErrQuantidadeParcelas is returned for installment counts outside 1..MaxParcelas.
var ErrQuantidadeParcelas = errors.New("quantidade de parcelas inválida")

// Parcela is one scheduled payment. Status is always pending when generated.
type Parcela struct {
	Numero     int
	Valor      decimal.Decimal
	Vencimento time.Time
}

// GerarParcelas splits total into n installments due every 30 days after
// emissao. Each value is total/n rounded half-up to cents; the rounding
// remainder is added to the last installment so the schedule sums to total.
func GerarParcelas(total decimal.Decimal, n int, emissao time.Time) ([]Parcela, error) {
	if n < 1 || n > MaxParcelas {
		return nil, ErrQuantidadeParcelas
	}
	total = total.Round(2)
	valor := total.Div(decimal.NewFromInt(int64(n))).Round(2)

	parcelas := make([]Parcela, n)
	acumulado := decimal.Zero
	for i := 0; i < n; i++ {
		parcelas[i] = Parcela{
			Numero:     i + 1,
			Valor:      valor,
			Vencimento: emissao.Add(time.Duration(i+1) * IntervaloParcelas),
		}
		acumulado = acumulado.Add(valor)
	}
	parcelas[n-1].Valor = valor.Add(total.Sub(acumulado))
	return parcelas, nil
}
