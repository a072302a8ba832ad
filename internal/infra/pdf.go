package infra

// pdf.go: receipt and label sheets rendered with go-pdf/fpdf.
// Receipts use 80mm thermal paper with a height that grows with the sale;
// labels are an A4 sheet of 3×9 cells of 60×30mm.

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

const (
	reciboLargura = 80.0
	reciboMargem  = 4.0

	etiquetaLargura = 60.0
	etiquetaAltura  = 30.0
	etiquetaColunas = 3
	etiquetaLinhas  = 9
)

var rotuloMetodo = map[string]string{
	model.MetodoPix:       "PIX",
	model.MetodoDinheiro:  "Dinheiro",
	model.MetodoDebito:    "Cartão de débito",
	model.MetodoCredito:   "Cartão de crédito",
	model.MetodoCrediario: "Crediário",
}

func moeda(d decimal.Decimal) string { return "R$ " + d.StringFixed(2) }

// RenderReciboPDF renders the receipt of a sale. cfg may be nil.
func RenderReciboPDF(venda *model.Venda, cfg *model.Configuracao) ([]byte, error) {
	altura := 95.0 + float64(len(venda.Itens))*5 + float64(len(venda.Parcelas))*4
	if cfg != nil && cfg.PixQRURL != "" && venda.MetodoPagamento == model.MetodoPix {
		altura += 8
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: reciboLargura, Ht: altura},
	})
	pdf.SetMargins(reciboMargem, reciboMargem, reciboMargem)
	pdf.SetAutoPageBreak(false, reciboMargem)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 2*reciboMargem

	separador := func() {
		pdf.Ln(1)
		pdf.Line(reciboMargem, pdf.GetY(), pageW-reciboMargem, pdf.GetY())
		pdf.Ln(2)
	}

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentW, 7, tr(cfg.NomeExibicao()), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, tr("Comprovante de venda (não fiscal)"), "", 1, "C", false, 0, "")
	pdf.Ln(1)

	// ── Sale info ────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, "Venda "+venda.ID.String()[:8], "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 4, venda.CreatedAt.Local().Format("02/01/2006 15:04"), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 4, tr("Operador: "+venda.OperadorNome), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 4, tr("Cliente: "+venda.ClienteNome), "", 1, "L", false, 0, "")
	if venda.Status == model.VendaCancelada {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(contentW, 5, "*** VENDA CANCELADA ***", "", 1, "C", false, 0, "")
	}
	separador()

	// ── Items ────────────────────────────────────────────────────────────────
	col1 := contentW * 0.50
	col2 := contentW * 0.18
	col3 := contentW * 0.32

	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(col1, 5, "Produto", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, "Qtd", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 5, "Subtotal", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	for _, item := range venda.Itens {
		nome := []rune(item.Nome)
		if len(nome) > 26 {
			nome = append(nome[:25], '.')
		}
		pdf.CellFormat(col1, 5, tr(string(nome)), "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, fmt.Sprintf("%dx", item.Quantidade), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 5, moeda(item.Subtotal), "", 1, "R", false, 0, "")
	}
	separador()

	// ── Totals ───────────────────────────────────────────────────────────────
	linha := func(rotulo, valor string) {
		pdf.CellFormat(col1+col2, 4, tr(rotulo), "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 4, valor, "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "", 7)
	linha("Subtotal:", moeda(venda.Subtotal))
	if !venda.Taxa.IsZero() {
		linha("Taxa crediário:", moeda(venda.Taxa))
	}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1+col2, 6, "TOTAL:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 6, moeda(venda.Total), "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	metodo := rotuloMetodo[venda.MetodoPagamento]
	if metodo == "" {
		metodo = venda.MetodoPagamento
	}
	linha("Pagamento ("+metodo+"):", moeda(venda.ValorPago))
	if venda.MetodoPagamento == model.MetodoDinheiro {
		linha("Troco:", moeda(venda.Troco))
	}

	// ── Installments ─────────────────────────────────────────────────────────
	if len(venda.Parcelas) > 0 {
		separador()
		pdf.SetFont("Helvetica", "B", 7)
		pdf.CellFormat(contentW, 4, "Parcelas", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 7)
		for _, p := range venda.Parcelas {
			pdf.CellFormat(col1*0.4, 4, fmt.Sprintf("%d/%d", p.Numero, len(venda.Parcelas)), "", 0, "L", false, 0, "")
			pdf.CellFormat(col1*0.6+col2, 4, p.Vencimento.Local().Format("02/01/2006")+" "+p.Status, "", 0, "L", false, 0, "")
			pdf.CellFormat(col3, 4, moeda(p.Valor), "", 1, "R", false, 0, "")
		}
	}

	// ── Footer ───────────────────────────────────────────────────────────────
	if cfg != nil && cfg.PixQRURL != "" && venda.MetodoPagamento == model.MetodoPix {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "", 6)
		pdf.MultiCell(contentW, 3, tr("QR PIX: "+cfg.PixQRURL), "", "C", false)
	}
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, tr("Obrigado pela preferência!"), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render recibo: %w", err)
	}
	return buf.Bytes(), nil
}

// GerarReciboPDF renders the receipt and writes it to storagePath/recibo_{id}.pdf.
// Returns the path of the written file.
func GerarReciboPDF(venda *model.Venda, cfg *model.Configuracao, storagePath string) (string, error) {
	data, err := RenderReciboPDF(venda, cfg)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	filePath := filepath.Join(storagePath, fmt.Sprintf("recibo_%s.pdf", venda.ID))
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}

// RenderEtiquetasPDF renders copias labels of every product, filling A4 sheets
// row by row. Each label shows name, code and sale price.
func RenderEtiquetasPDF(produtos []model.Produto, copias int, cfg *model.Configuracao) ([]byte, error) {
	if copias < 1 {
		copias = 1
	}
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, pageH := pdf.GetPageSize()
	margemX := (pageW - etiquetaColunas*etiquetaLargura) / 2
	margemY := (pageH - etiquetaLinhas*etiquetaAltura) / 2
	porPagina := etiquetaColunas * etiquetaLinhas

	n := 0
	for _, p := range produtos {
		for c := 0; c < copias; c++ {
			if n%porPagina == 0 {
				pdf.AddPage()
			}
			pos := n % porPagina
			x := margemX + float64(pos%etiquetaColunas)*etiquetaLargura
			y := margemY + float64(pos/etiquetaColunas)*etiquetaAltura

			pdf.SetDrawColor(200, 200, 200)
			pdf.Rect(x, y, etiquetaLargura, etiquetaAltura, "D")

			pdf.SetXY(x+2, y+2)
			pdf.SetFont("Helvetica", "", 6)
			pdf.CellFormat(etiquetaLargura-4, 3, tr(cfg.NomeExibicao()), "", 2, "L", false, 0, "")
			pdf.SetFont("Helvetica", "B", 8)
			pdf.CellFormat(etiquetaLargura-4, 5, tr(truncar(p.Nome, 32)), "", 2, "L", false, 0, "")
			pdf.SetFont("Courier", "", 8)
			pdf.CellFormat(etiquetaLargura-4, 5, tr(p.Codigo), "", 2, "L", false, 0, "")
			pdf.SetFont("Helvetica", "B", 14)
			pdf.CellFormat(etiquetaLargura-4, 9, moeda(p.PrecoVenda), "", 2, "R", false, 0, "")
			n++
		}
	}
	if n == 0 {
		pdf.AddPage()
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render etiquetas: %w", err)
	}
	return buf.Bytes(), nil
}

func truncar(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "."
}
