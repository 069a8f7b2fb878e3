package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/studiocard/internal/models"

	"github.com/go-pdf/fpdf"
)

var ErrRenderFailed = errors.New("pdf render failed")

const dateLayout = "02.01.2006"

// RenderGiftCard 渲染单张礼品卡 PDF（含卡号，不含 PIN 明文之外的敏感信息）。
// PIN 由调用方传入明文，卡面上需要印出供顾客使用。
func RenderGiftCard(card *models.GiftCard, shopName string, pin string) ([]byte, error) {
	if card == nil {
		return nil, fmt.Errorf("%w: gift card is nil", ErrRenderFailed)
	}
	doc := fpdf.New("L", "mm", "A5", "")
	doc.SetMargins(15, 15, 15)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 22)
	doc.CellFormat(0, 12, sanitize(shopName), "", 1, "C", false, 0, "")
	doc.Ln(2)

	doc.SetFont("Helvetica", "", 14)
	doc.CellFormat(0, 8, "Gift Card", "", 1, "C", false, 0, "")
	doc.Ln(4)

	doc.SetFont("Helvetica", "B", 28)
	doc.CellFormat(0, 14, card.Amount.String()+" EUR", "", 1, "C", false, 0, "")
	doc.Ln(4)

	doc.SetFont("Courier", "B", 16)
	doc.CellFormat(0, 10, formatCardCode(card.Code), "", 1, "C", false, 0, "")
	if pin != "" {
		doc.SetFont("Courier", "", 12)
		doc.CellFormat(0, 8, "PIN: "+pin, "", 1, "C", false, 0, "")
	}
	doc.Ln(4)

	doc.SetFont("Helvetica", "", 10)
	doc.CellFormat(0, 6, "Valid until "+card.ValidTillDate.Format(dateLayout), "", 1, "C", false, 0, "")
	if msg := strings.TrimSpace(card.Message); msg != "" {
		doc.Ln(3)
		doc.SetFont("Helvetica", "I", 10)
		doc.MultiCell(0, 5, sanitize(msg), "", "C", false)
	}

	return output(doc)
}

// RenderInvoice 渲染购买发票 PDF。
func RenderInvoice(invoice *models.Invoice, shop *models.Shop, taxPercent models.Money) ([]byte, error) {
	if invoice == nil || shop == nil {
		return nil, fmt.Errorf("%w: invoice or shop is nil", ErrRenderFailed)
	}
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(20, 20, 20)
	doc.AddPage()

	writeHeader(doc, shop.Name, "Invoice "+invoice.InvoiceNo, invoice.CreatedAt)

	doc.SetFont("Helvetica", "", 10)
	doc.CellFormat(0, 6, "Customer: "+sanitize(invoice.CustomerEmail), "", 1, "L", false, 0, "")
	doc.Ln(6)

	writeTableHeader(doc, []string{"Gift Card", "Valid Until", "Amount"}, []float64{80, 45, 45})
	doc.SetFont("Helvetica", "", 10)
	for _, card := range invoice.GiftCards {
		doc.CellFormat(80, 7, formatCardCode(card.Code), "1", 0, "L", false, 0, "")
		doc.CellFormat(45, 7, card.ValidTillDate.Format(dateLayout), "1", 0, "C", false, 0, "")
		doc.CellFormat(45, 7, card.Amount.String(), "1", 1, "R", false, 0, "")
	}
	doc.Ln(4)

	writeAmountRow(doc, "Net amount", invoice.NetAmount.String())
	writeAmountRow(doc, fmt.Sprintf("VAT (%s%%)", taxPercent.Decimal.StringFixed(2)), invoice.TaxAmount.String())
	doc.SetFont("Helvetica", "B", 11)
	writeAmountRow(doc, "Total", invoice.TotalAmount.String())

	return output(doc)
}

// RenderRefundInvoice 渲染退款单 PDF，金额以负数展示。
func RenderRefundInvoice(refund *models.RefundInvoice, invoice *models.Invoice, shop *models.Shop) ([]byte, error) {
	if refund == nil || invoice == nil || shop == nil {
		return nil, fmt.Errorf("%w: refund, invoice or shop is nil", ErrRenderFailed)
	}
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(20, 20, 20)
	doc.AddPage()

	writeHeader(doc, shop.Name, "Refund "+refund.RefundNo, refund.CreatedAt)

	doc.SetFont("Helvetica", "", 10)
	doc.CellFormat(0, 6, "Original invoice: "+invoice.InvoiceNo, "", 1, "L", false, 0, "")
	doc.CellFormat(0, 6, fmt.Sprintf("Refund reference: %d", refund.ReferenceNumber), "", 1, "L", false, 0, "")
	doc.CellFormat(0, 6, "Customer: "+sanitize(invoice.CustomerEmail), "", 1, "L", false, 0, "")
	doc.Ln(6)

	writeAmountRow(doc, "Refunded VAT", "-"+refund.TaxAmount.String())
	doc.SetFont("Helvetica", "B", 11)
	writeAmountRow(doc, "Refund total", "-"+refund.RefundAmount.String())

	return output(doc)
}

// RenderPaymentInvoice 渲染平台结算发票 PDF。
func RenderPaymentInvoice(settlement *models.PaymentInvoice, shop *models.Shop, platformAddress string) ([]byte, error) {
	if settlement == nil || shop == nil {
		return nil, fmt.Errorf("%w: settlement or shop is nil", ErrRenderFailed)
	}
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(20, 20, 20)
	doc.AddPage()

	writeHeader(doc, "StudioCard Platform", "Settlement "+settlement.InvoiceNo, settlement.CreatedAt)

	doc.SetFont("Helvetica", "", 10)
	if platformAddress != "" {
		doc.MultiCell(0, 5, sanitize(platformAddress), "", "L", false)
		doc.Ln(2)
	}
	doc.CellFormat(0, 6, "Studio: "+sanitize(shop.Name), "", 1, "L", false, 0, "")
	doc.CellFormat(0, 6, fmt.Sprintf("Period: %s - %s",
		settlement.PeriodStart.Format(dateLayout), settlement.PeriodEnd.Format(dateLayout)), "", 1, "L", false, 0, "")
	doc.Ln(6)

	doc.SetFont("Helvetica", "B", 11)
	writeAmountRow(doc, "Platform fees due", settlement.TotalFees.String())

	return output(doc)
}

func writeHeader(doc *fpdf.Fpdf, title, subtitle string, issued time.Time) {
	doc.SetFont("Helvetica", "B", 16)
	doc.CellFormat(0, 10, sanitize(title), "", 1, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 12)
	doc.CellFormat(0, 8, subtitle, "", 1, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 9)
	doc.CellFormat(0, 6, "Date: "+issued.Format(dateLayout), "", 1, "L", false, 0, "")
	doc.Ln(4)
}

func writeTableHeader(doc *fpdf.Fpdf, labels []string, widths []float64) {
	doc.SetFont("Helvetica", "B", 10)
	for i, label := range labels {
		last := 0
		align := "L"
		if i == len(labels)-1 {
			last = 1
			align = "R"
		}
		doc.CellFormat(widths[i], 7, label, "1", last, align, false, 0, "")
	}
}

func writeAmountRow(doc *fpdf.Fpdf, label, amount string) {
	doc.CellFormat(125, 7, label, "", 0, "R", false, 0, "")
	doc.CellFormat(45, 7, amount+" EUR", "", 1, "R", false, 0, "")
}

// formatCardCode 四位一组展示卡号。
func formatCardCode(code string) string {
	var b strings.Builder
	for i, r := range code {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// sanitize 核心字体仅覆盖 ASCII，超出范围的字符替换为占位符。
func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < 32 || r > 126 {
			b.WriteByte('?')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func output(doc *fpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	return buf.Bytes(), nil
}
