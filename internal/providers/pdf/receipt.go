package pdf

import (
	"context"
	"sort"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	recorddomain "github.com/smallbiznis/tailorbook/internal/record/domain"
)

// ReceiptData is the printable view of a bill.
type ReceiptData struct {
	BillNumber    string
	CustomerName  string
	Amount        string
	Status        string
	PaymentMethod string
	Date          string
	Extra         []Field
}

type Field struct {
	Name  string
	Value string
}

var receiptFields = map[string]bool{
	"billNumber":    true,
	"customerName":  true,
	"amount":        true,
	"status":        true,
	"paymentMethod": true,
	"date":          true,
}

// ReceiptFromDocument maps a stored bill onto receipt fields. Fields outside
// the known set are listed under Extra in name order; nested values are
// skipped.
func ReceiptFromDocument(doc recorddomain.Document) ReceiptData {
	get := func(field string) string {
		value, _ := doc.String(field)
		return value
	}
	data := ReceiptData{
		BillNumber:    doc.Identity(recorddomain.Bill),
		CustomerName:  get("customerName"),
		Amount:        get("amount"),
		Status:        get("status"),
		PaymentMethod: get("paymentMethod"),
		Date:          get("date"),
	}

	names := make([]string, 0, len(doc))
	for name := range doc {
		if !receiptFields[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		if value, ok := doc.String(name); ok && value != "" {
			data.Extra = append(data.Extra, Field{Name: name, Value: value})
		}
	}
	return data
}

func (p *PDFProvider) GenerateReceipt(ctx context.Context, receipt ReceiptData) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	shop := p.shopName
	if shop == "" {
		shop = "Tailor Book"
	}
	m.AddRow(20,
		text.NewCol(8, shop, props.Text{Size: 18, Style: fontstyle.Bold, Align: align.Left}),
		text.NewCol(4, "Bill receipt", props.Text{Size: 12, Align: align.Right, Top: 3}),
	)

	m.AddRow(24,
		col.New(6).Add(
			text.New("Bill number: "+receipt.BillNumber, props.Text{Top: 0}),
			text.New("Date: "+orDash(receipt.Date), props.Text{Top: 5}),
			text.New("Status: "+orDash(receipt.Status), props.Text{Top: 10}),
		),
		col.New(6).Add(
			text.New("Customer", props.Text{Style: fontstyle.Bold}),
			text.New(orDash(receipt.CustomerName), props.Text{Top: 5}),
			text.New("Payment method: "+orDash(receipt.PaymentMethod), props.Text{Top: 10}),
		),
	)

	if len(receipt.Extra) > 0 {
		m.AddRow(10,
			text.NewCol(6, "Detail", props.Text{Style: fontstyle.Bold, Size: 9}),
			text.NewCol(6, "Value", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		)
		for _, field := range receipt.Extra {
			m.AddRow(8,
				text.NewCol(6, field.Name, props.Text{Size: 9}),
				text.NewCol(6, field.Value, props.Text{Size: 9, Align: align.Right}),
			)
		}
	}

	m.AddRow(14,
		col.New(6),
		text.NewCol(3, "Amount", props.Text{Size: 11, Style: fontstyle.Bold, Top: 4}),
		text.NewCol(3, orDash(receipt.Amount), props.Text{Size: 11, Style: fontstyle.Bold, Align: align.Right, Top: 4}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
