package pdf

import (
	"context"
	"strings"

	"github.com/gosimple/slug"
	"github.com/smallbiznis/tailorbook/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("pdf",
	fx.Provide(New),
)

// Provider renders printable documents.
type Provider interface {
	GenerateReceipt(ctx context.Context, data ReceiptData) ([]byte, error)
}

type PDFProvider struct {
	shopName string
}

func New(cfg config.Config) Provider {
	return &PDFProvider{shopName: strings.TrimSpace(cfg.Receipt.ShopName)}
}

// ReceiptFilename builds a download name such as bill-17-sara-khan.pdf.
func ReceiptFilename(data ReceiptData) string {
	name := slug.Make(strings.TrimSpace("bill " + data.BillNumber + " " + data.CustomerName))
	if name == "" {
		name = "bill"
	}
	return name + ".pdf"
}
