package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/thegera4/cool-morning-tables-sub000/internal/models"
	"github.com/thegera4/cool-morning-tables-sub000/internal/pricing"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const qrAttachmentName = "reservacion-qr.png"

type itemView struct {
	Name     string
	Quantity int64
	Subtotal string
}

type orderView struct {
	CustomerName    string
	OrderNumber     string
	LocationName    string
	ReservationDate string
	Items           []itemView
	Total           string
	AmountPaid      string
	AmountPending   string
	HasPending      bool
	Conflict        bool
	OrderURL        string
	QRName          string
}

func newOrderView(o *models.OrderWithCustomer, publicURL string) orderView {
	v := orderView{
		CustomerName:    o.CustomerName,
		OrderNumber:     o.OrderNumber,
		LocationName:    o.LocationName,
		ReservationDate: displayDate(o.ReservationDate),
		Total:           pricing.FormatCurrency(o.Total, o.Currency),
		AmountPaid:      pricing.FormatCurrency(o.AmountPaid, o.Currency),
		AmountPending:   pricing.FormatCurrency(o.AmountPending, o.Currency),
		HasPending:      o.AmountPending > 0,
		Conflict:        o.Status == models.StatusConflict,
		OrderURL:        orderURL(publicURL, o.OrderNumber),
		QRName:          qrAttachmentName,
	}
	if v.CustomerName == "" {
		v.CustomerName = o.CustomerEmail
	}
	for _, it := range o.Items {
		v.Items = append(v.Items, itemView{
			Name:     it.Name,
			Quantity: it.Quantity,
			Subtotal: pricing.FormatCurrency(it.Subtotal(), o.Currency),
		})
	}
	return v
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}

func orderURL(publicURL, number string) string {
	if publicURL == "" {
		return ""
	}
	return strings.TrimRight(publicURL, "/") + "/reservaciones/" + number
}

// displayDate turns 2026-02-14 into 14/02/2026; unparsable input is returned as is.
func displayDate(date string) string {
	t, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("02/01/2006")
}
