package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/flicky/storefront/internal/model"
)

var (
	alertTmpl = template.Must(template.New("alert").Parse(`<p>Hi {{.Owner}},</p>
<p>{{.Message}}</p>
<p><small>This is an automated alert from Storefront.</small></p>
`))

	digestTmpl = template.Must(template.New("digest").Funcs(template.FuncMap{
		"date": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return t.Format(time.DateOnly)
		},
	}).Parse(`<p>Hi {{.Owner}},</p>
{{- if .LowStock}}
<h3>Low stock:</h3>
<ul>{{range .LowStock}}<li>{{.Name}}: stock {{.Stock}}{{if .ReorderLevel}} (reorder level {{.ReorderLevel}}){{end}}</li>{{end}}</ul>
{{- end}}
{{- if .Expiring}}
<h3>Expiring soon (next {{.ExpiryDays}} days):</h3>
<ul>{{range .Expiring}}<li>{{.Name}}: expires {{date .ExpiryDate}}</li>{{end}}</ul>
{{- end}}
<p>Storefront</p>
`))
)

func ownerName(store *model.Store) string {
	if store.OwnerName == "" {
		return "Store Owner"
	}
	return store.OwnerName
}

// AlertEmail renders a single notification for the store owner.
func AlertEmail(store *model.Store, message string) (subject, html string, err error) {
	var buf bytes.Buffer
	err = alertTmpl.Execute(&buf, struct {
		Owner   string
		Message string
	}{ownerName(store), message})
	if err != nil {
		return "", "", fmt.Errorf("render alert: %w", err)
	}
	return "Low stock alert: " + store.Name, buf.String(), nil
}

type digestProduct struct {
	Name         string
	Stock        int
	ReorderLevel int
	ExpiryDate   *time.Time
}

// DigestEmail renders the daily inventory summary for one store.
func DigestEmail(store *model.Store, lowStock, expiring []model.Product, expiryDays int) (subject, html string, err error) {
	toDigest := func(ps []model.Product) []digestProduct {
		out := make([]digestProduct, 0, len(ps))
		for _, p := range ps {
			d := digestProduct{Name: p.Name, Stock: p.Stock, ExpiryDate: p.ExpiryDate}
			if p.ReorderLevel != nil {
				d.ReorderLevel = *p.ReorderLevel
			}
			out = append(out, d)
		}
		return out
	}

	var buf bytes.Buffer
	err = digestTmpl.Execute(&buf, struct {
		Owner      string
		LowStock   []digestProduct
		Expiring   []digestProduct
		ExpiryDays int
	}{ownerName(store), toDigest(lowStock), toDigest(expiring), expiryDays})
	if err != nil {
		return "", "", fmt.Errorf("render digest: %w", err)
	}
	return "Inventory alerts for " + store.Name, buf.String(), nil
}
