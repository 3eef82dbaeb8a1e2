// Package templates holds the HTML fragments returned to HTMX requests.
// Components are plain templ.Component values so they render the same way
// generated templ code does.
package templates

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/partsdesk/internal/core"
)

// maxPreviewRows caps the rows listed in the preview table; the counts above
// it always cover the whole file.
const maxPreviewRows = 50

// ErrorAlert renders a dismissible error banner.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		e := newWriter(w)
		e.raw(`<div class="alert alert-error" role="alert">`)
		e.raw(`<p class="alert-message">`).text(message).raw(`</p>`)
		if action != "" {
			e.raw(`<p class="alert-action">`).text(action).raw(`</p>`)
		}
		if code != "" {
			e.raw(`<p class="alert-code">Code: `).text(code).raw(`</p>`)
		}
		e.raw(`</div>`)
		return e.err
	})
}

// ImportPreview renders the result of validating an item file: summary
// counts, the valid items and the row errors.
func ImportPreview(p *core.ImportPreview) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		e := newWriter(w)
		e.raw(`<section class="import-preview" id="import-preview" data-preview-id="`).text(p.ID.String()).raw(`">`)

		e.raw(`<header><h3>`).text(p.FileName).raw(`</h3>`)
		e.raw(`<ul class="import-summary">`)
		e.raw(`<li>Rows: `).text(strconv.Itoa(p.TotalRows)).raw(`</li>`)
		e.raw(`<li class="ok">Valid items: `).text(strconv.Itoa(len(p.ValidItems))).raw(`</li>`)
		e.raw(`<li class="bad">Errors: `).text(strconv.Itoa(len(p.Errors))).raw(`</li>`)
		e.raw(`<li>Total value: `).text(fmt.Sprintf("%.2f", p.TotalValue)).raw(`</li>`)
		e.raw(`</ul></header>`)

		if len(p.ValidItems) > 0 {
			e.raw(`<table class="import-items"><thead><tr>`)
			for _, h := range []string{"Item", "Code", "Qty", "Units", "Cost", "Currency", "Vendor"} {
				e.raw(`<th>`).text(h).raw(`</th>`)
			}
			e.raw(`</tr></thead><tbody>`)
			for i, it := range p.ValidItems {
				if i == maxPreviewRows {
					break
				}
				e.raw(`<tr>`)
				for _, v := range []string{
					it.ItemName, it.ItemCode,
					strconv.FormatFloat(it.Quantity, 'f', -1, 64), it.Units,
					strconv.FormatFloat(it.Cost, 'f', -1, 64), it.Currency, it.Vendor,
				} {
					e.raw(`<td>`).text(v).raw(`</td>`)
				}
				e.raw(`</tr>`)
			}
			e.raw(`</tbody></table>`)
		}

		if len(p.Errors) > 0 {
			e.raw(`<table class="import-errors"><thead><tr><th>Row</th><th>Field</th><th>Message</th><th>Value</th></tr></thead><tbody>`)
			for i, ve := range p.Errors {
				if i == maxPreviewRows {
					break
				}
				e.raw(`<tr><td>`).text(strconv.Itoa(ve.Row)).raw(`</td><td>`).text(ve.Field).
					raw(`</td><td>`).text(ve.Message).raw(`</td><td>`).text(ve.Value).raw(`</td></tr>`)
			}
			e.raw(`</tbody></table>`)
		}

		if p.Phase == core.PhasePreview {
			e.raw(`<form class="import-commit" hx-post="/api/imports/`).text(p.ID.String()).
				raw(`/commit" hx-ext="json-enc" hx-target="#import-preview" hx-swap="outerHTML">`)
			e.raw(`<input type="text" name="requisitionId" placeholder="Requisition ID" required>`)
			e.raw(`<button type="submit">Add `).text(strconv.Itoa(len(p.ValidItems))).raw(` items</button>`)
			e.raw(`</form>`)
		}
		e.raw(`</section>`)
		return e.err
	})
}

// CommitResult confirms that a preview was added to a requisition.
func CommitResult(req core.Requisition, added int) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		e := newWriter(w)
		e.raw(`<div class="alert alert-success" role="status" id="import-preview">`)
		e.text(fmt.Sprintf("Added %d items to requisition %s. New total: %.2f", added, req.ID, req.TotalValue))
		e.raw(`</div>`)
		return e.err
	})
}

// writer keeps the first write error so markup can be chained.
type writer struct {
	w   io.Writer
	err error
}

func newWriter(w io.Writer) *writer { return &writer{w: w} }

func (e *writer) raw(s string) *writer {
	if e.err == nil {
		_, e.err = io.WriteString(e.w, s)
	}
	return e
}

func (e *writer) text(s string) *writer {
	return e.raw(templ.EscapeString(s))
}
