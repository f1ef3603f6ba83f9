package marker

import (
	"fmt"
	"html"
	"strings"

	"tahisis/core-go/internal/estates"
)

const missing = "—"

// PopupSettlement is what the settlement popup shows.
type PopupSettlement struct {
	Name       string
	NameModern string
	District   string
	Estates    []estates.Record
}

// Popup renders the settlement popup: names, district, one line per estate
// record and the overall total.
func Popup(s PopupSettlement) string {
	var details strings.Builder
	if len(s.Estates) == 0 {
		details.WriteString(`<div class="popup-estate-item">Нет данных о сословиях</div>`)
	} else {
		sum := 0
		for _, e := range s.Estates {
			total := e.Population()
			sum += total
			fmt.Fprintf(&details, `<div class="popup-estate-item">%s, %s, М: %d, Ж: %d, Итого: %d</div>`,
				text(e.SubtypeEstateName), text(e.ReligionName), e.Male, e.Female, total)
		}
		fmt.Fprintf(&details, `<div class="popup-estate-total">Всего: %d</div>`, sum)
	}

	var b strings.Builder
	b.WriteString(`<div class="settlement-popup-new">`)
	fmt.Fprintf(&b, `<div class="popup-field">%s</div>`, text(s.Name))
	if strings.TrimSpace(s.NameModern) != "" {
		fmt.Fprintf(&b, `<div class="popup-field popup-field-modern">%s</div>`, text(s.NameModern))
	}
	fmt.Fprintf(&b, `<div class="popup-field">%s</div>`, text(s.District))
	b.WriteString(`<div class="popup-estates">`)
	b.WriteString(details.String())
	b.WriteString(`</div>`)
	b.WriteString(`<div class="popup-actions"><button class="popup-details-btn">Детали</button></div>`)
	b.WriteString(`</div>`)
	return b.String()
}

func text(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return missing
	}
	return html.EscapeString(s)
}
