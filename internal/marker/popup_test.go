package marker

import (
	"strings"
	"testing"

	"tahisis/core-go/internal/estates"
)

func TestPopup_WithEstates(t *testing.T) {
	total := 12
	got := Popup(PopupSettlement{
		Name:     "Погост",
		District: "Тобольский",
		Estates: []estates.Record{
			{SubtypeEstateName: "ясачные", ReligionName: "православные", Male: 2, Female: 3},
			{SubtypeEstateName: "посадские", Male: 5, Female: 5, Total: &total},
		},
	})

	for _, want := range []string{
		`<div class="popup-field">Погост</div>`,
		`<div class="popup-field">Тобольский</div>`,
		`ясачные, православные, М: 2, Ж: 3, Итого: 5`,
		`посадские, —, М: 5, Ж: 5, Итого: 12`,
		`<div class="popup-estate-total">Всего: 17</div>`,
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in popup:\n%s", want, got)
		}
	}
	if strings.Contains(got, "popup-field-modern") {
		t.Fatalf("expected modern name line to be omitted")
	}
}

func TestPopup_NoEstatesAndEscaping(t *testing.T) {
	got := Popup(PopupSettlement{Name: "<b>x</b>", NameModern: "Новый"})
	if !strings.Contains(got, "Нет данных о сословиях") {
		t.Fatalf("expected no-data line, got %s", got)
	}
	if strings.Contains(got, "<b>") {
		t.Fatalf("expected name to be escaped, got %s", got)
	}
	if !strings.Contains(got, `popup-field-modern">Новый<`) {
		t.Fatalf("expected modern name line, got %s", got)
	}
	if !strings.Contains(got, `<div class="popup-field">—</div>`) {
		t.Fatalf("expected placeholder for missing district, got %s", got)
	}
}
