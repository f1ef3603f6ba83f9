package settings

import "context"

const DefaultViewMode = "list"

// PageState remembers the active tab and view mode per page.
type PageState struct {
	Tabs      map[string]string `json:"tabs"`
	ViewModes map[string]string `json:"viewModes"`
}

func DefaultPageState() PageState {
	return PageState{
		Tabs: map[string]string{
			"pg-estate-types":    "types",
			"pg-vector-layers":   "upload",
			"pg-estates-list":    "list",
			"pg-settlements":     "list",
			"pg-estates-by-type": "list",
		},
		ViewModes: map[string]string{
			"pg-settlements":     "list",
			"pg-estates-list":    "list",
			"pg-estates-by-type": "list",
		},
	}
}

// ActiveTab returns "" for a page with no tab recorded.
func (p PageState) ActiveTab(page string) string {
	return p.Tabs[page]
}

func (p *PageState) SetActiveTab(page, tab string) {
	if p.Tabs == nil {
		p.Tabs = map[string]string{}
	}
	p.Tabs[page] = tab
}

func (p PageState) ViewMode(page string) string {
	if m := p.ViewModes[page]; m != "" {
		return m
	}
	return DefaultViewMode
}

func (p *PageState) SetViewMode(page, mode string) {
	if p.ViewModes == nil {
		p.ViewModes = map[string]string{}
	}
	p.ViewModes[page] = mode
}

// Merge copies every saved page entry over p.
func (p *PageState) Merge(saved PageState) {
	for page, tab := range saved.Tabs {
		p.SetActiveTab(page, tab)
	}
	for page, mode := range saved.ViewModes {
		p.SetViewMode(page, mode)
	}
}

func LoadPageState(ctx context.Context, st Store) (PageState, error) {
	out := DefaultPageState()
	var saved PageState
	ok, err := st.Load(ctx, KeyPageState, &saved)
	if err != nil || !ok {
		return out, err
	}
	out.Merge(saved)
	return out, nil
}

func SavePageState(ctx context.Context, st Store, p PageState) error {
	return st.Save(ctx, KeyPageState, p)
}
