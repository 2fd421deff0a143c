package main

import (
	"strconv"

	"github.com/rohanthewiz/element"
)

// statusPage renders the active scenario, the request count and the scenario list
func (st *Stub) statusPage() string {
	b := element.NewBuilder()

	b.Html().R(
		b.Head().R(
			b.Title().T("toolcheck stub server"),
			b.Meta("charset", "UTF-8"),
			b.Style().T(`
				body { font-family: sans-serif; padding: 20px; }
				.active { font-weight: bold; }
			`),
		),
		b.Body().R(
			b.H1().T("toolcheck stub server"),
			b.P().T("Scenario: "+string(st.scenario)),
			b.P("id", "served").T("Requests served: "+strconv.Itoa(st.Served())),
			b.H2().T("Scenarios"),
			b.Div("id", "scenarios").R(
				element.ForEach(Scenarios(), func(sc Scenario) {
					class := "scenario"
					if sc == st.scenario {
						class += " active"
					}
					b.Div("class", class).R(
						b.Span().T(string(sc)+": "),
						b.Span().T(scenarioNotes[sc]),
					)
				}),
			),
		),
	)

	return b.String()
}
