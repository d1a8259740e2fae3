package cli

import (
	"fmt"

	"github.com/Makepad-fr/skillbox/internal/model"
	"github.com/Makepad-fr/skillbox/internal/ui"
)

// -------------- rendering helpers --------------

func requirementsPanel(list model.RequirementList, group bool) string {
	t := ui.Current()
	d, p := list.Stats()
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		t.Title.Render(requirementsTitle),
		t.Success.Render(t.SymOK), d,
		t.Pending.Render("•"), p,
		t.Accent.Render("Total"), len(list.Requirements),
	)

	var lines []string
	lines = append(lines, header)
	lines = append(lines, t.Muted.Render(ui.ProgressBar(d, d+p, 28)))
	lines = append(lines, "")

	switch {
	case len(list.Requirements) == 0:
		lines = append(lines, ui.NoData(requirementsEmpty))
	case group:
		lines = append(lines, groupLines(list.Requirements)...)
	default:
		lines = append(lines, flatLines(list.Requirements)...)
	}
	lines = append(lines, "")
	lines = append(lines, t.Muted.Render("Tip: toggle completion with `skillbox req`"))
	return ui.Panel(lines)
}

func flatLines(reqs []model.Requirement) []string {
	t := ui.Current()
	out := make([]string, 0, 2*len(reqs))
	for i, r := range reqs {
		idx := fmt.Sprintf("%2d.", i+1)
		box := t.Muted.Render(t.BoxUnchecked)
		name := ui.Truncate(r.Name, 80)
		if r.IsCompleted {
			box = t.Success.Render(t.BoxChecked)
			name = t.Done.Render(name)
		}
		out = append(out, fmt.Sprintf("%s %s %s", t.Muted.Render(idx), box, name))
		if r.Description != "" {
			out = append(out, "    "+t.Muted.Render(ui.Truncate(r.Description, 76)))
		}
	}
	return out
}

func groupLines(reqs []model.Requirement) []string {
	t := ui.Current()
	var pend, done []model.Requirement
	for _, r := range reqs {
		if r.IsCompleted {
			done = append(done, r)
		} else {
			pend = append(pend, r)
		}
	}
	var lines []string
	lines = append(lines, t.Accent.Render("Pending"))
	if len(pend) == 0 {
		lines = append(lines, t.Muted.Render("(none)"))
	} else {
		lines = append(lines, flatLines(pend)...)
	}
	lines = append(lines, "")
	lines = append(lines, t.Accent.Render("Done"))
	if len(done) == 0 {
		lines = append(lines, t.Muted.Render("(none)"))
	} else {
		lines = append(lines, flatLines(done)...)
	}
	return lines
}

func specificationPanel(s model.Specification) string {
	t := ui.Current()
	return ui.Panel([]string{
		t.Muted.Render("#"+s.ID.String()) + " " + t.Title.Render(s.Name),
		"",
		s.Description,
	})
}

func specificationsPanel(list model.SpecificationList) string {
	t := ui.Current()
	lines := []string{
		fmt.Sprintf("%s  %s %d", t.Title.Render(specListTitle), t.Accent.Render("Total"), len(list.Specifications)),
		"",
	}
	if len(list.Specifications) == 0 {
		lines = append(lines, ui.NoData(specListEmpty))
	}
	for _, s := range list.Specifications {
		lines = append(lines, fmt.Sprintf("%s %s", t.Muted.Render(fmt.Sprintf("%4s", "#"+s.ID.String())), s.Name))
		if s.Description != "" {
			lines = append(lines, "     "+t.Muted.Render(ui.Truncate(s.Description, 76)))
		}
	}
	lines = append(lines, "")
	lines = append(lines, t.Muted.Render("Tip: edit one with `skillbox spec edit <id>`"))
	return ui.Panel(lines)
}
