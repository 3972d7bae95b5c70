package dashboard

import (
	"context"
	"fmt"
	"strings"

	"conflictdash/internal/engine"

	"golang.org/x/sync/errgroup"
)

// Control is one selection input.
type Control string

const (
	ControlCountry   Control = "country"
	ControlYear      Control = "year"
	ControlDeathType Control = "death_type"
)

// PanelID names one display region.
type PanelID string

const (
	PanelYearly         PanelID = "yearly"
	PanelTopConflicts   PanelID = "top_conflicts"
	PanelViolence       PanelID = "violence"
	PanelConflictDeaths PanelID = "conflict_deaths"
	PanelRegions        PanelID = "regions"
	PanelMap            PanelID = "map"
)

// ParseControls reads a comma separated control list such as "country,year".
func ParseControls(s string) ([]Control, error) {
	var out []Control
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		switch c := Control(part); c {
		case ControlCountry, ControlYear, ControlDeathType:
			out = append(out, c)
		default:
			return nil, fmt.Errorf("unknown control %q", part)
		}
	}
	return out, nil
}

// ComputeFunc produces a panel's content for a selection.
type ComputeFunc func(sel engine.Selection) any

type binding struct {
	panel   PanelID
	deps    map[Control]bool
	compute ComputeFunc
}

// PanelUpdate is the fresh content of one panel.
type PanelUpdate struct {
	Panel PanelID `json:"panel"`
	Data  any     `json:"data"`
}

// Board routes control changes to the panels subscribed to them.
// Bindings are registered once; afterwards the board is read-only.
type Board struct {
	bindings []binding
}

func NewBoard() *Board {
	return &Board{}
}

// Bind subscribes panel to the given controls.
func (b *Board) Bind(panel PanelID, deps []Control, compute ComputeFunc) {
	set := make(map[Control]bool, len(deps))
	for _, d := range deps {
		set[d] = true
	}
	b.bindings = append(b.bindings, binding{panel: panel, deps: set, compute: compute})
}

// Panels lists the bound panels in registration order.
func (b *Board) Panels() []PanelID {
	out := make([]PanelID, 0, len(b.bindings))
	for _, bd := range b.bindings {
		out = append(out, bd.panel)
	}
	return out
}

// Deps returns the controls panel subscribes to.
func (b *Board) Deps(panel PanelID) ([]Control, bool) {
	bd, ok := b.lookup(panel)
	if !ok {
		return nil, false
	}
	var out []Control
	for _, c := range []Control{ControlCountry, ControlYear, ControlDeathType} {
		if bd.deps[c] {
			out = append(out, c)
		}
	}
	return out, true
}

// Affected lists the panels depending on any of the changed controls.
// No changed controls means every panel.
func (b *Board) Affected(changed ...Control) []PanelID {
	if len(changed) == 0 {
		return b.Panels()
	}
	var out []PanelID
	for _, bd := range b.bindings {
		for _, c := range changed {
			if bd.deps[c] {
				out = append(out, bd.panel)
				break
			}
		}
	}
	return out
}

// Compute renders one panel. The selection is first reduced to the
// controls the panel subscribes to.
func (b *Board) Compute(panel PanelID, sel engine.Selection) (any, error) {
	bd, ok := b.lookup(panel)
	if !ok {
		return nil, fmt.Errorf("unknown panel %q", panel)
	}
	return bd.compute(project(sel, bd.deps)), nil
}

// Recompute renders every panel affected by the changed controls, in
// registration order.
func (b *Board) Recompute(ctx context.Context, sel engine.Selection, changed ...Control) ([]PanelUpdate, error) {
	panels := b.Affected(changed...)
	updates := make([]PanelUpdate, len(panels))

	g, ctx := errgroup.WithContext(ctx)
	for i, p := range panels {
		i, p := i, p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := b.Compute(p, sel)
			if err != nil {
				return err
			}
			updates[i] = PanelUpdate{Panel: p, Data: data}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return updates, nil
}

// CacheKey identifies panel's content for sel. Selections differing only in
// controls the panel ignores share a key.
func (b *Board) CacheKey(panel PanelID, sel engine.Selection) string {
	bd, ok := b.lookup(panel)
	if !ok {
		return string(panel) + "|" + sel.Key()
	}
	return string(panel) + "|" + project(sel, bd.deps).Key()
}

func (b *Board) lookup(panel PanelID) (binding, bool) {
	for _, bd := range b.bindings {
		if bd.panel == panel {
			return bd, true
		}
	}
	return binding{}, false
}

// project resets every control outside deps to its default value.
func project(sel engine.Selection, deps map[Control]bool) engine.Selection {
	out := engine.DefaultSelection()
	if deps[ControlCountry] {
		out.Country = sel.Country
	}
	if deps[ControlYear] {
		out.Year = sel.Year
	}
	if deps[ControlDeathType] {
		out.DeathType = sel.DeathType
	}
	return out
}
