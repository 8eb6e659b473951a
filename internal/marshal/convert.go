package marshal

import (
	"strconv"
	"strings"

	"rimebridge/internal/native"
	"rimebridge/internal/proto"
)

// str copies a nullable native string. A nil pointer becomes "".
func str(p *string) string {
	if p == nil {
		return ""
	}
	return strings.Clone(*p)
}

// Commit converts a commit snapshot.
func Commit(reg Registry, c *native.Commit) proto.Commit {
	return reg.Commit(str(c.Text))
}

// Status converts a status snapshot, keeping the flag order of RimeStatus.
func Status(reg Registry, s *native.Status) proto.Status {
	return reg.Status(
		str(s.SchemaID),
		str(s.SchemaName),
		s.IsDisabled,
		s.IsComposing,
		s.IsASCIIMode,
		s.IsFullShape,
		s.IsSimplified,
		s.IsTraditional,
		s.IsASCIIPunct,
	)
}

// SchemaList converts a schema list. It walks the declared Size, not the
// length of List; a List shorter than Size violates the engine's contract and
// panics with an index error rather than being truncated.
func SchemaList(reg Registry, l *native.SchemaList) []proto.SchemaListItem {
	items := make([]proto.SchemaListItem, l.Size)
	for i := 0; i < l.Size; i++ {
		item := l.List[i]
		items[i] = reg.SchemaListItem(str(item.SchemaID), str(item.Name))
	}
	return items
}

// Context converts a context snapshot into the composition, the candidate
// menu and the select labels.
func Context(reg Registry, ctx *native.Context) proto.Context {
	menu := &ctx.Menu
	n := menu.NumCandidates

	selectKeys := str(menu.SelectKeys)
	hasLabels := ctx.SelectLabels != nil

	labels := make([]string, n)
	candidates := make([]proto.Candidate, n)
	for i := 0; i < n; i++ {
		var label string
		switch {
		case hasLabels && i < menu.PageSize:
			label = ctx.SelectLabels[i]
		case i < len(selectKeys):
			label = selectKeys[i : i+1]
		default:
			label = strconv.Itoa((i + 1) % 10)
		}
		label += " "
		labels[i] = label

		c := &menu.Candidates[i]
		candidates[i] = reg.Candidate(str(c.Comment), str(c.Text), label)
	}

	m := reg.Menu(
		menu.PageSize,
		menu.PageNo,
		menu.IsLastPage,
		menu.HighlightedCandidateIndex,
		n,
		candidates,
	)

	comp := &ctx.Composition
	composition := reg.Composition(
		comp.Length,
		comp.CursorPos,
		comp.SelStart,
		comp.SelEnd,
		str(comp.Preedit),
	)

	return reg.Context(composition, m, str(ctx.CommitTextPreview), labels)
}
