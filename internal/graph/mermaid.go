package graph

import (
	"fmt"
	"io"
	"slices"
	"strings"
)

// Mermaid writes the structure-level view of g as a mermaid class diagram.
// Unknown structures are drawn with an <<unknown>> annotation.
func Mermaid(w io.Writer, g *Graph) error {
	var sb strings.Builder
	sb.WriteString("classDiagram\n")

	var ids []string
	for id, n := range g.Nodes {
		if n.Owner == "" {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	alias := make(map[string]string, len(ids))
	for i, id := range ids {
		alias[id] = fmt.Sprintf("n%d", i)
		n := g.Nodes[id]
		sb.WriteString(fmt.Sprintf("    class %s[\"%s\"]\n", alias[id], escape(n.Name)))
		if n.Unknown {
			sb.WriteString(fmt.Sprintf("    <<unknown>> %s\n", alias[id]))
		}
	}

	for _, d := range g.Aggregate() {
		from, ok1 := alias[d.From]
		to, ok2 := alias[d.To]
		if !ok1 || !ok2 {
			continue
		}
		label := d.Kind.String()
		if d.Count > 1 {
			label = fmt.Sprintf("%s x%d", label, d.Count)
		}
		switch d.Kind {
		case EdgeInherit:
			sb.WriteString(fmt.Sprintf("    %s <|-- %s : %s\n", to, from, label))
		case EdgeNestedClass:
			sb.WriteString(fmt.Sprintf("    %s *-- %s : %s\n", from, to, label))
		case EdgeClassField:
			sb.WriteString(fmt.Sprintf("    %s --> %s : %s\n", from, to, label))
		default:
			sb.WriteString(fmt.Sprintf("    %s ..> %s : %s\n", from, to, label))
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func escape(s string) string {
	return strings.NewReplacer(`"`, "#quot;", "<", "~", ">", "~").Replace(s)
}
