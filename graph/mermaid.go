package graph

import (
	"fmt"
	"strings"
)

// BoundaryStyle is the Mermaid style applied to start and end nodes.
const BoundaryStyle = "fill:#ffcc00,stroke:#333,stroke-width:2px,color:#000"

// Snapshot is an immutable view of a graph used by renderers.
type Snapshot struct {
	ID      string
	Options Options
	Nodes   []NodeSnapshot
	Edges   []Edge
}

// NodeSnapshot is a node inside a Snapshot. Sub is set for groups.
type NodeSnapshot struct {
	ID   string
	Name string
	Kind NodeKind
	Sub  *Snapshot
}

// Mermaid renders s as a Mermaid flow chart ("graph <direction>" header).
// An empty direction defaults to TB.
func Mermaid(s Snapshot, direction string) string {
	if direction == "" {
		direction = "TB"
	}
	lines := []string{"graph " + direction}
	lines = append(lines, mermaidBody(s, 0)...)
	return strings.Join(lines, "\n")
}

func mermaidBody(s Snapshot, depth int) []string {
	ind := strings.Repeat("    ", depth)
	var body []string

	startID, endID := s.ID+"_start", s.ID+"_end"
	if s.Options.BoundaryLabels {
		body = append(body,
			fmt.Sprintf("%s%s(%s)", ind, startID, s.Options.StartLabel),
			fmt.Sprintf("%s%s(%s)", ind, endID, s.Options.EndLabel),
			fmt.Sprintf("%sstyle %s %s", ind, startID, BoundaryStyle),
			fmt.Sprintf("%sstyle %s %s", ind, endID, BoundaryStyle),
		)
	}

	for _, n := range s.Nodes {
		if n.Kind == Group {
			continue
		}
		body = append(body, fmt.Sprintf("%s%s(%s)", ind, n.ID, n.Name))
	}

	hasIn := map[string]bool{}
	hasOut := map[string]bool{}
	for _, e := range s.Edges {
		if e.Label != "" {
			body = append(body, fmt.Sprintf("%s%s --%s--> %s", ind, e.From, e.Label, e.To))
		} else {
			body = append(body, fmt.Sprintf("%s%s --> %s", ind, e.From, e.To))
		}
		hasOut[e.From] = true
		hasIn[e.To] = true
	}

	if s.Options.BoundaryLabels && len(s.Nodes) > 0 {
		for _, n := range s.Nodes {
			if !hasIn[n.ID] {
				body = append(body, fmt.Sprintf("%s%s --> %s", ind, startID, n.ID))
			}
		}
		for _, n := range s.Nodes {
			if !hasOut[n.ID] {
				body = append(body, fmt.Sprintf("%s%s --> %s", ind, n.ID, endID))
			}
		}
	}
	if s.Options.Loopback != "" {
		body = append(body, fmt.Sprintf("%s%s --%s--> %s", ind, endID, s.Options.Loopback, startID))
	}

	for _, n := range s.Nodes {
		if n.Kind != Group {
			continue
		}
		body = append(body, fmt.Sprintf("%ssubgraph %s[\"%s\"]", ind, n.ID, n.Name))
		if n.Sub != nil {
			body = append(body, mermaidBody(*n.Sub, depth+1)...)
		}
		body = append(body, ind+"end")
	}
	return body
}
