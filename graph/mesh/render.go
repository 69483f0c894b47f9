package mesh

import (
	"fmt"
	"strings"

	"github.com/hupe1980/lmflux/core"
	"github.com/hupe1980/lmflux/render"
)

// AgentSnapshot is one agent's conversation at snapshot time.
type AgentSnapshot struct {
	ID       string
	Messages []core.Message
}

// Snapshot is everything a renderer may look at.
type Snapshot struct {
	Agents       []AgentSnapshot
	Interactions []AgentInteraction
	Users        []UserInteraction
}

// Incoming returns the interactions in which id was called.
func (s Snapshot) Incoming(id string) []AgentInteraction {
	var out []AgentInteraction
	for _, ia := range s.Interactions {
		if ia.AgentBID == id {
			out = append(out, ia)
		}
	}
	return out
}

// Outgoing returns the interactions in which id was the caller.
func (s Snapshot) Outgoing(id string) []AgentInteraction {
	var out []AgentInteraction
	for _, ia := range s.Interactions {
		if ia.AgentAID == id {
			out = append(out, ia)
		}
	}
	return out
}

// Renderer turns a snapshot into text for a render.Sink.
type Renderer interface {
	Render(s Snapshot) string
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(s Snapshot) string

// Render implements Renderer.
func (f RendererFunc) Render(s Snapshot) string { return f(s) }

// MarkdownRenderer prints the human queries, the agent call tree and the
// final answers.
type MarkdownRenderer struct{}

func indentPrefix(depth int) string {
	return strings.Repeat("\t", depth-1) + "- "
}

// Render implements Renderer.
func (MarkdownRenderer) Render(s Snapshot) string {
	owner := map[string]string{}
	counts := map[string]int{}
	for _, a := range s.Agents {
		for _, m := range a.Messages {
			if m.ID == "" {
				continue
			}
			owner[m.ID] = a.ID
			counts[a.ID]++
		}
	}

	calls := map[string][]string{}
	for _, ia := range s.Interactions {
		if ia.AgentAID == "" || ia.AgentBID == "" {
			continue
		}
		calls[ia.AgentAID] = append(calls[ia.AgentAID], ia.AgentBID)
	}

	var queries []string
	for _, u := range s.Users {
		if q := strings.TrimSpace(u.RequestContent); q != "" {
			queries = append(queries, q)
		}
	}

	lines := []string{"**Human**:", "", strings.Join(queries, "\n\n"), "", "**Agent Calls**", ""}

	printed := map[string]bool{}
	var walk func(id string, depth int, branch map[string]bool)
	walk = func(id string, depth int, branch map[string]bool) {
		if printed[id] {
			return
		}
		n := counts[id]
		plural := "s"
		if n == 1 {
			plural = ""
		}
		lines = append(lines, fmt.Sprintf("%s%s (%d message%s)", indentPrefix(depth), id, n, plural))
		printed[id] = true

		for _, child := range calls[id] {
			if branch[child] {
				continue
			}
			branch[child] = true
			walk(child, depth+1, branch)
			delete(branch, child)
		}
	}

	for _, u := range s.Users {
		root, ok := owner[u.RequestMessageID]
		if !ok || printed[root] {
			continue
		}
		walk(root, 1, map[string]bool{root: true})
	}
	lines = append(lines, "")

	for _, u := range s.Users {
		if u.ResponseContent == "" {
			continue
		}
		lines = append(lines, "**AI**:", "", strings.TrimSpace(u.ResponseContent))
	}

	return strings.Join(lines, "\n")
}

// MermaidRenderer draws every agent's messages as a flowchart, with peer calls
// and human queries linking the agent subgraphs. Render wraps the chart in a
// fenced mermaid block; Chart returns it bare.
type MermaidRenderer struct{}

// Render implements Renderer.
func (r MermaidRenderer) Render(s Snapshot) string {
	return render.MarkdownBlock("mermaid", r.Chart(s))
}

// Chart returns the Mermaid source for s.
func (MermaidRenderer) Chart(s Snapshot) string {
	counter := 0
	next := func(prefix string) string {
		id := fmt.Sprintf("%s%d", prefix, counter)
		counter++
		return id
	}

	short := map[string]map[string]string{}
	lookup := func(agentID, msgID string) string {
		if id, ok := short[agentID][msgID]; ok {
			return id
		}
		return msgID
	}

	var globals []string
	seen := map[string]bool{}
	var ids []string
	markSeen := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	lines := []string{
		"flowchart TB",
		"    %% Global wrapper for all agents",
		`    subgraph ALL_AGENTS["All Agents"]`,
		"        direction TB",
	}

	for _, a := range s.Agents {
		lines = append(lines, fmt.Sprintf(`        subgraph subgraph_%s["%s"]`, a.ID, a.ID))
		short[a.ID] = map[string]string{}

		prev := ""
		for _, m := range a.Messages {
			id := next("msg")
			short[a.ID][m.ID] = id
			lines = append(lines, fmt.Sprintf(`            %s["%s"]`, id, m.Role))
			if prev != "" {
				lines = append(lines, fmt.Sprintf("            %s --> %s", prev, id))
			}
			prev = id
		}

		for _, ia := range s.Incoming(a.ID) {
			markSeen(ia.InteractionID)
			node := ia.InteractionID + "__in"
			lines = append(lines, fmt.Sprintf(`            %s(("talk to %s"))`, node, ia.AgentAID))
			if ia.AgentB.RequestMessageID != "" {
				lines = append(lines,
					fmt.Sprintf("            %s --> %s", node, lookup(a.ID, ia.AgentB.RequestMessageID)),
					fmt.Sprintf("            %s --> %s", lookup(a.ID, ia.AgentB.ResponseMessageID), node),
				)
			}
		}

		for _, ia := range s.Outgoing(a.ID) {
			markSeen(ia.InteractionID)
			node := ia.InteractionID + "__out"
			lines = append(lines, fmt.Sprintf(`            %s(("talk to %s"))`, node, ia.AgentBID))
			if ia.AgentA != nil && ia.AgentA.RequestMessageID != "" {
				lines = append(lines, fmt.Sprintf("            %s --> %s", lookup(a.ID, ia.AgentA.RequestMessageID), node))
			}
			globals = append(globals, fmt.Sprintf("%s__out <-.-> %s__in", ia.InteractionID, ia.InteractionID))
		}

		lines = append(lines, "        end")
	}
	lines = append(lines, "    end")

	lines = append(lines, "    %% Global wrapper for humans", `    subgraph subgraph_human["Human"]`)
	for _, u := range s.Users {
		req, res := next("hmsg"), next("hmsg")
		lines = append(lines,
			fmt.Sprintf(`        %s["User Query"]`, req),
			fmt.Sprintf(`        %s["User Response"]`, res),
		)
		if id, ok := short[u.AgentID][u.RequestMessageID]; ok {
			globals = append(globals, fmt.Sprintf("        %s -.-> %s", req, id))
		}
		if id, ok := short[u.AgentID][u.ResponseMessageID]; ok && u.ResponseMessageID != "" {
			globals = append(globals, fmt.Sprintf("        %s -.-> %s", id, res))
		}
	}
	lines = append(lines, "    end")

	if len(ids) > 0 {
		in := make([]string, len(ids))
		out := make([]string, len(ids))
		for i, id := range ids {
			in[i] = id + "__in"
			out[i] = id + "__out"
		}
		lines = append(lines,
			"    classDef interaction fill:#f9f9f9,stroke:#555",
			"    class "+strings.Join(in, ", ")+" interaction",
			"    class "+strings.Join(out, ", ")+" interaction",
		)
	}

	lines = append(lines, globals...)
	return strings.Join(lines, "\n")
}
