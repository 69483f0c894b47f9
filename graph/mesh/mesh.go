package mesh

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/lithammer/shortuuid/v4"

	"github.com/hupe1980/lmflux/agent"
	"github.com/hupe1980/lmflux/core"
	"github.com/hupe1980/lmflux/graph"
	"github.com/hupe1980/lmflux/logging"
	"github.com/hupe1980/lmflux/render"
	"github.com/hupe1980/lmflux/tool"
)

// ToolPrefix prefixes the name of every peer tool.
const ToolPrefix = "talk_to_"

// EdgeLabel is the label drawn on mesh edges.
const EdgeLabel = "Can call"

// Options configures a Graph.
type Options struct {
	Logger logging.Logger

	// Renderer formats ShowResult output. Defaults to MarkdownRenderer.
	Renderer Renderer

	// Sink receives ShowResult output. Defaults to a WriterSink on stdout.
	Sink render.Sink
}

// QueryOptions configures Query.
type QueryOptions struct {
	// Clear resets every agent and the trace tables before the query. Defaults to true.
	Clear bool

	// ShowProgress re-renders the mesh after every conversation update.
	ShowProgress bool
}

// KeepState runs a query on top of the existing conversations and traces.
func KeepState() func(o *QueryOptions) {
	return func(o *QueryOptions) { o.Clear = false }
}

// ShowProgress renders the mesh after every conversation update.
func ShowProgress() func(o *QueryOptions) {
	return func(o *QueryOptions) { o.ShowProgress = true }
}

// Graph is a mesh of agents that can call each other.
type Graph struct {
	mu sync.Mutex

	g      *graph.Graph
	logger logging.Logger

	renderer Renderer
	sink     render.Sink

	session      *core.Session
	interactions map[string]*AgentInteraction
	order        []string
	users        []UserInteraction
	showProgress bool

	toolHooked map[string]bool
}

// New creates an empty mesh.
func New(optFns ...func(o *Options)) *Graph {
	opts := Options{
		Logger:   logging.NoOpLogger{},
		Renderer: MarkdownRenderer{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Sink == nil {
		opts.Sink = render.NewWriterSink(os.Stdout)
	}

	return &Graph{
		g:            graph.New(),
		logger:       opts.Logger,
		renderer:     opts.Renderer,
		sink:         opts.Sink,
		session:      core.NewSession(core.WithLogger(opts.Logger)),
		interactions: map[string]*AgentInteraction{},
		toolHooked:   map[string]bool{},
	}
}

// AddAgent adds a to the mesh. Adding the same agent twice is a no-op; a
// different agent with an id already in use is rejected.
func (m *Graph) AddAgent(a *agent.Agent) error {
	_, err := m.ensure(a)
	return err
}

func (m *Graph) ensure(a *agent.Agent) (*graph.Node, error) {
	if a == nil {
		return nil, errors.New("mesh: agent is required")
	}
	if n, ok := m.g.FindByName(a.ID()); ok {
		if n.Value != a {
			return nil, fmt.Errorf("mesh: %w: agent id %q already used", graph.ErrDuplicateNode, a.ID())
		}
		return n, nil
	}

	n := graph.NewLeaf(a.ID(), a)
	if err := m.g.AddNode(n); err != nil {
		return nil, err
	}
	a.AddConversationCallback(m.onConversationUpdate)
	return n, nil
}

// Connect lets a call b through a talk_to_<b> tool described by relationship.
func (m *Graph) Connect(a, b *agent.Agent, relationship string) error {
	na, err := m.ensure(a)
	if err != nil {
		return err
	}
	nb, err := m.ensure(b)
	if err != nil {
		return err
	}

	peer, err := tool.New(ToolPrefix+b.ID(), relationship,
		tool.Object("parameters", tool.String("query").Describe("The message to send to "+b.ID())),
		m.peerFunc(a, b),
	)
	if err != nil {
		return err
	}
	if err := a.AddTools(peer); err != nil {
		return err
	}

	if !m.toolHooked[a.ID()] {
		a.AddToolCallback(m.onToolUse)
		m.toolHooked[a.ID()] = true
	}

	return m.g.AddEdge(na.ID, nb.ID,
		graph.WithLabel(EdgeLabel),
		graph.WithMetadata("relationship_description", relationship),
	)
}

func (m *Graph) peerFunc(a, b *agent.Agent) tool.Func {
	return func(ctx context.Context, args map[string]any) (any, error) {
		query, _ := args["query"].(string)
		sess, ok := core.SessionFromContext(ctx)
		if !ok {
			sess = m.Session()
		}

		trace := core.NewID()
		msg := core.NewUserMessage(query)
		m.logger.Info("mesh.peer.call", "from", a.ID(), "to", b.ID(), "trace_id", trace)

		resp, err := b.Conversate(ctx, msg, sess)
		if err != nil {
			m.logger.Error("mesh.peer.error", "from", a.ID(), "to", b.ID(), "trace_id", trace, "error", err.Error())
			return nil, err
		}

		m.mu.Lock()
		m.interactions[trace] = &AgentInteraction{
			InteractionID: trace,
			AgentAID:      a.ID(),
			AgentBID:      b.ID(),
			Query:         query,
			AgentB: Side{
				RequestMessageID:  msg.ID,
				ResponseMessageID: resp.ID,
			},
		}
		m.order = append(m.order, trace)
		m.mu.Unlock()

		return PeerResult{Response: resp.Content, TraceID: trace}, nil
	}
}

func (m *Graph) onToolUse(a *agent.Agent, call tool.Request, result any, _ *core.Session) {
	id, ok := traceID(result)
	if !ok {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ia, ok := m.interactions[id]
	if !ok {
		return
	}
	ia.AgentA = &Side{RequestMessageID: call.Message.ID}
	m.logger.Debug("mesh.trace.attach", "agent", a.ID(), "trace_id", id, "message_id", call.Message.ID)
}

func (m *Graph) onConversationUpdate(a *agent.Agent, _ core.Conversation, _ *core.Session) {
	m.mu.Lock()
	show := m.showProgress
	m.mu.Unlock()

	if !show {
		return
	}
	if err := m.ShowResult(); err != nil {
		m.logger.Warn("mesh.render.error", "agent", a.ID(), "error", err.Error())
	}
}

// Query sends text to a on the mesh session and returns a's final reply.
func (m *Graph) Query(ctx context.Context, a *agent.Agent, text string, optFns ...func(o *QueryOptions)) (core.Message, error) {
	opts := QueryOptions{Clear: true}
	for _, fn := range optFns {
		fn(&opts)
	}

	if _, err := m.ensure(a); err != nil {
		return core.Message{}, err
	}
	if opts.Clear {
		m.Reset()
	}

	msg := core.NewUserMessage(text)

	m.mu.Lock()
	m.showProgress = opts.ShowProgress
	sess := m.session
	sess.Set("show_progress", opts.ShowProgress)
	m.users = append(m.users, UserInteraction{
		InteractionID:    shortuuid.New(),
		AgentID:          a.ID(),
		RequestMessageID: msg.ID,
		RequestContent:   msg.Content,
	})
	idx := len(m.users) - 1
	m.mu.Unlock()

	m.logger.Info("mesh.query", "agent", a.ID(), "session", sess.ID)

	resp, err := a.Conversate(ctx, msg, sess)
	if err != nil {
		return core.Message{}, err
	}

	m.mu.Lock()
	final := m.users[idx]
	final.ResponseMessageID = resp.ID
	final.ResponseContent = resp.Content
	m.users[idx] = final
	m.mu.Unlock()

	if opts.ShowProgress {
		if err := m.ShowResult(); err != nil {
			return resp, err
		}
	}
	return resp, nil
}

// Reset starts a fresh session, clears the trace tables and resets every
// agent's conversation.
func (m *Graph) Reset() {
	m.mu.Lock()
	m.session = core.NewSession(core.WithLogger(m.logger))
	m.interactions = map[string]*AgentInteraction{}
	m.order = nil
	m.users = nil
	m.mu.Unlock()

	for _, a := range m.Agents() {
		a.ResetState()
	}
}

// Session returns the current mesh session.
func (m *Graph) Session() *core.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Agents returns the agents in insertion order.
func (m *Graph) Agents() []*agent.Agent {
	nodes := m.g.Nodes()
	out := make([]*agent.Agent, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Value.(*agent.Agent))
	}
	return out
}

// Agent looks up an agent by id.
func (m *Graph) Agent(id string) (*agent.Agent, bool) {
	n, ok := m.g.FindByName(id)
	if !ok {
		return nil, false
	}
	return n.Value.(*agent.Agent), true
}

// Interactions returns the peer interactions in call order.
func (m *Graph) Interactions() []AgentInteraction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.interactionsLocked()
}

func (m *Graph) interactionsLocked() []AgentInteraction {
	out := make([]AgentInteraction, 0, len(m.order))
	for _, id := range m.order {
		ia := *m.interactions[id]
		if ia.AgentA != nil {
			side := *ia.AgentA
			ia.AgentA = &side
		}
		out = append(out, ia)
	}
	return out
}

// UserInteractions returns the top-level queries in issue order.
func (m *Graph) UserInteractions() []UserInteraction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]UserInteraction(nil), m.users...)
}

// Snapshot captures conversations and trace tables for rendering.
func (m *Graph) Snapshot() Snapshot {
	agents := m.Agents()

	s := Snapshot{Agents: make([]AgentSnapshot, 0, len(agents))}
	for _, a := range agents {
		s.Agents = append(s.Agents, AgentSnapshot{
			ID:       a.ID(),
			Messages: a.Conversation().Messages(),
		})
	}

	m.mu.Lock()
	s.Interactions = m.interactionsLocked()
	s.Users = append([]UserInteraction(nil), m.users...)
	m.mu.Unlock()
	return s
}

// SetRenderer replaces the renderer used by ShowResult.
func (m *Graph) SetRenderer(r Renderer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.renderer = r
}

// SetSink replaces the sink used by ShowResult.
func (m *Graph) SetSink(s render.Sink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sink = s
}

// UseMarkdown switches ShowResult to the Markdown renderer.
func (m *Graph) UseMarkdown() { m.SetRenderer(MarkdownRenderer{}) }

// UseMermaid switches ShowResult to the Mermaid renderer.
func (m *Graph) UseMermaid() { m.SetRenderer(MermaidRenderer{}) }

// ShowResult renders the current snapshot to the sink.
func (m *Graph) ShowResult() error {
	m.mu.Lock()
	r, sink := m.renderer, m.sink
	m.mu.Unlock()

	return sink.Render(r.Render(m.Snapshot()))
}

// Mermaid renders the mesh topology (who can call whom).
func (m *Graph) Mermaid() string { return m.g.Mermaid("TB") }
