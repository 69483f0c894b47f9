// Package graph provides the directed graph shared by task and mesh graphs.
//
// Nodes live in an arena keyed by id. A node is either a leaf or a group; a
// group owns a nested Graph, so graphs nest to any depth. Every edge endpoint
// must already be present in the same graph.
//
// Rendering is a pure function over a Snapshot. Mermaid emits one block per
// graph level and recurses into groups, indenting one level per depth; a
// group's content appears only inside its own subgraph block.
package graph
