package xref

import (
	"fmt"
	"sort"

	"notesmith/internal/note"
)

// Edge is an undirected relation between two documents, stored in canonical
// order (A < B) so a pair declared from both sides collapses to one edge.
type Edge struct {
	A string `json:"a"`
	B string `json:"b"`
}

// Component is a connected group of documents in the relation graph.
type Component struct {
	Members []string `json:"members"`
	Edges   int      `json:"edges"`
	// Cyclic is true when the component contains a cycle. For an
	// undirected component this holds exactly when edges >= members.
	Cyclic bool `json:"cyclic"`
}

// Graph manages documents and their cross-references.
type Graph struct {
	Nodes map[string]*note.Document
	Edges []Edge

	adjacency map[string][]string
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes:     make(map[string]*note.Document),
		Edges:     []Edge{},
		adjacency: make(map[string][]string),
	}
}

// AddDocument registers a document as a node. Edges are not touched until
// ResolveRelations runs.
func (g *Graph) AddDocument(doc *note.Document) {
	if doc == nil {
		return
	}
	g.Nodes[doc.ID] = doc
}

// ResolveRelations rebuilds the edge set from scratch out of each document's
// declared related identifiers. Running it twice over the same node set
// yields an identical edge set and warning list.
//
// A relation to an unknown identifier yields a dangling-reference warning and
// no edge. A relation to the document itself yields a self-reference warning
// and no edge; other relations of the same document are unaffected.
func (g *Graph) ResolveRelations() []note.Warning {
	g.Edges = []Edge{}
	g.adjacency = make(map[string][]string)

	var warnings []note.Warning
	seen := make(map[Edge]bool)

	for _, id := range g.sortedIDs() {
		doc := g.Nodes[id]
		for _, target := range doc.Related {
			if target == id {
				warnings = append(warnings, note.NewWarning(
					note.KindSelfReference, id, target, 0,
					fmt.Sprintf("document %q declares a relation to itself", id)))
				continue
			}
			if _, ok := g.Nodes[target]; !ok {
				warnings = append(warnings, note.NewWarning(
					note.KindDanglingReference, id, target, 0,
					fmt.Sprintf("document %q relates to unknown document %q", id, target)))
				continue
			}

			edge := canonical(id, target)
			if seen[edge] {
				continue
			}
			seen[edge] = true
			g.Edges = append(g.Edges, edge)
			g.adjacency[edge.A] = append(g.adjacency[edge.A], edge.B)
			g.adjacency[edge.B] = append(g.adjacency[edge.B], edge.A)
		}
	}

	sort.Slice(g.Edges, func(i, j int) bool {
		if g.Edges[i].A != g.Edges[j].A {
			return g.Edges[i].A < g.Edges[j].A
		}
		return g.Edges[i].B < g.Edges[j].B
	})
	for _, neighbors := range g.adjacency {
		sort.Strings(neighbors)
	}
	note.SortWarnings(warnings)

	return warnings
}

// Neighbors returns the documents directly related to the given one, sorted.
func (g *Graph) Neighbors(id string) []string {
	return append([]string(nil), g.adjacency[id]...)
}

// Components returns the connected components of the graph, including
// isolated documents, in deterministic order.
func (g *Graph) Components() []Component {
	visited := make(map[string]bool)
	var components []Component

	for _, id := range g.sortedIDs() {
		if visited[id] {
			continue
		}

		var members []string
		stack := []string{id}
		visited[id] = true
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			members = append(members, cur)
			for _, n := range g.adjacency[cur] {
				if !visited[n] {
					visited[n] = true
					stack = append(stack, n)
				}
			}
		}
		sort.Strings(members)

		memberSet := make(map[string]bool, len(members))
		for _, m := range members {
			memberSet[m] = true
		}
		edgeCount := 0
		for _, e := range g.Edges {
			if memberSet[e.A] {
				edgeCount++
			}
		}

		components = append(components, Component{
			Members: members,
			Edges:   edgeCount,
			Cyclic:  edgeCount >= len(members),
		})
	}

	return components
}

func (g *Graph) sortedIDs() []string {
	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func canonical(a, b string) Edge {
	if a < b {
		return Edge{A: a, B: b}
	}
	return Edge{A: b, B: a}
}

// Resolve is a convenience wrapper: build a graph from the document set and
// resolve its relations in one call.
func Resolve(docs []*note.Document) (*Graph, []note.Warning) {
	g := NewGraph()
	for _, doc := range docs {
		g.AddDocument(doc)
	}
	warnings := g.ResolveRelations()
	return g, warnings
}
