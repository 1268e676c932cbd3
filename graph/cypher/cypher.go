// Package cypher renders flattened bundles as parameterized Cypher MERGE
// statements for loading into any openCypher-compatible graph database.
package cypher

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/threatgraph/sandstix/graph"
)

// Statement is one Cypher statement with its parameter map. Values travel
// as parameters, never spliced into the query text.
type Statement struct {
	Query  string
	Params map[string]any
}

// Label converts a STIX type into a Cypher node label: "ipv4-addr" becomes
// "Ipv4Addr".
func Label(stixType string) string {
	parts := strings.Split(stixType, "-")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, "")
}

// RelType converts a relationship type into a Cypher relationship type:
// "communicates-with" becomes "COMMUNICATES_WITH".
func RelType(relType string) string {
	return strings.ToUpper(strings.ReplaceAll(relType, "-", "_"))
}

// MergeNode builds a MERGE statement for one node. The node is matched by
// id and its properties overwritten, so reloading a bundle converges.
func MergeNode(node graph.Node) Statement {
	params := map[string]any{"id": node.ID}

	var assignments []string
	keys := make([]string, 0, len(node.Props))
	for k := range node.Props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for i, k := range keys {
		name := fmt.Sprintf("p%d", i)
		assignments = append(assignments, fmt.Sprintf("n.%s = $%s", propertyName(k), name))
		params[name] = scalarize(node.Props[k])
	}

	query := fmt.Sprintf("MERGE (n:%s {id: $id})", Label(node.Type))
	if len(assignments) > 0 {
		query += " SET " + strings.Join(assignments, ", ")
	}
	return Statement{Query: query, Params: params}
}

// MergeEdge builds a MERGE statement for one edge, matching both endpoint
// nodes by id.
func MergeEdge(edge graph.Edge) Statement {
	query := fmt.Sprintf(
		"MATCH (a {id: $src}), (b {id: $dst}) MERGE (a)-[r:%s {id: $id}]->(b)",
		RelType(edge.Type))
	return Statement{Query: query, Params: map[string]any{
		"src": edge.SourceRef,
		"dst": edge.TargetRef,
		"id":  edge.ID,
	}}
}

// Render produces the full statement list for a flattened bundle: all nodes
// first, then all edges, so endpoint MATCHes always succeed.
func Render(nodes []graph.Node, edges []graph.Edge) []Statement {
	out := make([]Statement, 0, len(nodes)+len(edges))
	for _, node := range nodes {
		out = append(out, MergeNode(node))
	}
	for _, edge := range edges {
		out = append(out, MergeEdge(edge))
	}
	return out
}

// Script renders statements as a text script with inline parameter
// bindings in :param directives, the form cypher-shell accepts.
func Script(statements []Statement) (string, error) {
	var b strings.Builder
	for _, stmt := range statements {
		keys := make([]string, 0, len(stmt.Params))
		for k := range stmt.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			value, err := json.Marshal(stmt.Params[k])
			if err != nil {
				return "", fmt.Errorf("encoding parameter %s: %w", k, err)
			}
			fmt.Fprintf(&b, ":param %s => %s\n", k, value)
		}
		b.WriteString(stmt.Query)
		b.WriteString(";\n")
	}
	return b.String(), nil
}

// propertyName sanitizes a JSON property name for use as a Cypher property.
func propertyName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}

// scalarize flattens nested JSON values into strings, since property graphs
// store scalars and scalar lists only.
func scalarize(v any) any {
	switch v.(type) {
	case string, float64, bool, nil:
		return v
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(raw)
	}
}
