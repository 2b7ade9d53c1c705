package memgraph

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/siherrmann/graphreason/model"
)

// similarityThreshold mirrors the default pg_trgm similarity threshold.
const similarityThreshold = 0.3

// SelectNodesBySearch mirrors the keyword search of the Postgres store: the
// normalized name contains the keyword (or the other way round), the trigram
// similarity of name and keyword reaches 0.3, or the description contains the
// keyword. Exact normalized matches come first, then by similarity and name.
func (g *Graph) SelectNodesBySearch(ctx context.Context, keyword string, nodeType *model.NodeType, limit int) ([]*model.Node, error) {
	if err := g.checkContext(ctx); err != nil {
		return nil, err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	type hit struct {
		node       *model.Node
		exact      bool
		similarity float64
	}

	hits := []hit{}
	for _, node := range g.nodes {
		if nodeType != nil && *nodeType != "" && node.Type != *nodeType {
			continue
		}

		normalized := model.NormalizeName(node.Name)
		similarity := trigramSimilarity(strings.ToLower(node.Name), keyword)
		matched := strings.Contains(normalized, keyword) ||
			(normalized != "" && strings.Contains(keyword, normalized)) ||
			similarity >= similarityThreshold ||
			strings.Contains(strings.ToLower(node.Description), keyword)
		if !matched {
			continue
		}
		hits = append(hits, hit{node: node, exact: normalized == keyword, similarity: similarity})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.exact != b.exact {
			return a.exact
		}
		if a.similarity != b.similarity {
			return a.similarity > b.similarity
		}
		if a.node.Name != b.node.Name {
			return a.node.Name < b.node.Name
		}
		return a.node.ID < b.node.ID
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	nodes := make([]*model.Node, len(hits))
	for i, h := range hits {
		nodes[i] = h.node.Clone()
	}
	return nodes, nil
}

// trigramSimilarity computes the pg_trgm similarity of two strings: the
// shared fraction of the padded word trigram sets.
func trigramSimilarity(a string, b string) float64 {
	ta, tb := trigrams(a), trigrams(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	shared := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(ta)+len(tb)-shared)
}

func trigrams(s string) map[string]struct{} {
	set := map[string]struct{}{}
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, word := range words {
		padded := []rune("  " + word + " ")
		for i := 0; i+3 <= len(padded); i++ {
			set[string(padded[i:i+3])] = struct{}{}
		}
	}
	return set
}
