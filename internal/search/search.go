// Package search ranks stored institutions by how close their name is to a query.
package search

import (
	"equivcrawl/lib/htmlutil"
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
)

type School struct {
	Code string
	Name string
}

type Match struct {
	School
	Similarity float64
}

func normalize(s string) string {
	return strings.ToLower(htmlutil.Normalize(s))
}

// Rank scores every school against the query with Jaro-Winkler similarity and returns
// at most `limit` of them, best first. A limit <= 0 returns every school.
func Rank(query string, schools []School, limit int) []Match {
	query = normalize(query)

	matches := make([]Match, 0, len(schools))
	for _, school := range schools {
		name := normalize(school.Name)
		similarity := matchr.JaroWinkler(query, name, false)
		// substring hits are always ranked above fuzzy hits
		if query != "" && strings.Contains(name, query) {
			similarity += 1
		}
		matches = append(matches, Match{School: school, Similarity: similarity})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].Code < matches[j].Code
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
