package deploy

import "strings"

// ActiveQueries returns the search queries a queries file defines. Blank
// lines and lines starting with # are ignored.
func ActiveQueries(content []byte) []string {
	var queries []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		queries = append(queries, line)
	}
	return queries
}
