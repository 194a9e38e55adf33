package sheet

import (
	"fmt"
	"sort"
	"strings"

	"github.com/garyjia/pharmacy-audit/internal/output"
)

// Narrative describes a patient list: "None", "1 patient (#a)" or
// "N patients (#a, #b)".
func Narrative(ids []string) string {
	if len(ids) == 0 {
		return "None"
	}
	tagged := make([]string, len(ids))
	for i, id := range ids {
		tagged[i] = "#" + id
	}
	noun := "patient"
	if len(ids) != 1 {
		noun += "s"
	}
	return fmt.Sprintf("%d %s (%s)", len(ids), noun, strings.Join(tagged, ", "))
}

// tally is one grouped key with its summed weight
type tally struct {
	Key   string
	Total float64
}

// rankBy sums weight per key, skipping empty keys, and returns the top
// limit keys by total. Ties keep first-seen order.
func rankBy[T any](rows []T, key func(T) string, weight func(T) float64, limit int) []tally {
	index := make(map[string]int)
	var tallies []tally
	for _, r := range rows {
		k := strings.ToUpper(strings.TrimSpace(key(r)))
		if k == "" {
			continue
		}
		i, ok := index[k]
		if !ok {
			i = len(tallies)
			index[k] = i
			tallies = append(tallies, tally{Key: k})
		}
		tallies[i].Total += weight(r)
	}
	sort.SliceStable(tallies, func(i, j int) bool { return tallies[i].Total > tallies[j].Total })
	if limit > 0 && len(tallies) > limit {
		tallies = tallies[:limit]
	}
	return tallies
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

func str(s string) output.Value { return output.String(s) }

func num(n float64) output.Value { return output.Number(n) }
