package billstore

import (
	"strings"

	"github.com/antzucaro/matchr"
)

type OperationMatch struct {
	Label       string
	Identifier  string
	Correlation float64
}

const similarityThreshold = 0.85

// MatchOperations links bank operation labels to the connector's
// matching identifiers. An exact case-insensitive substring wins with a
// correlation of 1; otherwise the best per-word JaroWinkler similarity
// above the threshold is taken. Labels that match nothing are dropped.
func MatchOperations(identifiers, labels []string) []OperationMatch {
	var result []OperationMatch

	for _, label := range labels {
		lower := strings.ToLower(label)

		best := OperationMatch{Label: label}
		for _, identifier := range identifiers {
			idLower := strings.ToLower(identifier)

			if strings.Contains(lower, idLower) {
				best.Identifier = identifier
				best.Correlation = 1
				break
			}

			for _, word := range strings.Fields(lower) {
				similarity := matchr.JaroWinkler(word, idLower, false)
				if similarity > best.Correlation {
					best.Identifier = identifier
					best.Correlation = similarity
				}
			}
		}

		if best.Correlation >= similarityThreshold {
			result = append(result, best)
		}
	}

	return result
}
