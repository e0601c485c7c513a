package postgres

import "github.com/google/uuid"

// uuidStrings converts uuids to their string forms for use as a text[]
// parameter cast to uuid[] in SQL (= ANY($1::uuid[])).
func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
