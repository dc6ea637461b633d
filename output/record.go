// Package output holds the crawl's data model and result writers.
package output

import (
	"encoding/json"
	"fmt"
	"sort"
)

// A Record is one extracted item. Its shape is whatever the user's prompt
// asked for; nothing is imposed beyond JSON-compatible values.
type Record map[string]interface{}

func (r Record) String() string {
	bs, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf("%v", map[string]interface{}(r))
	}
	return string(bs)
}

// Merge copies into r every key of other that r does not already have, and
// reports the keys copied, sorted. Existing values are never overwritten, so
// listing-page data survives detail-page enrichment.
func (r Record) Merge(other Record) []string {
	added := []string{}
	for k, v := range other {
		if _, ok := r[k]; ok {
			continue
		}
		r[k] = v
		added = append(added, k)
	}
	sort.Strings(added)
	return added
}

// Records is an ordered collection of extracted items. Order is extraction
// order and is preserved by every operation.
type Records []Record

// DedupByKey drops records whose value under key repeats an earlier record's
// value. The first occurrence wins. Records missing the key, or with a
// non-string value under it, are kept unconditionally.
func (rs Records) DedupByKey(key string) Records {
	seen := map[string]bool{}
	out := make(Records, 0, len(rs))
	for _, r := range rs {
		v, ok := r[key].(string)
		if !ok || v == "" {
			out = append(out, r)
			continue
		}
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, r)
	}
	return out
}

// FindByKey returns the first record whose value under key equals value.
func (rs Records) FindByKey(key string, value string) (Record, bool) {
	for _, r := range rs {
		if v, ok := r[key].(string); ok && v == value {
			return r, true
		}
	}
	return nil, false
}
