// Package teaching holds the compiled-in teaching table: the articles served
// under /blog and the daily rotation texts that reference them.
//
// The table is immutable. Callers receive copies.
package teaching

// Entry is one static article.
type Entry struct {
	Key   string
	Title string
	// Body is pre-formatted display text (light Markdown, hard line breaks).
	Body string
}

// Daily is one rotation message. Key links it to the Entry of the same key.
type Daily struct {
	Key  string
	Text string
}

var byKey = func() map[string]int {
	m := make(map[string]int, len(entries))
	for i, e := range entries {
		if _, dup := m[e.Key]; dup {
			panic("teaching: duplicate key " + e.Key)
		}
		m[e.Key] = i
	}
	return m
}()

// Lookup returns the entry for key.
func Lookup(key string) (Entry, bool) {
	i, ok := byKey[key]
	if !ok {
		return Entry{}, false
	}
	return entries[i], true
}

// All returns every entry in table order.
func All() []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// Rotation returns the daily rotation list in order.
func Rotation() []Daily {
	out := make([]Daily, len(rotation))
	copy(out, rotation)
	return out
}
