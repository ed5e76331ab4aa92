package runtime

import (
	"sort"

	"github.com/mbarley/edge/data"
)

// LoopMeta is the iteration metadata an @each body sees as $loop.
type LoopMeta struct {
	Index   int
	Key     data.Value // Int position for lists, String key for maps
	IsFirst bool
	IsLast  bool
	Total   int
}

// Map renders the metadata as the $loop template value.
func (m LoopMeta) Map() data.Map {
	return data.Map{
		"index":   data.Int(m.Index),
		"key":     m.Key,
		"isFirst": data.Bool(m.IsFirst),
		"isLast":  data.Bool(m.IsLast),
		"total":   data.Int(m.Total),
	}
}

// Loop calls fn once per element of a List (in order) or a Map (in
// sorted key order, keeping renders deterministic).  Any other value
// iterates zero times.  Loop pushes no frames; each body invocation
// owns its own frame discipline.
func (c *Context) Loop(v data.Value, fn func(item data.Value, meta LoopMeta)) {
	switch v := v.(type) {
	case data.List:
		for i, item := range v {
			fn(item, LoopMeta{
				Index:   i,
				Key:     data.Int(i),
				IsFirst: i == 0,
				IsLast:  i == len(v)-1,
				Total:   len(v),
			})
		}
	case data.Map:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for i, k := range keys {
			fn(v[k], LoopMeta{
				Index:   i,
				Key:     data.String(k),
				IsFirst: i == 0,
				IsLast:  i == len(keys)-1,
				Total:   len(keys),
			})
		}
	}
}
