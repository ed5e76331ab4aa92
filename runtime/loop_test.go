package runtime

import (
	"reflect"
	"strings"
	"testing"

	"github.com/mbarley/edge/data"
)

func TestLoopList(t *testing.T) {
	ctx := NewContext(nil, nil)
	var (
		items []string
		metas []LoopMeta
	)
	ctx.Loop(data.List{data.String("a"), data.String("b"), data.String("c")}, func(item data.Value, m LoopMeta) {
		items = append(items, item.String())
		metas = append(metas, m)
	})
	if got := strings.Join(items, ""); got != "abc" {
		t.Errorf("expected items in order, got %q", got)
	}
	want := []LoopMeta{
		{Index: 0, Key: data.Int(0), IsFirst: true, Total: 3},
		{Index: 1, Key: data.Int(1), Total: 3},
		{Index: 2, Key: data.Int(2), IsLast: true, Total: 3},
	}
	if !reflect.DeepEqual(metas, want) {
		t.Errorf("expected %+v, got %+v", want, metas)
	}
}

func TestLoopMapSortedKeys(t *testing.T) {
	ctx := NewContext(nil, nil)
	var got []string
	ctx.Loop(data.Map{"b": data.Int(2), "a": data.Int(1), "c": data.Int(3)}, func(item data.Value, m LoopMeta) {
		got = append(got, m.Key.String()+"="+item.String())
	})
	if joined := strings.Join(got, ","); joined != "a=1,b=2,c=3" {
		t.Errorf("expected sorted key order, got %q", joined)
	}
}

func TestLoopNonCollection(t *testing.T) {
	ctx := NewContext(nil, nil)
	for _, v := range []data.Value{data.Undefined{}, data.Null{}, data.Int(5), data.String("abc")} {
		calls := 0
		ctx.Loop(v, func(data.Value, LoopMeta) { calls++ })
		if calls != 0 {
			t.Errorf("%#v: expected zero iterations, got %d", v, calls)
		}
	}
}

func TestLoopMetaMap(t *testing.T) {
	m := LoopMeta{Index: 1, Key: data.String("k"), IsLast: true, Total: 2}.Map()
	want := data.Map{
		"index":   data.Int(1),
		"key":     data.String("k"),
		"isFirst": data.Bool(false),
		"isLast":  data.Bool(true),
		"total":   data.Int(2),
	}
	if !reflect.DeepEqual(m, want) {
		t.Errorf("expected %v, got %v", want, m)
	}
}
