package edgejs

import (
	"bytes"
	"testing"

	"github.com/andreyvit/diff"
	"github.com/robertkrimen/otto"

	"github.com/mbarley/edge/template"
)

func TestWriteTemplate(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		template string
		expected string
	}{
		{"interpolation and if",
			map[string]string{
				"hello": "@set('greeting', 'Hello')\n{{ greeting }}, {{ name }}!\n@if(ok)\nyes\n@endif\n",
			},
			"hello",
			`
edge.templates['default::hello'] = function (ctx) {
  var output = '';
  ctx.setOnFrame('greeting', 'Hello');
  output += ctx.escape(ctx.resolve('greeting'));
  output += ', ';
  output += ctx.escape(ctx.resolve('name'));
  output += '!\n';
  if (edge.truthy(ctx.resolve('ok'))) {
    output += 'yes\n';
  }
  return output;
};
`},
		{"each with else",
			map[string]string{
				"list": "@each(item in items)\n{{ item }}\n@else\nempty\n@endeach\n",
			},
			"list",
			`
edge.templates['default::list'] = function (ctx) {
  var output = '';
  var n_1 = ctx.loop(ctx.resolve('items'), function (item, meta) {
    ctx.newFrame();
    try {
      ctx.setOnFrame('item', item);
      ctx.setOnFrame('$loop', meta);
      output += ctx.escape(ctx.resolve('item'));
      output += '\n';
    } finally {
      ctx.removeFrame();
    }
  });
  if (n_1 === 0) {
    output += 'empty\n';
  }
  return output;
};
`},
		{"component with slots",
			map[string]string{
				"home": "@component('card', { title: 'Hi' })\n@slot('header', p)\nH: {{ p.title }}\n@endslot\nBody\n@endcomponent\n",
				"card": "{{ title }}|{{{ $slots.header }}}|{{{ $slots.main }}}",
			},
			"home",
			`
edge.templates['default::home'] = function (ctx) {
  var output = '';
  var props_1 = { title: 'Hi' };
  var slots_2 = {};
  ctx.newFrame();
  var output_3 = '';
  try {
    ctx.setOnFrame('p', props_1);
    output_3 += 'H: ';
    output_3 += ctx.escape(ctx.access(ctx.resolve('p'), 'title'));
    output_3 += '\n';
  } finally {
    ctx.removeFrame();
  }
  slots_2['header'] = edge.safe(output_3);
  ctx.newFrame();
  var output_4 = '';
  try {
    output_4 += 'Body\n';
  } finally {
    ctx.removeFrame();
  }
  slots_2['main'] = edge.safe(output_4);
  output += edge.component(ctx, 'default::card', props_1, slots_2);
  return output;
};
`},
		{"debugger and include",
			map[string]string{
				"home":         "@debugger\n@include('partials.nav')\n",
				"partials.nav": "NAV\n",
			},
			"home",
			`
edge.templates['default::home'] = function (ctx) {
  var output = '';
  debugger;
  output += edge.render('default::partials.nav', ctx);
  return output;
};
`},
	}
	for _, test := range tests {
		var reg = new(template.Registry)
		for name, src := range test.files {
			if err := reg.Add(template.Normalize(name), name+".edge", src); err != nil {
				t.Fatalf("%s: %s", test.name, err)
			}
		}
		var buf bytes.Buffer
		if err := Write(&buf, reg, test.template); err != nil {
			t.Errorf("%s: %s", test.name, err)
			continue
		}
		if buf.String() != test.expected {
			t.Errorf("%s:\n%s", test.name, diff.LineDiff(test.expected, buf.String()))
		}
	}
}

func TestWriteBundle(t *testing.T) {
	var reg = new(template.Registry)
	if err := reg.Add("default::hello", "hello.edge", "Hello, {{ upper(name) }}!"); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := NewGenerator(reg).WriteBundle(&buf); err != nil {
		t.Fatal(err)
	}
	var vm = otto.New()
	if _, err := vm.Run(buf.String()); err != nil {
		t.Fatalf("loading bundle: %s\n%s", err, numberLines(buf.String()))
	}
	value, err := vm.Run("edge.render('default::hello', edge.newContext({name: 'world'}, {}))")
	if err != nil {
		t.Fatal(err)
	}
	if value.String() != "Hello, WORLD!" {
		t.Errorf("expected %q, got %q", "Hello, WORLD!", value.String())
	}
}

func TestWriteTemplateNotFound(t *testing.T) {
	var gen = NewGenerator(new(template.Registry))
	if err := gen.WriteTemplate(new(bytes.Buffer), "nope"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
