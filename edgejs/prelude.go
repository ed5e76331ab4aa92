package edgejs

import "io"

// WriteRuntime writes the javascript runtime that compiled templates
// render against.  It must be evaluated before any generated file.
func WriteRuntime(out io.Writer) error {
	_, err := io.WriteString(out, runtimeJS)
	return err
}

// Runtime returns the javascript runtime source.
func Runtime() string { return runtimeJS }

// runtimeJS implements the context contract compiled code is written
// against: frame-stack resolution, access/call/has, escaping, loops.
// Every helper mirrors the native renderer so both backends produce
// identical output for the same template and data.
const runtimeJS = `// Runtime support for compiled templates.
var edge = edge || {};

(function () {
  'use strict';

  edge.templates = edge.templates || {};

  // render runs a registered template function against a context. The
  // name must already be canonical; compiled code normalizes computed
  // references through edge.name first.
  edge.render = function (name, ctx) {
    var fn = edge.templates[name];
    if (!fn) {
      throw new Error('unknown template: ' + name);
    }
    return fn(ctx);
  };

  // component renders a template against an isolated context seeded
  // with props: bindings do not leak between caller and component,
  // only globals carry over.
  edge.component = function (ctx, name, props, slots) {
    props['$slots'] = slots;
    return edge.render(name, edge.newContext(props, ctx.globals));
  };

  // name canonicalizes a template reference: the disk prefix defaults
  // to 'default' and a trailing '.edge' extension is dropped.
  edge.name = function (ref) {
    ref = str(ref);
    var disk = 'default';
    var rest = ref;
    var i = ref.indexOf('::');
    if (i >= 0) {
      if (ref.slice(0, i) !== '') {
        disk = ref.slice(0, i);
      }
      rest = ref.slice(i + 2);
    }
    if (rest.length >= 5 && rest.slice(-5) === '.edge') {
      rest = rest.slice(0, rest.length - 5);
    }
    return disk + '::' + rest;
  };

  // safe marks a value as pre-escaped HTML, exempting it from output
  // escaping.
  edge.safe = function (v) {
    var s = new String(str(v));
    s.__safe = true;
    return s;
  };

  // truthy reports whether a conditional takes its branch. Safe
  // strings follow plain-string truthiness, so an empty one is false.
  edge.truthy = function (v) {
    if (v instanceof String) {
      return String(v).length > 0;
    }
    return !!v;
  };

  // newContext creates the scope one render runs against: a frame
  // stack rooted at globals overlaid with data, plus the helpers
  // compiled code reads values through.
  edge.newContext = function (data, globals) {
    globals = globals || {};
    var frames = [mix(mix({}, globals), data || {})];
    var ctx = {globals: globals};

    ctx.newFrame = function () {
      frames.push({});
    };

    ctx.removeFrame = function () {
      if (frames.length === 1) {
        throw new Error('cannot remove the root frame');
      }
      frames.pop();
    };

    ctx.setOnFrame = function (name, value) {
      frames[frames.length - 1][name] = value;
    };

    // resolve searches the frames top down and quietly produces no
    // value for an unbound name.
    ctx.resolve = function (name) {
      for (var i = frames.length - 1; i >= 0; i--) {
        if (Object.prototype.hasOwnProperty.call(frames[i], name)) {
          return frames[i][name];
        }
      }
      return undefined;
    };

    // call dispatches a named function. A data binding shadows the
    // builtin of the same name, and bindings are not callable; an
    // unknown name or a bad argument count produces no value.
    ctx.call = function (name, args) {
      if (ctx.resolve(name) !== undefined) {
        return undefined;
      }
      var fn = builtins[name];
      if (!fn || !validArity(fn, args.length)) {
        return undefined;
      }
      return fn.apply(args);
    };

    // loop iterates arrays in order and objects by sorted key, calling
    // fn with each item and its loop metadata. It returns the number
    // of iterations; anything non-iterable loops zero times.
    ctx.loop = function (coll, fn) {
      var i;
      if (coll instanceof Array) {
        for (i = 0; i < coll.length; i++) {
          fn(coll[i], {
            index: i,
            key: i,
            isFirst: i === 0,
            isLast: i === coll.length - 1,
            total: coll.length
          });
        }
        return coll.length;
      }
      if (isObject(coll)) {
        var keys = Object.keys(coll).sort();
        for (i = 0; i < keys.length; i++) {
          fn(coll[keys[i]], {
            index: i,
            key: keys[i],
            isFirst: i === 0,
            isLast: i === keys.length - 1,
            total: keys.length
          });
        }
        return keys.length;
      }
      return 0;
    };

    ctx.access = access;
    ctx.has = has;
    ctx.escape = escapeHtml;
    ctx.stringify = str;
    return ctx;
  };

  function mix(target, src) {
    for (var k in src) {
      if (Object.prototype.hasOwnProperty.call(src, k)) {
        target[k] = src[k];
      }
    }
    return target;
  }

  function str(v) {
    if (v === undefined || v === null) {
      return '';
    }
    return String(v);
  }

  function isObject(v) {
    return typeof v === 'object' && v !== null &&
      !(v instanceof Array) && !(v instanceof String);
  }

  function toIndex(key) {
    if (typeof key === 'number') {
      return Math.floor(key) === key ? key : null;
    }
    if (typeof key === 'string' && /^[+-]?[0-9]+$/.test(key)) {
      return parseInt(key, 10);
    }
    return null;
  }

  // runeWidthAt reports the UTF-16 width of the code point at unit
  // index i: 2 for a surrogate pair, 1 otherwise.
  function runeWidthAt(s, i) {
    var hi = s.charCodeAt(i);
    var lo = s.charCodeAt(i + 1);
    if (hi >= 0xD800 && hi <= 0xDBFF && lo >= 0xDC00 && lo <= 0xDFFF) {
      return 2;
    }
    return 1;
  }

  // runeCount counts code points, not UTF-16 units, so string lengths
  // and sizes agree with the native renderer beyond the basic plane.
  function runeCount(s) {
    var n = 0;
    for (var i = 0; i < s.length; i += runeWidthAt(s, i)) {
      n++;
    }
    return n;
  }

  // runeAt returns the code point at rune index i as a string, pairs
  // kept whole, or no value past the end.
  function runeAt(s, i) {
    var j = 0;
    while (j < s.length && i > 0) {
      j += runeWidthAt(s, j);
      i--;
    }
    if (j >= s.length) {
      return undefined;
    }
    if (runeWidthAt(s, j) === 2) {
      return String.fromCharCode(s.charCodeAt(j), s.charCodeAt(j + 1));
    }
    return String.fromCharCode(s.charCodeAt(j));
  }

  // access resolves a property: arrays by integer index, objects by
  // key, strings by code point, with a length property on arrays and
  // strings. Anything unresolvable produces no value.
  function access(obj, key) {
    if (obj instanceof String) {
      obj = String(obj);
    }
    if (obj instanceof Array) {
      if (str(key) === 'length') {
        return obj.length;
      }
      var i = toIndex(key);
      return i !== null && i >= 0 && i < obj.length ? obj[i] : undefined;
    }
    if (typeof obj === 'string') {
      if (str(key) === 'length') {
        return runeCount(obj);
      }
      var j = toIndex(key);
      return j !== null && j >= 0 ? runeAt(obj, j) : undefined;
    }
    if (isObject(obj)) {
      var name = str(key);
      if (Object.prototype.hasOwnProperty.call(obj, name)) {
        return obj[name];
      }
    }
    return undefined;
  }

  // has implements the in operator: key presence for objects, a valid
  // index for arrays, false for everything else.
  function has(key, coll) {
    if (coll instanceof Array) {
      var n = Number(key);
      return Math.floor(n) === n && n >= 0 && n < coll.length;
    }
    if (isObject(coll)) {
      return Object.prototype.hasOwnProperty.call(coll, str(key));
    }
    return false;
  }

  function escapeHtml(v) {
    if (v instanceof String && v.__safe) {
      return String(v);
    }
    return str(v)
      .replace(/&/g, '&amp;')
      .replace(/</g, '&lt;')
      .replace(/>/g, '&gt;')
      .replace(/"/g, '&#34;')
      .replace(/'/g, '&#39;');
  }

  function validArity(fn, n) {
    for (var i = 0; i < fn.arities.length; i++) {
      if (fn.arities[i] === n) {
        return true;
      }
    }
    return false;
  }

  var builtins = {
    size: {
      arities: [1],
      apply: function (args) {
        var v = args[0];
        if (v instanceof String) {
          return runeCount(String(v));
        }
        if (v instanceof Array) {
          return v.length;
        }
        if (typeof v === 'string') {
          return runeCount(v);
        }
        if (isObject(v)) {
          return Object.keys(v).length;
        }
        return 0;
      }
    },
    upper: {
      arities: [1],
      apply: function (args) {
        return str(args[0]).toUpperCase();
      }
    },
    lower: {
      arities: [1],
      apply: function (args) {
        return str(args[0]).toLowerCase();
      }
    },
    capitalize: {
      arities: [1],
      apply: function (args) {
        var s = str(args[0]);
        return s.charAt(0).toUpperCase() + s.slice(1);
      }
    },
    join: {
      arities: [1, 2],
      apply: function (args) {
        if (!(args[0] instanceof Array)) {
          return undefined;
        }
        return args[0].join(args.length === 2 ? str(args[1]) : ',');
      }
    },
    safe: {
      arities: [1],
      apply: function (args) {
        return edge.safe(args[0]);
      }
    }
  };
})();
`
