/*
Package edge compiles and renders Edge templates.

Templates live in *.edge files and are addressed by dotted references,
optionally prefixed by a disk name:

  home             ->  home.edge on the default disk
  users.list       ->  users/list.edge on the default disk
  emails::welcome  ->  welcome.edge on the "emails" disk

Usage example

Typically in a web application you have a directory containing views for
all of your pages.  For example:

  app/views/
  app/views/users/
  app/views/partials/
  ...

This code snippet will parse a file of globals, load all edge templates
within app/views, and provide back a registry that can be used to render
any of them.  (Error checking is skipped.)

On startup:

  registry, _ := edge.NewBundle().
      WatchFiles(mode == "dev").            // watch edge files, reload on changes (in dev)
      AddGlobalsFile("views/globals.yml").  // values visible to every template
      AddTemplateDir("views").              // load *.edge in all sub-directories
      Compile()

To render a page:

  var obj = data.Map{
    "user":  user,
    "posts": posts,
  }
  edge.NewRenderer(registry).Render(resp, "users.list", obj)

Or compile straight to a renderer that carries the bundle's globals:

  renderer, _ := edge.NewBundle().
      AddTemplateDir("views").
      CompileToRenderer()

The edgejs package compiles the same registry to javascript, so the
templates may also be rendered in a browser.

Advanced usage

The root package is a convenience layer over its sub-packages.  Tools
that inspect or rewrite templates will be better served by using
e.g. lexer or compiler directly.
*/
package edge
