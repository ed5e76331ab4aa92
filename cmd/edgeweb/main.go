/*
Command edgeweb is a simple development server for edge templates.

Invoke it like so:

	edgeweb ./views

It mounts the directory as the default disk and renders the template
named by the URL path, so /users.list renders users/list.edge.
Parameters may be provided to the template in the URL query string.

The bundle is rebuilt on every request, so edits show up on reload.
*/
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/mbarley/edge"
	"github.com/mbarley/edge/data"
)

var port = flag.Int("port", 9812, "port on which to listen")

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: edgeweb [-port n] <views-dir>")
		os.Exit(1)
	}
	fmt.Print("Listening on :", *port, "...")
	log.Fatal(http.ListenAndServe(
		fmt.Sprintf(":%d", *port),
		http.HandlerFunc(handler)))
}

func handler(res http.ResponseWriter, req *http.Request) {
	var renderer, err = edge.NewBundle().
		AddTemplateDir(flag.Arg(0)).
		CompileToRenderer()
	if err != nil {
		http.Error(res, err.Error(), 500)
		return
	}

	var name = strings.Trim(req.URL.Path, "/")
	if name == "" {
		name = "index"
	}

	var m = make(data.Map)
	for k, v := range req.URL.Query() {
		m[k] = data.String(v[0])
	}

	var buf bytes.Buffer
	if err := renderer.Render(&buf, name, m); err != nil {
		http.Error(res, err.Error(), 500)
		return
	}
	io.Copy(res, &buf)
}
