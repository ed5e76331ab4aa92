/*
Package edgejs compiles templates to ES5 javascript.

The generated functions register themselves in edge.templates and
render through the runtime written by WriteRuntime, which must be
evaluated first. Both backends produce identical output for the same
template and data.
*/
package edgejs
