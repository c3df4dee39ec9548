// Package safety registers the lint rules that flag DDL likely to take a
// blocking lock or a full table rewrite on a live table.
package safety
