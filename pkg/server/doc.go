// Package server previews schema views and forms over HTTP.
//
//	GET  /healthz           status and schema revision
//	GET  /layouts[?set=]    registered view layouts
//	GET  /views             view, form and field set names
//	GET  /views/{view}      rendered view (?layout=&search=&page=)
//	GET  /forms/{form}      rendered edit form (?item=)
//	POST /forms/{form}      JSON edits merged and validated (?item=)
package server
