// Package schema loads declarative field sets, forms and views from JSON or
// YAML documents.
//
//	fieldSets:
//	  posts:
//	    - id: title
//	      type: text
//	      enableGlobalSearch: true
//	    - id: password
//	      type: text
//	      visibleWhen: status == "publish"
//	forms:
//	  post-edit:
//	    fieldSet: posts
//	    type: panel
//	    fields: [title, {id: meta, label: Meta, children: [password]}]
//	views:
//	  posts-table:
//	    fieldSet: posts
//	    type: table
//	    perPage: 20
//
// Watcher reloads a directory when files change.
package schema
