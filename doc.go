// Package dataviews describes records with declarative fields and renders
// them as filterable table, grid and list views or as edit forms.
//
// Field descriptors are normalized once (pkg/field), forms are dispatched into
// control layouts per item (pkg/form) and views are resolved through a layout
// registry (pkg/layouts). This package re-exports the common entry points.
package dataviews
