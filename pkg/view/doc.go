// Package view applies the presentation state of a collection (search,
// filters, sort, pagination and column selection) to items using normalized
// fields.
package view
