// Package layouts is the registry of view layouts (table, grid, list). A
// Registry is constructed explicitly from entries and passed to whatever
// renders collections; there is no package-level instance.
package layouts
