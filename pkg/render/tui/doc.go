// Package tui edits items from a terminal. It walks a dispatched form layout
// and asks one survey prompt per visible control, feeding each answer back
// through the control's OnChange.
package tui
