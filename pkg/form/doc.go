// Package form lays normalized fields out into an edit form. Dispatch turns a
// Form (ordered field references and groups) plus the item being edited into a
// Layout tree of control and group nodes. Rendering backends walk that tree;
// each control node carries an OnChange bound to its field so user input comes
// back to the caller as a partial update.
package form
