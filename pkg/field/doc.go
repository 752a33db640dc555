// Package field resolves partially specified field descriptors into fully
// normalized fields.
//
// A Descriptor may omit any behaviour other than its ID and Type. Normalize
// fills the gaps from the type definition: value accessors read item[id],
// visibility defaults to always, sorting and filtering follow the type, the
// edit control is picked by a controls.Registry and rendering falls back to a
// type-aware formatter. The resulting Field values never carry nil behaviour,
// so form and view code can call them without presence checks.
//
// Normalization is pure. Memo caches results per caller supplied revision and
// Live re-normalizes when asynchronously loaded elements (author lists, term
// lists) arrive.
package field
