// Package document holds the vector document model, the closed set of edit
// events, and the replay fold that applies events to a working document.
//
// Events are a tagged union: one payload struct per event kind, all
// implementing the sealed Payload interface, consumed by an exhaustive type
// switch in Apply. Adding an event kind is a compile-visible change at the
// codec and at every switch that must handle it.
//
// Determinism matters here: Apply must be a pure transition of the working
// document, and Document.MarshalCanonical must produce identical bytes for
// identical states. Both replay equivalence and snapshot checksums rely on it.
// encoding/json gives stable bytes for this model (struct fields in
// declaration order, map keys sorted).
package document
