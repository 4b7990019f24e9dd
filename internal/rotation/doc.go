// Package rotation implements the per-user content rotation behind every spell.
//
// Each user owns three independent rotations: sound, interjection and
// after-effect. A rotation is a persisted shuffled permutation of pool indices
// plus a cursor into it. Every turn reads the item under the cursor and moves
// the cursor forward, wrapping to the start after a full pass.
//
// RESHUFFLE RULE:
//
// A permutation is regenerated only when its length no longer equals the size
// of the pool it serves (first use, or a platform whose content set differs).
// Wrapping does not reshuffle: a second pass replays the first pass's order.
// The check is a plain length comparison, so any edit that changes a pool's
// size invalidates that category as a whole.
//
// EMPTY POOLS:
//
// A pool of size zero yields a Pick with OK=false and leaves the category's
// state untouched. Callers render nothing for that category.
//
// The engine never returns an error and never touches content payloads; it
// deals purely in indices.
package rotation
