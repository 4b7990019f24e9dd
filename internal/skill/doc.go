// Package skill is the conversation layer: it maps platform intents to
// handlers, drives the rotation engine once per spell, and renders SSML
// speech and cards from the content pools.
//
// # Session lifecycle
//
// Skill.Start loads the user's profile once and resolves the content pools
// for the platform and locale. Every turn after that mutates the profile in
// memory only. The profile is written back exactly once, when the session
// ends through Stop, END, an idle sweep or an explicit Session.End.
//
// # Intents
//
// Platform intent names (AMAZON.NextIntent, YesIntent, ...) resolve to a
// small set of handlers. Names that resolve to nothing are Unhandled, which
// still casts a spell.
package skill
