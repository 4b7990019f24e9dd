// Package harness runs scripted conversations against the real skill and
// checks rotation properties over the resulting trace.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: wrap_repeats_order
//	description: "What this scenario validates"
//	user_id: user-1
//	platform: alexa
//	locale: en-US
//	seed: 7                 # optional; omitted means catalog order
//	catalog: catalog.cue    # optional; relative to the scenario file
//	sessions:
//	  - intents: [LaunchRequest, AMAZON.NextIntent, AMAZON.StopIntent]
//	  - platform: google
//	    intents: [WelcomeIntent]
//	assertions:
//	  - type: distinct
//	    category: sound
//	    count: 8
//	  - type: final_index
//	    category: sound
//	    index: 1
//
// # Assertion Types
//
//   - distinct: spells [from, from+count) picked pairwise distinct ids
//   - repeats: spell i and spell i+period picked the same id
//   - pick: turn N picked a given id
//   - final_index: the persisted cursor after the last session
//   - speech_contains: turn N's speech contains text
//   - event_count: the store recorded an analytics action N times
//
// "Spells" counts only turns that advanced the rotation and served a
// non-empty pool for the category. "Turns" counts every intent, across
// sessions, from 0.
//
// # Deterministic Testing
//
// Each scenario runs against a fresh in-memory SQLite store with:
//   - a stepping wall clock (testutil.DeterministicClock)
//   - sequential session ids (testutil.SequenceIDs)
//   - the identity shuffler, or a seeded one when seed is set
//
// so traces are byte-identical across runs and can be compared with golden
// files.
package harness
