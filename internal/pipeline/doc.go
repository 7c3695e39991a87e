// Package pipeline drives the stage components through the five workflows:
// the full run, text only, streamed text, image only and video only.
//
// The full run analyzes intent, fans the text, image and music branches out
// onto a bounded ants pool, joins all three, verifies that every artifact
// exists and hands them to the video assembler. Branch failures do not cancel
// siblings; the join reports the first failure in branch order. Each run owns
// one session directory and moves through the states declared in state.go.
// Every transition is logged with event_type=state_transition and mirrored to
// the optional run journal.
package pipeline
