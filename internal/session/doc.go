// Package session persists extraction sessions and their candidate frames in
// SQLite.
//
// A session walks the lifecycle idle -> downloading -> sampling ->
// awaiting_selection -> building -> done, with failed reachable from the three
// working stages. Store.Transition enforces that graph with a conditional
// update so two writers cannot move the same session from a stale state.
//
// Candidate rows hold the accepted frames (image paths, timestamp, brightness
// score) and the selected flag; LoadSelection and SaveSelection convert them
// to and from a selection.Set.
package session
