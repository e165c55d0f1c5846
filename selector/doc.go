// Package selector decides deterministically whether a line gets an
// annotation and which message it gets.
//
// # Algorithm
//
// The trimmed line is hashed with XXH64. The high 32 bits are the
// selection half and the low 32 bits are the message-index half:
//
//   - selected when (selection half mod 100) < selection chance
//   - message = messages[(message-index half mod len(messages))]
//
// The decision depends only on the line text, the selection chance and
// the message pool. A chance of 100 always selects, and raising the
// chance can only add selections. Changing the message pool never
// changes whether a line is selected.
//
// Swapping the hash function changes which lines are selected for a
// given chance. Nothing persists selections, so that is safe, but tests
// pin a few known values.
package selector
