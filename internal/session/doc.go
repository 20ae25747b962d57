// Package session implements the interactive terminal front end: it prompts
// for a capacity and a list of items, re-prompts on invalid answers, prints the
// optimal packing, and offers another round.
package session
