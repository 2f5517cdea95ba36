// Package graph defines the structural model for truss.
//
// Two stages are represented. Collections holds what an extraction pass
// gathers from a drawing: members, supports, loads and materials keyed by
// canonical vertices and segments, before any identity exists. Structure is
// the finished graph with integer node and element identities that a
// finite-element solver consumes.
package graph
