// Package entity holds the data the force simulation operates over.
//
//   - [Point]: a simulated particle, movable or static
//   - [Target]: an anchor that attracts points and owns per-group sub-anchors
//   - [Group]: a classification key selecting sub-anchor and color
//
// Position fields of a [Point] are only reachable through [Point.Translate]
// and [Point.MoveTo], both of which ignore static points, so an obstacle can
// never be displaced after creation.
//
// Membership between points and targets is kept on both sides:
// [Point.SetTarget] removes the point from its previous target's roster and
// adds it to the new one in a single call.
package entity
