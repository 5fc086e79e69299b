// Package engine contains the mission simulation: the distance countdown,
// milestone branching, per-kind event resolution and the driver that steps
// every deployed mission.
//
// ARCHITECTURAL RULE: missions never read a clock. Time enters only through
// Update(dt), and randomness only through the World's random.Source, so a
// seeded run replays exactly.
package engine
