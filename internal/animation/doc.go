// Package animation implements the interpolation model that turns linear
// progress into object state.
//
// An Animation snapshots its target on Begin, then maps progress in [0,1]
// through a rate function and a lag ratio to a per-submobject sub-alpha. The
// target's family members with points are zipped by structural position with
// the starting snapshot (and end state, when the kind has one) and written in
// place. Concrete kinds (Transform, FadeIn, FadeOut, Shift, SetColor,
// ShowCreation) only differ in how they build those snapshots and how a
// single submobject is advanced.
package animation
