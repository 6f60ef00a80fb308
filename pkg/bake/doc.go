// Package bake turns an instancer's per-frame particle state into a static
// hierarchy of keyframed transform nodes:
//
//	|<instancer>_bakedGrp
//	    particle_<id>_Grp       transform + visibility keyed per frame
//	        <instance copies>   visibility keyed per frame
//
// Bakes are additive: existing groups are found again structurally and
// reused, so repeated bakes over the same range converge.
package bake
