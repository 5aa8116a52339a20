// Package physics provides the bungee jump equation of motion.
//
// [Bungee] implements [dynamo.System] and [dynamo.Hamiltonian]:
//
//	dh/dt = v
//	dv/dt = -g + E/m - (c1/m)v - (c2/m)|v|v
//
// where E = k(l - h) while the rope is stretched (h <= l) and 0 while it is
// slack. Once the jumper is below ground and still descending, dh/dt is held
// at zero so the post-impact phase stays numerically bounded.
//
// # Energy
//
// With drag present the mechanical energy only decreases:
//
//	b := physics.NewBungee(params)
//	lost := b.Energy(first) - b.Energy(last)
package physics
