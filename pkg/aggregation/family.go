// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package aggregation

// Family of the reduction used to combine the messages sharing a destination node.
//
// It is converted to snake-format strings (e.g.: FamilySoftmaxSG -> "softmax_sg"), and can be
// converted from string with FamilyString.
type Family int

const (
	// FamilyAdd sums the messages.
	FamilyAdd Family = iota

	// FamilyMean takes the mean of the messages.
	FamilyMean

	// FamilyMax takes the elementwise maximum of the messages.
	FamilyMax

	// FamilySoftmax weights the messages with a per-dimension softmax with temperature `t`.
	FamilySoftmax

	// FamilySoftmaxSG is FamilySoftmax with the weights detached from the gradient.
	FamilySoftmaxSG

	// FamilyPower is the generalized (signed) power mean with exponent `p`.
	FamilyPower
)

//go:generate go tool enumer -type Family -trimprefix=Family -transform=snake -values -text -json -yaml -output=gen_family_enumer.go family.go

// UsesTemperature returns whether the family is parameterized by the temperature `t`.
func (f Family) UsesTemperature() bool {
	return f == FamilySoftmax || f == FamilySoftmaxSG
}

// UsesPower returns whether the family is parameterized by the power `p`.
func (f Family) UsesPower() bool {
	return f == FamilyPower
}
