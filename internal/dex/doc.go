// Package dex models the slice of a DEX program the resource remap
// pass operates on: classes, their static initializer code, and the
// fill-array-data payload blocks that hold constant resource-ID
// arrays.
//
// The instruction model is deliberately small. The pass only needs to
// recognize the array-construction idiom a compiler emits for resource
// holder classes (const, new-array, fill-array-data, sput-object) and
// to tell apart reads and writes of the registers involved; everything
// else in a method is opaque and left untouched.
package dex
