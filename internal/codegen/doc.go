// Package codegen emits standalone Go analysis boilerplate for the
// datasets present in a catalog. The templates interpolate dataset names
// and their column classifications, so the generated program loads,
// cleans, validates and summarizes exactly the files the run saw.
//
// generator.go renders the embedded templates, types.go carries the
// template data and result types, and persist.go writes the generation
// summary artifact.
package codegen
