// Package codegen asks a language model which kind of result a request needs
// and then for a Go snippet that computes it.
//
// Generated snippets are complete files of package main defining
//
//	func execute(df_1 *frame.DataFrame, df_2 *geo.GeoDataFrame) string
//
// with one parameter per dataset, in the order the datasets were given, and a
// return type that depends on the classified kind.
package codegen
