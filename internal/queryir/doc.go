// Package queryir describes collection queries independently of how they
// are sent.
//
// A Select names a collection and optionally a filter, a projection, an
// ordering and a page window. Filters are trees of Predicate values:
// comparisons against literals, comparisons against parameter aliases,
// substring matches, and And/Or/Not combinations.
//
// Query and Predicate are sealed interfaces using the marker method
// pattern, so compilers can switch exhaustively:
//
//	switch p := pred.(type) {
//	case *Compare:
//	case *And:
//	...
//	}
//
// Both value and pointer forms of every node are accepted.
//
// The odata package compiles a Select to OData system query options
// ($filter, $select, $orderby, $top, $skip). Validate reports problems a
// compiler would reject, or that a server would silently misread, without
// compiling.
package queryir
