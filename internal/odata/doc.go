// Package odata builds the OData side of collection requests.
//
// EscapeLiteral prepares text for a single-quoted filter literal. It is
// the only escaping hand-written filters need:
//
//	filter := "Name eq '" + odata.EscapeLiteral(name) + "'"
//
// Compile turns a queryir.Select into system query options ($filter,
// $select, $orderby, $top, $skip) with every literal escaped. EntityURL and
// ParseEnvelope cover entity addressing and collection responses.
package odata
