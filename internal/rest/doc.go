// Package rest is a client for OData-style REST services.
//
// Request policy lives in an Interceptor: default Accept and Content-Type
// headers, an "AuthSession <sid>" Authorization header from an
// AuthProvider, an optional request id, and cleanup of write bodies
// (server-managed fields such as @odata.etag and __CreatedOn are removed
// before sending). A Transport applies the interceptor to every request,
// so the policy is explicit configuration of one client rather than a
// process-wide hook.
//
// Collections are fetched with List (raw query), ListQuery (a
// queryir.Query encoded with the querystring codec) or ListOData
// (standard $filter options). Entities are addressed as
// collection('id').
//
// SessionAuth keeps the login session in web storage (see package store)
// and supplies its id as the auth token.
package rest
