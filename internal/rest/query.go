package rest

import (
	"net/http"

	"github.com/roach88/querycodec/internal/ir"
	"github.com/roach88/querycodec/internal/querystring"
)

// DecodeQuery decodes the raw query string of r with codec, the server
// side of Client.List. A request without a query decodes to an empty
// mapping.
func DecodeQuery(r *http.Request, codec *querystring.Codec) (ir.Value, error) {
	if r.URL.RawQuery == "" {
		return &ir.Object{}, nil
	}
	return codec.Decode(r.URL.RawQuery)
}
