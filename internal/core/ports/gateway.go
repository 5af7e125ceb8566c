package ports

import (
	"context"
	"io"
	"net/http"

	"github.com/distribuidoracarol/panel/internal/core/domain"
)

// RequestOptions carries the optional parts of a gateway call. An empty
// Method means GET. Body, when non-nil, is JSON-encoded.
type RequestOptions struct {
	Method  string
	Body    any
	Headers http.Header
}

// Gateway is the single chokepoint for backend calls. It never returns an
// error: every failure is folded into the Response.
type Gateway interface {
	Request(ctx context.Context, path string, opts RequestOptions) domain.Response
	Download(ctx context.Context, path string, w io.Writer) domain.Response
}
