package errors

import (
	"context"
	"net/http"
)

func requestContext(r *http.Request) context.Context {
	if r == nil {
		return context.Background()
	}
	return r.Context()
}
