package httpx

import (
	"bytes"
	"io"
	"net/http"
)

// maxPeekBytes bounds how much of a body a middleware may buffer. Credential
// payloads are tiny; anything larger is not worth keying a limiter on.
const maxPeekBytes = 64 << 10

// peekBody reads up to maxPeekBytes of the request body and puts it back so
// the downstream handler still sees the full payload. The unread tail of an
// oversized body stays chained behind the replayed prefix rather than being
// dropped.
func peekBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBytes))
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), r.Body))
	if err != nil {
		return nil, err
	}
	return body, nil
}
