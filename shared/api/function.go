// shared/api/function.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// FunctionRequest is the normalized request a serverless platform hands to a function:
// path, method and an optional raw body.
type FunctionRequest struct {
	Path                  string            `json:"path"`
	HTTPMethod            string            `json:"httpMethod"`
	Headers               map[string]string `json:"headers,omitempty"`
	QueryStringParameters map[string]string `json:"queryStringParameters,omitempty"`
	Body                  *string           `json:"body,omitempty"`
}

// FunctionResponse is what the function returns to the platform.
type FunctionResponse struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
}

// Invoke runs a normalized request through h and collects the normalized response,
// so a service router can be deployed as a single function entry point.
func Invoke(ctx context.Context, h http.Handler, in FunctionRequest) FunctionResponse {
	method := strings.ToUpper(in.HTTPMethod)
	if method == "" {
		method = http.MethodGet
	}

	target := &url.URL{Path: in.Path}
	if len(in.QueryStringParameters) > 0 {
		q := url.Values{}
		for k, v := range in.QueryStringParameters {
			q.Set(k, v)
		}
		target.RawQuery = q.Encode()
	}

	var body *bytes.Reader
	if in.Body != nil {
		body = bytes.NewReader([]byte(*in.Body))
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return FunctionResponse{
			StatusCode: http.StatusInternalServerError,
			Headers:    map[string]string{"Content-Type": "application/json", "Access-Control-Allow-Origin": CORSAllowOrigin},
			Body:       `{"error":"` + MsgInternalServerError + `","message":"invalid request"}`,
		}
	}
	req.RequestURI = target.RequestURI()
	for k, v := range in.Headers {
		req.Header.Set(k, v)
	}
	if in.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rw := newBufferedResponseWriter()
	h.ServeHTTP(rw, req)

	headers := make(map[string]string, len(rw.header))
	for k := range rw.header {
		headers[k] = rw.header.Get(k)
	}
	return FunctionResponse{
		StatusCode: rw.status,
		Headers:    headers,
		Body:       rw.body.String(),
	}
}

// ServeFunction decodes one FunctionRequest from in, runs it through h and writes the
// FunctionResponse to out. It is the whole life of a single function invocation.
func ServeFunction(ctx context.Context, h http.Handler, in io.Reader, out io.Writer) error {
	var req FunctionRequest
	if err := json.NewDecoder(in).Decode(&req); err != nil {
		return fmt.Errorf("failed to decode function request: %w", err)
	}
	if err := json.NewEncoder(out).Encode(Invoke(ctx, h, req)); err != nil {
		return fmt.Errorf("failed to encode function response: %w", err)
	}
	return nil
}

// bufferedResponseWriter keeps a whole response in memory.
type bufferedResponseWriter struct {
	header      http.Header
	body        bytes.Buffer
	status      int
	wroteHeader bool
}

func newBufferedResponseWriter() *bufferedResponseWriter {
	return &bufferedResponseWriter{header: make(http.Header), status: http.StatusOK}
}

func (b *bufferedResponseWriter) Header() http.Header { return b.header }

func (b *bufferedResponseWriter) WriteHeader(status int) {
	if b.wroteHeader {
		return
	}
	b.status = status
	b.wroteHeader = true
}

func (b *bufferedResponseWriter) Write(p []byte) (int, error) {
	b.wroteHeader = true
	return b.body.Write(p)
}
