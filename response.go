package bserve

import (
	"bytes"
	"io"
	"net/http"
	"slices"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"golang.org/x/net/http/httpguts"
)

// Response is a result in wire form, ready to be written.
type Response struct {
	Status int
	Header http.Header
	Body   []byte

	// Failure is set when the response was produced by error recovery.
	Failure *Failure
	// States lists the dispatch states the request went through.
	States []State
}

// materialize combines a result with its negotiated body. Header names and values are validated
// so a handler cannot inject extra header lines.
func materialize(res *Result, neg Negotiated) (*Response, error) {
	resp := &Response{Status: res.StatusCode(), Header: http.Header{}}
	if res.StatusCode() < 100 || res.StatusCode() > 999 {
		return nil, errors.Newf("invalid status code %d", res.StatusCode())
	}

	names := lo.Keys(res.Headers())
	slices.Sort(names)

	for _, name := range names {
		value := res.Headers()[name]
		if !httpguts.ValidHeaderFieldName(name) {
			return nil, errors.Newf("invalid header name %q", name)
		}

		if !httpguts.ValidHeaderFieldValue(value) {
			return nil, errors.Newf("invalid value for header %q", name)
		}

		resp.Header.Set(name, value)
	}

	for _, c := range res.Cookies() {
		v := c.Std().String()
		if v == "" {
			return nil, errors.Newf("invalid cookie %q", c.Name)
		}

		resp.Header.Add("Set-Cookie", v)
	}

	if !bodyAllowedForStatus(resp.Status) {
		return resp, nil
	}

	resp.Body = neg.Body
	if len(neg.Body) > 0 || res.ContentType() != "" {
		resp.Header.Set("Content-Type", neg.ContentType)
	}

	return resp, nil
}

// Write writes the response to a net/http response writer.
func (resp *Response) Write(w http.ResponseWriter) error {
	h := w.Header()
	for name, vals := range resp.Header {
		h[name] = append([]string(nil), vals...)
	}

	if bodyAllowedForStatus(resp.Status) {
		h.Set("Content-Length", strconv.Itoa(len(resp.Body)))
	}

	w.WriteHeader(resp.Status)
	if len(resp.Body) == 0 {
		return nil
	}

	if _, err := w.Write(resp.Body); err != nil {
		return errors.Wrap(err, "write body")
	}

	return nil
}

// wire returns the response as the standard library's client-side representation, which knows
// how to serialize itself onto a connection.
func (resp *Response) wire(req *http.Request, closing bool) *http.Response {
	hr := &http.Response{
		Status:        strconv.Itoa(resp.Status) + " " + http.StatusText(resp.Status),
		StatusCode:    resp.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        resp.Header.Clone(),
		ContentLength: int64(len(resp.Body)),
		Close:         closing,
		Request:       req,
	}

	if len(resp.Body) > 0 {
		hr.Body = io.NopCloser(bytes.NewReader(resp.Body))
	}

	if !closing && req != nil && !req.ProtoAtLeast(1, 1) {
		hr.Header.Set("Connection", "keep-alive")
	}

	return hr
}

func bodyAllowedForStatus(status int) bool {
	switch {
	case status >= 100 && status <= 199:
		return false
	case status == http.StatusNoContent:
		return false
	case status == http.StatusNotModified:
		return false
	}

	return true
}
