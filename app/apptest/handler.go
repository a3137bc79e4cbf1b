package apptest

import (
	"net/http"

	"github.com/advdv/bserve"
	"github.com/advdv/bserve/session"
)

// CallHandler runs a single handler through a dispatcher with default settings and returns the
// response as it would be written. Use it to unit test handlers without starting an app.
func CallHandler(handler bserve.HandlerFunc, req *http.Request, opts ...bserve.DispatcherOption) *bserve.Response {
	mux := bserve.NewMux()
	mux.Handle("/", handler)

	return bserve.NewDispatcher(mux, opts...).Dispatch(req)
}

// Session decodes the session a response sets, using codec.
func Session(codec *session.Codec, resp *bserve.Response) *session.Session {
	for _, c := range (&http.Response{Header: resp.Header}).Cookies() {
		if c.Name == codec.Name() {
			return codec.Parse(c.Value)
		}
	}

	return session.New()
}
