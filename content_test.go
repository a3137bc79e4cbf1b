package bserve_test

import (
	"testing"

	"github.com/advdv/bserve"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID   string `json:"id"   xml:"id,attr"`
	Name string `json:"name" xml:"name"`
}

type upperSerializer struct{ contentType string }

func (s upperSerializer) ContentType() string { return s.contentType }
func (s upperSerializer) Serialize(rd bserve.Renderable) ([]byte, error) {
	b, ok := rd.Bytes()
	if !ok {
		return nil, errors.New("only bytes")
	}
	out := make([]byte, len(b))
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return out, nil
}

type panickingSerializer struct{}

func (panickingSerializer) ContentType() string                         { return "application/x-panic" }
func (panickingSerializer) Serialize(bserve.Renderable) ([]byte, error) { panic("oops") }

type emptyEngine struct{}

func (emptyEngine) SerializerFor(string) (bserve.Serializer, bool) { return nil, false }

func TestNegotiateDefaultsToHTML(t *testing.T) {
	neg, err := bserve.Negotiate(bserve.NewEngine(), bserve.OkText("Alright"))
	require.NoError(t, err)
	require.Equal(t, "Alright", string(neg.Body))
	require.Equal(t, "text/html; charset=utf-8", neg.ContentType)
}

func TestNegotiateUnknownTypeKeepsDeclaredType(t *testing.T) {
	res := bserve.Ok().As("image/png").Render(bserve.Bytes([]byte{0x89, 'P', 'N', 'G'}))
	neg, err := bserve.Negotiate(bserve.NewEngine(), res)
	require.NoError(t, err)
	require.Equal(t, []byte{0x89, 'P', 'N', 'G'}, neg.Body)
	require.Equal(t, "image/png; charset=utf-8", neg.ContentType)
}

func TestNegotiateBuiltins(t *testing.T) {
	engine := bserve.NewEngine()
	v := item{ID: "1", Name: "a<b"}

	for _, c := range []struct {
		name string
		res  *bserve.Result
		body string
		ct   string
	}{
		{"json value", bserve.Ok().JSON().Render(bserve.Value(v)), `{"id":"1","name":"a<b"}`, "application/json; charset=utf-8"},
		{"json error", bserve.Ok().JSON().Render(bserve.ErrorContent("bad", nil)), `{"error":"bad"}`, "application/json; charset=utf-8"},
		{"json bytes", bserve.Ok().JSON().Render(bserve.Text(`{"raw":true}`)), `{"raw":true}`, "application/json; charset=utf-8"},
		{"xml value", bserve.Ok().XML().Render(bserve.Value(v)), `<item id="1"><name>a&lt;b</name></item>`, "application/xml; charset=utf-8"},
		{"xml error", bserve.Ok().XML().Render(bserve.ErrorContent("bad", nil)), `<error><message>bad</message></error>`, "application/xml; charset=utf-8"},
		{"html string value", bserve.Ok().HTML().Render(bserve.Value("<b>hi</b>")), `<b>hi</b>`, "text/html; charset=utf-8"},
		{"html error escapes", bserve.Ok().Render(bserve.ErrorContent("<script>", nil)), `&lt;script&gt;`, "text/html; charset=utf-8"},
		{"text error verbatim", bserve.Ok().Text().Render(bserve.ErrorContent("<script>", nil)), `<script>`, "text/plain; charset=utf-8"},
		{"text error value", bserve.Ok().Text().Render(bserve.Value(errors.New("e"))), `e`, "text/plain; charset=utf-8"},
		{"empty", bserve.NoContent(), ``, "text/html; charset=utf-8"},
		{"charset", bserve.Ok().Text().WithCharset("iso-8859-1").Render(bserve.Text("x")), `x`, "text/plain; charset=iso-8859-1"},
	} {
		t.Run(c.name, func(t *testing.T) {
			neg, err := bserve.Negotiate(engine, c.res)
			require.NoError(t, err)
			assert.Equal(t, c.body, string(neg.Body))
			assert.Equal(t, c.ct, neg.ContentType)
		})
	}
}

func TestNegotiateCustomSerializerReplacesBuiltin(t *testing.T) {
	engine := bserve.NewEngine(upperSerializer{contentType: bserve.MimeHTML})
	neg, err := bserve.Negotiate(engine, bserve.OkText("shout"))
	require.NoError(t, err)
	require.Equal(t, "SHOUT", string(neg.Body))
}

func TestNegotiateFailures(t *testing.T) {
	t.Run("structured value with html serializer", func(t *testing.T) {
		_, err := bserve.Negotiate(bserve.NewEngine(), bserve.Ok().Render(bserve.Value(item{})))
		require.Error(t, err)
		require.Contains(t, err.Error(), "cannot render bserve_test.item as text/html")
	})

	t.Run("serializer panics", func(t *testing.T) {
		engine := bserve.NewEngine(panickingSerializer{})
		_, err := bserve.Negotiate(engine, bserve.Ok().As("application/x-panic"))
		require.Error(t, err)
		require.Contains(t, err.Error(), "panic: oops")
	})

	t.Run("no serializer at all", func(t *testing.T) {
		_, err := bserve.Negotiate(emptyEngine{}, bserve.OkText("x"))
		require.ErrorIs(t, err, bserve.ErrNoSerializer)

		_, err = bserve.Negotiate(nil, bserve.OkText("x"))
		require.ErrorIs(t, err, bserve.ErrNoSerializer)
	})

	t.Run("json marshal error", func(t *testing.T) {
		_, err := bserve.Negotiate(bserve.NewEngine(), bserve.Ok().JSON().Render(bserve.Value(make(chan int))))
		require.Error(t, err)
	})
}
