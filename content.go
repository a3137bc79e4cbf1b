package bserve

import (
	"github.com/cockroachdb/errors"
)

// Serializer turns a [Renderable] into bytes for one content type.
type Serializer interface {
	ContentType() string
	Serialize(rd Renderable) ([]byte, error)
}

// ContentEngine resolves the serializer for a content type.
type ContentEngine interface {
	SerializerFor(contentType string) (Serializer, bool)
}

// Engine is a [ContentEngine] backed by a fixed set of serializers. It is immutable after
// construction and safe for concurrent use.
type Engine struct {
	serializers map[string]Serializer
}

// NewEngine returns an engine with the built-in html, text, json and xml serializers. Serializers
// passed in replace the built-in one for the same content type.
func NewEngine(ss ...Serializer) *Engine {
	e := &Engine{serializers: make(map[string]Serializer)}
	for _, s := range append(BuiltinSerializers(), ss...) {
		e.serializers[s.ContentType()] = s
	}

	return e
}

// SerializerFor implements [ContentEngine].
func (e *Engine) SerializerFor(contentType string) (Serializer, bool) {
	s, ok := e.serializers[contentType]
	return s, ok
}

var _ ContentEngine = &Engine{}

// Negotiated is a result body together with its Content-Type header value.
type Negotiated struct {
	ContentType string
	Body        []byte
}

// ErrNoSerializer is returned by [Negotiate] when no serializer applies to a result.
var ErrNoSerializer = errors.New("no serializer for content type")

// Negotiate serializes the result's payload. The serializer is looked up by the result's content
// type; results without a content type, or with one the engine does not know, use the engine's
// html serializer. A missing serializer or a failing one returns an error, which the dispatcher
// turns into a [SerializationFailure].
func Negotiate(engine ContentEngine, res *Result) (Negotiated, error) {
	ser, err := resolveSerializer(engine, res.ContentType())
	if err != nil {
		return Negotiated{}, err
	}

	body, err := safeSerialize(ser, res.Renderable())
	if err != nil {
		return Negotiated{}, errors.Wrapf(err, "serialize %s", ser.ContentType())
	}

	contentType := res.ContentType()
	if contentType == "" {
		contentType = ser.ContentType()
	}

	return Negotiated{
		ContentType: contentType + "; charset=" + res.Charset(),
		Body:        body,
	}, nil
}

func resolveSerializer(engine ContentEngine, contentType string) (Serializer, error) {
	if engine == nil {
		return nil, errors.Wrapf(ErrNoSerializer, "%q: no content engine", contentType)
	}

	if contentType != "" {
		if s, ok := engine.SerializerFor(contentType); ok && s != nil {
			return s, nil
		}
	}

	if s, ok := engine.SerializerFor(MimeHTML); ok && s != nil {
		return s, nil
	}

	return nil, errors.Wrapf(ErrNoSerializer, "%q", contentType)
}

// safeSerialize treats a panicking serializer like one that returned an error.
func safeSerialize(s Serializer, rd Renderable) (b []byte, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &PanicError{Value: v}
		}
	}()

	return s.Serialize(rd)
}
