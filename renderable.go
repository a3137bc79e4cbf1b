package bserve

// Kind tags the variant held by a [Renderable].
type Kind int

const (
	// KindNone is an empty payload, rendered as an empty body.
	KindNone Kind = iota
	// KindBytes is pre-serialized content that serializers pass through unchanged.
	KindBytes
	// KindValue is a structured value that serializers marshal for their content type.
	KindValue
	// KindError is an error message with its cause, e.g. produced by error handlers.
	KindError
)

// Renderable is the payload of a [Result]. Serializers switch on its [Kind] instead of inspecting
// the dynamic type of the content.
type Renderable struct {
	kind    Kind
	bytes   []byte
	value   any
	message string
	cause   error
}

// Bytes returns a renderable that is written as-is.
func Bytes(b []byte) Renderable { return Renderable{kind: KindBytes, bytes: b} }

// Text returns a renderable that is written as-is.
func Text(s string) Renderable { return Bytes([]byte(s)) }

// Value returns a renderable that serializers marshal.
func Value(v any) Renderable { return Renderable{kind: KindValue, value: v} }

// ErrorContent returns a renderable that describes a failure. Only the message is meant to reach
// the client, the cause stays available for logging.
func ErrorContent(message string, cause error) Renderable {
	return Renderable{kind: KindError, message: message, cause: cause}
}

// Kind returns the variant tag.
func (r Renderable) Kind() Kind { return r.kind }

// Bytes returns the raw content of a [KindBytes] renderable.
func (r Renderable) Bytes() ([]byte, bool) { return r.bytes, r.kind == KindBytes }

// Value returns the content of a [KindValue] renderable.
func (r Renderable) Value() (any, bool) { return r.value, r.kind == KindValue }

// Error returns the message and cause of a [KindError] renderable.
func (r Renderable) Error() (message string, cause error, ok bool) {
	return r.message, r.cause, r.kind == KindError
}
