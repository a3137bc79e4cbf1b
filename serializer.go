package bserve

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"

	"github.com/cockroachdb/errors"
)

// BuiltinSerializers returns the serializers every [Engine] starts with.
func BuiltinSerializers() []Serializer {
	return []Serializer{
		HTMLSerializer{},
		TextSerializer{},
		JSONSerializer{},
		XMLSerializer{},
	}
}

// HTMLSerializer writes bytes and string-like values as-is and escapes error messages.
type HTMLSerializer struct{}

func (HTMLSerializer) ContentType() string { return MimeHTML }

func (HTMLSerializer) Serialize(rd Renderable) ([]byte, error) {
	return serializeText(MimeHTML, rd, html.EscapeString)
}

// TextSerializer writes bytes, string-like values and error messages as plain text.
type TextSerializer struct{}

func (TextSerializer) ContentType() string { return MimeText }

func (TextSerializer) Serialize(rd Renderable) ([]byte, error) {
	return serializeText(MimeText, rd, func(s string) string { return s })
}

func serializeText(contentType string, rd Renderable, escape func(string) string) ([]byte, error) {
	switch rd.Kind() {
	case KindNone:
		return nil, nil
	case KindBytes:
		b, _ := rd.Bytes()
		return b, nil
	case KindError:
		msg, _, _ := rd.Error()
		return []byte(escape(msg)), nil
	case KindValue:
		v, _ := rd.Value()
		switch v := v.(type) {
		case string:
			return []byte(v), nil
		case []byte:
			return v, nil
		case error:
			return []byte(escape(v.Error())), nil
		case fmt.Stringer:
			return []byte(v.String()), nil
		default:
			return nil, errors.Newf("cannot render %T as %s", v, contentType)
		}
	default:
		return nil, errors.Newf("unknown renderable kind %d", rd.Kind())
	}
}

// JSONSerializer marshals values with encoding/json and renders errors as {"error": message}.
type JSONSerializer struct{}

func (JSONSerializer) ContentType() string { return MimeJSON }

func (JSONSerializer) Serialize(rd Renderable) ([]byte, error) {
	switch rd.Kind() {
	case KindNone:
		return nil, nil
	case KindBytes:
		b, _ := rd.Bytes()
		return b, nil
	case KindError:
		msg, _, _ := rd.Error()
		return json.Marshal(map[string]string{"error": msg})
	case KindValue:
		v, _ := rd.Value()
		return json.Marshal(v)
	default:
		return nil, errors.Newf("unknown renderable kind %d", rd.Kind())
	}
}

// XMLSerializer marshals values with encoding/xml and renders errors as
// <error><message>...</message></error>.
type XMLSerializer struct{}

func (XMLSerializer) ContentType() string { return MimeXML }

type xmlError struct {
	XMLName xml.Name `xml:"error"`
	Message string   `xml:"message"`
}

func (XMLSerializer) Serialize(rd Renderable) ([]byte, error) {
	switch rd.Kind() {
	case KindNone:
		return nil, nil
	case KindBytes:
		b, _ := rd.Bytes()
		return b, nil
	case KindError:
		msg, _, _ := rd.Error()
		return xml.Marshal(xmlError{Message: msg})
	case KindValue:
		v, _ := rd.Value()
		return xml.Marshal(v)
	default:
		return nil, errors.Newf("unknown renderable kind %d", rd.Kind())
	}
}
