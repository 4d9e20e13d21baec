package openapi

import "fmt"

// SerializationStyle represents the serialization style of a parameter.
type SerializationStyle string

var _ fmt.Stringer = (*SerializationStyle)(nil)

func (s SerializationStyle) String() string {
	return string(s)
}

const (
	// SerializationStyleSimple represents simple serialization as defined by RFC 6570. Valid for path, header parameters.
	SerializationStyleSimple SerializationStyle = "simple"
	// SerializationStyleForm represents form serialization as defined by RFC 6570. Valid for query, cookie parameters.
	SerializationStyleForm SerializationStyle = "form"
	// SerializationStyleLabel represents label serialization as defined by RFC 6570. Valid for path parameters.
	SerializationStyleLabel SerializationStyle = "label"
	// SerializationStyleMatrix represents matrix serialization as defined by RFC 6570. Valid for path parameters.
	SerializationStyleMatrix SerializationStyle = "matrix"
	// SerializationStyleSpaceDelimited represents space-delimited serialization. Valid for query parameters.
	SerializationStyleSpaceDelimited SerializationStyle = "spaceDelimited"
	// SerializationStylePipeDelimited represents pipe-delimited serialization. Valid for query parameters.
	SerializationStylePipeDelimited SerializationStyle = "pipeDelimited"
	// SerializationStyleDeepObject represents deep object serialization for rendering nested objects using form parameters. Valid for query parameters.
	SerializationStyleDeepObject SerializationStyle = "deepObject"
)

// ContainerKind classifies the shape of a serialized parameter value.
type ContainerKind string

const (
	// ContainerKindPrimitive represents a scalar parameter value.
	ContainerKindPrimitive ContainerKind = "primitive"
	// ContainerKindArray represents an array parameter value.
	ContainerKindArray ContainerKind = "array"
	// ContainerKindObject represents an object parameter value.
	ContainerKindObject ContainerKind = "object"
)

// StyleDescriptor captures how a parameter value is serialized onto the wire:
// style name, explode flag and the container kind of the value.
type StyleDescriptor struct {
	Style     SerializationStyle
	Explode   bool
	Container ContainerKind
}

// defaultStyle returns the spec-defined default style and explode flag per
// location: path and header use simple, query and cookie use form with
// explode.
func defaultStyle(location Location) (SerializationStyle, bool) {
	switch location {
	case LocationQuery, LocationCookie:
		return SerializationStyleForm, true
	default:
		return SerializationStyleSimple, false
	}
}

// styleFromCollectionFormat maps a Swagger 2 collectionFormat onto the
// OpenAPI 3 style vocabulary.
func styleFromCollectionFormat(format string, location Location) (SerializationStyle, bool) {
	switch format {
	case "ssv":
		return SerializationStyleSpaceDelimited, false
	case "pipes":
		return SerializationStylePipeDelimited, false
	case "multi":
		return SerializationStyleForm, true
	default: // csv and unset
		if location == LocationQuery || location == LocationCookie {
			return SerializationStyleForm, false
		}
		return SerializationStyleSimple, false
	}
}
