package document

import (
	"encoding/json"
	"fmt"
)

// Elements cross the wire as flat objects with a "type" discriminator:
// {"type":"rectangle","id":"el_...","x":10,...,"width":100,"height":50}

// MarshalElement encodes el with its kind tag.
func MarshalElement(el Element) ([]byte, error) {
	switch v := el.(type) {
	case *Brush:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			*Brush
		}{KindBrush, v})
	case *Rectangle:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			*Rectangle
		}{KindRectangle, v})
	case *Triangle:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			*Triangle
		}{KindTriangle, v})
	case *Circle:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			*Circle
		}{KindCircle, v})
	case *Star:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			*Star
		}{KindStar, v})
	case *Polygon:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			*Polygon
		}{KindPolygon, v})
	case *Line:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			*Line
		}{KindLine, v})
	case *Text:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			*Text
		}{KindText, v})
	case *Image:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			*Image
		}{KindImage, v})
	default:
		return nil, fmt.Errorf("unknown element kind %T", el)
	}
}

// UnmarshalElement decodes a tagged element object. Visibility defaults to
// true when the field is absent.
func UnmarshalElement(data []byte) (Element, error) {
	var probe struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode element: %w", err)
	}

	var el Element
	switch probe.Type {
	case KindBrush:
		el = &Brush{Attrs: Attrs{Visible: true}}
	case KindRectangle:
		el = &Rectangle{Attrs: Attrs{Visible: true}}
	case KindTriangle:
		el = &Triangle{Attrs: Attrs{Visible: true}}
	case KindCircle:
		el = &Circle{Attrs: Attrs{Visible: true}}
	case KindStar:
		el = &Star{Attrs: Attrs{Visible: true}}
	case KindPolygon:
		el = &Polygon{Attrs: Attrs{Visible: true}}
	case KindLine:
		el = &Line{Attrs: Attrs{Visible: true}}
	case KindText:
		el = &Text{Attrs: Attrs{Visible: true}}
	case KindImage:
		el = &Image{Attrs: Attrs{Visible: true}}
	default:
		return nil, fmt.Errorf("unknown element type %q", probe.Type)
	}
	if err := json.Unmarshal(data, el); err != nil {
		return nil, fmt.Errorf("decode %s element: %w", probe.Type, err)
	}
	return el, nil
}

type documentWire struct {
	Elements   []json.RawMessage `json:"elements"`
	SelectedID string            `json:"selectedId,omitempty"`
}

func (d *Document) MarshalJSON() ([]byte, error) {
	wire := documentWire{
		Elements:   make([]json.RawMessage, 0, len(d.Elements)),
		SelectedID: d.SelectedID,
	}
	for _, el := range d.Elements {
		raw, err := MarshalElement(el)
		if err != nil {
			return nil, err
		}
		wire.Elements = append(wire.Elements, raw)
	}
	return json.Marshal(wire)
}

func (d *Document) UnmarshalJSON(data []byte) error {
	var wire documentWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	d.Elements = make([]Element, 0, len(wire.Elements))
	for _, raw := range wire.Elements {
		el, err := UnmarshalElement(raw)
		if err != nil {
			return err
		}
		d.Elements = append(d.Elements, el)
	}
	// Drop dangling selections rather than failing the load.
	d.SelectedID = ""
	d.Select(wire.SelectedID)
	return nil
}
