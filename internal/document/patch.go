package document

// Patch is a partial element update. Nil fields are left untouched; set
// fields that do not exist on the target's kind are ignored.
type Patch struct {
	X           *float64 `json:"x,omitempty"`
	Y           *float64 `json:"y,omitempty"`
	StrokeColor *string  `json:"strokeColor,omitempty"`
	StrokeWidth *float64 `json:"strokeWidth,omitempty"`
	Visible     *bool    `json:"visible,omitempty"`
	Name        *string  `json:"name,omitempty"`
	Rotation    *int     `json:"rotation,omitempty"`
	FlipH       *bool    `json:"flipH,omitempty"`
	FlipV       *bool    `json:"flipV,omitempty"`
	Width       *float64 `json:"width,omitempty"`
	Height      *float64 `json:"height,omitempty"`
	Radius      *float64 `json:"radius,omitempty"`
	X2          *float64 `json:"x2,omitempty"`
	Y2          *float64 `json:"y2,omitempty"`
	Content     *string  `json:"content,omitempty"`
	FontSize    *float64 `json:"fontSize,omitempty"`
	FontFamily  *string  `json:"fontFamily,omitempty"`
	Align       *string  `json:"align,omitempty"`
	Source      *string  `json:"source,omitempty"`
}

// Apply merges the patch into el.
func (p Patch) Apply(el Element) {
	a := el.Base()
	if p.X != nil {
		a.X = *p.X
	}
	if p.Y != nil {
		a.Y = *p.Y
	}
	if p.StrokeColor != nil {
		a.StrokeColor = *p.StrokeColor
	}
	if p.StrokeWidth != nil {
		a.StrokeWidth = *p.StrokeWidth
	}
	if p.Visible != nil {
		a.Visible = *p.Visible
	}
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Rotation != nil {
		a.Rotation = ((*p.Rotation % 360) + 360) % 360
	}
	if p.FlipH != nil {
		a.FlipH = *p.FlipH
	}
	if p.FlipV != nil {
		a.FlipV = *p.FlipV
	}

	switch e := el.(type) {
	case *Rectangle:
		if p.Width != nil {
			e.Width = *p.Width
		}
		if p.Height != nil {
			e.Height = *p.Height
		}
	case *Triangle:
		if p.Width != nil {
			e.Width = *p.Width
		}
		if p.Height != nil {
			e.Height = *p.Height
		}
	case *Circle:
		if p.Radius != nil {
			e.Radius = *p.Radius
		}
	case *Star:
		if p.Radius != nil {
			e.Radius = *p.Radius
		}
	case *Polygon:
		if p.Radius != nil {
			e.Radius = *p.Radius
		}
	case *Line:
		if p.X2 != nil {
			e.X2 = *p.X2
		}
		if p.Y2 != nil {
			e.Y2 = *p.Y2
		}
	case *Text:
		if p.Content != nil {
			e.Content = *p.Content
		}
		if p.FontSize != nil {
			e.FontSize = *p.FontSize
		}
		if p.FontFamily != nil {
			e.FontFamily = *p.FontFamily
		}
		if p.Align != nil {
			e.Align = *p.Align
		}
	case *Image:
		if p.Source != nil {
			e.Source = *p.Source
		}
		if p.Width != nil {
			e.Width = *p.Width
		}
		if p.Height != nil {
			e.Height = *p.Height
		}
	}
}
