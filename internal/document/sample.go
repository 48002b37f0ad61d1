package document

import (
	"github.com/linework/linework/backend-go/internal/typeid"
)

// NewSampleDocument seeds a fresh sketch with a few starter elements so the
// first open is not a blank void.
func NewSampleDocument() *Document {
	d := NewDocument()

	rect := NewRectangle(typeid.NewElementID(), 120, 120, "#e94560", 2)
	rect.Width = 200
	rect.Height = 140
	rect.Name = "Rectangle"
	d.Append(rect)

	circle := NewCircle(typeid.NewElementID(), 480, 220, "#0f3460", 2)
	circle.Radius = 80
	circle.Name = "Circle"
	d.Append(circle)

	line := NewLine(typeid.NewElementID(), 140, 340, "#53d769", 3)
	line.X2 = 560
	line.Y2 = 380
	line.Name = "Line"
	d.Append(line)

	label := NewText(typeid.NewElementID(), 140, 90, "#16213e", "Welcome to Linework", 24, "sans-serif", "left")
	label.Name = "Title"
	d.Append(label)

	return d
}
