package document

// Document is an ordered list of elements plus the current selection.
// Index 0 is the bottom-most element in paint order; appends go on top.
type Document struct {
	Elements   []Element
	SelectedID string
}

func NewDocument() *Document {
	return &Document{Elements: []Element{}}
}

// Append pushes el on top of the paint order.
func (d *Document) Append(el Element) {
	d.Elements = append(d.Elements, el)
}

// Insert places el at position i in paint order, clamping out-of-range
// positions to the ends.
func (d *Document) Insert(i int, el Element) {
	if i < 0 {
		i = 0
	}
	if i >= len(d.Elements) {
		d.Elements = append(d.Elements, el)
		return
	}
	d.Elements = append(d.Elements[:i], append([]Element{el}, d.Elements[i:]...)...)
}

// ByID returns the element with the given ID, or nil.
func (d *Document) ByID(id string) Element {
	if id == "" {
		return nil
	}
	for _, el := range d.Elements {
		if el.Base().ID == id {
			return el
		}
	}
	return nil
}

// Replace swaps the element with the same ID in place, keeping paint order.
// Unknown IDs are ignored.
func (d *Document) Replace(el Element) {
	id := el.Base().ID
	for i, cur := range d.Elements {
		if cur.Base().ID == id {
			d.Elements[i] = el
			return
		}
	}
}

// Update merges the patch into the element with the given ID. Unknown IDs
// are ignored; patch fields that do not apply to the element's kind are
// skipped.
func (d *Document) Update(id string, p Patch) {
	if el := d.ByID(id); el != nil {
		p.Apply(el)
	}
}

// Delete removes the element with the given ID, clearing the selection if
// it pointed at the removed element. Unknown IDs are ignored.
func (d *Document) Delete(id string) {
	for i, el := range d.Elements {
		if el.Base().ID == id {
			d.Elements = append(d.Elements[:i], d.Elements[i+1:]...)
			if d.SelectedID == id {
				d.SelectedID = ""
			}
			return
		}
	}
}

// DeleteSelected removes the selected element, if any.
func (d *Document) DeleteSelected() {
	if d.SelectedID != "" {
		d.Delete(d.SelectedID)
	}
}

// Select sets the selection. An empty or unknown ID clears it.
func (d *Document) Select(id string) {
	if id != "" && d.ByID(id) == nil {
		id = ""
	}
	d.SelectedID = id
}

// Selected returns the selected element, or nil.
func (d *Document) Selected() Element {
	return d.ByID(d.SelectedID)
}

// Clone deep-copies the document, selection included.
func (d *Document) Clone() *Document {
	c := &Document{
		Elements:   make([]Element, len(d.Elements)),
		SelectedID: d.SelectedID,
	}
	for i, el := range d.Elements {
		c.Elements[i] = el.Clone()
	}
	return c
}
