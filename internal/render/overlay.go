package render

import (
	"encoding/json"
	"io"
)

// Overlay keeps the element list of the last frame for hosts that position
// native widgets over the image instead of painting pixels.
type Overlay struct {
	elements []Element
}

func (o *Overlay) Present(f Frame) error {
	o.elements = Layout(f)
	return nil
}

func (o *Overlay) Elements() []Element {
	return o.elements
}

// WriteJSON encodes the current elements as an indented JSON array
func (o *Overlay) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	elements := o.elements
	if elements == nil {
		elements = []Element{}
	}
	return enc.Encode(elements)
}
