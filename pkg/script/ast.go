package script

import (
	"fmt"
	"strconv"

	"github.com/alecthomas/participle/v2/lexer"
)

// Script is a parsed navigation script.
type Script struct {
	Commands []*Command `( @@ Semicolon? )*`
}

// Command is one navigation step. Exactly one field is set.
type Command struct {
	Pos lexer.Position

	Resize *Size   `  "resize" @@`
	Select *Rect   `| "select" @@`
	Pan    *Delta  `| "pan" @@`
	Zoom   *Zoom   `| "zoom" @@`
	Click  *Point  `| "click" @@`
	Undo   bool    `| @"undo"`
	Redo   bool    `| @"redo"`
	Reset  bool    `| @"reset"`
	Export *string `| "export" @String`
}

// Size is a pixel surface size.
type Size struct {
	W float64 `@Number`
	H float64 `@Number`
}

// Rect is a drag rectangle: start point and drag delta.
type Rect struct {
	X float64 `@Number`
	Y float64 `@Number`
	W float64 `@Number`
	H float64 `@Number`
}

// Delta is a screen-space drag.
type Delta struct {
	DX float64 `@Number`
	DY float64 `@Number`
}

// Zoom scales around a screen point.
type Zoom struct {
	X      float64 `@Number`
	Y      float64 `@Number`
	Factor float64 `@Number`
}

// Point is a screen position.
type Point struct {
	X float64 `@Number`
	Y float64 `@Number`
}

func (c *Command) String() string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	switch {
	case c.Resize != nil:
		return fmt.Sprintf("resize %s %s", f(c.Resize.W), f(c.Resize.H))
	case c.Select != nil:
		return fmt.Sprintf("select %s %s %s %s", f(c.Select.X), f(c.Select.Y), f(c.Select.W), f(c.Select.H))
	case c.Pan != nil:
		return fmt.Sprintf("pan %s %s", f(c.Pan.DX), f(c.Pan.DY))
	case c.Zoom != nil:
		return fmt.Sprintf("zoom %s %s %s", f(c.Zoom.X), f(c.Zoom.Y), f(c.Zoom.Factor))
	case c.Click != nil:
		return fmt.Sprintf("click %s %s", f(c.Click.X), f(c.Click.Y))
	case c.Undo:
		return "undo"
	case c.Redo:
		return "redo"
	case c.Reset:
		return "reset"
	case c.Export != nil:
		return "export " + strconv.Quote(*c.Export)
	}
	return "<empty>"
}
