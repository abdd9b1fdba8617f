// Package textwrap fits label text into a box of fixed width.
//
// Wrapping is measurement driven: a [Measurer] reports the rendered width of a
// string at a font size, and [WrapSingleLine] finds the longest prefix that
// fits, breaking either between words or between characters. The returned
// overflow is the text that did not fit, ready to be wrapped onto the next
// line by [Wrap].
//
//	m := textwrap.NewFontMeasurer()
//	line, rest := textwrap.WrapSingleLine(m, "payment-service", textwrap.Options{
//	    Width: 40, Size: 8, Overflow: textwrap.Ellipsis, WordBreak: textwrap.BreakAll,
//	})
package textwrap
