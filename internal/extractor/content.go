package extractor

import (
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// kerningSpace is the TJ displacement (in thousandths of an em) below which
// an adjustment is treated as a word break.
const kerningSpace = -200

// latin1 decodes strings shown before any font is selected.
type latin1 struct{}

func (latin1) Decode(raw string) string {
	runes := make([]rune, len(raw))
	for i := 0; i < len(raw); i++ {
		runes[i] = rune(raw[i])
	}
	return string(runes)
}

// pageText returns the text shown by Tj, TJ, ' and " on one page. Strings are
// decoded through the selected font, so ToUnicode maps and simple encodings
// both apply. Td, TD, T* and Tm start a new line.
func pageText(p pdf.Page) string {
	fonts := make(map[string]pdf.TextEncoding)
	for _, name := range p.Fonts() {
		fonts[name] = p.Font(name).Encoder()
	}

	var (
		out strings.Builder
		enc pdf.TextEncoding = latin1{}
	)
	newline := func() {
		if out.Len() > 0 && !strings.HasSuffix(out.String(), "\n") {
			out.WriteByte('\n')
		}
	}
	show := func(v pdf.Value) {
		for _, r := range enc.Decode(v.RawString()) {
			if r == '\n' || r == '\t' || !unicode.IsControl(r) {
				out.WriteRune(r)
			}
		}
	}

	interpret := func(stk *pdf.Stack, op string) {
		args := make([]pdf.Value, stk.Len())
		for i := len(args) - 1; i >= 0; i-- {
			args[i] = stk.Pop()
		}

		switch op {
		case "Tf":
			if len(args) == 2 {
				if e, ok := fonts[args[0].Name()]; ok {
					enc = e
				} else {
					enc = latin1{}
				}
			}
		case "Td", "TD", "T*", "Tm":
			newline()
		case "Tj":
			if len(args) == 1 {
				show(args[0])
			}
		case "'":
			newline()
			if len(args) == 1 {
				show(args[0])
			}
		case "\"":
			newline()
			if len(args) == 3 {
				show(args[2])
			}
		case "TJ":
			if len(args) != 1 {
				return
			}
			arr := args[0]
			for i := 0; i < arr.Len(); i++ {
				switch item := arr.Index(i); item.Kind() {
				case pdf.String:
					show(item)
				case pdf.Integer, pdf.Real:
					if item.Float64() < kerningSpace {
						out.WriteByte(' ')
					}
				}
			}
		}
	}

	// Contents may be a single stream or an array of streams that together
	// form the page description.
	contents := p.V.Key("Contents")
	if contents.Kind() == pdf.Array {
		for i := 0; i < contents.Len(); i++ {
			pdf.Interpret(contents.Index(i), interpret)
		}
	} else if contents.Kind() == pdf.Stream {
		pdf.Interpret(contents, interpret)
	}
	return out.String()
}
