package booking

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Summary is the derived display state of the flow.  It is computed in
// one place after every toggle and handed to every Surface, so the
// seat-map total and the payment-summary total cannot disagree.
type Summary struct {
	Selected       []string
	Count          int
	UnitPrice      int64
	Total          int64
	FormattedTotal string
	SubmitEnabled  bool
}

// Surface is a display location that shows the total and the submit
// control state.
type Surface interface {
	Render(Summary)
}

// SurfaceFunc adapts a function to Surface.
type SurfaceFunc func(Summary)

func (fn SurfaceFunc) Render(s Summary) { fn(s) }

// ParseLocale resolves a BCP 47 tag such as "id-ID", falling back to
// Indonesian, the locale of the booking site.
func ParseLocale(tag string) language.Tag {
	t, err := language.Parse(tag)
	if err != nil || tag == "" {
		return language.Indonesian
	}
	return t
}

// FormatAmount renders n with the thousands separators of locale.
func FormatAmount(locale language.Tag, n int64) string {
	return message.NewPrinter(locale).Sprintf("%d", n)
}

func summarize(selection []string, price int64, printer *message.Printer) Summary {
	total := int64(len(selection)) * price
	return Summary{
		Selected:       append([]string(nil), selection...),
		Count:          len(selection),
		UnitPrice:      price,
		Total:          total,
		FormattedTotal: printer.Sprintf("%d", total),
		SubmitEnabled:  len(selection) > 0,
	}
}
