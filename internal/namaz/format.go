package namaz

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// Status-line display modes.
const (
	FormatPeriod           = "period"
	FormatNext             = "next"
	FormatNextAndRemaining = "next-and-remaining"
	FormatPeriodAndNext    = "period-and-next"
	FormatFull             = "full"
)

// FormatData is the data passed to custom Go templates.
type FormatData struct {
	Period      string // e.g. "Zohr/Asr"
	Group       string // morning, noon or evening
	Description string // period description, may be empty
	Next        string // display name of the next label, e.g. "Maghrib"
	NextTime    string // formatted time of the next label
	Remaining   string // e.g. "2 hours 15 minutes"
	Hours       int
	Minutes     int
}

// FormatStatus renders st for a status line. layout is a Go time layout used
// for clock values ("15:04" or "3:04 PM").
//
// A mode containing "{{" is executed as a Go template over FormatData, e.g.
// "{{.Period}} | {{.Next}} in {{.Remaining}}".
func FormatStatus(st Status, mode, layout string) string {
	data := FormatData{
		Period:      st.Period.Name,
		Group:       string(st.Period.Group),
		Description: st.Period.Description,
		Remaining:   st.Remaining.Text,
		Hours:       st.Remaining.Hours,
		Minutes:     st.Remaining.Minutes,
	}
	if st.Next != "" {
		data.Next = st.Next.DisplayName()
		data.NextTime = FormatClock(st.NextTime, layout)
	}

	if strings.Contains(mode, "{{") {
		return formatCustom(mode, data)
	}

	switch mode {
	case FormatPeriod:
		return data.Period
	case FormatNext:
		return strings.TrimSpace(data.Next + " " + data.NextTime)
	case FormatNextAndRemaining:
		return strings.TrimSpace(data.Next + " " + data.Remaining)
	case FormatFull:
		if data.Next == "" {
			return data.Period
		}
		return fmt.Sprintf("%s | %s %s (%s)", data.Period, data.Next, data.NextTime, data.Remaining)
	default:
		if data.Next == "" {
			return data.Period
		}
		return fmt.Sprintf("%s | %s %s", data.Period, data.Next, data.NextTime)
	}
}

func formatCustom(tmpl string, data FormatData) string {
	t, err := template.New("custom").Parse(tmpl)
	if err != nil {
		return fmt.Sprintf("template-err: %v", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return fmt.Sprintf("template-err: %v", err)
	}

	return buf.String()
}
