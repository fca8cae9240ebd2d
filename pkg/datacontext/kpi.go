package datacontext

import (
	"fmt"
	"math"
	"time"
)

// Status color palette shared with the UI design tokens
const (
	colorSuccess = "#22c55e"
	colorWarning = "#f59e0b"
	colorDanger  = "#ef4444"
	colorMuted   = "#94a3b8"
)

// KPIInput carries everything needed to compute a KPI result
type KPIInput struct {
	Title       string
	Current     float64
	HasCurrent  bool
	Previous    *float64
	Target      *float64
	CurrentYTD  *float64
	PreviousYTD *float64
	Format      string // currency, integer, percent, decimal, text
	Unit        string
	Category    string
	Description string
	Inverse     bool
	LastUpdated string
}

// ComputeKPI produces the full KPI result leaf: formatted value, deltas vs
// previous year and target, YTD deltas, status and trend direction. The
// warning band sits at -10% against target; the inverse flag flips the sign
// convention for KPIs where lower is better.
func ComputeKPI(in KPIInput) map[string]interface{} {
	prefix := ""
	if in.Format == "currency" {
		prefix = "$"
	}

	valueFormatted := "---"
	if in.HasCurrent {
		valueFormatted = FormatValue(in.Current, prefix, in.Format)
	}

	vsPrevFormatted := "---"

	var (
		vsPrevDelta     interface{}
		vsPrevDeltaFmt  interface{}
		vsPrevValue     interface{}
		labelPrevYear   string
		trend           = "neutral"
		status          = "neutral"
		statusColor     = colorMuted
		targetFormatted = "---"
		targetDeltaFmt  interface{}
		targetValue     interface{}
		ytdFormatted    = "---"
		ytdValue        interface{}
		ytdDelta        interface{}
		ytdDeltaFmt     interface{}
	)

	if in.Previous != nil {
		labelPrevYear = fmt.Sprintf("Vs %d", time.Now().Year()-1)
		vsPrevValue = *in.Previous

		if *in.Previous != 0 {
			vsPrevFormatted = FormatValue(*in.Previous, prefix, in.Format)

			delta := (in.Current - *in.Previous) / *in.Previous
			vsPrevDelta = delta
			vsPrevDeltaFmt = fmt.Sprintf("%+.1f%%", delta*100)

			switch {
			case delta > 0.001:
				trend = "up"
			case delta < -0.001:
				trend = "down"
			}
		}
	}

	if in.Target != nil && *in.Target != 0 {
		targetValue = *in.Target
		targetFormatted = FormatValue(*in.Target, prefix, in.Format)

		tDelta := (in.Current - *in.Target) / *in.Target
		targetDeltaFmt = fmt.Sprintf("%+.1f%%", tDelta*100)

		diff := tDelta
		if in.Inverse {
			diff = -tDelta
		}

		switch {
		case diff >= 0:
			status = "positive"
			statusColor = colorSuccess
		case diff >= -0.10:
			status = "warning"
			statusColor = colorWarning
		default:
			status = "negative"
			statusColor = colorDanger
		}
	}

	if in.CurrentYTD != nil {
		ytdValue = *in.CurrentYTD
		ytdFormatted = FormatValue(*in.CurrentYTD, prefix, in.Format)

		if in.PreviousYTD != nil && *in.PreviousYTD != 0 {
			d := (*in.CurrentYTD - *in.PreviousYTD) / *in.PreviousYTD
			ytdDelta = d
			ytdDeltaFmt = fmt.Sprintf("%+.1f%%", d*100)
		}
	}

	lastUpdated := in.LastUpdated
	if lastUpdated == "" {
		lastUpdated = time.Now().Format(time.RFC3339)
	}

	return map[string]interface{}{
		"title":           in.Title,
		"value":           in.Current,
		"value_formatted": valueFormatted,
		"unit":            in.Unit,

		"vs_last_year_value":           vsPrevValue,
		"vs_last_year_formatted":       vsPrevFormatted,
		"vs_last_year_delta":           vsPrevDelta,
		"vs_last_year_delta_formatted": vsPrevDeltaFmt,
		"label_prev_year":              labelPrevYear,

		"target":                 targetValue,
		"target_formatted":       targetFormatted,
		"target_delta_formatted": targetDeltaFmt,

		"ytd_value":           ytdValue,
		"ytd_formatted":       ytdFormatted,
		"ytd_delta":           ytdDelta,
		"ytd_delta_formatted": ytdDeltaFmt,

		"status":          status,
		"status_color":    statusColor,
		"trend_direction": trend,
		"category":        in.Category,
		"type":            in.Format,
		"description":     in.Description,
		"last_updated":    lastUpdated,
	}
}

// FormatValue renders a numeric value with the abbreviated convention:
// billions as B, millions as M, ten-thousands as k, else two decimals.
func FormatValue(v float64, prefix, format string) string {
	switch format {
	case "percent":
		return fmt.Sprintf("%.1f%%", v)
	case "integer":
		return prefix + groupThousands(int64(math.Round(v)))
	case "text":
		return fmt.Sprintf("%v", v)
	}

	abs := math.Abs(v)

	switch {
	case abs >= 1e9:
		return fmt.Sprintf("%s%.2fB", prefix, v/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%s%.2fM", prefix, v/1e6)
	case abs >= 1e4:
		return fmt.Sprintf("%s%.1fk", prefix, v/1e3)
	default:
		return fmt.Sprintf("%s%.2f", prefix, v)
	}
}

// FormatCurrency renders a plain currency string without abbreviation,
// used for table cells.
func FormatCurrency(v float64) string {
	return "$" + groupThousands(int64(math.Round(v)))
}

func groupThousands(n int64) string {
	s := fmt.Sprintf("%d", n)

	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}

	var out []byte

	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}

		out = append(out, c)
	}

	if neg {
		return "-" + string(out)
	}

	return string(out)
}
