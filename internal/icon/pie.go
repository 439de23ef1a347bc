package icon

import (
	"math"
	"strconv"
	"strings"

	"github.com/couchcryptid/site-cluster-map/internal/domain"
)

// Wedge is one pie slice. Angles are degrees clockwise from 12 o'clock.
type Wedge struct {
	Category   string  `json:"category"`
	Index      int     `json:"index"`
	Count      int     `json:"count"`
	StartAngle float64 `json:"startAngle"`
	EndAngle   float64 `json:"endAngle"`
}

// Span is the wedge's angular extent in degrees.
func (w Wedge) Span() float64 {
	return w.EndAngle - w.StartAngle
}

// Layout assigns angles to the tally's values in tally order. Angles are
// taken from cumulative counts, so the last wedge ends at exactly 360.
// An empty tally yields one zero-count unclassified wedge.
func Layout(tally domain.Tally, known domain.KnownCategories) []Wedge {
	total := tally.Total()
	if total == 0 {
		return []Wedge{{Index: domain.Unclassified}}
	}

	keys := tally.Keys()
	wedges := make([]Wedge, 0, len(keys))
	cum := 0
	for _, k := range keys {
		count := tally.Count(k)
		wedges = append(wedges, Wedge{
			Category:   k,
			Index:      known.Index(k),
			Count:      count,
			StartAngle: 360 * float64(cum) / float64(total),
			EndAngle:   360 * float64(cum+count) / float64(total),
		})
		cum += count
	}
	return wedges
}

// ArcPath returns SVG path data for the wedge as an annular sector centered
// on the origin. A full-circle wedge is drawn as two half arcs per ring; a
// zero-span wedge has no path.
func ArcPath(w Wedge, inner, outer float64) string {
	span := w.Span()
	switch {
	case span <= 0 || outer <= 0:
		return ""
	case span >= 360-1e-9:
		return ringPath(inner, outer)
	}

	large := 0
	if span > 180 {
		large = 1
	}

	var b strings.Builder
	x0, y0 := polar(w.StartAngle, outer)
	x1, y1 := polar(w.EndAngle, outer)
	b.WriteString("M" + pt(x0, y0))
	b.WriteString(arc(outer, large, 1, x1, y1))
	if inner > 0 {
		x2, y2 := polar(w.EndAngle, inner)
		x3, y3 := polar(w.StartAngle, inner)
		b.WriteString("L" + pt(x2, y2))
		b.WriteString(arc(inner, large, 0, x3, y3))
	} else {
		b.WriteString("L0,0")
	}
	b.WriteString("Z")
	return b.String()
}

func ringPath(inner, outer float64) string {
	var b strings.Builder
	b.WriteString("M" + pt(0, -outer))
	b.WriteString(arc(outer, 1, 1, 0, outer))
	b.WriteString(arc(outer, 1, 1, 0, -outer))
	if inner > 0 {
		b.WriteString("M" + pt(0, -inner))
		b.WriteString(arc(inner, 1, 0, 0, inner))
		b.WriteString(arc(inner, 1, 0, 0, -inner))
	}
	b.WriteString("Z")
	return b.String()
}

func arc(r float64, large, sweep int, x, y float64) string {
	return "A" + num(r) + "," + num(r) + ",0," + strconv.Itoa(large) + "," + strconv.Itoa(sweep) + "," + pt(x, y)
}

// polar converts an angle in degrees (clockwise from 12 o'clock) to x,y.
func polar(deg, r float64) (float64, float64) {
	rad := deg * math.Pi / 180
	return r * math.Sin(rad), -r * math.Cos(rad)
}

func pt(x, y float64) string {
	return num(x) + "," + num(y)
}

// num formats to at most three decimals with no negative zero.
func num(v float64) string {
	v = math.Round(v*1000) / 1000
	if v == 0 {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
