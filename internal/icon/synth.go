package icon

import (
	"bytes"
	"fmt"
	"strconv"

	svg "github.com/ajstarks/svgo"
	"github.com/couchcryptid/site-cluster-map/internal/domain"
)

const (
	pieClass        = "cluster-pie"
	pieLabelClass   = "marker-cluster-pie-label"
	clusterClass    = "marker-cluster"
	unclassifiedKey = "unclassified"
)

// IconDescriptor is a cluster icon: self-contained SVG markup plus the square
// pixel size the host places it with.
type IconDescriptor struct {
	HTML      string  `json:"html"`
	ClassName string  `json:"className"`
	Size      int     `json:"size"`
	Count     int     `json:"count"`
	Wedges    []Wedge `json:"wedges"`
}

// IconSize returns the [width, height] pair in the host's icon-size shape.
func (d IconDescriptor) IconSize() [2]int {
	return [2]int{d.Size, d.Size}
}

// Synthesizer renders cluster and marker icons against one dataset's known
// categories. It holds no mutable state and is safe for concurrent use.
type Synthesizer struct {
	opts         Options
	known        domain.KnownCategories
	displayNames map[string]string
}

// NewSynthesizer validates opts and checks that known was computed over the
// tally field. displayNames optionally maps category values to titles.
func NewSynthesizer(opts Options, known domain.KnownCategories, displayNames map[string]string) (*Synthesizer, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("icon options: %w", err)
	}
	if known.Field() != opts.CategoryField {
		return nil, fmt.Errorf("known categories computed over %q, icons tally %q", known.Field(), opts.CategoryField)
	}
	names := make(map[string]string, len(displayNames))
	for k, v := range displayNames {
		names[k] = v
	}
	return &Synthesizer{opts: opts, known: known, displayNames: names}, nil
}

// Options returns the settings the synthesizer was built with.
func (s *Synthesizer) Options() Options { return s.opts }

// Synthesize builds the pie icon for a cluster's members. The same members in
// the same order always produce byte-identical markup.
func (s *Synthesizer) Synthesize(members []domain.Feature) IconDescriptor {
	n := len(members)
	r := s.opts.Radius(n)
	dim := s.opts.IconDim(n)
	origo := r + s.opts.StrokeWidth

	wedges := Layout(domain.TallyBy(members, s.opts.CategoryField), s.known)

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(dim, dim, attr("class", pieClass))
	for _, w := range wedges {
		canvas.Group(attr("class", "arc"), attr("transform", fmt.Sprintf("translate(%d,%d)", origo, origo)))
		canvas.Title(s.title(w))
		canvas.Path(ArcPath(w, float64(r-ringWidth), float64(r)),
			attr("class", CategoryClass(w.Index)),
			attr("stroke-width", strconv.Itoa(s.opts.StrokeWidth)),
		)
		canvas.Gend()
	}
	canvas.Text(origo, origo, strconv.Itoa(n),
		attr("class", pieLabelClass),
		attr("text-anchor", "middle"),
		attr("dy", ".3em"),
	)
	canvas.End()

	return IconDescriptor{
		HTML:      string(trimProlog(buf.Bytes())),
		ClassName: clusterClass,
		Size:      dim,
		Count:     n,
		Wedges:    wedges,
	}
}

// title renders "<name> (<count> record[s])".
func (s *Synthesizer) title(w Wedge) string {
	noun := "records"
	if w.Count == 1 {
		noun = "record"
	}
	return fmt.Sprintf("%s (%d %s)", s.displayName(w.Category), w.Count, noun)
}

func (s *Synthesizer) displayName(category string) string {
	if name, ok := s.displayNames[category]; ok && name != "" {
		return name
	}
	if category == "" {
		return unclassifiedKey
	}
	return category
}

// CategoryClass is the style class for a known-category index. Wedges and
// markers share it so one stylesheet colors both.
func CategoryClass(index int) string {
	if index == domain.Unclassified {
		return "category-" + unclassifiedKey
	}
	return "category-" + strconv.Itoa(index)
}

// attr formats a raw attribute for svgo, which passes name="value" strings
// through untouched.
func attr(name, value string) string {
	return name + `="` + value + `"`
}

// trimProlog drops the XML declaration and generator comment so the markup
// can be embedded directly in HTML.
func trimProlog(b []byte) []byte {
	if i := bytes.Index(b, []byte("<svg")); i > 0 {
		return b[i:]
	}
	return b
}
