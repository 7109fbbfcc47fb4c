package sensors

const (
	annotationColor      = "var(--color-complementary)"
	annotationLabelColor = "var(--color-black)"
	compactLabelBgColor  = "var(--color-clear)"
	thresholdLineSize    = 3
)

type AnnotationKind string

const (
	AnnotationRange AnnotationKind = "range"
	AnnotationLine  AnnotationKind = "line"
)

// Annotation is a Y axis marker for the chart renderer: either a band between
// Y1 and Y2 or a line at Y.
type Annotation struct {
	Kind AnnotationKind `json:"kind"`

	Y1 *float64 `json:"y1,omitempty"`
	Y2 *float64 `json:"y2,omitempty"`
	Y  *float64 `json:"y,omitempty"`

	Color                string `json:"color"`
	Size                 int    `json:"size,omitempty"`
	FontSize             *int   `json:"fontSize,omitempty"`
	Label                string `json:"label"`
	LabelColor           string `json:"labelColor"`
	LabelBackgroundColor string `json:"labelBackgroundColor"`
}

// AxisAnnotations returns the annotations that render the spec of t. In
// compact mode the labels are hidden by zeroing their font size and clearing
// their background.
func AxisAnnotations(t Type, compact bool) []Annotation {
	switch t.Spec.Kind {
	case SpecRange:
		return rangeAnnotations(t, compact)
	case SpecThresholds:
		return thresholdAnnotations(t, compact)
	default:
		return []Annotation{}
	}
}

func rangeAnnotations(t Type, compact bool) []Annotation {
	ann := labeled(AnnotationRange, t.SpecLabel, compact)
	ann.Y1, ann.Y2 = float64Ptr(t.Spec.Min), float64Ptr(t.Spec.Max)
	return []Annotation{ann}
}

func thresholdAnnotations(t Type, compact bool) []Annotation {
	lines := make([]Annotation, 0, len(t.Spec.Entries))
	for _, entry := range t.Spec.Entries {
		ann := labeled(AnnotationLine, t.SpecLabel+entry.Key, compact)
		ann.Y = float64Ptr(entry.Value)
		ann.Size = thresholdLineSize
		lines = append(lines, ann)
	}
	return lines
}

func labeled(kind AnnotationKind, label string, compact bool) Annotation {
	ann := Annotation{
		Kind:       kind,
		Color:      annotationColor,
		Label:      label,
		LabelColor: annotationLabelColor,
	}
	if compact {
		zero := 0
		ann.FontSize = &zero
		ann.LabelBackgroundColor = compactLabelBgColor
	}
	return ann
}

func float64Ptr(v float64) *float64 {
	return &v
}
