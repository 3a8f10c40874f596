package constants

// FieldLabel is the canonical label for a detected text region on a lab
// report. Values match the region detector's class names exactly.
type FieldLabel string

const (
	LabelTestName  FieldLabel = "Test_Name"
	LabelTestValue FieldLabel = "Test_Value"
	LabelTestUnit  FieldLabel = "Test_Unit"
	LabelFlag      FieldLabel = "Flag"
	LabelRefRange  FieldLabel = "Ref_Range"
)

// FieldLabels holds all detector classes in their model output order.
var FieldLabels = []FieldLabel{
	LabelTestName,
	LabelTestValue,
	LabelTestUnit,
	LabelFlag,
	LabelRefRange,
}

// ParseFieldLabel maps a detector class name to its FieldLabel.
func ParseFieldLabel(s string) (FieldLabel, bool) {
	for _, l := range FieldLabels {
		if string(l) == s {
			return l, true
		}
	}
	return "", false
}
