package engine

// TestResult is one extracted laboratory result. Constructed exactly once
// when a parse attempt succeeds; only Flag may be filled in afterwards, when
// the parser left it empty and the reference range allows inference.
type TestResult struct {
	TestName       string  // canonical vocabulary form
	Value          string  // numeric literal, may retain a comparison prefix
	Unit           string  // standardized spelling, "" when absent
	ReferenceRange string  // normalized "low-high" form, "" when absent
	Flag           string  // "H", "L", "N", "*" or ""
	Confidence     float64 // 0..1
	RawText        string  // the candidate line that produced this result
}

// wellKnownTests are name tokens that earn the confidence bonus: values that
// appear on virtually every panel, so a textual hit is a strong signal the
// line really is a result row.
var wellKnownTests = []string{
	"hemoglobin", "hematocrit", "rbc", "wbc", "platelet", "mcv", "mch", "mchc",
	"glucose", "creatinine", "urea", "sodium", "potassium", "chloride", "albumin",
	"cholesterol", "triglycerides", "hdl", "ldl", "vldl",
	"alt", "ast", "alp", "bilirubin", "ggt",
	"tsh", "t3", "t4", "ft3", "ft4",
	"troponin", "ck-mb", "bnp", "nt-probnp",
	"hba1c", "fasting glucose", "random glucose", "insulin",
	"esr", "crp", "procalcitonin",
	"pt", "ptt", "inr", "fibrinogen", "d-dimer",
	"protein", "globulin", "calcium", "phosphorus", "uric acid",
}
