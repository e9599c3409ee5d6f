package detective

// Deduction is one finding/evidence pair of a report.
type Deduction struct {
	Finding  string `json:"finding"`
	Evidence string `json:"evidence"`
}

// NarrationDraft is the raw structured output of the generator. The shape is
// collaborator-enforced (schema-constrained decoding); the content is not,
// so every field is treated as adversarial until validated.
type NarrationDraft struct {
	Headline         string      `json:"headline"`
	Deductions       []Deduction `json:"deductions"`
	SurprisingFact   string      `json:"surprising_fact"`
	PrivacyStatement string      `json:"privacy_statement"`
}

// DetectiveReport is the validated terminal artifact: exactly 3 deductions,
// each numerically grounded in the insight set it was validated against.
// The JSON field names are a stable contract with the presentation layer.
type DetectiveReport struct {
	Headline         string      `json:"headline"`
	Deductions       []Deduction `json:"deductions"`
	SurprisingFact   string      `json:"surprising_fact"`
	PrivacyStatement string      `json:"privacy_statement"`
}
