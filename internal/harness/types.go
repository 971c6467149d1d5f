package harness

// StepResult is the outcome of one step.
type StepResult struct {
	Query string `json:"query"`

	// Rendered is the categorization in interpret.Query.String form.
	Rendered string `json:"rendered"`

	// Categories maps category names to phrases.
	Categories map[string][]string `json:"categories"`

	// Lookups is the number of oracle lookups the step made.
	Lookups int `json:"lookups"`
}

// Result is the outcome of a scenario.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	Steps []StepResult `json:"steps"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepResult{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
