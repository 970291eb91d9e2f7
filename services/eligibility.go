package services

// TIPQualifyingService is the only service line that qualifies for the
// Trapper Incentive Program
const TIPQualifyingService = "MD-TNVR"

// QualifiesForTIP computes incentive-program eligibility: the trapper must
// be enrolled and the visit must be the qualifying service. Called
// explicitly at save time; the stored record keeps the result as a single
// boolean that is immutable after creation.
func QualifiesForTIP(trapperQualifies bool, service string) bool {
	return trapperQualifies && service == TIPQualifyingService
}

// TIPEvaluation is returned by the interactive form-evaluation endpoint.
// Overridden marks a manual flip of the computed value; only Effective is
// ever persisted (no audit trail for overrides, a noted limitation).
type TIPEvaluation struct {
	Computed   bool `json:"computed"`
	Effective  bool `json:"effective"`
	Overridden bool `json:"overridden"`
}

// EvaluateTIP computes eligibility and applies an optional manual override
func EvaluateTIP(trapperQualifies bool, service string, override *bool) TIPEvaluation {
	computed := QualifiesForTIP(trapperQualifies, service)
	eval := TIPEvaluation{Computed: computed, Effective: computed}
	if override != nil && *override != computed {
		eval.Effective = *override
		eval.Overridden = true
	}
	return eval
}
