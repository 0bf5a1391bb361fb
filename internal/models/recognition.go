package models

// RecognitionResult is what the external recognizer extracted from a screenshot.
// Each field is nil when the recognizer could not determine it.
type RecognitionResult struct {
	Name        *string  `json:"name,omitempty" yaml:"name,omitempty"`
	CandyName   *string  `json:"candy_name,omitempty" yaml:"candy_name,omitempty"`
	Level       *float64 `json:"level,omitempty" yaml:"level,omitempty"`
	CombatPower *int     `json:"cp,omitempty" yaml:"cp,omitempty"`
	HitPoints   *int     `json:"hp,omitempty" yaml:"hp,omitempty"`
}
