package deck

import "fmt"

// Weight bounds for a card. The weight is the number of sips a player takes
// when they drink instead of answering.
const (
	MinWeight = 1
	MaxWeight = 5
)

// Card is a single prompt with its sip weight. Cards are immutable once loaded.
type Card struct {
	Prompt string `json:"prompt"`
	Weight int    `json:"weight"`
}

// Validate checks the card's prompt and weight.
func (c Card) Validate() error {
	if c.Prompt == "" {
		return fmt.Errorf("empty prompt")
	}
	if c.Weight < MinWeight || c.Weight > MaxWeight {
		return fmt.Errorf("weight %d out of range %d..%d", c.Weight, MinWeight, MaxWeight)
	}
	return nil
}

// String returns the prompt followed by its weight.
func (c Card) String() string {
	return fmt.Sprintf("%s (%d)", c.Prompt, c.Weight)
}
