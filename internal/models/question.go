package models

// Option is a single weighted answer choice of a question
type Option struct {
	Weight int    `json:"weight"`
	Label  string `json:"label"`
}

// Question is one entry of the assessment question bank
type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []Option `json:"options"`
}

// OptionFor returns the option carrying the given weight
func (q Question) OptionFor(weight int) (Option, bool) {
	for _, opt := range q.Options {
		if opt.Weight == weight {
			return opt, true
		}
	}
	return Option{}, false
}

// Highest returns the option with the largest weight
func (q Question) Highest() Option {
	var best Option
	for i, opt := range q.Options {
		if i == 0 || opt.Weight > best.Weight {
			best = opt
		}
	}
	return best
}

// Lowest returns the option with the smallest weight
func (q Question) Lowest() Option {
	var worst Option
	for i, opt := range q.Options {
		if i == 0 || opt.Weight < worst.Weight {
			worst = opt
		}
	}
	return worst
}
