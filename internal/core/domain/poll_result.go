package domain

type OptionResult struct {
	OptionID   int64   `json:"option_id"`
	Text       string  `json:"text"`
	Votes      int64   `json:"votes"`
	Percentage float64 `json:"percentage"`
}

type Results struct {
	PollID     int64          `json:"poll_id"`
	TotalVotes int64          `json:"total_votes"`
	Options    []OptionResult `json:"options"`
}

// ResultsOf computes per-option percentages over the poll's vote counts.
// A poll without votes reports 0% for every option.
func ResultsOf(p *Poll) *Results {
	total := p.TotalVotes()
	results := &Results{
		PollID:     p.ID,
		TotalVotes: total,
		Options:    make([]OptionResult, 0, len(p.Options)),
	}

	for _, opt := range p.Options {
		percentage := 0.0
		if total > 0 {
			percentage = (float64(opt.Votes) / float64(total)) * 100
		}
		results.Options = append(results.Options, OptionResult{
			OptionID:   opt.ID,
			Text:       opt.Text,
			Votes:      opt.Votes,
			Percentage: percentage,
		})
	}

	return results
}
