package dataset

// Sample is the bundled dataset used when no --dataset path is given. It
// exercises single and multi-part content plus duplicate truth tokens.
func Sample() []Item {
	return []Item{
		{
			Name:    "letters",
			Content: NewContent("red rover ran round the rock"),
			Query:   "every word starting with r",
			Truth:   []string{"red", "rover", "ran", "round", "rock"},
		},
		{
			Name: "dates",
			Content: NewMultiContent([]string{
				"The treaty was signed on 1648-10-24.",
				"Ratification followed on 1649-02-08, a year after 1648-10-24 was agreed.",
			}),
			Query: "dates; ISO format",
			Truth: []string{"1648-10-24", "1649-02-08", "1648-10-24"},
		},
		{
			Name:    "empty-truth",
			Content: NewContent("nothing relevant in here"),
			Query:   "zebra, quagga",
			Truth:   []string{},
		},
	}
}
