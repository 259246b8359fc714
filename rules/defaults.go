package rules

var meatAndSeafood = []string{
	"beef", "pork", "chicken", "lamb", "turkey", "veal", "duck", "sausage",
	"bacon", "ham", "sirloin", "steak", "mince", "patty", "fillet", "fish",
	"salmon", "tuna", "shrimp", "prawn", "crab", "lobster", "oyster",
}

// DefaultTable returns the built-in rule table. Each call returns a fresh
// copy that callers may modify.
func DefaultTable() *Table {
	t := &Table{
		ScoreFloor: DefaultScoreFloor,
		Domains: []Domain{
			{
				Name: "academic",
				Keywords: []string{
					"research", "methodology", "dataset", "benchmark", "literature review",
					"study", "experiment", "phd", "researcher", "paper", "papers",
				},
				BoostTerms: []string{
					"methodology", "dataset", "benchmark", "results", "conclusion", "abstract",
					"introduction", "literature", "review", "study", "experiment", "validation",
				},
				PenaltyTerms: []string{"appendix", "references", "acknowledgments", "biography"},
			},
			{
				Name: "financial",
				Keywords: []string{
					"revenue", "profit", "ebitda", "investment", "investor", "analyst",
					"financial", "annual report", "market share", "earnings",
				},
				BoostTerms: []string{
					"revenue", "profit", "loss", "ebitda", "margin", "investment", "r&d", "assets",
					"liabilities", "equity", "cash flow", "outlook", "guidance", "market share",
					"strategy", "risk", "trends",
				},
				PenaltyTerms: []string{"legal disclaimer", "forward-looking statements", "table of contents"},
			},
			{
				Name: "technical",
				Keywords: []string{
					"fillable", "form", "forms", "onboarding", "compliance", "tutorial",
					"how-to", "configuration", "setup", "acrobat", "software",
				},
				BoostTerms: []string{
					"create", "manage", "fillable", "form", "onboarding", "compliance", "tutorial",
					"how-to", "guide", "steps", "instructions", "configuration", "setup",
				},
				PenaltyTerms: []string{"marketing", "pricing", "advertisement"},
			},
			{
				Name: "culinary",
				Keywords: []string{
					"vegetarian", "vegan", "dinner", "lunch", "breakfast", "dessert", "appetizer",
					"side dish", "gluten-free", "recipe", "recipes", "menu", "buffet", "food",
				},
				BoostTerms: []string{
					"vegetarian", "vegan", "gluten-free", "recipe", "ingredients", "instructions",
					"side dish", "appetizer",
				},
				Conditions: []Condition{
					{Triggers: []string{"vegetarian", "vegan"}, HardExclusions: meatAndSeafood},
					{Triggers: []string{"dinner"}, PenaltyTerms: []string{"breakfast", "lunch"}},
					{Triggers: []string{"lunch"}, PenaltyTerms: []string{"breakfast", "dinner"}},
				},
			},
			{
				Name: "travel",
				Keywords: []string{
					"trip", "travel", "itinerary", "vacation", "holiday", "tour", "tourist",
					"travel planner", "sightseeing",
				},
				BoostTerms: []string{
					"things to do", "activities", "itinerary", "nightlife", "restaurants",
					"hotels", "beaches", "tips", "packing", "attractions",
				},
				PenaltyTerms: []string{"history"},
				Conditions: []Condition{
					{Triggers: []string{"friends", "college", "group"}, PenaltyTerms: []string{"family-friendly", "kids"}},
				},
			},
		},
	}
	t.normalize()
	return t
}
