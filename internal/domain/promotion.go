package domain

// Promotion is one airdrop campaign entry from the local list file.
type Promotion struct {
	Name        string   `json:"name"`
	Description string   `json:"desc"`
	Link        string   `json:"link"`
	Reward      string   `json:"reward"`
	Network     string   `json:"network"`
	Status      string   `json:"status"`
	Tags        []string `json:"tags"`
}

// PromotionFilter narrows a promotion list. Empty fields match everything.
type PromotionFilter struct {
	Status  string
	Network string
	Limit   int
}

// Keyword is one entry of the quick-reply table.
type Keyword struct {
	Word  string
	Reply string
}
