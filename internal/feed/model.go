package feed

// ContentFeed 是每日内容：一条 "Vibe of the Day" 加上若干每日精选
type ContentFeed struct {
	VibeOfTheDay *ContentItem  `json:"VibeOfTheDay,omitempty"`
	DailyPicks   []ContentItem `json:"DailyPicks"`
}

// ContentItem is one curated article. ID is the key reactions are counted under.
type ContentItem struct {
	ID         string `json:"Id"`
	Title      string `json:"Title"`
	Snippet    string `json:"Snippet"`
	ImageURL   string `json:"ImageUrl"`
	ArticleURL string `json:"ArticleUrl"`
}
