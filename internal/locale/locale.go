// Package locale holds the user-visible labels for each supported language.
package locale

import "fmt"

type Labels struct {
	Lang string

	// Review preprocessing
	Rating   string // Formats a rating value, e.g. "Rating: 5 stars"
	Content  string
	Date     string
	Reviewer string
	Photos   string // Formats a photo count

	// Context assembly
	ContextHeader  string
	ReviewHeading  string // Formats a 1-based rank
	ContextRating  string
	ContextContent string
	ContextDate    string
	ContextAuthor  string
	ContextPhotos  string
	Similarity     string // Formats a similarity with three decimals
	NoResults      string

	// Defaults
	Anonymous       string
	UnknownBusiness string
	Apology         string // Formats an error message

	Session Session
}

// Session holds the interactive terminal strings.
type Session struct {
	Title         string
	Loading       string
	Placeholder   string
	Ready         string
	Thinking      string
	Failed        string
	Answered      string // Formats review count and token count
	AllBusinesses string
	ScopeAll      string
	ScopeBusiness string // Formats a business name
	NoBusinesses  string
	Businesses    string
	TotalReviews  string // Formats a review count
	AverageRating string // Formats an average with two decimals
	NoRating      string
	Distribution  string
	Help          string
}

var english = Labels{
	Lang:     "en",
	Rating:   "Rating: %s stars",
	Content:  "Review: %s",
	Date:     "Date: %s",
	Reviewer: "Reviewer: %s",
	Photos:   "Includes %d photos",

	ContextHeader:  "The following reviews are most relevant to your question:",
	ReviewHeading:  "Review %d:",
	ContextRating:  "Rating: %s stars",
	ContextContent: "Review Text: %s",
	ContextDate:    "Date: %s",
	ContextAuthor:  "Reviewer: %s",
	ContextPhotos:  "Attached %d photos",
	Similarity:     "Similarity: %.3f",
	NoResults:      "No relevant reviews found for this query.",

	Anonymous:       "Anonymous",
	UnknownBusiness: "Unknown business",
	Apology:         "Sorry, I couldn't generate an answer right now: %s",

	Session: Session{
		Title:         "Review Assistant",
		Loading:       "Loading...",
		Placeholder:   "Ask about the reviews, or type help",
		Ready:         "Ready. Type help for commands.",
		Thinking:      "Thinking...",
		Failed:        "Request failed.",
		Answered:      "Answered from %d reviews, %d tokens.",
		AllBusinesses: "All businesses",
		ScopeAll:      "Searching all businesses.",
		ScopeBusiness: "Questions now target %q.",
		NoBusinesses:  "No businesses indexed yet.",
		Businesses:    "Businesses:",
		TotalReviews:  "Total reviews: %d",
		AverageRating: "Average rating: %.2f",
		NoRating:      "Average rating: N/A",
		Distribution:  "Rating distribution:",
		Help: `Commands:
  use <business>  restrict questions to one business (use alone to clear)
  list            show indexed businesses
  stats           show review statistics
  summary         summarize the reviews in scope
  quit            leave
Anything else is asked as a question.`,
	},
}

var traditionalChinese = Labels{
	Lang:     "zh",
	Rating:   "評分: %s星",
	Content:  "評論內容: %s",
	Date:     "評論時間: %s",
	Reviewer: "評論者: %s",
	Photos:   "包含 %d 張照片",

	ContextHeader:  "以下是與您的問題最相關的評論：",
	ReviewHeading:  "評論 %d:",
	ContextRating:  "評分: %s星",
	ContextContent: "評論內容: %s",
	ContextDate:    "評論時間: %s",
	ContextAuthor:  "評論者: %s",
	ContextPhotos:  "附有 %d 張照片",
	Similarity:     "相似度分數: %.3f",
	NoResults:      "沒有找到相關的評論。",

	Anonymous:       "匿名用戶",
	UnknownBusiness: "未知餐廳",
	Apology:         "抱歉，處理您的問題時發生錯誤：%s",

	Session: Session{
		Title:         "餐廳評論助手",
		Loading:       "載入中...",
		Placeholder:   "請輸入您的問題，或輸入 help 查看指令",
		Ready:         "準備就緒。輸入 help 查看指令。",
		Thinking:      "思考中...",
		Failed:        "請求失敗。",
		Answered:      "根據 %d 則評論回答，使用 %d 個 token。",
		AllBusinesses: "所有餐廳",
		ScopeAll:      "搜尋所有餐廳。",
		ScopeBusiness: "問題將針對 %q。",
		NoBusinesses:  "目前沒有已索引的餐廳。",
		Businesses:    "餐廳列表：",
		TotalReviews:  "總評論數: %d",
		AverageRating: "平均評分: %.2f",
		NoRating:      "平均評分: 無",
		Distribution:  "評分分佈：",
		Help: `指令：
  use <餐廳>   只針對某間餐廳提問（只輸入 use 取消）
  list         列出已索引的餐廳
  stats        顯示評論統計
  summary      總結目前範圍內的評論
  quit / 退出  離開
其他輸入都會當作問題。`,
	},
}

// For returns the labels for lang ("en" or "zh").
func For(lang string) (Labels, error) {
	switch lang {
	case "en", "":
		return english, nil
	case "zh", "zh-TW":
		return traditionalChinese, nil
	}
	return Labels{}, fmt.Errorf("unsupported language: %s", lang)
}

// MustFor is For for callers holding an already validated language.
func MustFor(lang string) Labels {
	l, err := For(lang)
	if err != nil {
		panic(err)
	}
	return l
}
