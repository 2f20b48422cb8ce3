package model

import "time"

// Poll 属于某个帖子的二选一投票
type Poll struct {
	ID            string    `json:"id"`
	PostID        string    `json:"post_id"`
	OptionOneText string    `json:"option_one_text"`
	OptionTwoText string    `json:"option_two_text"`
	CreatedAt     time.Time `json:"created_at"`
}

// PollVote 每个用户每个投票只能投一次，投出后不可修改
type PollVote struct {
	ID             string    `json:"id"`
	PollID         string    `json:"poll_id"`
	UserID         string    `json:"user_id"`
	SelectedOption int       `json:"selected_option"`
	CreatedAt      time.Time `json:"created_at"`
}

// PollDetails 投票及其所有选票
type PollDetails struct {
	Poll
	Votes []*PollVote `json:"poll_votes"`
}

// PollTally 投票结果统计
type PollTally struct {
	Total        int `json:"total"`
	OptionOne    int `json:"option_one"`
	OptionTwo    int `json:"option_two"`
	OptionOnePct int `json:"option_one_pct"`
	OptionTwoPct int `json:"option_two_pct"`
}

// TallyVotes 计算两个选项的票数和百分比，百分比之和为 100
func TallyVotes(votes []*PollVote) PollTally {
	t := PollTally{Total: len(votes)}
	for _, v := range votes {
		if v.SelectedOption == 1 {
			t.OptionOne++
		}
	}
	t.OptionTwo = t.Total - t.OptionOne
	if t.Total > 0 {
		t.OptionOnePct = (t.OptionOne*100 + t.Total/2) / t.Total
		t.OptionTwoPct = 100 - t.OptionOnePct
	}
	return t
}

// VoidAnswer 虚空问题的单词回答，(post_id, user_id) 唯一
type VoidAnswer struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	Word      string    `json:"word"`
	CreatedAt time.Time `json:"created_at"`
}

// WordCount 词频
type WordCount struct {
	Text  string `json:"text"`
	Value int    `json:"value"`
}
