package github

import (
	"encoding/json"
	"time"
)

// Account is the short user object embedded in other resources
type Account struct {
	Login   string `json:"login"`
	HTMLURL string `json:"html_url"`
}

type User struct {
	Login           string    `json:"login"`
	Name            string    `json:"name"`
	Type            string    `json:"type"`
	Bio             string    `json:"bio"`
	Company         string    `json:"company"`
	Location        string    `json:"location"`
	Blog            string    `json:"blog"`
	Email           string    `json:"email"`
	TwitterUsername string    `json:"twitter_username"`
	AvatarURL       string    `json:"avatar_url"`
	HTMLURL         string    `json:"html_url"`
	PublicRepos     int       `json:"public_repos"`
	PublicGists     int       `json:"public_gists"`
	Followers       int       `json:"followers"`
	Following       int       `json:"following"`
	CreatedAt       time.Time `json:"created_at"`
}

type License struct {
	Name   string `json:"name"`
	SPDXID string `json:"spdx_id"`
}

type Repository struct {
	Name            string    `json:"name"`
	FullName        string    `json:"full_name"`
	Owner           Account   `json:"owner"`
	Description     string    `json:"description"`
	HTMLURL         string    `json:"html_url"`
	Homepage        string    `json:"homepage"`
	Language        string    `json:"language"`
	StargazersCount int       `json:"stargazers_count"`
	ForksCount      int       `json:"forks_count"`
	WatchersCount   int       `json:"watchers_count"`
	OpenIssuesCount int       `json:"open_issues_count"`
	Size            int       `json:"size"`
	Fork            bool      `json:"fork"`
	Archived        bool      `json:"archived"`
	DefaultBranch   string    `json:"default_branch"`
	License         *License  `json:"license"`
	Topics          []string  `json:"topics"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	PushedAt        time.Time `json:"pushed_at"`
}

// Event is a public activity event of a user
type Event struct {
	Type string `json:"type"`
	Repo struct {
		Name string `json:"name"`
	} `json:"repo"`
	Payload struct {
		Size    int               `json:"size"`
		Commits []json.RawMessage `json:"commits"`
	} `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}

// CommitCount returns the number of commits carried by a push event
func (e Event) CommitCount() int {
	if e.Payload.Size > 0 {
		return e.Payload.Size
	}
	return len(e.Payload.Commits)
}

type Contributor struct {
	Login         string `json:"login"`
	HTMLURL       string `json:"html_url"`
	Contributions int    `json:"contributions"`
}

type Release struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	HTMLURL     string    `json:"html_url"`
	Draft       bool      `json:"draft"`
	Prerelease  bool      `json:"prerelease"`
	Author      Account   `json:"author"`
	PublishedAt time.Time `json:"published_at"`
}

type Label struct {
	Name string `json:"name"`
}

type Issue struct {
	Number      int              `json:"number"`
	Title       string           `json:"title"`
	HTMLURL     string           `json:"html_url"`
	User        Account          `json:"user"`
	Comments    int              `json:"comments"`
	Labels      []Label          `json:"labels"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	PullRequest *json.RawMessage `json:"pull_request,omitempty"`
}

type PullRequest struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	HTMLURL   string    `json:"html_url"`
	User      Account   `json:"user"`
	Draft     bool      `json:"draft"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Language is one entry of a repository's language breakdown
type Language struct {
	Name  string
	Bytes int64
}

type readme struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

type searchResult struct {
	TotalCount int          `json:"total_count"`
	Items      []Repository `json:"items"`
}
