package view

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"ghexplorer/internal/github"
)

// MaxTokenLength is Telegram's limit for callback data
const MaxTokenLength = 64

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrInvalidPage   = errors.New("invalid page")
)

// Section is a repository sub-view
type Section string

const (
	SectionContributors Section = "contributors"
	SectionPulls        Section = "prs"
	SectionIssues       Section = "issues"
	SectionLanguages    Section = "languages"
	SectionReleases     Section = "releases"
)

var sections = map[Section]bool{
	SectionContributors: true,
	SectionPulls:        true,
	SectionIssues:       true,
	SectionLanguages:    true,
	SectionReleases:     true,
}

// Trending ranges
const (
	RangeDaily   = "daily"
	RangeWeekly  = "weekly"
	RangeMonthly = "monthly"
)

// Action is a user intent parsed from a callback token or command. The set
// of implementations is closed.
type Action interface {
	// Name identifies the action kind in logs and metrics
	Name() string
	// Encode returns the callback token; Parse(a.Encode()) equals a
	Encode() string
	isAction()
}

type (
	ShowHome    struct{}
	ShowHelp    struct{}
	ShowPopular struct{}
	Refresh     struct{}
	Back        struct{}
	// Noop is bound to buttons that only display information
	Noop struct{}

	ShowProfile struct{ Username string }
	ShowStats   struct{ Username string }
	ShowAvatar  struct{ Username string }

	// Page fields of list actions are 1-based
	ShowRepoPage struct {
		Username string
		Page     int
	}
	ShowStarredPage struct {
		Username string
		Page     int
	}
	ShowFollowerPage struct {
		Username string
		Page     int
	}
	ShowFollowingPage struct {
		Username string
		Page     int
	}

	ShowRepository  struct{ FullName string }
	ShowRepoSection struct{ Section Section }
	ShowReadmePage  struct{ Page int }

	// ShowTrending with an empty Language shows the language picker
	ShowTrending struct {
		Language string
		Range    string
	}
)

func (ShowHome) Name() string          { return "home" }
func (ShowHelp) Name() string          { return "help" }
func (ShowPopular) Name() string       { return "popular" }
func (Refresh) Name() string           { return "refresh" }
func (Back) Name() string              { return "back" }
func (Noop) Name() string              { return "noop" }
func (ShowProfile) Name() string       { return "profile" }
func (ShowStats) Name() string         { return "stats" }
func (ShowAvatar) Name() string        { return "avatar" }
func (ShowRepoPage) Name() string      { return "repos" }
func (ShowStarredPage) Name() string   { return "starred" }
func (ShowFollowerPage) Name() string  { return "followers" }
func (ShowFollowingPage) Name() string { return "following" }
func (ShowRepository) Name() string    { return "repository" }
func (ShowRepoSection) Name() string   { return "section" }
func (ShowReadmePage) Name() string    { return "readme" }
func (ShowTrending) Name() string      { return "trending" }

func (ShowHome) Encode() string    { return "home" }
func (ShowHelp) Encode() string    { return "help" }
func (ShowPopular) Encode() string { return "popular" }
func (Refresh) Encode() string     { return "refresh" }
func (Back) Encode() string        { return "back" }
func (Noop) Encode() string        { return "noop" }

func (a ShowProfile) Encode() string       { return "profile_" + a.Username }
func (a ShowStats) Encode() string         { return "user_stats_" + a.Username }
func (a ShowAvatar) Encode() string        { return "show_avatar_" + a.Username }
func (a ShowRepoPage) Encode() string      { return paged("user_repos_"+a.Username, a.Page) }
func (a ShowStarredPage) Encode() string   { return paged("user_starred_"+a.Username, a.Page) }
func (a ShowFollowerPage) Encode() string  { return paged("user_followers_"+a.Username, a.Page) }
func (a ShowFollowingPage) Encode() string { return paged("user_following_"+a.Username, a.Page) }
func (a ShowRepository) Encode() string    { return "repo_" + a.FullName }
func (a ShowRepoSection) Encode() string   { return string(a.Section) }
func (a ShowReadmePage) Encode() string    { return paged("readme", a.Page) }

func (a ShowTrending) Encode() string {
	if a.Language == "" {
		return "trending"
	}
	return "trending_" + a.Language + "_" + a.Range
}

func (ShowHome) isAction()          {}
func (ShowHelp) isAction()          {}
func (ShowPopular) isAction()       {}
func (Refresh) isAction()           {}
func (Back) isAction()              {}
func (Noop) isAction()              {}
func (ShowProfile) isAction()       {}
func (ShowStats) isAction()         {}
func (ShowAvatar) isAction()        {}
func (ShowRepoPage) isAction()      {}
func (ShowStarredPage) isAction()   {}
func (ShowFollowerPage) isAction()  {}
func (ShowFollowingPage) isAction() {}
func (ShowRepository) isAction()    {}
func (ShowRepoSection) isAction()   {}
func (ShowReadmePage) isAction()    {}
func (ShowTrending) isAction()      {}

// paged appends "_page_N" for pages after the first
func paged(base string, page int) string {
	if page <= 1 {
		return base
	}
	return fmt.Sprintf("%s_page_%d", base, page)
}

// Token returns the callback token for a, falling back to "refresh" when the
// token would not fit Telegram's callback data limit
func Token(a Action) string {
	tok := a.Encode()
	if len(tok) > MaxTokenLength {
		return Refresh{}.Encode()
	}
	return tok
}

var fixedTokens = map[string]Action{
	"home":            ShowHome{},
	"back_to_start":   ShowHome{},
	"help":            ShowHelp{},
	"popular":         ShowPopular{},
	"refresh":         Refresh{},
	"back":            Back{},
	"back_to_profile": Back{},
	"noop":            Noop{},
	"trending":        ShowTrending{},
}

// Parse turns a callback token into an Action. Malformed tokens give
// ErrUnknownAction; bad page numbers give ErrInvalidPage.
func Parse(token string) (Action, error) {
	token = strings.TrimSpace(token)
	if a, ok := fixedTokens[token]; ok {
		return a, nil
	}
	if sections[Section(token)] {
		return ShowRepoSection{Section: Section(token)}, nil
	}

	switch {
	case strings.HasPrefix(token, "profile_"):
		return userAction(token, "profile_", func(u string) Action { return ShowProfile{Username: u} })
	case strings.HasPrefix(token, "refresh_user_"):
		return userAction(token, "refresh_user_", func(u string) Action { return ShowProfile{Username: u} })
	case strings.HasPrefix(token, "user_stats_"):
		return userAction(token, "user_stats_", func(u string) Action { return ShowStats{Username: u} })
	case strings.HasPrefix(token, "show_avatar_"):
		return userAction(token, "show_avatar_", func(u string) Action { return ShowAvatar{Username: u} })
	case strings.HasPrefix(token, "user_repos_"):
		return pagedUserAction(token, "user_repos_", func(u string, p int) Action { return ShowRepoPage{Username: u, Page: p} })
	case strings.HasPrefix(token, "user_starred_"):
		return pagedUserAction(token, "user_starred_", func(u string, p int) Action { return ShowStarredPage{Username: u, Page: p} })
	case strings.HasPrefix(token, "user_followers_"):
		return pagedUserAction(token, "user_followers_", func(u string, p int) Action { return ShowFollowerPage{Username: u, Page: p} })
	case strings.HasPrefix(token, "user_following_"):
		return pagedUserAction(token, "user_following_", func(u string, p int) Action { return ShowFollowingPage{Username: u, Page: p} })
	case strings.HasPrefix(token, "repo_"):
		name, ok := github.CleanRepoName(strings.TrimPrefix(token, "repo_"))
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownAction, token)
		}
		return ShowRepository{FullName: name}, nil
	case token == "readme" || strings.HasPrefix(token, "readme_page_"):
		rest, page, err := splitPage(token)
		if err != nil {
			return nil, err
		}
		if rest != "readme" {
			return nil, fmt.Errorf("%w: %q", ErrUnknownAction, token)
		}
		return ShowReadmePage{Page: page}, nil
	case strings.HasPrefix(token, "trending_"):
		return parseTrending(token)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAction, token)
}

func userAction(token, prefix string, build func(string) Action) (Action, error) {
	user := strings.TrimPrefix(token, prefix)
	if !github.ValidUsername(user) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, token)
	}
	return build(user), nil
}

func pagedUserAction(token, prefix string, build func(string, int) Action) (Action, error) {
	rest, page, err := splitPage(strings.TrimPrefix(token, prefix))
	if err != nil {
		return nil, err
	}
	if !github.ValidUsername(rest) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, token)
	}
	return build(rest, page), nil
}

// splitPage strips a "_page_N" suffix; without one the page is 1
func splitPage(s string) (string, int, error) {
	i := strings.LastIndex(s, "_page_")
	if i < 0 {
		return s, 1, nil
	}
	n, err := strconv.Atoi(s[i+len("_page_"):])
	if err != nil || n < 1 {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidPage, s)
	}
	return s[:i], n, nil
}

func parseTrending(token string) (Action, error) {
	rest := strings.TrimPrefix(token, "trending_")
	lang, rng := rest, RangeWeekly
	if i := strings.LastIndex(rest, "_"); i >= 0 {
		switch r := rest[i+1:]; r {
		case RangeDaily, RangeWeekly, RangeMonthly:
			lang, rng = rest[:i], r
		}
	}
	if lang == "" || strings.ContainsAny(lang, " _") {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, token)
	}
	return ShowTrending{Language: lang, Range: rng}, nil
}
