package bot

import (
	"strings"

	"ghexplorer/internal/github"
	"ghexplorer/internal/view"
)

// minBareUsername keeps short chatter from being looked up as a profile
const minBareUsername = 3

// parseInput turns free text into an action: "@user", a github.com link,
// "owner/repo" or a bare username
func parseInput(text string) (view.Action, bool) {
	text = strings.TrimSpace(text)
	if text == "" || strings.ContainsAny(text, " \t\n") {
		return nil, false
	}

	switch {
	case strings.HasPrefix(text, "@"):
		return profileAction(strings.TrimPrefix(text, "@"))
	case github.IsRepoURL(text):
		if login, ok := github.ProfileFromURL(text); ok {
			return view.ShowProfile{Username: login}, true
		}
		return repoAction(text)
	case strings.Contains(text, "/"):
		return repoAction(text)
	case len(text) >= minBareUsername:
		return profileAction(text)
	}
	return nil, false
}

func profileAction(login string) (view.Action, bool) {
	login = strings.TrimPrefix(strings.TrimSpace(login), "@")
	if !github.ValidUsername(login) {
		return nil, false
	}
	return view.ShowProfile{Username: login}, true
}

func repoAction(s string) (view.Action, bool) {
	name, ok := github.CleanRepoName(s)
	if !ok {
		return nil, false
	}
	return view.ShowRepository{FullName: name}, true
}

var languageAliases = map[string]string{
	"c++":        "cpp",
	"c#":         "csharp",
	"js":         "javascript",
	"ts":         "typescript",
	"golang":     "go",
	"py":         "python",
	"kt":         "kotlin",
	"rb":         "ruby",
	"everything": "all",
}

// parseTrending reads "/trending [language] [range]" arguments
func parseTrending(args []string) (view.Action, bool) {
	if len(args) == 0 {
		return view.ShowTrending{}, true
	}

	lang, rng := strings.ToLower(args[0]), view.RangeWeekly
	if len(args) > 1 {
		rng = strings.ToLower(args[1])
	} else if isRange(lang) {
		lang, rng = "all", lang
	}
	if alias, ok := languageAliases[lang]; ok {
		lang = alias
	}
	if !isRange(rng) {
		return nil, false
	}

	// the action must survive a callback round trip
	a, err := view.Parse(view.ShowTrending{Language: lang, Range: rng}.Encode())
	if err != nil {
		return nil, false
	}
	return a, true
}

func isRange(s string) bool {
	switch s {
	case view.RangeDaily, view.RangeWeekly, view.RangeMonthly:
		return true
	}
	return false
}
