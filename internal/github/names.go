package github

import (
	"regexp"
	"strings"
)

var (
	repoPrefixes = []string{
		"https://github.com/",
		"http://github.com/",
		"https://www.github.com/",
		"http://www.github.com/",
		"github.com/",
		"www.github.com/",
	}
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9](?:[a-zA-Z0-9]|-[a-zA-Z0-9]){0,38}$`)
)

// CleanRepoName normalizes user input such as
// "https://github.com/Golang/Go.git" into "golang/go"
func CleanRepoName(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, p := range repoPrefixes {
		if strings.HasPrefix(s, p) {
			s = strings.TrimPrefix(s, p)
			break
		}
	}
	s = strings.TrimSuffix(strings.TrimRight(s, "/"), ".git")

	parts := strings.Split(s, "/")
	if len(parts) < 2 {
		return "", false
	}
	owner, repo := parts[0], strings.TrimSuffix(parts[1], ".git")
	if owner == "" || repo == "" || strings.ContainsAny(owner+repo, `<>"|*?: `) {
		return "", false
	}
	return owner + "/" + repo, true
}

// IsRepoURL reports whether s looks like a link to github.com
func IsRepoURL(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, p := range repoPrefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// ValidUsername reports whether s is a syntactically valid GitHub login
func ValidUsername(s string) bool {
	return usernameRe.MatchString(s)
}

// ProfileFromURL extracts the login from a profile link such as
// "https://github.com/octocat"
func ProfileFromURL(s string) (string, bool) {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	for _, p := range repoPrefixes {
		if strings.HasPrefix(lower, p) {
			login := strings.TrimRight(s[len(p):], "/")
			return login, ValidUsername(login)
		}
	}
	return "", false
}
