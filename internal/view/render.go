package view

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"ghexplorer/internal/format"
	"ghexplorer/internal/github"
	"ghexplorer/internal/loading"
	"ghexplorer/internal/message"
	"ghexplorer/internal/models"
	"ghexplorer/internal/paginate"
	"ghexplorer/internal/viewstate"
)

// entrySeparator splits list entries inside a cached blob
const entrySeparator = "\n\n"

var linkLabel = strings.NewReplacer("[", "(", "]", ")")

func bold(s string) string {
	return "*" + strings.ReplaceAll(s, "*", "") + "*"
}

func link(label, url string) string {
	return "[" + linkLabel.Replace(label) + "](" + url + ")"
}

func button(label string, a Action) message.Button {
	return message.Button{Label: label, Action: Token(a)}
}

func row(buttons ...message.Button) []message.Button {
	return buttons
}

func backRow(label string) []message.Button {
	return row(button("🔄 Refresh", Refresh{}), button(label, Back{}))
}

func homeScreen() (string, message.Keyboard) {
	body := "👋 *Welcome to GitHub Explorer*\n\n" +
		"🔥 *What I can do:*\n" +
		"• 📊 View repository details\n" +
		"• 👤 Show user profiles\n" +
		"• 📈 Display trending repositories\n" +
		"• 🔥 Show what others are exploring\n\n" +
		"⚡ *Quick commands:*\n" +
		"• /profile username\n" +
		"• /repo owner/repo\n" +
		"• /trending language range\n" +
		"• /popular\n\n" +
		"💡 *Tip:* Just send me a repository like facebook/react, a GitHub link or @username"
	kb := message.Keyboard{
		row(button("📖 Help", ShowHelp{}), button("📈 Trending", ShowTrending{})),
		row(button("🔥 Popular", ShowPopular{})),
	}
	return body, kb
}

func helpScreen() (string, message.Keyboard) {
	body := "📖 *How to use GitHub Explorer*\n\n" +
		"👤 *Profiles*\n" +
		"Send @username or /profile username to open a profile. From there you can browse repositories, starred projects, followers and activity.\n\n" +
		"📦 *Repositories*\n" +
		"Send owner/repo, a github.com link or /repo owner/repo. The buttons open contributors, pull requests, issues, languages, releases and the README.\n\n" +
		"📈 *Trending*\n" +
		"/trending shows a language picker. /trending go daily jumps straight to a list.\n\n" +
		"🔥 *Popular*\n" +
		"/popular lists the profiles and repositories explored most this week.\n\n" +
		"💡 *Tip:* Long lists are split into pages, use the arrows to move between them"
	kb := message.Keyboard{
		row(button("⬅️ Back to Start", ShowHome{})),
	}
	return body, kb
}

func profileScreen(user *github.User, admin bool, now time.Time) (string, message.Keyboard) {
	var b strings.Builder
	name := user.Name
	if name == "" {
		name = user.Login
	}
	fmt.Fprintf(&b, "👤 %s\n🏷️ @%s\n", bold(name), format.EscapeMarkdown(user.Login))
	if user.Type == "Organization" {
		b.WriteString("🏢 Organization\n")
	}
	if admin {
		b.WriteString("👑 *Bot developer*\n")
	}
	if user.Bio != "" {
		fmt.Fprintf(&b, "\n📝 %s\n", format.EscapeMarkdown(format.Clip(user.Bio, 300)))
	}

	b.WriteString("\n📊 *GitHub Stats*\n")
	fmt.Fprintf(&b, "┌─ 📂 *%s* public repositories\n", format.Thousands(user.PublicRepos))
	fmt.Fprintf(&b, "├─ 👥 *%s* followers\n", format.Thousands(user.Followers))
	fmt.Fprintf(&b, "├─ 👤 *%s* following\n", format.Thousands(user.Following))
	fmt.Fprintf(&b, "└─ 📄 *%s* public gists\n", format.Thousands(user.PublicGists))

	b.WriteString("\nℹ️ *Profile Details*\n")
	if user.Company != "" {
		fmt.Fprintf(&b, "🏢 %s\n", format.EscapeMarkdown(user.Company))
	}
	if user.Location != "" {
		fmt.Fprintf(&b, "📍 %s\n", format.EscapeMarkdown(user.Location))
	}
	if user.Blog != "" {
		blog := user.Blog
		if !strings.HasPrefix(blog, "http") {
			blog = "https://" + blog
		}
		fmt.Fprintf(&b, "🌐 %s\n", link("Website", blog))
	}
	if user.TwitterUsername != "" {
		fmt.Fprintf(&b, "🐦 %s\n", link("@"+user.TwitterUsername, "https://twitter.com/"+user.TwitterUsername))
	}
	if !user.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "📅 Joined %s (%s)\n", user.CreatedAt.Format("January 02, 2006"), format.HumanizeSince(user.CreatedAt, now))
	}
	fmt.Fprintf(&b, "\n🔗 %s\n\n", link("View on GitHub", user.HTMLURL))
	b.WriteString("💡 *Tip:* Use the buttons below to explore this profile")

	login := user.Login
	kb := message.Keyboard{
		row(button("📂 Repositories", ShowRepoPage{Username: login, Page: 1}), button("⭐ Starred", ShowStarredPage{Username: login, Page: 1})),
		row(
			button(fmt.Sprintf("👥 Followers (%s)", format.Number(user.Followers)), ShowFollowerPage{Username: login, Page: 1}),
			button(fmt.Sprintf("👤 Following (%s)", format.Number(user.Following)), ShowFollowingPage{Username: login, Page: 1}),
		),
		row(button("📊 Stats & Activity", ShowStats{Username: login}), button("🖼️ Avatar", ShowAvatar{Username: login})),
		backRow("⬅️ Back"),
	}
	return b.String(), kb
}

// activity summarises a user's recent public events
type activity struct {
	commits, pulls, issues, stars, forks, releases int
	repos                                          map[string]int
}

func summarize(events []github.Event) activity {
	a := activity{repos: make(map[string]int)}
	for _, e := range events {
		switch e.Type {
		case "PushEvent":
			a.commits += e.CommitCount()
		case "PullRequestEvent":
			a.pulls++
		case "IssuesEvent":
			a.issues++
		case "WatchEvent":
			a.stars++
		case "ForkEvent":
			a.forks++
		case "ReleaseEvent":
			a.releases++
		}
		if e.Repo.Name != "" {
			a.repos[e.Repo.Name]++
		}
	}
	return a
}

// topRepos returns the n most active repositories, ties broken by name
func (a activity) topRepos(n int) []string {
	names := make([]string, 0, len(a.repos))
	for name := range a.repos {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if a.repos[names[i]] != a.repos[names[j]] {
			return a.repos[names[i]] > a.repos[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > n {
		names = names[:n]
	}
	return names
}

func statsScreen(user *github.User, events []github.Event, now time.Time) (string, message.Keyboard) {
	a := summarize(events)
	var b strings.Builder
	fmt.Fprintf(&b, "📊 *Activity of %s*\n\n", format.EscapeMarkdown(user.Login))

	fmt.Fprintf(&b, "⚡ *Last %d public events*\n", len(events))
	fmt.Fprintf(&b, "┌─ 📝 *%d* commits pushed\n", a.commits)
	fmt.Fprintf(&b, "├─ 🔀 *%d* pull request events\n", a.pulls)
	fmt.Fprintf(&b, "├─ 🐛 *%d* issue events\n", a.issues)
	fmt.Fprintf(&b, "├─ ⭐ *%d* repositories starred\n", a.stars)
	fmt.Fprintf(&b, "├─ 🍴 *%d* forks\n", a.forks)
	fmt.Fprintf(&b, "└─ 🏷️ *%d* releases\n", a.releases)

	if top := a.topRepos(3); len(top) > 0 {
		b.WriteString("\n🔥 *Most active in*\n")
		for i, name := range top {
			fmt.Fprintf(&b, "%d. %s (%d events)\n", i+1, link(name, "https://github.com/"+name), a.repos[name])
		}
	} else {
		b.WriteString("\n😴 No recent public activity\n")
	}

	b.WriteString("\n📅 *Account*\n")
	if !user.CreatedAt.IsZero() {
		years := now.Sub(user.CreatedAt).Hours() / 24 / 365
		fmt.Fprintf(&b, "Created %s, %.1f years on GitHub\n", user.CreatedAt.Format("Jan 02, 2006"), years)
	}
	fmt.Fprintf(&b, "📂 %s public repositories · 👥 %s followers",
		format.Thousands(user.PublicRepos), format.Thousands(user.Followers))

	kb := message.Keyboard{backRow("⬅️ Back to Profile")}
	return b.String(), kb
}

func avatarCaption(user *github.User) (string, message.Keyboard) {
	name := user.Name
	if name == "" {
		name = user.Login
	}
	caption := fmt.Sprintf("🖼️ %s\n@%s\n\n🔗 %s",
		bold(name), format.EscapeMarkdown(user.Login), link("Open full size", user.AvatarURL))
	kb := message.Keyboard{row(button("⬅️ Back to Profile", Back{}))}
	return caption, kb
}

// avatarURL asks GitHub for a 400px rendition of the avatar
func avatarURL(url string) string {
	if strings.Contains(url, "?") {
		return url + "&s=400"
	}
	return url + "?s=400"
}

// listKind describes one of a profile's paginated lists
type listKind struct {
	view    viewstate.View
	title   string
	empty   string
	style   string
	loading string
	fetch   func(ctx context.Context, gh GitHub, username string, now time.Time) (string, error)
	action  func(username string, page int) Action
}

var (
	listRepos = listKind{
		view:    viewstate.ViewRepos,
		title:   "📂 *Repositories of %s*",
		empty:   "No public repositories yet.",
		style:   "rocket",
		loading: "Loading repositories",
		fetch: func(ctx context.Context, gh GitHub, username string, now time.Time) (string, error) {
			repos, err := gh.ListUserRepos(ctx, username)
			if err != nil {
				return "", err
			}
			return repoEntries(repos, false, now), nil
		},
		action: func(username string, page int) Action { return ShowRepoPage{Username: username, Page: page} },
	}
	listStarred = listKind{
		view:    viewstate.ViewStarred,
		title:   "⭐ *Starred by %s*",
		empty:   "No starred repositories yet.",
		style:   "stars",
		loading: "Loading starred repositories",
		fetch: func(ctx context.Context, gh GitHub, username string, now time.Time) (string, error) {
			repos, err := gh.ListStarred(ctx, username)
			if err != nil {
				return "", err
			}
			return repoEntries(repos, true, now), nil
		},
		action: func(username string, page int) Action { return ShowStarredPage{Username: username, Page: page} },
	}
	listFollowers = listKind{
		view:    viewstate.ViewFollowers,
		title:   "👥 *Followers of %s*",
		empty:   "No followers yet.",
		style:   "heart",
		loading: "Loading followers",
		fetch: func(ctx context.Context, gh GitHub, username string, _ time.Time) (string, error) {
			accounts, err := gh.ListFollowers(ctx, username)
			if err != nil {
				return "", err
			}
			return accountEntries(accounts), nil
		},
		action: func(username string, page int) Action { return ShowFollowerPage{Username: username, Page: page} },
	}
	listFollowing = listKind{
		view:    viewstate.ViewFollowing,
		title:   "👤 *Followed by %s*",
		empty:   "Not following anyone yet.",
		style:   "pulse",
		loading: "Loading following",
		fetch: func(ctx context.Context, gh GitHub, username string, _ time.Time) (string, error) {
			accounts, err := gh.ListFollowing(ctx, username)
			if err != nil {
				return "", err
			}
			return accountEntries(accounts), nil
		},
		action: func(username string, page int) Action { return ShowFollowingPage{Username: username, Page: page} },
	}

	listKinds = map[viewstate.View]listKind{
		viewstate.ViewRepos:     listRepos,
		viewstate.ViewStarred:   listStarred,
		viewstate.ViewFollowers: listFollowers,
		viewstate.ViewFollowing: listFollowing,
	}
)

func repoEntries(repos []github.Repository, fullNames bool, now time.Time) string {
	entries := make([]string, 0, len(repos))
	for i, r := range repos {
		name := r.Name
		if fullNames {
			name = r.FullName
		}
		var b strings.Builder
		fmt.Fprintf(&b, "%d. %s ⭐ %s 🍴 %s", i+1, link(name, r.HTMLURL), format.Number(r.StargazersCount), format.Number(r.ForksCount))
		var meta []string
		if r.Language != "" {
			meta = append(meta, format.LanguageEmoji(r.Language)+" "+r.Language)
		}
		if r.Fork {
			meta = append(meta, "🍴 fork")
		}
		if r.Archived {
			meta = append(meta, "📦 archived")
		}
		if !r.PushedAt.IsZero() {
			meta = append(meta, "🔄 "+format.HumanizeSince(r.PushedAt, now))
		}
		if len(meta) > 0 {
			b.WriteString("\n   " + strings.Join(meta, " · "))
		}
		if r.Description != "" {
			b.WriteString("\n   " + format.EscapeMarkdown(format.Clip(r.Description, 100)))
		}
		entries = append(entries, b.String())
	}
	return strings.Join(entries, entrySeparator)
}

func accountEntries(accounts []github.Account) string {
	entries := make([]string, 0, len(accounts))
	for i, a := range accounts {
		entries = append(entries, fmt.Sprintf("%d. 👤 %s", i+1, link(a.Login, a.HTMLURL)))
	}
	return strings.Join(entries, entrySeparator)
}

// navigationRow binds paginate's navigation buttons to actions
func navigationRow(p paginate.Page, target func(page int) Action) []message.Button {
	nav := paginate.Navigation(p.Index, p.Total)
	if len(nav) == 0 {
		return nil
	}
	out := make([]message.Button, 0, len(nav))
	for _, n := range nav {
		if n.Kind == paginate.NavIndicator {
			out = append(out, button(n.Label, Noop{}))
			continue
		}
		out = append(out, button(n.Label, target(n.Target+1)))
	}
	return out
}

func pageFooter(p paginate.Page) string {
	if p.Total <= 1 {
		return ""
	}
	return fmt.Sprintf("\n\n📄 Page %d/%d", p.Index+1, p.Total)
}

func listScreen(kind listKind, user *github.User, p paginate.Page) (string, message.Keyboard) {
	content := p.Content
	if content == "" {
		content = "_" + kind.empty + "_"
	}
	body := fmt.Sprintf(kind.title, format.EscapeMarkdown(user.Login)) + "\n\n" + content + pageFooter(p)

	var kb message.Keyboard
	if nav := navigationRow(p, func(page int) Action { return kind.action(user.Login, page) }); nav != nil {
		kb = append(kb, nav)
	}
	kb = append(kb, backRow("⬅️ Back to Profile"))
	return body, kb
}

func repositoryScreen(repo *github.Repository, admin bool, now time.Time) (string, message.Keyboard) {
	var b strings.Builder
	fmt.Fprintf(&b, "📦 %s\n", bold(repo.FullName))
	if admin {
		b.WriteString("👑 Maintained by the bot developer\n")
	}
	if repo.Archived {
		b.WriteString("🗄️ Archived\n")
	}
	if repo.Fork {
		b.WriteString("🍴 Fork\n")
	}
	if repo.Description != "" {
		fmt.Fprintf(&b, "📝 %s\n", format.EscapeMarkdown(format.Clip(repo.Description, 200)))
	}

	b.WriteString("\n📊 *Statistics*\n")
	fmt.Fprintf(&b, "┌─ ⭐ *%s* stars\n", format.Thousands(repo.StargazersCount))
	fmt.Fprintf(&b, "├─ 🍴 *%s* forks\n", format.Thousands(repo.ForksCount))
	fmt.Fprintf(&b, "├─ 👀 *%s* watchers\n", format.Thousands(repo.WatchersCount))
	fmt.Fprintf(&b, "└─ 🐛 *%s* open issues\n", format.Thousands(repo.OpenIssuesCount))

	b.WriteString("\nℹ️ *Details*\n")
	if repo.Language != "" {
		fmt.Fprintf(&b, "%s Language: %s\n", format.LanguageEmoji(repo.Language), format.EscapeMarkdown(repo.Language))
	}
	if repo.License != nil && repo.License.Name != "" {
		fmt.Fprintf(&b, "%s License: %s\n", format.LicenseEmoji(repo.License.Name), format.EscapeMarkdown(repo.License.Name))
	}
	if repo.DefaultBranch != "" {
		fmt.Fprintf(&b, "🌿 Default branch: %s\n", format.EscapeMarkdown(repo.DefaultBranch))
	}
	if repo.Size > 0 {
		fmt.Fprintf(&b, "💾 Size: %s\n", format.FileSize(int64(repo.Size)*1024))
	}
	if !repo.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "📅 Created: %s\n", repo.CreatedAt.Format("Jan 02, 2006"))
	}
	if !repo.PushedAt.IsZero() {
		fmt.Fprintf(&b, "🔄 Last push: %s\n", format.HumanizeSince(repo.PushedAt, now))
	}
	if len(repo.Topics) > 0 {
		topics := repo.Topics
		if len(topics) > 5 {
			topics = topics[:5]
		}
		fmt.Fprintf(&b, "🏷️ Topics: %s\n", format.EscapeMarkdown(strings.Join(topics, ", ")))
	}
	if repo.Homepage != "" {
		fmt.Fprintf(&b, "🌐 %s\n", link("Homepage", repo.Homepage))
	}
	fmt.Fprintf(&b, "\n🔗 %s\n\n", link("View on GitHub", repo.HTMLURL))
	b.WriteString("💡 *Tip:* Use the buttons below to explore this repository")

	kb := message.Keyboard{
		row(button("👥 Contributors", ShowRepoSection{Section: SectionContributors}), button("🔀 Pull Requests", ShowRepoSection{Section: SectionPulls})),
		row(button("🐛 Issues", ShowRepoSection{Section: SectionIssues}), button("💻 Languages", ShowRepoSection{Section: SectionLanguages})),
		row(button("🏷️ Releases", ShowRepoSection{Section: SectionReleases}), button("📖 README", ShowReadmePage{Page: 1})),
		row(button("👤 Owner", ShowProfile{Username: repo.Owner.Login}), button("🔄 Refresh", Refresh{})),
		row(button("⬅️ Back", Back{})),
	}
	return b.String(), kb
}

func sectionStyle(s Section) string {
	switch s {
	case SectionContributors:
		return "heart"
	case SectionPulls:
		return "spinner"
	case SectionIssues:
		return "tech"
	case SectionLanguages:
		return "rainbow"
	case SectionReleases:
		return "diamond"
	}
	return ""
}

func sectionLoading(s Section) string {
	switch s {
	case SectionContributors:
		return "Loading contributors"
	case SectionPulls:
		return "Loading pull requests"
	case SectionIssues:
		return "Loading issues"
	case SectionLanguages:
		return "Analyzing languages"
	case SectionReleases:
		return "Loading releases"
	}
	return "Loading"
}

func sectionKeyboard(Section) message.Keyboard {
	return message.Keyboard{backRow("⬅️ Back to Repository")}
}

func contributorsScreen(repo *github.Repository, list []github.Contributor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👥 *Top contributors of %s*\n\n", format.EscapeMarkdown(repo.FullName))
	if len(list) == 0 {
		b.WriteString("_No contributors found._")
		return b.String()
	}
	medals := []string{"🥇", "🥈", "🥉"}
	for i, c := range list {
		rank := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			rank = medals[i]
		}
		fmt.Fprintf(&b, "%s %s · %s contributions\n", rank, link(c.Login, c.HTMLURL), format.Number(c.Contributions))
	}
	return strings.TrimRight(b.String(), "\n")
}

func pullsScreen(repo *github.Repository, list []github.PullRequest, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔀 *Open pull requests of %s*\n\n", format.EscapeMarkdown(repo.FullName))
	if len(list) == 0 {
		b.WriteString("_No open pull requests._")
		return b.String()
	}
	for _, pr := range list {
		icon := "🟢"
		if pr.Draft {
			icon = "📝"
		}
		fmt.Fprintf(&b, "%s %s %s\n", icon, link(fmt.Sprintf("#%d", pr.Number), pr.HTMLURL), format.EscapeMarkdown(format.Clip(pr.Title, 80)))
		fmt.Fprintf(&b, "   👤 %s · 🕒 %s\n\n", format.EscapeMarkdown(pr.User.Login), format.HumanizeSince(pr.CreatedAt, now))
	}
	return strings.TrimRight(b.String(), "\n")
}

func issuesScreen(repo *github.Repository, list []github.Issue, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🐛 *Open issues of %s*\n\n", format.EscapeMarkdown(repo.FullName))
	if len(list) == 0 {
		b.WriteString("_No open issues._")
		return b.String()
	}
	for _, is := range list {
		fmt.Fprintf(&b, "🔴 %s %s\n", link(fmt.Sprintf("#%d", is.Number), is.HTMLURL), format.EscapeMarkdown(format.Clip(is.Title, 80)))
		meta := fmt.Sprintf("   👤 %s · 💬 %d · 🕒 %s", format.EscapeMarkdown(is.User.Login), is.Comments, format.HumanizeSince(is.CreatedAt, now))
		if len(is.Labels) > 0 {
			labels := make([]string, 0, 3)
			for _, l := range is.Labels {
				if len(labels) == 3 {
					break
				}
				labels = append(labels, l.Name)
			}
			meta += " · 🏷️ " + format.EscapeMarkdown(strings.Join(labels, ", "))
		}
		b.WriteString(meta + "\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func languagesScreen(repo *github.Repository, list []github.Language) string {
	var b strings.Builder
	fmt.Fprintf(&b, "💻 *Languages of %s*\n\n", format.EscapeMarkdown(repo.FullName))
	var total int64
	for _, l := range list {
		total += l.Bytes
	}
	if total == 0 {
		b.WriteString("_No language data available._")
		return b.String()
	}
	for _, l := range list {
		pct := float64(l.Bytes) * 100 / float64(total)
		fmt.Fprintf(&b, "%s %s %.1f%%\n%s %s\n\n",
			format.LanguageEmoji(l.Name), bold(l.Name), pct, format.Bar(pct), format.FileSize(l.Bytes))
	}
	return strings.TrimRight(b.String(), "\n")
}

func releasesScreen(repo *github.Repository, list []github.Release, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏷️ *Latest releases of %s*\n\n", format.EscapeMarkdown(repo.FullName))
	if len(list) == 0 {
		b.WriteString("_No releases published._")
		return b.String()
	}
	for i, r := range list {
		icon := "🏷️"
		switch {
		case i == 0 && !r.Prerelease:
			icon = "🆕"
		case r.Prerelease:
			icon = "🧪"
		}
		name := r.TagName
		if r.Name != "" && r.Name != r.TagName {
			name += " · " + r.Name
		}
		fmt.Fprintf(&b, "%s %s\n", icon, link(format.Clip(name, 80), r.HTMLURL))
		fmt.Fprintf(&b, "   📅 %s", format.HumanizeSince(r.PublishedAt, now))
		if r.Author.Login != "" {
			fmt.Fprintf(&b, " · 👤 %s", format.EscapeMarkdown(r.Author.Login))
		}
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// readmeBlob converts a raw README to the escaped plain text that is paged
func readmeBlob(raw string) string {
	text := format.ReadmeText(raw)
	if text == "" {
		return ""
	}
	return format.EscapeMarkdown(text)
}

func readmeScreen(repo *github.Repository, p paginate.Page) (string, message.Keyboard) {
	content := p.Content
	if content == "" {
		content = "_This README is empty._"
	}
	body := fmt.Sprintf("📖 *README of %s*\n\n", format.EscapeMarkdown(repo.FullName)) + content + pageFooter(p)

	var kb message.Keyboard
	if nav := navigationRow(p, func(page int) Action { return ShowReadmePage{Page: page} }); nav != nil {
		kb = append(kb, nav)
	}
	kb = append(kb, backRow("⬅️ Back to Repository"))
	return body, kb
}

type trendingLanguage struct {
	key, label, query string
}

var trendingLanguages = []trendingLanguage{
	{"python", "🐍 Python", "python"},
	{"javascript", "🟨 JavaScript", "javascript"},
	{"typescript", "🔵 TypeScript", "typescript"},
	{"java", "☕ Java", "java"},
	{"cpp", "⚡ C++", "c++"},
	{"go", "🐹 Go", "go"},
	{"rust", "🦀 Rust", "rust"},
	{"ruby", "💎 Ruby", "ruby"},
	{"php", "🐘 PHP", "php"},
	{"swift", "🍎 Swift", "swift"},
	{"kotlin", "🟣 Kotlin", "kotlin"},
	{"csharp", "💜 C#", "c#"},
	{"dart", "🎯 Dart", "dart"},
	{"scala", "🔴 Scala", "scala"},
}

const allLanguages = "all"

func lookupLanguage(key string) (trendingLanguage, bool) {
	for _, l := range trendingLanguages {
		if l.key == key {
			return l, true
		}
	}
	return trendingLanguage{}, false
}

// trendingStars is the star threshold of the strictest query per range
var trendingStars = map[string]int{
	RangeDaily:   50,
	RangeWeekly:  100,
	RangeMonthly: 500,
}

// trendingQueries returns search queries from strictest to loosest
func trendingQueries(language, rng string) []string {
	stars, ok := trendingStars[rng]
	if !ok {
		stars = trendingStars[RangeWeekly]
	}
	if language == allLanguages {
		return []string{
			fmt.Sprintf("stars:>%d", stars),
			fmt.Sprintf("stars:>%d", stars/2),
			"stars:>50",
		}
	}
	q := language
	if l, ok := lookupLanguage(language); ok {
		q = l.query
	}
	return []string{
		fmt.Sprintf("language:%s stars:>%d", q, stars),
		fmt.Sprintf("language:%s stars:>%d", q, stars/2),
		fmt.Sprintf("language:%s", q),
	}
}

func trendingMenuScreen() (string, message.Keyboard) {
	body := "📈 *Trending repositories*\n\nPick a language to see its most starred projects."
	var kb message.Keyboard
	for i := 0; i < len(trendingLanguages); i += 2 {
		r := row(button(trendingLanguages[i].label, ShowTrending{Language: trendingLanguages[i].key, Range: RangeWeekly}))
		if i+1 < len(trendingLanguages) {
			l := trendingLanguages[i+1]
			r = append(r, button(l.label, ShowTrending{Language: l.key, Range: RangeWeekly}))
		}
		kb = append(kb, r)
	}
	kb = append(kb,
		row(button("🌐 All languages", ShowTrending{Language: allLanguages, Range: RangeWeekly})),
		row(button("⬅️ Back to Start", ShowHome{})),
	)
	return body, kb
}

var rangeLabels = map[string]string{
	RangeDaily:   "Daily",
	RangeWeekly:  "Weekly",
	RangeMonthly: "Monthly",
}

func trendingScreen(a ShowTrending, repos []github.Repository) (string, message.Keyboard) {
	label := "🌐 All languages"
	if l, ok := lookupLanguage(a.Language); ok {
		label = l.label
	} else if a.Language != allLanguages {
		label = format.EscapeMarkdown(a.Language)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📈 *Trending* %s · %s\n\n", label, rangeLabels[a.Range])
	if len(repos) == 0 {
		b.WriteString("_No repositories found, try another language or range._")
	}
	for i, r := range repos {
		fmt.Fprintf(&b, "%d. %s ⭐ %s\n", i+1, link(r.FullName, r.HTMLURL), format.Number(r.StargazersCount))
		if r.Description != "" {
			fmt.Fprintf(&b, "   %s\n", format.EscapeMarkdown(format.Clip(r.Description, 100)))
		}
		b.WriteString("\n")
	}

	var ranges []message.Button
	for _, rng := range []string{RangeDaily, RangeWeekly, RangeMonthly} {
		text := rangeLabels[rng]
		if rng == a.Range {
			text = "• " + text + " •"
		}
		ranges = append(ranges, button(text, ShowTrending{Language: a.Language, Range: rng}))
	}
	kb := message.Keyboard{ranges}
	kb = append(kb, repoButtons(repos, 5)...)
	kb = append(kb, row(button("🔙 Languages", ShowTrending{}), button("🏠 Home", ShowHome{})))
	return strings.TrimRight(b.String(), "\n"), kb
}

// repoButtons opens up to n repositories, skipping names too long for a token
func repoButtons(repos []github.Repository, n int) message.Keyboard {
	var kb message.Keyboard
	for _, r := range repos {
		if len(kb) == n {
			break
		}
		a := ShowRepository{FullName: strings.ToLower(r.FullName)}
		if len(a.Encode()) > MaxTokenLength {
			continue
		}
		kb = append(kb, row(button("📦 "+r.FullName, a)))
	}
	return kb
}

func popularScreen(profiles, repos []models.EntityStat) (string, message.Keyboard) {
	var b strings.Builder
	b.WriteString("🔥 *Popular this week*\n\n")
	if len(profiles) == 0 && len(repos) == 0 {
		b.WriteString("_Nothing explored yet. Be the first!_")
	}

	var kb message.Keyboard
	if len(profiles) > 0 {
		b.WriteString("👤 *Profiles*\n")
		for i, p := range profiles {
			fmt.Fprintf(&b, "%d. @%s · %d views\n", i+1, format.EscapeMarkdown(p.Entity), p.Views)
			if a := (ShowProfile{Username: p.Entity}); len(a.Encode()) <= MaxTokenLength {
				kb = append(kb, row(button("👤 "+p.Entity, a)))
			}
		}
		b.WriteString("\n")
	}
	if len(repos) > 0 {
		b.WriteString("📦 *Repositories*\n")
		for i, r := range repos {
			fmt.Fprintf(&b, "%d. %s · %d views\n", i+1, format.EscapeMarkdown(r.Entity), r.Views)
			if a := (ShowRepository{FullName: r.Entity}); len(a.Encode()) <= MaxTokenLength {
				kb = append(kb, row(button("📦 "+r.Entity, a)))
			}
		}
	}
	kb = append(kb, row(button("🔄 Refresh", ShowPopular{}), button("🏠 Home", ShowHome{})))
	return strings.TrimRight(b.String(), "\n"), kb
}

// errorScreen renders a failure. Try again re-runs the failing action.
func errorScreen(err error, a Action) (string, message.Keyboard) {
	label, detail := "Something went wrong", "An unexpected error occurred."
	switch {
	case errors.Is(err, ErrNoContext):
		label, detail = "Session expired", "This view has expired. Please search again."
	case errors.Is(err, ErrUnknownAction), errors.Is(err, ErrInvalidPage):
		label, detail = "Unknown action", "This button is no longer valid."
	default:
		switch github.KindOf(err) {
		case github.KindNotFound:
			label, detail = "Not found", "The requested user or repository does not exist or is private."
		case github.KindRateLimited:
			label, detail = "Rate limited", "GitHub API rate limit exceeded. Please wait a few minutes and try again."
		case github.KindNetwork:
			label, detail = "Network error", "GitHub is not responding right now. Please try again."
		}
	}

	body := loading.ErrorLine(label) + "\n\n" + detail
	if errors.Is(err, ErrNoContext) {
		return body, message.Keyboard{row(button("🏠 Home", ShowHome{}))}
	}
	kb := message.Keyboard{
		row(button("🔄 Try again", a)),
		row(button("⬅️ Back", Back{})),
	}
	return body, kb
}
