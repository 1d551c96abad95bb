// Package view turns user actions into rendered chat screens: it fetches
// GitHub data under a loading animation, paginates it, keeps the
// per-conversation view state and commits the result to the message.
package view

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ghexplorer/internal/github"
	"ghexplorer/internal/loading"
	"ghexplorer/internal/message"
	"ghexplorer/internal/metrics"
	"ghexplorer/internal/models"
	"ghexplorer/internal/paginate"
	"ghexplorer/internal/viewstate"
)

// GitHub is the data source used by the controller
type GitHub interface {
	GetUser(ctx context.Context, login string) (*github.User, error)
	GetRepository(ctx context.Context, fullName string) (*github.Repository, error)
	ListUserRepos(ctx context.Context, login string) ([]github.Repository, error)
	ListStarred(ctx context.Context, login string) ([]github.Repository, error)
	ListFollowers(ctx context.Context, login string) ([]github.Account, error)
	ListFollowing(ctx context.Context, login string) ([]github.Account, error)
	ListUserEvents(ctx context.Context, login string, limit int) ([]github.Event, error)
	ListContributors(ctx context.Context, fullName string, limit int) ([]github.Contributor, error)
	ListReleases(ctx context.Context, fullName string, limit int) ([]github.Release, error)
	ListIssues(ctx context.Context, fullName string, limit int) ([]github.Issue, error)
	ListPulls(ctx context.Context, fullName string, limit int) ([]github.PullRequest, error)
	Languages(ctx context.Context, fullName string) ([]github.Language, error)
	Readme(ctx context.Context, fullName string) (string, error)
	SearchRepositories(ctx context.Context, query, sort string, limit int) ([]github.Repository, error)
}

// Journal records handled actions and serves the popularity ranking
type Journal interface {
	RecordInteraction(ctx context.Context, in models.Interaction) error
	TopEntities(ctx context.Context, kind models.EntityKind, limit int, since time.Time) ([]models.EntityStat, error)
}

// ErrNoContext is returned when an action needs a profile or repository the
// conversation no longer holds
var ErrNoContext = errors.New("view context expired")

const (
	sectionLimit   = 10
	eventsLimit    = 30
	trendingLimit  = 10
	popularLimit   = 5
	popularWindow  = 7 * 24 * time.Hour
	journalTimeout = 2 * time.Second
)

// Options tune the controller
type Options struct {
	PageSize      int
	AdminUsername string
	Now           func() time.Time
}

// Controller handles actions for all conversations. It is safe for
// concurrent use; actions of one conversation race last-commit-wins.
type Controller struct {
	gh       GitHub
	store    viewstate.Store
	loader   *loading.Controller
	platform message.Platform
	journal  Journal
	logger   *zap.Logger
	opts     Options
}

// NewController wires a controller. journal may be nil.
func NewController(gh GitHub, store viewstate.Store, loader *loading.Controller, platform message.Platform, journal Journal, logger *zap.Logger, opts Options) *Controller {
	if opts.PageSize <= 0 {
		opts.PageSize = paginate.DefaultSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{
		gh:       gh,
		store:    store,
		loader:   loader,
		platform: platform,
		journal:  journal,
		logger:   logger,
		opts:     opts,
	}
}

// request carries one action through the controller
type request struct {
	conv   int64
	state  *message.State
	action Action
	logger *zap.Logger
}

// HandleAction runs a on the message held by state. GitHub failures end in
// a committed error view and are not returned; the returned error reports
// failures to talk to the chat platform.
func (c *Controller) HandleAction(ctx context.Context, conversationID int64, state *message.State, a Action) error {
	start := time.Now()
	r := &request{
		conv:   conversationID,
		state:  state,
		action: a,
		logger: c.logger.With(zap.Int64("chat_id", conversationID), zap.String("action", a.Name())),
	}

	if _, isNoop := a.(Noop); isNoop {
		return nil
	}

	var err error
	if state.Handle().Kind == message.KindPhoto && !leavesAvatar(a) {
		err = c.restoreText(ctx, r)
	}
	if err == nil {
		err = c.dispatch(ctx, r)
	}

	outcome := models.OutcomeOK
	var shown failed
	if errors.As(err, &shown) {
		outcome = models.OutcomeError
		err = nil
	} else if err != nil {
		outcome = models.OutcomeError
		r.logger.Error("Failed to handle action", zap.Error(err))
	}
	metrics.ActionsTotal.WithLabelValues(a.Name(), outcome).Inc()
	metrics.ActionDurationSeconds.WithLabelValues(a.Name()).Observe(time.Since(start).Seconds())
	c.record(ctx, r, outcome, time.Since(start))
	return err
}

// Open sends placeholder as a new message and runs a on it
func (c *Controller) Open(ctx context.Context, conversationID, chatID int64, placeholder string, a Action) error {
	h, err := c.platform.SendText(ctx, chatID, placeholder, nil)
	if err != nil {
		return fmt.Errorf("send placeholder: %w", err)
	}
	return c.HandleAction(ctx, conversationID, message.NewState(c.platform, h, placeholder, nil), a)
}

// Attach returns the message state of an existing message. The stored
// screen wins over text and kb, which lose their markup on the way back
// from the platform.
func (c *Controller) Attach(conversationID int64, h message.Handle, text string, kb message.Keyboard) *message.State {
	if s := c.store.Get(conversationID).Screen; s != nil && s.MessageID == h.MessageID {
		return message.NewState(c.platform, h, s.Body, s.Keyboard)
	}
	return message.NewState(c.platform, h, text, kb)
}

// HandleToken parses a callback token and runs its action. A malformed
// token renders the error view.
func (c *Controller) HandleToken(ctx context.Context, conversationID int64, state *message.State, token string) error {
	a, err := Parse(token)
	if err == nil {
		return c.HandleAction(ctx, conversationID, state, a)
	}

	r := &request{
		conv:   conversationID,
		state:  state,
		action: Refresh{},
		logger: c.logger.With(zap.Int64("chat_id", conversationID), zap.String("token", token)),
	}
	metrics.ActionsTotal.WithLabelValues("invalid", models.OutcomeError).Inc()
	var shown failed
	if ferr := c.fail(ctx, r, err); ferr != nil && !errors.As(ferr, &shown) {
		return ferr
	}
	return nil
}

// failed marks an action whose error view was committed, for the journal
type failed struct{ err error }

func (f failed) Error() string { return f.err.Error() }
func (f failed) Unwrap() error { return f.err }

func (c *Controller) dispatch(ctx context.Context, r *request) error {
	switch a := r.action.(type) {
	case ShowHome:
		c.store.SetView(r.conv, viewstate.ViewHome, "")
		body, kb := homeScreen()
		return c.commit(ctx, r, body, kb)
	case ShowHelp:
		c.store.SetView(r.conv, viewstate.ViewHome, "help")
		body, kb := helpScreen()
		return c.commit(ctx, r, body, kb)
	case ShowPopular:
		return c.showPopular(ctx, r)
	case ShowProfile:
		return c.showProfile(ctx, r, a.Username, false)
	case ShowStats:
		return c.showStats(ctx, r, a.Username, false)
	case ShowAvatar:
		return c.showAvatar(ctx, r, a.Username)
	case ShowRepoPage:
		return c.showList(ctx, r, listRepos, a.Username, a.Page)
	case ShowStarredPage:
		return c.showList(ctx, r, listStarred, a.Username, a.Page)
	case ShowFollowerPage:
		return c.showList(ctx, r, listFollowers, a.Username, a.Page)
	case ShowFollowingPage:
		return c.showList(ctx, r, listFollowing, a.Username, a.Page)
	case ShowRepository:
		return c.showRepository(ctx, r, a.FullName, false)
	case ShowRepoSection:
		return c.showSection(ctx, r, a.Section)
	case ShowReadmePage:
		return c.showReadme(ctx, r, a.Page)
	case ShowTrending:
		return c.showTrending(ctx, r, a)
	case Refresh:
		return c.refresh(ctx, r)
	case Back:
		return c.back(ctx, r)
	default:
		return fmt.Errorf("%w: %T", ErrUnknownAction, a)
	}
}

// withLoading runs fn while an animation plays on the message. The
// animation is stopped and joined before withLoading returns.
func (c *Controller) withLoading(ctx context.Context, r *request, opts loading.Options, fn func(ctx context.Context) error) error {
	session := c.loader.Start(ctx, r.state, opts)
	defer session.Stop()
	return fn(ctx)
}

// commit renders a screen, falling back to a fresh message when the old
// one cannot be edited anymore
func (c *Controller) commit(ctx context.Context, r *request, body string, kb message.Keyboard) error {
	err := r.state.Commit(ctx, body, kb)
	switch {
	case err == nil:
		metrics.MessageEditsTotal.WithLabelValues("ok").Inc()
	case message.IsNotModified(err):
		metrics.MessageEditsTotal.WithLabelValues("not_modified").Inc()
	case errors.Is(err, message.ErrMessageGone):
		metrics.MessageEditsTotal.WithLabelValues("gone").Inc()
		r.logger.Warn("Message is gone, sending a new one", zap.Error(err))
		h, sendErr := c.platform.SendText(ctx, r.state.Handle().ChatID, body, kb)
		if sendErr != nil {
			return fmt.Errorf("send replacement message: %w", sendErr)
		}
		r.state.Rebind(h, body, kb)
	default:
		metrics.MessageEditsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("commit view: %w", err)
	}

	h := r.state.Handle()
	c.store.Update(r.conv, func(s *viewstate.State) {
		s.Screen = &viewstate.Screen{
			MessageID: h.MessageID,
			Kind:      h.Kind,
			Body:      r.state.ContentBody(),
			Keyboard:  r.state.CurrentKeyboard(),
		}
	})
	return nil
}

// fail commits the error view for err. The retry button re-runs the
// failing action.
func (c *Controller) fail(ctx context.Context, r *request, err error) error {
	r.logger.Warn("Action failed", zap.Error(err), zap.String("kind", github.KindOf(err).String()))
	body, kb := errorScreen(err, r.action)
	if cerr := c.commit(ctx, r, body, kb); cerr != nil {
		return cerr
	}
	return failed{err: err}
}

func (c *Controller) isAdmin(login string) bool {
	return c.opts.AdminUsername != "" && strings.EqualFold(login, c.opts.AdminUsername)
}

func (c *Controller) showProfile(ctx context.Context, r *request, username string, force bool) error {
	current := c.store.Get(r.conv)
	user := current.User
	if force || user == nil || !strings.EqualFold(user.Login, username) {
		if user == nil || !strings.EqualFold(user.Login, username) {
			c.store.Reset(r.conv)
		}
		err := c.withLoading(ctx, r, loading.Options{Style: "stars", Action: "Loading profile"}, func(ctx context.Context) error {
			var err error
			user, err = c.gh.GetUser(ctx, username)
			return err
		})
		if err != nil {
			return c.fail(ctx, r, err)
		}
	}

	c.store.Update(r.conv, func(s *viewstate.State) {
		s.User = user
		s.Avatar = nil
	})
	c.store.SetView(r.conv, viewstate.ViewProfile, user.Login)
	body, kb := profileScreen(user, c.isAdmin(user.Login), c.opts.Now())
	return c.commit(ctx, r, body, kb)
}

// ensureUser returns the conversation's cached user or fetches it
func (c *Controller) ensureUser(ctx context.Context, r *request, username string) (*github.User, error) {
	if u := c.store.Get(r.conv).User; u != nil && strings.EqualFold(u.Login, username) {
		return u, nil
	}
	u, err := c.gh.GetUser(ctx, username)
	if err != nil {
		return nil, err
	}
	c.store.Update(r.conv, func(s *viewstate.State) { s.User = u })
	return u, nil
}

func (c *Controller) showStats(ctx context.Context, r *request, username string, force bool) error {
	var (
		user   *github.User
		events []github.Event
	)
	if force {
		c.store.Update(r.conv, func(s *viewstate.State) { s.User = nil })
	}
	err := c.withLoading(ctx, r, loading.Options{Style: "progress", Action: "Loading activity stats"}, func(ctx context.Context) error {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			user, err = c.ensureUser(gctx, r, username)
			return err
		})
		g.Go(func() error {
			var err error
			events, err = c.gh.ListUserEvents(gctx, username, eventsLimit)
			return err
		})
		return g.Wait()
	})
	if err != nil {
		return c.fail(ctx, r, err)
	}

	c.store.SetView(r.conv, viewstate.ViewStats, user.Login)
	body, kb := statsScreen(user, events, c.opts.Now())
	return c.commit(ctx, r, body, kb)
}

func (c *Controller) showAvatar(ctx context.Context, r *request, username string) error {
	var user *github.User
	err := c.withLoading(ctx, r, loading.Options{Style: "magic", Action: "Loading avatar"}, func(ctx context.Context) error {
		var err error
		user, err = c.ensureUser(ctx, r, username)
		return err
	})
	if err != nil {
		return c.fail(ctx, r, err)
	}

	prev := r.state.Handle()
	ret := &viewstate.AvatarReturn{
		ChatID:   prev.ChatID,
		Body:     r.state.ContentBody(),
		Keyboard: r.state.CurrentKeyboard(),
	}
	if s := c.store.Get(r.conv).Screen; s != nil && s.MessageID == prev.MessageID {
		ret.Body = s.Body
		ret.Keyboard = s.Keyboard.Clone()
	}

	caption, kb := avatarCaption(user)
	h, err := c.platform.SendPhoto(ctx, prev.ChatID, avatarURL(user.AvatarURL), caption, kb)
	if err != nil {
		r.logger.Warn("Failed to send avatar", zap.Error(err))
		return c.fail(ctx, r, err)
	}
	if err := c.platform.Delete(ctx, prev); err != nil && !errors.Is(err, message.ErrMessageGone) {
		r.logger.Warn("Failed to delete profile message", zap.Error(err))
	}
	r.state.Rebind(h, caption, kb)

	c.store.Update(r.conv, func(s *viewstate.State) {
		s.Avatar = ret
		s.View = viewstate.ViewAvatar
		s.Entity = user.Login
		s.Screen = &viewstate.Screen{MessageID: h.MessageID, Kind: h.Kind, Body: caption, Keyboard: kb.Clone()}
	})
	return nil
}

// leavesAvatar reports whether a from the avatar photo is handled by the
// avatar flow itself
func leavesAvatar(a Action) bool {
	switch a.(type) {
	case Back, Noop:
		return true
	}
	return false
}

// restoreText replaces the avatar photo with a text message so that the
// next screen can be edited in place
func (c *Controller) restoreText(ctx context.Context, r *request) error {
	st := c.store.Get(r.conv)
	prev := r.state.Handle()
	body, kb := "⏳", message.Keyboard(nil)
	if st.Avatar != nil {
		body, kb = st.Avatar.Body, st.Avatar.Keyboard
	}

	h, err := c.platform.SendText(ctx, prev.ChatID, body, kb)
	if err != nil {
		return fmt.Errorf("restore text message: %w", err)
	}
	if err := c.platform.Delete(ctx, prev); err != nil && !errors.Is(err, message.ErrMessageGone) {
		r.logger.Warn("Failed to delete avatar photo", zap.Error(err))
	}
	r.state.Rebind(h, body, kb)
	c.store.Update(r.conv, func(s *viewstate.State) {
		s.Avatar = nil
		if s.View == viewstate.ViewAvatar {
			s.View = viewstate.ViewProfile
		}
	})
	return nil
}

// backFromAvatar sends the saved profile text exactly as it was
func (c *Controller) backFromAvatar(ctx context.Context, r *request, st viewstate.State) error {
	prev := r.state.Handle()
	ret := st.Avatar
	if ret == nil {
		if err := c.restoreText(ctx, r); err != nil {
			return err
		}
		return c.showProfile(ctx, r, st.Entity, false)
	}

	h, err := c.platform.SendText(ctx, ret.ChatID, ret.Body, ret.Keyboard)
	if err != nil {
		return fmt.Errorf("send profile message: %w", err)
	}
	if prev.Kind == message.KindPhoto {
		if err := c.platform.Delete(ctx, prev); err != nil && !errors.Is(err, message.ErrMessageGone) {
			r.logger.Warn("Failed to delete avatar photo", zap.Error(err))
		}
	}
	r.state.Rebind(h, ret.Body, ret.Keyboard)

	c.store.Update(r.conv, func(s *viewstate.State) {
		s.Avatar = nil
		s.View = viewstate.ViewProfile
		s.Screen = &viewstate.Screen{MessageID: h.MessageID, Kind: h.Kind, Body: ret.Body, Keyboard: ret.Keyboard.Clone()}
	})
	return nil
}

func (c *Controller) showList(ctx context.Context, r *request, kind listKind, username string, page int) error {
	key := viewstate.BlobKey(kind.view, strings.ToLower(username))
	blob, cached := c.store.CachedBlob(r.conv, key)

	user := c.store.Get(r.conv).User
	if !cached || user == nil || !strings.EqualFold(user.Login, username) {
		opts := loading.Options{Style: kind.style, Action: kind.loading}
		if page > 1 {
			opts.Page = page
		}
		err := c.withLoading(ctx, r, opts, func(ctx context.Context) error {
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				var err error
				user, err = c.ensureUser(gctx, r, username)
				return err
			})
			if !cached {
				g.Go(func() error {
					var err error
					blob, err = kind.fetch(gctx, c.gh, username, c.opts.Now())
					return err
				})
			}
			return g.Wait()
		})
		if err != nil {
			return c.fail(ctx, r, err)
		}
		c.store.CacheBlob(r.conv, key, blob)
	}

	p := paginate.At(blob, c.opts.PageSize, page-1)
	c.store.SetView(r.conv, kind.view, user.Login)
	c.store.SetPage(r.conv, p.Index)

	body, kb := listScreen(kind, user, p)
	return c.commit(ctx, r, body, kb)
}

func (c *Controller) showRepository(ctx context.Context, r *request, fullName string, force bool) error {
	current := c.store.Get(r.conv)
	repo := current.Repo
	same := repo != nil && strings.EqualFold(repo.FullName, fullName)
	if force || !same {
		err := c.withLoading(ctx, r, loading.Options{Style: "rocket", Action: "Loading repository"}, func(ctx context.Context) error {
			var err error
			repo, err = c.gh.GetRepository(ctx, fullName)
			return err
		})
		if err != nil {
			return c.fail(ctx, r, err)
		}
		if !same {
			c.store.Reset(r.conv)
		}
	}

	c.store.Update(r.conv, func(s *viewstate.State) { s.Repo = repo })
	c.store.SetView(r.conv, viewstate.ViewRepository, strings.ToLower(repo.FullName))
	body, kb := repositoryScreen(repo, c.isAdmin(repo.Owner.Login), c.opts.Now())
	return c.commit(ctx, r, body, kb)
}

func (c *Controller) showSection(ctx context.Context, r *request, section Section) error {
	repo := c.store.Get(r.conv).Repo
	if repo == nil {
		return c.fail(ctx, r, ErrNoContext)
	}

	var body string
	err := c.withLoading(ctx, r, loading.Options{Style: sectionStyle(section), Action: sectionLoading(section)}, func(ctx context.Context) error {
		var err error
		body, err = c.fetchSection(ctx, repo, section)
		return err
	})
	if err != nil {
		return c.fail(ctx, r, err)
	}

	c.store.SetView(r.conv, viewstate.ViewSection, strings.ToLower(repo.FullName))
	c.store.Update(r.conv, func(s *viewstate.State) { s.Section = string(section) })
	return c.commit(ctx, r, body, sectionKeyboard(section))
}

func (c *Controller) fetchSection(ctx context.Context, repo *github.Repository, section Section) (string, error) {
	name := repo.FullName
	now := c.opts.Now()
	switch section {
	case SectionContributors:
		list, err := c.gh.ListContributors(ctx, name, sectionLimit)
		if err != nil {
			return "", err
		}
		return contributorsScreen(repo, list), nil
	case SectionPulls:
		list, err := c.gh.ListPulls(ctx, name, sectionLimit)
		if err != nil {
			return "", err
		}
		return pullsScreen(repo, list, now), nil
	case SectionIssues:
		list, err := c.gh.ListIssues(ctx, name, sectionLimit)
		if err != nil {
			return "", err
		}
		return issuesScreen(repo, list, now), nil
	case SectionLanguages:
		list, err := c.gh.Languages(ctx, name)
		if err != nil {
			return "", err
		}
		return languagesScreen(repo, list), nil
	case SectionReleases:
		list, err := c.gh.ListReleases(ctx, name, sectionLimit)
		if err != nil {
			return "", err
		}
		return releasesScreen(repo, list, now), nil
	}
	return "", fmt.Errorf("%w: section %q", ErrUnknownAction, section)
}

func (c *Controller) showReadme(ctx context.Context, r *request, page int) error {
	repo := c.store.Get(r.conv).Repo
	if repo == nil {
		return c.fail(ctx, r, ErrNoContext)
	}

	key := viewstate.BlobKey(viewstate.ViewReadme, strings.ToLower(repo.FullName))
	blob, cached := c.store.CachedBlob(r.conv, key)
	if !cached {
		opts := loading.Options{Style: "wave", Action: "Loading README"}
		if page > 1 {
			opts.Page = page
		}
		err := c.withLoading(ctx, r, opts, func(ctx context.Context) error {
			raw, err := c.gh.Readme(ctx, repo.FullName)
			if err != nil {
				return err
			}
			blob = readmeBlob(raw)
			return nil
		})
		if err != nil {
			return c.fail(ctx, r, err)
		}
		c.store.CacheBlob(r.conv, key, blob)
	}

	p := paginate.At(blob, c.opts.PageSize, page-1)
	c.store.SetView(r.conv, viewstate.ViewReadme, strings.ToLower(repo.FullName))
	c.store.SetPage(r.conv, p.Index)
	body, kb := readmeScreen(repo, p)
	return c.commit(ctx, r, body, kb)
}

func (c *Controller) showTrending(ctx context.Context, r *request, a ShowTrending) error {
	if a.Language == "" {
		c.store.SetView(r.conv, viewstate.ViewTrending, "")
		body, kb := trendingMenuScreen()
		return c.commit(ctx, r, body, kb)
	}
	if a.Range == "" {
		a.Range = RangeWeekly
		r.action = a
	}

	var repos []github.Repository
	err := c.withLoading(ctx, r, loading.Options{Style: "fire", Action: "Loading trending repositories"}, func(ctx context.Context) error {
		var err error
		repos, err = c.searchTrending(ctx, a.Language, a.Range)
		return err
	})
	if err != nil {
		return c.fail(ctx, r, err)
	}

	c.store.SetView(r.conv, viewstate.ViewTrending, a.Language+":"+a.Range)
	body, kb := trendingScreen(a, repos)
	return c.commit(ctx, r, body, kb)
}

// searchTrending relaxes the star threshold until enough repositories match
func (c *Controller) searchTrending(ctx context.Context, language, rng string) ([]github.Repository, error) {
	var lastErr error
	for _, q := range trendingQueries(language, rng) {
		repos, err := c.gh.SearchRepositories(ctx, q, "stars", trendingLimit)
		if err != nil {
			if github.KindOf(err) == github.KindRateLimited {
				return nil, err
			}
			lastErr = err
			continue
		}
		if len(repos) >= 3 {
			return repos, nil
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, nil
}

func (c *Controller) showPopular(ctx context.Context, r *request) error {
	var profiles, repos []models.EntityStat
	if c.journal != nil {
		since := c.opts.Now().Add(-popularWindow)
		var err error
		if profiles, err = c.journal.TopEntities(ctx, models.EntityProfile, popularLimit, since); err != nil {
			r.logger.Warn("Failed to load popular profiles", zap.Error(err))
		}
		if repos, err = c.journal.TopEntities(ctx, models.EntityRepository, popularLimit, since); err != nil {
			r.logger.Warn("Failed to load popular repositories", zap.Error(err))
		}
	}
	c.store.SetView(r.conv, viewstate.ViewHome, "popular")
	body, kb := popularScreen(profiles, repos)
	return c.commit(ctx, r, body, kb)
}

// refresh re-runs the current view, dropping cached data
func (c *Controller) refresh(ctx context.Context, r *request) error {
	st := c.store.Get(r.conv)
	switch st.View {
	case viewstate.ViewProfile, viewstate.ViewAvatar:
		r.action = ShowProfile{Username: st.Entity}
		return c.showProfile(ctx, r, st.Entity, true)
	case viewstate.ViewStats:
		r.action = ShowStats{Username: st.Entity}
		return c.showStats(ctx, r, st.Entity, true)
	case viewstate.ViewRepos, viewstate.ViewStarred, viewstate.ViewFollowers, viewstate.ViewFollowing:
		kind := listKinds[st.View]
		c.store.InvalidateBlob(r.conv, viewstate.BlobKey(st.View, strings.ToLower(st.Entity)))
		r.action = kind.action(st.Entity, st.Page+1)
		return c.showList(ctx, r, kind, st.Entity, st.Page+1)
	case viewstate.ViewRepository:
		r.action = ShowRepository{FullName: st.Entity}
		return c.showRepository(ctx, r, st.Entity, true)
	case viewstate.ViewSection:
		r.action = ShowRepoSection{Section: Section(st.Section)}
		return c.showSection(ctx, r, Section(st.Section))
	case viewstate.ViewReadme:
		c.store.InvalidateBlob(r.conv, viewstate.BlobKey(viewstate.ViewReadme, st.Entity))
		r.action = ShowReadmePage{Page: st.Page + 1}
		return c.showReadme(ctx, r, st.Page+1)
	case viewstate.ViewTrending:
		lang, rng, _ := strings.Cut(st.Entity, ":")
		r.action = ShowTrending{Language: lang, Range: rng}
		return c.showTrending(ctx, r, ShowTrending{Language: lang, Range: rng})
	case viewstate.ViewHome:
		if st.Entity == "popular" {
			r.action = ShowPopular{}
			return c.showPopular(ctx, r)
		}
		r.action = ShowHome{}
		return c.dispatch(ctx, r)
	default:
		r.action = ShowHome{}
		return c.dispatch(ctx, r)
	}
}

// back leaves the current view for its parent
func (c *Controller) back(ctx context.Context, r *request) error {
	st := c.store.Get(r.conv)
	switch st.View {
	case viewstate.ViewAvatar:
		return c.backFromAvatar(ctx, r, st)
	case viewstate.ViewRepos, viewstate.ViewStarred, viewstate.ViewFollowers, viewstate.ViewFollowing, viewstate.ViewStats:
		r.action = ShowProfile{Username: st.Entity}
		return c.showProfile(ctx, r, st.Entity, false)
	case viewstate.ViewSection, viewstate.ViewReadme:
		if st.Repo == nil {
			break
		}
		r.action = ShowRepository{FullName: st.Repo.FullName}
		return c.showRepository(ctx, r, st.Repo.FullName, false)
	}
	r.action = ShowHome{}
	return c.dispatch(ctx, r)
}

func (c *Controller) record(ctx context.Context, r *request, outcome string, d time.Duration) {
	if c.journal == nil {
		return
	}
	in := models.Interaction{
		ConversationID: r.conv,
		Action:         r.action.Name(),
		Outcome:        outcome,
		Duration:       d,
		CreatedAt:      c.opts.Now(),
	}
	switch a := r.action.(type) {
	case ShowProfile:
		in.Kind, in.Entity = models.EntityProfile, strings.ToLower(a.Username)
	case ShowRepository:
		in.Kind, in.Entity = models.EntityRepository, strings.ToLower(a.FullName)
	}

	jctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalTimeout)
	defer cancel()
	if err := c.journal.RecordInteraction(jctx, in); err != nil {
		r.logger.Warn("Failed to record interaction", zap.Error(err))
	}
}
