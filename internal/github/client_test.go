package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(Config{
		BaseURL:        srv.URL,
		Token:          "secret",
		Timeout:        2 * time.Second,
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
	}, zap.NewNop())
}

func TestGetUser_SendsHeaders(t *testing.T) {
	c := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/octocat", r.URL.Path)
		assert.Equal(t, "token secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/vnd.github.v3+json", r.Header.Get("Accept"))
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		fmt.Fprint(w, `{"login":"octocat","name":"The Octocat","followers":42,"created_at":"2011-01-25T18:44:36Z"}`)
	})

	u, err := c.GetUser(context.Background(), "octocat")
	require.NoError(t, err)
	assert.Equal(t, "octocat", u.Login)
	assert.Equal(t, 42, u.Followers)
	assert.Equal(t, 2011, u.CreatedAt.Year())
}

func TestGet_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"full_name":"golang/go","stargazers_count":120000}`)
	})

	repo, err := c.GetRepository(context.Background(), "golang/go")
	require.NoError(t, err)
	assert.Equal(t, "golang/go", repo.FullName)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGet_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	c := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.GetRepository(context.Background(), "golang/go")
	require.Error(t, err)
	assert.Equal(t, KindUnknown, KindOf(err))
	assert.Equal(t, int32(3), calls.Load())
}

func TestGet_NotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.GetRepository(context.Background(), "missing/repo")
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, int32(1), calls.Load())

	var ge *Error
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, http.StatusNotFound, ge.Status)
}

func TestGet_RateLimited(t *testing.T) {
	c := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := c.GetUser(context.Background(), "octocat")
	assert.Equal(t, KindRateLimited, KindOf(err))
}

func TestGet_ForbiddenWithoutRateLimit(t *testing.T) {
	c := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := c.GetUser(context.Background(), "octocat")
	assert.Equal(t, KindUnknown, KindOf(err))
}

func TestGet_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := NewClient(Config{BaseURL: srv.URL, MaxRetries: 1, InitialBackoff: time.Millisecond}, zap.NewNop())

	_, err := c.GetUser(context.Background(), "octocat")
	assert.Equal(t, KindNetwork, KindOf(err))
}

func TestGet_Timeout(t *testing.T) {
	c := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})
	c.http.Timeout = 20 * time.Millisecond
	c.cfg.MaxRetries = 0

	_, err := c.GetUser(context.Background(), "octocat")
	assert.Equal(t, KindNetwork, KindOf(err))
}

func TestGet_SharesConcurrentRequests(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	c := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		fmt.Fprint(w, `{"login":"octocat"}`)
	})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u, err := c.GetUser(context.Background(), "octocat")
			assert.NoError(t, err)
			assert.Equal(t, "octocat", u.Login)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestReadme_DecodesBase64(t *testing.T) {
	content := base64.StdEncoding.EncodeToString([]byte("# Hello\n\nWorld"))
	wrapped := content[:8] + "\n" + content[8:]
	c := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/golang/go/readme", r.URL.Path)
		fmt.Fprintf(w, `{"content":%q,"encoding":"base64"}`, wrapped)
	})

	text, err := c.Readme(context.Background(), "https://github.com/Golang/Go")
	require.NoError(t, err)
	assert.Equal(t, "# Hello\n\nWorld", text)
}

func TestListIssues_FiltersPullRequests(t *testing.T) {
	c := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "open", r.URL.Query().Get("state"))
		fmt.Fprint(w, `[{"number":1,"title":"bug"},{"number":2,"title":"pr","pull_request":{"url":"x"}},{"number":3,"title":"feature"}]`)
	})

	issues, err := c.ListIssues(context.Background(), "golang/go", 10)
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, 1, issues[0].Number)
	assert.Equal(t, 3, issues[1].Number)
}

func TestListFollowers_FetchesAllPages(t *testing.T) {
	c := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		n := listPageSize
		if r.URL.Query().Get("page") == "2" {
			n = 3
		}
		items := make([]string, n)
		for i := range items {
			items[i] = fmt.Sprintf(`{"login":"u%d"}`, i)
		}
		fmt.Fprintf(w, "[%s]", strings.Join(items, ","))
	})

	followers, err := c.ListFollowers(context.Background(), "octocat")
	require.NoError(t, err)
	assert.Len(t, followers, listPageSize+3)
}

func TestLanguages_SortedBySize(t *testing.T) {
	c := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Shell":10,"Go":900,"Assembly":90}`)
	})

	langs, err := c.Languages(context.Background(), "golang/go")
	require.NoError(t, err)
	assert.Equal(t, []Language{{"Go", 900}, {"Assembly", 90}, {"Shell", 10}}, langs)
}

func TestSearchRepositories(t *testing.T) {
	c := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "language:Go stars:>100", q.Get("q"))
		assert.Equal(t, "stars", q.Get("sort"))
		assert.Equal(t, "desc", q.Get("order"))
		assert.Equal(t, "10", q.Get("per_page"))
		fmt.Fprint(w, `{"total_count":1,"items":[{"full_name":"golang/go"}]}`)
	})

	repos, err := c.SearchRepositories(context.Background(), "language:Go stars:>100", "", 10)
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, "golang/go", repos[0].FullName)
}

func TestCleanRepoName(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"golang/go", "golang/go", true},
		{"  Golang/Go  ", "golang/go", true},
		{"https://github.com/golang/go", "golang/go", true},
		{"http://github.com/golang/go.git", "golang/go", true},
		{"github.com/golang/go/tree/master/src", "golang/go", true},
		{"www.github.com/golang/go/", "golang/go", true},
		{"golang", "", false},
		{"/go", "", false},
		{"bad/na*me", "", false},
	}
	for _, tt := range tests {
		got, ok := CleanRepoName(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestValidUsername(t *testing.T) {
	assert.True(t, ValidUsername("octocat"))
	assert.True(t, ValidUsername("a-b-c"))
	assert.False(t, ValidUsername("-octo"))
	assert.False(t, ValidUsername("octo--cat"))
	assert.False(t, ValidUsername(strings.Repeat("a", 40)))
	assert.False(t, ValidUsername("has space"))
}

func TestProfileFromURL(t *testing.T) {
	login, ok := ProfileFromURL("https://github.com/Octocat/")
	assert.True(t, ok)
	assert.Equal(t, "Octocat", login)

	_, ok = ProfileFromURL("https://github.com/golang/go")
	assert.False(t, ok)

	_, ok = ProfileFromURL("octocat")
	assert.False(t, ok)
}
