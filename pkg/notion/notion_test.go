package notion

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtnitsch/notion-clipper/models"
	"github.com/dtnitsch/notion-clipper/pkg/budget"
)

var fastPolicy = Policy{Delays: []time.Duration{time.Millisecond, time.Millisecond}}

func testPage() *models.Page {
	return &models.Page{
		Title: "A page",
		Blocks: []models.Block{
			models.Paragraph(
				models.Run{Text: "plain "},
				models.Run{Text: "bold", Style: models.Style{Bold: true}},
				models.Run{Text: " link", LinkTarget: "https://example.com"},
			),
			{Kind: models.ImageBlock, ImageURL: "https://i.imgur.com/a.png", Caption: "cat"},
			budget.TruncationNotice(3),
		},
	}
}

func TestBuildCreatePageRequest(t *testing.T) {
	req := BuildCreatePageRequest("db-1", "", testPage())

	data, err := json.Marshal(req)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Equal(t, "db-1", got["parent"].(map[string]any)["database_id"])
	title := got["properties"].(map[string]any)["Name"].(map[string]any)["title"].([]any)
	assert.Equal(t, "A page", title[0].(map[string]any)["text"].(map[string]any)["content"])

	children := got["children"].([]any)
	require.Len(t, children, 3)

	para := children[0].(map[string]any)
	assert.Equal(t, "paragraph", para["type"])
	rich := para["paragraph"].(map[string]any)["rich_text"].([]any)
	require.Len(t, rich, 3)
	assert.Nil(t, rich[0].(map[string]any)["annotations"])
	ann := rich[1].(map[string]any)["annotations"].(map[string]any)
	assert.Equal(t, true, ann["bold"])
	assert.Equal(t, "default", ann["color"])
	link := rich[2].(map[string]any)["text"].(map[string]any)["link"].(map[string]any)
	assert.Equal(t, "https://example.com", link["url"])

	img := children[1].(map[string]any)
	assert.Equal(t, "image", img["type"])
	assert.Equal(t, "https://i.imgur.com/a.png", img["image"].(map[string]any)["external"].(map[string]any)["url"])

	callout := children[2].(map[string]any)
	assert.Equal(t, "callout", callout["type"])
	body := callout["callout"].(map[string]any)
	assert.Equal(t, "yellow_background", body["color"])
	assert.Equal(t, "✂️", body["icon"].(map[string]any)["emoji"])
}

func TestBuildCreatePageRequest_LongTitleCut(t *testing.T) {
	page := &models.Page{Title: strings.Repeat("あ", 2500)}
	req := BuildCreatePageRequest("db", "Title", page)
	assert.Len(t, []rune(req.Properties["Title"].Title[0].Text.Content), 2000)
	assert.Empty(t, req.Children)
}

func TestCreatePage_Headers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/pages", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "2022-06-28", r.Header.Get("Notion-Version"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = io.WriteString(w, `{"object":"page","id":"p1","url":"https://notion.so/p1"}`)
	}))
	defer srv.Close()

	c := New("secret", WithBaseURL(srv.URL), WithPolicy(fastPolicy))
	resp, err := c.CreatePage(context.Background(), BuildCreatePageRequest("db", "", testPage()))
	require.NoError(t, err)
	assert.Equal(t, "p1", resp.ID)
	assert.Equal(t, "https://notion.so/p1", resp.URL)
}

func TestCreatePage_MissingToken(t *testing.T) {
	c := New("")
	_, err := c.CreatePage(context.Background(), &CreatePageRequest{})
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestCreatePage_RetriesTransientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = io.WriteString(w, `{"object":"error","status":503,"code":"service_unavailable","message":"try later"}`)
			return
		}
		_, _ = io.WriteString(w, `{"id":"p2"}`)
	}))
	defer srv.Close()

	c := New("t", WithBaseURL(srv.URL), WithPolicy(fastPolicy))
	resp, err := c.CreatePage(context.Background(), &CreatePageRequest{})
	require.NoError(t, err)
	assert.Equal(t, "p2", resp.ID)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestCreatePage_GivesUpAfterPolicy(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"status":429,"code":"rate_limited","message":"slow down"}`)
	}))
	defer srv.Close()

	c := New("t", WithBaseURL(srv.URL), WithPolicy(fastPolicy))
	_, err := c.CreatePage(context.Background(), &CreatePageRequest{})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 429, apiErr.Status)
	assert.Equal(t, "rate_limited", apiErr.Code)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestCreatePage_ValidationErrorNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"status":400,"code":"validation_error","message":"body.children[0] is invalid"}`)
	}))
	defer srv.Close()

	c := New("t", WithBaseURL(srv.URL), WithPolicy(fastPolicy))
	_, err := c.CreatePage(context.Background(), &CreatePageRequest{})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.False(t, apiErr.IsImageRejection())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestPolicy_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{Delays: []time.Duration{time.Hour}}

	err := p.Do(ctx, func(ctx context.Context, attempt int) error {
		cancel()
		return &APIError{Status: 500}
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPolicy_RetryAfterWins(t *testing.T) {
	p := Policy{Delays: []time.Duration{time.Millisecond}}
	start := time.Now()
	attempts := 0
	err := p.Do(context.Background(), func(ctx context.Context, attempt int) error {
		attempts = attempt
		if attempt == 1 {
			return &APIError{Status: 429, RetryAfter: 50 * time.Millisecond}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestAPIError_IsImageRejection(t *testing.T) {
	tests := []struct {
		err  APIError
		want bool
	}{
		{APIError{Status: 400, Message: "body.children[2].image.external.url should be a valid URL"}, true},
		{APIError{Status: 400, Message: "Invalid Image url"}, true},
		{APIError{Status: 400, Message: "title is too long"}, false},
		{APIError{Status: 500, Message: "image service down"}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.IsImageRejection(), tt.err.Message)
	}
}

func TestSaveWithFallback_StripsImages(t *testing.T) {
	var mu sync.Mutex
	var bodies []CreatePageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req CreatePageRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		mu.Lock()
		bodies = append(bodies, req)
		mu.Unlock()

		for _, b := range req.Children {
			if b.Type == "image" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = io.WriteString(w, `{"status":400,"code":"validation_error","message":"Could not fetch image"}`)
				return
			}
		}
		_, _ = io.WriteString(w, `{"id":"p3"}`)
	}))
	defer srv.Close()

	c := New("t", WithBaseURL(srv.URL), WithPolicy(NoRetry))
	page := testPage()
	res, err := c.SaveWithFallback(context.Background(), Target{DatabaseID: "db", MaxBlocks: 95}, page)
	require.NoError(t, err)

	assert.Equal(t, "p3", res.Page.ID)
	assert.Equal(t, 1, res.ImagesStripped)
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, bodies, 2)

	second := bodies[1].Children
	require.Len(t, second, 3)
	assert.Equal(t, "callout", second[0].Type)
	assert.Contains(t, second[0].Callout.RichText[0].Text.Content, "1 image")
	assert.Equal(t, "paragraph", second[1].Type)
	assert.Equal(t, "callout", second[2].Type)

	// The caller's page is untouched.
	assert.Len(t, page.Blocks, 3)
	assert.Equal(t, models.ImageBlock, page.Blocks[1].Kind)
}

func TestSaveWithFallback_OtherErrorsPassThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"status":401,"code":"unauthorized","message":"API token is invalid."}`)
	}))
	defer srv.Close()

	c := New("t", WithBaseURL(srv.URL), WithPolicy(NoRetry))
	_, err := c.SaveWithFallback(context.Background(), Target{DatabaseID: "db"}, testPage())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 401, apiErr.Status)
}

func TestSaveWithFallback_NoImagesToStrip(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"status":400,"code":"validation_error","message":"image is invalid"}`)
	}))
	defer srv.Close()

	c := New("t", WithBaseURL(srv.URL), WithPolicy(NoRetry))
	page := &models.Page{Title: "x", Blocks: []models.Block{models.Paragraph(models.Run{Text: "hi"})}}
	_, err := c.SaveWithFallback(context.Background(), Target{DatabaseID: "db"}, page)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
