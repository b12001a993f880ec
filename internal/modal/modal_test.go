package modal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/ziadkadry99/kqlcatalog/internal/content"
)

var aws = content.Platform{Key: "aws", Name: "Amazon Web Services"}

// fakeFetcher serves resources keyed by "<kind>/<id>". Requests for ids in
// gates block until the gate channel is closed.
type fakeFetcher struct {
	mu        sync.Mutex
	resources map[string]string
	gates     map[string]chan struct{}
	started   chan string
}

func newFakeFetcher(resources map[string]string) *fakeFetcher {
	return &fakeFetcher{resources: resources, gates: map[string]chan struct{}{}}
}

func (f *fakeFetcher) Fetch(ctx context.Context, kind content.Kind, p content.Platform, id string) (string, error) {
	f.mu.Lock()
	gate := f.gates[id]
	started := f.started
	body, ok := f.resources[string(kind)+"/"+id]
	f.mu.Unlock()

	if started != nil {
		started <- id
	}
	if gate != nil {
		<-gate
	}
	if !ok {
		path, _ := content.ResourcePath(kind, p, id)
		return "", &content.FetchError{Status: http.StatusNotFound, Path: path, Err: errors.New("not found")}
	}
	return body, nil
}

// recordingView tracks which modals are visible and what they show.
type recordingView struct {
	mu      sync.Mutex
	visible map[string]string
	shows   []string
}

func newRecordingView() *recordingView {
	return &recordingView{visible: map[string]string{}}
}

func (v *recordingView) Show(id, frag string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.visible[id] = frag
	v.shows = append(v.shows, id)
}

func (v *recordingView) Hide(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.visible, id)
}

func (v *recordingView) snapshot() map[string]string {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make(map[string]string, len(v.visible))
	for k, s := range v.visible {
		out[k] = s
	}
	return out
}

func doc(t *testing.T, s string) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	require.NoError(t, err)
	return d
}

func TestOpenQueryNotFoundShowsErrorFragment(t *testing.T) {
	view := newRecordingView()
	c := NewController(newFakeFetcher(nil), view)

	s, err := c.Open(context.Background(), Request{ID: "q1", Kind: content.KindQuery, Platform: aws})
	require.NoError(t, err)
	require.Equal(t, StatePopulated, s.State)
	require.Contains(t, s.Fragment, "404")
	require.Contains(t, s.Fragment, "/Amazon Web Services/Queries/q1.kql")
	require.Contains(t, s.Fragment, "Error Loading Query")

	id, ok := c.Active()
	require.True(t, ok)
	require.Equal(t, "q1", id)
	require.Equal(t, s.Fragment, view.snapshot()["q1"])

	_, ok = c.CopyText("q1")
	require.False(t, ok, "failed queries cache no text")
}

func TestOpenQueryComposesShellAndExplanation(t *testing.T) {
	f := newFakeFetcher(map[string]string{
		"query/ATT4CKQL - AWS - IMDSv1.kql": "AWSCloudTrail\n| where x < 5",
		"explanation/aws-imdsv1-kql":        `<h3>How it works</h3><script>alert(1)</script>`,
	})
	c := NewController(f, nil)

	s, err := c.Open(context.Background(), Request{
		ID: "aws-imdsv1-kql", Kind: content.KindQuery, Platform: aws,
		FileName: "ATT4CKQL - AWS - IMDSv1.kql",
	})
	require.NoError(t, err)

	d := doc(t, s.Fragment)
	require.Equal(t, 1, d.Find(".modal-content").Length())
	require.Equal(t, "aws-imdsv1-kql", d.Find(".modal-content > .close-btn").AttrOr("data-dismiss", ""))
	require.Equal(t, "ATT4CKQL - AWS - IMDSv1 - Detection Query", d.Find(".modal-title").Text())
	require.Equal(t, "AWSCloudTrail\n| where x < 5", d.Find("pre.kql-query code").Text())
	require.Contains(t, s.Fragment, "x &lt; 5", "query text must be escaped")
	require.Equal(t, 1, d.Find(`button[data-action="copy"]`).Length())
	require.Equal(t, "#explanation-section", d.Find(`button[data-action="explain"]`).AttrOr("data-target", ""))
	require.Equal(t, "How it works", d.Find("#explanation-section h3").Text())
	require.NotContains(t, s.Fragment, "<script>")

	text, ok := c.CopyText("aws-imdsv1-kql")
	require.True(t, ok)
	require.Equal(t, "AWSCloudTrail\n| where x < 5", text)
}

func TestOpenQueryMissingExplanation(t *testing.T) {
	f := newFakeFetcher(map[string]string{"query/s3.kql": "S3"})
	c := NewController(f, nil)

	s, err := c.Open(context.Background(), Request{ID: "aws-s3-kql", Kind: content.KindQuery, Platform: aws, FileName: "s3.kql"})
	require.NoError(t, err)
	d := doc(t, s.Fragment)
	require.Equal(t, "S3", d.Find("pre.kql-query code").Text())
	require.Contains(t, d.Find("#explanation-section").Text(), "Explanation content not available.")
}

func TestOpenLogNormalizesContent(t *testing.T) {
	f := newFakeFetcher(map[string]string{
		"log/imdsv1-logs": `<div class="modal-content"><span class="close-btn" onclick="closeModal('other')">&times;</span><table class="log-table"><tr><td>1</td></tr></table></div>`,
	})
	c := NewController(f, nil)

	s, err := c.Open(context.Background(), Request{ID: "imdsv1-logs", Kind: content.KindLog, Platform: aws})
	require.NoError(t, err)
	d := doc(t, s.Fragment)
	require.Equal(t, 1, d.Find(".close-btn").Length())
	require.Equal(t, "imdsv1-logs", d.Find(".close-btn").AttrOr("data-dismiss", ""))
	require.Equal(t, 1, d.Find(".table-wrapper > table.log-table").Length())
	require.Empty(t, s.BodyText)
}

func TestOpenSupersededResultIsDropped(t *testing.T) {
	f := newFakeFetcher(map[string]string{
		"log/a": "<p>A</p>",
		"log/b": "<p>B</p>",
	})
	gate := make(chan struct{})
	f.gates["a"] = gate
	f.started = make(chan string, 4)

	view := newRecordingView()
	c := NewController(f, view)

	errA := make(chan error, 1)
	go func() {
		_, err := c.Open(context.Background(), Request{ID: "a", Kind: content.KindLog, Platform: aws})
		errA <- err
	}()
	require.Equal(t, "a", <-f.started)

	s, err := c.Open(context.Background(), Request{ID: "b", Kind: content.KindLog, Platform: aws})
	require.NoError(t, err)
	require.Equal(t, "b", <-f.started)
	require.Contains(t, s.Fragment, "<p>B</p>")

	close(gate)
	require.ErrorIs(t, <-errA, ErrSuperseded)

	id, ok := c.Active()
	require.True(t, ok)
	require.Equal(t, "b", id)
	visible := view.snapshot()
	require.Len(t, visible, 1)
	require.Contains(t, visible["b"], "<p>B</p>")
	view.mu.Lock()
	defer view.mu.Unlock()
	require.Equal(t, []string{"a", "b", "b"}, view.shows, "a's content is never shown")
}

func TestCloseDuringLoadDropsResult(t *testing.T) {
	f := newFakeFetcher(map[string]string{"log/a": "<p>A</p>"})
	gate := make(chan struct{})
	f.gates["a"] = gate
	f.started = make(chan string, 1)
	view := newRecordingView()
	c := NewController(f, view)

	errA := make(chan error, 1)
	go func() {
		_, err := c.Open(context.Background(), Request{ID: "a", Platform: aws})
		errA <- err
	}()
	<-f.started
	s, ok := c.Session()
	require.True(t, ok)
	require.Equal(t, StateLoading, s.State)
	require.Contains(t, view.snapshot()["a"], "Loading content...")

	require.True(t, c.Close("a"))
	close(gate)
	require.ErrorIs(t, <-errA, ErrSuperseded)
	require.Empty(t, view.snapshot())
}

func TestClose(t *testing.T) {
	f := newFakeFetcher(map[string]string{"log/a": "<p>A</p>"})
	view := newRecordingView()
	c := NewController(f, view)

	require.False(t, c.Close(""), "nothing active")
	_, err := c.Open(context.Background(), Request{ID: "a", Platform: aws})
	require.NoError(t, err)

	require.False(t, c.Close("other"))
	_, ok := c.Active()
	require.True(t, ok)

	require.True(t, c.Close(""))
	_, ok = c.Active()
	require.False(t, ok)
	require.Empty(t, view.snapshot())
}

func TestOpenRequiresID(t *testing.T) {
	c := NewController(newFakeFetcher(nil), nil)
	_, err := c.Open(context.Background(), Request{Kind: content.KindLog})
	require.Error(t, err)
}

func TestAtMostOneVisibleProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ids := []string{"a", "b", "c", "missing"}
		f := newFakeFetcher(map[string]string{
			"log/a": "<p>A</p>",
			"log/b": `<div class="modal-content"><p>B</p></div>`,
			"log/c": "<table class=\"log-table\"><tr><td>C</td></tr></table>",
		})
		view := newRecordingView()
		c := NewController(f, view)

		steps := rapid.IntRange(1, 20).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			id := rapid.SampledFrom(ids).Draw(t, "id")
			if rapid.Bool().Draw(t, "open") {
				if _, err := c.Open(context.Background(), Request{ID: id, Platform: aws}); err != nil {
					t.Fatalf("open %s: %v", id, err)
				}
			} else {
				c.Close(rapid.SampledFrom(append(ids, "")).Draw(t, "closeID"))
			}

			visible := view.snapshot()
			if len(visible) > 1 {
				t.Fatalf("step %d: %d modals visible", i, len(visible))
			}
			active, ok := c.Active()
			if ok != (len(visible) == 1) {
				t.Fatalf("step %d: active=%v but %d visible", i, ok, len(visible))
			}
			if _, shown := visible[active]; ok && !shown {
				t.Fatalf("step %d: active %s is not the visible modal", i, active)
			}
		}
	})
}

func TestErrorFragmentTransportFailure(t *testing.T) {
	err := &content.FetchError{Path: "http://x/Azure/logs/a.html", Err: fmt.Errorf("connection refused")}
	d := doc(t, ErrorFragment("a", content.KindLog, err))
	require.Equal(t, "Error Loading Content", d.Find(".modal-title").Text())
	require.Contains(t, d.Find(".modal-body").Text(), "connection refused")
	require.Contains(t, d.Find(".modal-body").Text(), "Path attempted: http://x/Azure/logs/a.html")
	require.NotContains(t, d.Find(".modal-body").Text(), "Status:")
}
