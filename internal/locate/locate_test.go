package locate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Philanthropists/autofinish/internal/dom"
	"github.com/Philanthropists/autofinish/internal/dom/memdom"
	"github.com/Philanthropists/autofinish/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// countingRoot records how often Observe is called on the wrapped element.
type countingRoot struct {
	dom.Element
	observed int
}

func (c *countingRoot) Observe(fn func()) (dom.CancelFunc, error) {
	c.observed++
	return c.Element.Observe(fn)
}

type brokenRoot struct {
	dom.Element
}

func (brokenRoot) Observe(func()) (dom.CancelFunc, error) {
	return nil, errors.New("observer unavailable")
}

const fixture = `<body>
<div id="list"><span class="item" id="one"></span><span class="item" id="two"></span><b class="item" id="three"></b></div>
<iframe id="iframe"></iframe>
</body>`

func Test_FindOne(t *testing.T) {
	doc := memdom.MustParse(fixture)
	body := doc.MustBody()

	el, err := FindOne(body, Query{Selector: "#iframe", Tag: "IFRAME"}).Unwrap()
	require.NoError(t, err)
	assert.Same(t, doc.ByID("iframe"), el)

	r := FindOne(body, Query{Selector: "#missing"})
	assert.True(t, types.IsElementNotFound(r.Err()))

	r = FindOne(body, Query{Selector: "#iframe", Tag: "VIDEO"})
	assert.True(t, types.IsElementNotFound(r.Err()))

	r = FindOne(body, Query{Selector: "::bad("})
	assert.True(t, types.IsElementNotFound(r.Err()))
}

func Test_FindAll(t *testing.T) {
	doc := memdom.MustParse(fixture)
	list := doc.ByID("list")

	t.Run("no matches fails", func(t *testing.T) {
		r := FindAll(list, Query{Selector: ".missing"})
		assert.True(t, types.IsElementNotFound(r.Err()))
	})

	t.Run("all matches in document order", func(t *testing.T) {
		els, err := FindAll(list, Query{Selector: ".item"}).Unwrap()
		require.NoError(t, err)
		require.Len(t, els, 3)
		assert.Same(t, doc.ByID("one"), els[0])
		assert.Same(t, doc.ByID("two"), els[1])
		assert.Same(t, doc.ByID("three"), els[2])
	})

	t.Run("wrong tag among matches fails", func(t *testing.T) {
		r := FindAll(list, Query{Selector: ".item", Tag: "SPAN"})
		assert.True(t, types.IsElementNotFound(r.Err()))
	})

	t.Run("tag filter satisfied", func(t *testing.T) {
		els, err := FindAll(list, Query{Selector: "span.item", Tag: "SPAN"}).Unwrap()
		require.NoError(t, err)
		assert.Len(t, els, 2)
	})
}

func Test_AwaitElementFastPathDoesNotObserve(t *testing.T) {
	doc := memdom.MustParse(fixture)
	root := &countingRoot{Element: doc.MustBody()}

	start := time.Now()
	el, err := AwaitElement(context.Background(), WaitOptions{
		Timeout: time.Second,
		Root:    root,
		Locator: One(root, Query{Selector: "#iframe", Tag: "IFRAME"}),
	}).Unwrap()

	require.NoError(t, err)
	assert.Same(t, doc.ByID("iframe"), el)
	assert.Equal(t, 0, root.observed)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func Test_AwaitElementTimesOutAndReleases(t *testing.T) {
	doc := memdom.MustParse(fixture)
	body := doc.MustBody()
	const timeout = 100 * time.Millisecond

	start := time.Now()
	r := AwaitElement(context.Background(), WaitOptions{
		Timeout: timeout,
		Root:    body,
		Locator: One(body, Query{Selector: "#video_html5_api", Tag: "VIDEO"}),
	})

	assert.True(t, types.IsElementNotFound(r.Err()))
	assert.GreaterOrEqual(t, time.Since(start), timeout)
	assert.Equal(t, 0, doc.Observers())
}

func Test_AwaitElementResolvesOnMutation(t *testing.T) {
	doc := memdom.MustParse(fixture)
	body := doc.MustBody()
	const delay = 50 * time.Millisecond

	go func() {
		time.Sleep(delay)
		_, _ = body.AppendHTML(`<div><video id="video_html5_api"></video></div>`)
	}()

	start := time.Now()
	el, err := AwaitElement(context.Background(), WaitOptions{
		Timeout: 2 * time.Second,
		Root:    body,
		Locator: One(body, Query{Selector: "#video_html5_api", Tag: "VIDEO"}),
	}).Unwrap()
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, "VIDEO", el.TagName())
	assert.GreaterOrEqual(t, elapsed, delay)
	assert.Less(t, elapsed, time.Second)
	assert.Equal(t, 0, doc.Observers())
}

func Test_AwaitElementIgnoresUnrelatedMutations(t *testing.T) {
	doc := memdom.MustParse(fixture)
	body := doc.MustBody()

	go func() {
		time.Sleep(20 * time.Millisecond)
		_, _ = body.AppendHTML(`<p>noise</p>`)
		time.Sleep(20 * time.Millisecond)
		_, _ = body.AppendHTML(`<video id="video_html5_api"></video>`)
	}()

	el, err := AwaitElement(context.Background(), WaitOptions{
		Timeout: 2 * time.Second,
		Root:    body,
		Locator: One(body, Query{Selector: "#video_html5_api", Tag: "VIDEO"}),
	}).Unwrap()

	require.NoError(t, err)
	assert.Equal(t, "VIDEO", el.TagName())
}

func Test_AwaitElementStopsOnCancel(t *testing.T) {
	doc := memdom.MustParse(fixture)
	body := doc.MustBody()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	r := AwaitElement(ctx, WaitOptions{
		Timeout: 5 * time.Second,
		Root:    body,
		Locator: One(body, Query{Selector: "#never"}),
	})

	assert.True(t, types.IsElementNotFound(r.Err()))
	assert.ErrorIs(t, r.Err(), context.Canceled)
	assert.Equal(t, 0, doc.Observers())
}

func Test_AwaitElementObserveFailure(t *testing.T) {
	doc := memdom.MustParse(fixture)
	root := brokenRoot{Element: doc.MustBody()}

	r := AwaitElement(context.Background(), WaitOptions{
		Timeout: time.Second,
		Root:    root,
		Locator: One(root, Query{Selector: "#never"}),
	})

	assert.True(t, types.IsElementNotFound(r.Err()))
}
