package memdom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Philanthropists/autofinish/internal/dom"
)

const page = `<html><body>
<div id="coursetree">
  <div class="posCatalog_select"><span class="posCatalog_name" id="a">A</span></div>
  <div class="posCatalog_select posCatalog_active"><span class="posCatalog_name" id="b">B</span></div>
</div>
<video id="player"></video>
</body></html>`

func Test_QuerySelectorFindsDescendants(t *testing.T) {
	doc := MustParse(page)
	body := doc.MustBody()

	el, err := body.QuerySelector("#coursetree")
	require.NoError(t, err)
	require.NotNil(t, el)
	assert.Equal(t, "DIV", el.TagName())
	assert.Same(t, doc.ByID("coursetree"), el)

	none, err := body.QuerySelector("#missing")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func Test_QuerySelectorAllKeepsDocumentOrder(t *testing.T) {
	doc := MustParse(page)

	all, err := doc.ByID("coursetree").QuerySelectorAll(".posCatalog_name")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].(*Element).ID())
	assert.Equal(t, "b", all[1].(*Element).ID())
}

func Test_QuerySelectorExcludesRoot(t *testing.T) {
	doc := MustParse(page)

	el, err := doc.ByID("coursetree").QuerySelector("div")
	require.NoError(t, err)
	require.NotNil(t, el)
	assert.NotSame(t, doc.ByID("coursetree"), el)
}

func Test_InvalidSelectorIsAnError(t *testing.T) {
	doc := MustParse(page)

	_, err := doc.MustBody().QuerySelector("[[")
	assert.True(t, Error.Has(err))
}

func Test_ParentAndClasses(t *testing.T) {
	doc := MustParse(page)

	p, err := doc.ByID("b").Parent()
	require.NoError(t, err)
	active, err := p.HasClass("posCatalog_active")
	require.NoError(t, err)
	assert.True(t, active)

	p, err = doc.ByID("a").Parent()
	require.NoError(t, err)
	active, err = p.HasClass("posCatalog_active")
	require.NoError(t, err)
	assert.False(t, active)
}

func Test_ObserversSeeSubtreeMutations(t *testing.T) {
	doc := MustParse(page)
	body := doc.MustBody()

	var calls int
	cancel, err := body.Observe(func() { calls++ })
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Observers())

	_, err = doc.ByID("coursetree").AppendHTML(`<p>deep</p>`)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	doc.ByID("a").Remove()
	assert.Equal(t, 2, calls)

	cancel()
	cancel()
	assert.Equal(t, 0, doc.Observers())

	_, err = body.AppendIFrame("//example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func Test_ObserverCallbackMayQuery(t *testing.T) {
	doc := MustParse(page)
	body := doc.MustBody()

	var found dom.Element
	cancel, err := body.Observe(func() {
		found, _ = body.QuerySelector("#late")
	})
	require.NoError(t, err)
	defer cancel()

	_, err = body.AppendHTML(`<div id="late"></div>`)
	require.NoError(t, err)
	assert.NotNil(t, found)
}

func Test_OnceListenerFiresOnce(t *testing.T) {
	doc := MustParse(page)
	video := doc.ByID("player")

	var once, always int
	_, err := video.AddEventListener("ended", dom.ListenerOptions{Once: true}, func() { once++ })
	require.NoError(t, err)
	_, err = video.AddEventListener("ended", dom.ListenerOptions{}, func() { always++ })
	require.NoError(t, err)

	video.Dispatch("ended")
	video.Dispatch("ended")

	assert.Equal(t, 1, once)
	assert.Equal(t, 2, always)
	assert.Equal(t, 1, video.Listeners("ended"))
}

func Test_CancelledListenerDoesNotFire(t *testing.T) {
	doc := MustParse(page)
	entry := doc.ByID("a")

	var calls int
	cancel, err := entry.AddEventListener("click", dom.ListenerOptions{}, func() { calls++ })
	require.NoError(t, err)
	cancel()

	require.NoError(t, entry.Click())
	assert.Equal(t, 0, calls)
	assert.Equal(t, 1, entry.Clicks())
}

func Test_FrameDocumentAttachesOnLoad(t *testing.T) {
	doc := MustParse(`<body><iframe id="f"></iframe></body>`)
	frame := doc.ByID("f")

	inner, err := frame.ContentDocument()
	require.NoError(t, err)
	assert.Nil(t, inner)

	var loaded bool
	_, err = frame.AddEventListener("load", dom.ListenerOptions{Once: true}, func() { loaded = true })
	require.NoError(t, err)

	child := MustParse(`<body><p>inner</p></body>`)
	frame.AttachDocument(child)

	assert.True(t, loaded)
	inner, err = frame.ContentDocument()
	require.NoError(t, err)
	assert.Same(t, child, inner)

	_, err = doc.MustBody().ContentDocument()
	assert.True(t, Error.Has(err))
}

func Test_MediaControls(t *testing.T) {
	doc := MustParse(page)
	video := doc.ByID("player")

	require.NoError(t, video.Play())
	require.NoError(t, video.SetVolume(0.01))
	assert.True(t, video.Playing())
	assert.InDelta(t, 0.01, video.Volume(), 1e-9)

	assert.Error(t, video.SetVolume(2))
	assert.Error(t, doc.ByID("a").Play())
}

func Test_DocumentLevelActions(t *testing.T) {
	doc := MustParse(page)

	require.NoError(t, doc.SuppressEvent("mouseout"))
	require.NoError(t, doc.Reload())

	assert.Equal(t, []string{"mouseout"}, doc.Suppressed())
	assert.Equal(t, 1, doc.Reloads())
}
