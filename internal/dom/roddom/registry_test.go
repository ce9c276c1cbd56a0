package roddom

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ysmood/gson"
)

func Test_RegistryDispatch(t *testing.T) {
	r := newRegistry(time.Hour)
	fired := make(chan struct{}, 2)
	id := r.add(false, func() { fired <- struct{}{} })

	res, err := r.dispatch(gson.New(id))
	require.NoError(t, err)
	assert.Equal(t, true, res)

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("handler did not run")
	}
	assert.Equal(t, 1, r.len())
}

func Test_RegistryOnceHandler(t *testing.T) {
	r := newRegistry(time.Hour)
	fired := make(chan struct{}, 2)
	id := r.add(true, func() { fired <- struct{}{} })

	assert.True(t, r.fire(id))
	assert.False(t, r.fire(id))
	assert.Equal(t, 0, r.len())

	<-fired
	assert.Empty(t, fired)
}

func Test_RegistryRemove(t *testing.T) {
	r := newRegistry(0)
	id := r.add(false, func() { t.Error("removed handler ran") })
	r.remove(id)

	assert.False(t, r.fire(id))
	res, err := r.dispatch(gson.New("unknown"))
	require.NoError(t, err)
	assert.Equal(t, false, res)
}

func Test_RegistryExpires(t *testing.T) {
	r := newRegistry(20 * time.Millisecond)
	id := r.add(false, func() {})

	assert.Eventually(t, func() bool { return !r.fire(id) }, time.Second, 5*time.Millisecond)
}
