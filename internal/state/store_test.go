package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoreDispatchReportsChange(t *testing.T) {
	st := NewStore()

	_, changed := st.Dispatch(SetSectionCount{Count: 3})
	assert.True(t, changed)

	_, changed = st.Dispatch(bogusAction{})
	assert.False(t, changed)

	s, _ := st.Dispatch(SetCurrentIndex{Index: 2})
	assert.Equal(t, 2, s.CurrentSection)
	assert.Equal(t, 2, st.State().CurrentSection)
}

func TestStoreConcurrentDispatch(t *testing.T) {
	st := NewStore()
	st.Dispatch(SetSectionCount{Count: 100})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			st.Dispatch(SetCurrentIndex{Index: i})
			_ = st.State()
		}(i)
	}
	wg.Wait()

	assert.True(t, st.State().InBounds(st.State().CurrentSection))
}
