package scroll

// NativeProvider is the fallback provider: the host scrolls natively and
// there is no cursor to keep in sync
type NativeProvider struct{}

func (NativeProvider) Follow(float64) {}
func (NativeProvider) Sync(float64)   {}
func (NativeProvider) Pause()         {}
func (NativeProvider) Resume()        {}
func (NativeProvider) Destroy()       {}

// NopEffects is used when no effects library is present
type NopEffects struct{}

func (NopEffects) Refresh() {}
func (NopEffects) KillAll() {}

// NopObserver is used when input is bound per event
type NopObserver struct{}

func (NopObserver) Enable()  {}
func (NopObserver) Disable() {}
func (NopObserver) Destroy() {}
