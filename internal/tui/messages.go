package tui

// loadedMsg reports the end of a controller operation. Fetch failures are
// read from the controller with TakeError; err only carries failures that
// happened before any fetch, such as a rejected filter value.
type loadedMsg struct {
	err error
}

// bannerExpiredMsg dismisses the banner with the given sequence number.
type bannerExpiredMsg struct {
	seq int
}
