package segmento

// Close releases the caches held by the engine. Further predictions fail
// with ErrClosed. Close is idempotent.
func (e *Engine) Close() error {
	if e == nil {
		return nil
	}
	var firstErr error
	e.closeOnce.Do(func() {
		e.closed.Store(true)
		if e.analyticsCache != nil {
			if err := e.analyticsCache.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		if e.blockCache != nil {
			if err := e.blockCache.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	})
	return firstErr
}
