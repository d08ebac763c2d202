package tinystore

type cleanupEntry struct {
	fn    func() error
	order int
}

// OnCleanup registers a cleanup function to be called when the store is torn
// down or its registry is disposed. Cleanups run in reverse registration order.
func (s *Store[T]) OnCleanup(fn func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := cleanupEntry{
		fn:    fn,
		order: len(s.cleanups),
	}
	s.cleanups = append(s.cleanups, entry)
}

func (s *Store[T]) takeCleanups() []cleanupEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.cleanups
	s.cleanups = nil
	return entries
}

func (r *Registry) runCleanups(entries []cleanupEntry, storeID string, cleanupContext string) {
	exts := r.extensionsSnapshot()

	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]

		if err := entry.fn(); err != nil {
			cleanupErr := &CleanupError{
				StoreID: storeID,
				Err:     err,
				Context: cleanupContext,
			}

			handled := false
			for _, ext := range exts {
				if ext.OnCleanupError(cleanupErr) {
					handled = true
					break
				}
			}
			if !handled {
				r.logger.WithError(err).
					WithField("store", storeID).
					WithField("cleanup", entry.order).
					Warnf("cleanup failed during %s", cleanupContext)
			}
		}
	}
}
