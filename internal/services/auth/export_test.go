package auth

// CachedTokens returns the number of tokens held in the verification cache.
func (s *Service) CachedTokens() int {
	return s.cache.len()
}

// LimitCache replaces the cache with an empty one holding at most size tokens.
func (s *Service) LimitCache(size int) {
	s.cache = newTokenCache(size)
}
