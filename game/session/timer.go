package session

// armTimer restarts the turn timer for the current turn. Callers hold mu.
func (s *Session) armTimer() {
	s.stopTimer()
	if s.opts.TurnTimeout <= 0 {
		return
	}
	gen, seq := s.gen, s.game.TurnSeq()
	s.turnTimer = s.afterFunc(s.opts.TurnTimeout, func() {
		s.turnExpired(gen, seq)
	})
}

func (s *Session) stopTimer() {
	if s.turnTimer != nil {
		s.turnTimer.Stop()
		s.turnTimer = nil
	}
}

// turnExpired passes the turn of an idle player. Expiries that lost the
// race against a roll, move or leave see a newer turn and do nothing.
func (s *Session) turnExpired(gen, seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen || seq != s.game.TurnSeq() {
		return
	}
	skipped, next, err := s.game.SkipTurn()
	if err != nil {
		return
	}

	s.info("%s ran out of time, %s plays next", skipped.Name, next.Name)
	s.playerLog(skipped).WithField("timeout", s.opts.TurnTimeout).Info("Turn timed out")
	s.announceTurn(false)
}
