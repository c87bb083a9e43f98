package ops

// Log returns the reflog tail, newest first, bounded by limit (0 = no
// limit), grounded on log.rs's log/log_with_backend.
func (s *Session) Log(limit int) ([]LogEntry, error) {
	entries, err := s.Reflog.ReadRecent()
	if err != nil {
		return nil, err
	}
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}

	out := make([]LogEntry, len(entries))
	for i, e := range entries {
		out[i] = LogEntry{
			Index:         i,
			Timestamp:     e.Timestamp,
			Actor:         e.Actor,
			Op:            string(e.Op),
			Message:       e.Message,
			OldSID:        e.OldSID,
			NewSID:        e.NewSID,
			AffectedPaths: e.AffectedPaths,
		}
	}
	return out, nil
}
