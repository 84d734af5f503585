package service

// Playlist is a FIFO of pending tracks plus the one currently installed
//
// Not safe for concurrent use; the Player guards it.
type Playlist struct {
	current *Track
	tracks  []Track
}

func (pl *Playlist) Current() (Track, bool) {
	if pl.current == nil {
		return Track{}, false
	}

	return pl.current.Clone(), true
}

func (pl *Playlist) SetCurrent(t Track) {
	v := t.Clone()
	pl.current = &v
}

func (pl *Playlist) ClearCurrent() {
	pl.current = nil
}

func (pl *Playlist) Push(t Track) {
	pl.tracks = append(pl.tracks, t.Clone())
}

// Pop removes and returns the head of the queue
func (pl *Playlist) Pop() (Track, bool) {
	if len(pl.tracks) == 0 {
		return Track{}, false
	}

	t := pl.tracks[0]
	pl.tracks[0] = Track{}
	pl.tracks = pl.tracks[1:]

	if len(pl.tracks) == 0 {
		pl.tracks = nil
	}

	return t, true
}

// Remove drops the queued (not current) track with the given id
func (pl *Playlist) Remove(id uint64) bool {
	for i := range pl.tracks {
		if pl.tracks[i].ID != id {
			continue
		}

		copy(pl.tracks[i:], pl.tracks[i+1:])
		pl.tracks[len(pl.tracks)-1] = Track{}
		pl.tracks = pl.tracks[:len(pl.tracks)-1]

		return true
	}

	return false
}

func (pl *Playlist) Len() int {
	return len(pl.tracks)
}

// Tracks returns a copy of the pending queue
func (pl *Playlist) Tracks() []Track {
	if len(pl.tracks) == 0 {
		return nil
	}

	result := make([]Track, len(pl.tracks))
	for i := range pl.tracks {
		result[i] = pl.tracks[i].Clone()
	}

	return result
}

func (pl *Playlist) Reset() {
	*pl = Playlist{}
}
