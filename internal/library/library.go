// Package library keeps the user's favorites and recently viewed movies in
// the local store. Nothing here is synced remotely.
package library

import (
	"encoding/json"
	"fmt"

	"github.com/evcraddock/reelreviews/internal/catalog"
	"github.com/evcraddock/reelreviews/internal/localstore"
)

const (
	favoritesKey = "favorites"
	recentKey    = "recentlyViewed"

	// MaxRecent is how many recently viewed movies are kept.
	MaxRecent = 4
)

// Entry is the saved summary of a catalog movie.
type Entry struct {
	ID               int     `json:"id"`
	Title            string  `json:"title"`
	Year             int     `json:"year"`
	Rating           float64 `json:"rating"`
	MediumCoverImage string  `json:"medium_cover_image"`
}

// EntryFrom summarizes a catalog movie.
func EntryFrom(m catalog.Movie) Entry {
	return Entry{
		ID:               m.ID,
		Title:            m.Title,
		Year:             m.Year,
		Rating:           m.Rating,
		MediumCoverImage: m.MediumCoverImage,
	}
}

// Library reads and writes favorites and recently viewed lists.
type Library struct {
	kv localstore.KV
}

// New creates a library over kv.
func New(kv localstore.KV) *Library {
	return &Library{kv: kv}
}

// Favorites returns the saved favorites in the order they were added.
func (l *Library) Favorites() ([]Entry, error) {
	return l.load(favoritesKey)
}

// AddFavorite appends e unless a favorite with the same id exists. It
// reports whether the list changed.
func (l *Library) AddFavorite(e Entry) (bool, error) {
	favs, err := l.load(favoritesKey)
	if err != nil {
		return false, err
	}
	if indexOf(favs, e.ID) >= 0 {
		return false, nil
	}
	return true, l.save(favoritesKey, append(favs, e))
}

// RemoveFavorite drops the favorite with the given id. It reports whether
// anything was removed.
func (l *Library) RemoveFavorite(id int) (bool, error) {
	favs, err := l.load(favoritesKey)
	if err != nil {
		return false, err
	}
	i := indexOf(favs, id)
	if i < 0 {
		return false, nil
	}
	favs = append(favs[:i], favs[i+1:]...)
	return true, l.save(favoritesKey, favs)
}

// IsFavorite reports whether id is a favorite.
func (l *Library) IsFavorite(id int) (bool, error) {
	favs, err := l.load(favoritesKey)
	if err != nil {
		return false, err
	}
	return indexOf(favs, id) >= 0, nil
}

// Recent returns recently viewed movies, newest first.
func (l *Library) Recent() ([]Entry, error) {
	return l.load(recentKey)
}

// RecordView moves e to the front of the recently viewed list, keeping at
// most MaxRecent entries.
func (l *Library) RecordView(e Entry) error {
	recent, err := l.load(recentKey)
	if err != nil {
		return err
	}

	next := make([]Entry, 0, MaxRecent)
	next = append(next, e)
	for _, r := range recent {
		if r.ID == e.ID {
			continue
		}
		if len(next) == MaxRecent {
			break
		}
		next = append(next, r)
	}
	return l.save(recentKey, next)
}

func (l *Library) load(key string) ([]Entry, error) {
	data, ok, err := l.kv.Get(key)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", key, err)
	}
	if !ok {
		return []Entry{}, nil
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", key, err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

func (l *Library) save(key string, entries []Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := l.kv.Set(key, data); err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}

func indexOf(entries []Entry, id int) int {
	for i, e := range entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}
