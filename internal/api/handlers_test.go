package api

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"reelroom/internal/auth"
	"reelroom/internal/models"
	"reelroom/internal/storage"
)

// fakeStore is an in-memory Store used by handler tests.
type fakeStore struct {
	users     map[string]models.User
	usernames map[int64]string
	videos    map[int64]models.Video
	history   map[int64]map[int64]models.WatchEntry
	nextID    int64
	pingErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:     make(map[string]models.User),
		usernames: make(map[int64]string),
		videos:    make(map[int64]models.Video),
		history:   make(map[int64]map[int64]models.WatchEntry),
		nextID:    1,
	}
}

func (f *fakeStore) addUser(username, password string) int64 {
	hash, salt, err := auth.HashPassword(password)
	if err != nil {
		panic(err)
	}
	id := f.nextID
	f.nextID++
	f.users[username] = models.User{ID: id, Username: username, PasswordHash: hash, Salt: salt}
	f.usernames[id] = username
	return id
}

func (f *fakeStore) addVideo(title, filename string, duration int) int64 {
	id := f.nextID
	f.nextID++
	f.videos[id] = models.Video{ID: id, Title: title, Filename: filename, DurationSeconds: duration}
	return id
}

func (f *fakeStore) GetUserCredentials(username string) (models.User, error) {
	user, ok := f.users[username]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return user, nil
}

func (f *fakeStore) CreateUser(username string, hash, salt []byte) (int64, error) {
	if _, ok := f.users[username]; ok {
		return 0, storage.ErrDuplicateUsername
	}
	id := f.nextID
	f.nextID++
	f.users[username] = models.User{ID: id, Username: username, PasswordHash: hash, Salt: salt}
	f.usernames[id] = username
	return id, nil
}

func (f *fakeStore) GetUsernameByID(id int64) (string, error) {
	username, ok := f.usernames[id]
	if !ok {
		return "", storage.ErrNotFound
	}
	return username, nil
}

func (f *fakeStore) GetVideoByID(id int64) (models.Video, error) {
	video, ok := f.videos[id]
	if !ok {
		return models.Video{}, storage.ErrNotFound
	}
	return video, nil
}

func (f *fakeStore) QueryVideos(search string, limit, offset int, emit func(models.Video) error) (bool, error) {
	var matched []models.Video
	needle := strings.ToLower(search)
	for _, v := range f.videos {
		if needle != "" &&
			!strings.Contains(strings.ToLower(v.Title), needle) &&
			!strings.Contains(strings.ToLower(v.Filename), needle) &&
			!strings.Contains(strings.ToLower(v.Description), needle) {
			continue
		}
		matched = append(matched, v)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	if offset >= len(matched) {
		return false, nil
	}
	matched = matched[offset:]
	hasMore := len(matched) > limit
	if hasMore {
		matched = matched[:limit]
	}
	for _, v := range matched {
		if err := emit(v); err != nil {
			return false, err
		}
	}
	return hasMore, nil
}

func (f *fakeStore) UpdateWatchHistory(userID, videoID int64, positionSeconds float64) error {
	if f.history[userID] == nil {
		f.history[userID] = make(map[int64]models.WatchEntry)
	}
	f.history[userID][videoID] = models.WatchEntry{
		VideoID:         videoID,
		Title:           f.videos[videoID].Title,
		PositionSeconds: positionSeconds,
		UpdatedAt:       time.Now().UTC().Format("2006-01-02 15:04:05"),
	}
	return nil
}

func (f *fakeStore) ListWatchHistory(userID int64, emit func(models.WatchEntry) error) error {
	entries := make([]models.WatchEntry, 0, len(f.history[userID]))
	for _, entry := range f.history[userID] {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].VideoID < entries[j].VideoID })
	for _, entry := range entries {
		if err := emit(entry); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeStore) Ping(context.Context) error {
	return f.pingErr
}

type fakeSyncer struct {
	calls int
	err   error
}

func (f *fakeSyncer) Sync(context.Context) error {
	f.calls++
	return f.err
}

type fakeThumbnailer struct {
	path string
	err  error
}

func (f *fakeThumbnailer) Ensure(context.Context, int64, string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.path, nil
}

var errBoom = errors.New("boom")
