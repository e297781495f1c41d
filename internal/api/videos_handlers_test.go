package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func authed(req *http.Request, identity Identity) *http.Request {
	return req.WithContext(ContextWithIdentity(req.Context(), identity))
}

func TestVideosListing(t *testing.T) {
	t.Parallel()
	handler, store := newTestHandler(t)
	userID := store.addUser("viewer", "password123")
	first := store.addVideo("Alpha", "alpha.mp4", 100)
	store.addVideo("Beta", "beta.mp4", 200)
	store.addVideo("Gamma", "gamma.mp4", 300)

	syncer := &fakeSyncer{}
	handler.Catalog = syncer
	if err := store.UpdateWatchHistory(userID, first, 42); err != nil {
		t.Fatalf("seed history: %v", err)
	}

	rec := httptest.NewRecorder()
	req := authed(httptest.NewRequest(http.MethodGet, "/api/videos", nil), Identity{UserID: userID, Username: "viewer"})
	handler.Videos(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if syncer.calls != 1 {
		t.Fatalf("expected one catalog sync, got %d", syncer.calls)
	}

	var body videoListResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Videos) != 3 || body.Cursor != 0 || body.Limit != defaultPageLimit || body.HasMore {
		t.Fatalf("unexpected envelope: %+v", body)
	}
	if body.NextCursor != 3 {
		t.Fatalf("expected nextCursor 3, got %d", body.NextCursor)
	}
	v := body.Videos[0]
	if v.Title != "Alpha" || v.ResumeSeconds != 42 {
		t.Fatalf("unexpected first row: %+v", v)
	}
	if v.StreamURL == "" || v.ThumbnailURL == "" {
		t.Fatalf("expected stream and thumbnail URLs: %+v", v)
	}
	if body.Videos[1].ResumeSeconds != 0 {
		t.Fatalf("expected zero resume without history: %+v", body.Videos[1])
	}
}

func TestVideosPaginationAndSearchParams(t *testing.T) {
	t.Parallel()
	handler, store := newTestHandler(t)
	userID := store.addUser("viewer", "password123")
	for i := 0; i < 4; i++ {
		store.addVideo("Clip", "clip"+string(rune('a'+i))+".mp4", 0)
	}
	store.addVideo("Ocean Life", "ocean.mp4", 0)
	handler.Catalog = &fakeSyncer{}
	identity := Identity{UserID: userID}

	rec := httptest.NewRecorder()
	req := authed(httptest.NewRequest(http.MethodGet, "/api/videos?cursor=1&limit=2", nil), identity)
	handler.Videos(rec, req)
	var page videoListResponse
	if err := json.NewDecoder(rec.Body).Decode(&page); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(page.Videos) != 2 || !page.HasMore || page.Cursor != 1 || page.NextCursor != 3 {
		t.Fatalf("unexpected page: %+v", page)
	}

	// Limits above the cap are clamped; bad cursors fall back to zero.
	rec = httptest.NewRecorder()
	req = authed(httptest.NewRequest(http.MethodGet, "/api/videos?cursor=-3&limit=500", nil), identity)
	handler.Videos(rec, req)
	if err := json.NewDecoder(rec.Body).Decode(&page); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if page.Cursor != 0 || page.Limit != maxPageLimit {
		t.Fatalf("expected clamped params, got %+v", page)
	}

	rec = httptest.NewRecorder()
	req = authed(httptest.NewRequest(http.MethodGet, "/api/videos?q=+ocean+", nil), identity)
	handler.Videos(rec, req)
	if err := json.NewDecoder(rec.Body).Decode(&page); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(page.Videos) != 1 || page.Videos[0].Filename != "ocean.mp4" || page.Query != "ocean" {
		t.Fatalf("unexpected search result: %+v", page)
	}
}

func TestVideosRequiresIdentity(t *testing.T) {
	t.Parallel()
	handler, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.Videos(rec, httptest.NewRequest(http.MethodGet, "/api/videos", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestVideosSyncFailureStillServesCatalog(t *testing.T) {
	t.Parallel()
	handler, store := newTestHandler(t)
	userID := store.addUser("viewer", "password123")
	store.addVideo("Cached", "cached.mp4", 0)
	handler.Catalog = &fakeSyncer{err: errBoom}

	rec := httptest.NewRecorder()
	req := authed(httptest.NewRequest(http.MethodGet, "/api/videos", nil), Identity{UserID: userID})
	handler.Videos(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 despite sync failure, got %d", rec.Code)
	}
}

func TestVideoByIDDispatch(t *testing.T) {
	t.Parallel()
	handler, store := newTestHandler(t)
	userID := store.addUser("viewer", "password123")
	identity := Identity{UserID: userID}

	cases := []struct {
		name string
		path string
		want int
	}{
		{name: "non-numeric id", path: "/api/videos/abc/stream", want: http.StatusBadRequest},
		{name: "zero id", path: "/api/videos/0/stream", want: http.StatusBadRequest},
		{name: "unknown action", path: "/api/videos/1/download", want: http.StatusNotFound},
		{name: "missing action", path: "/api/videos/1", want: http.StatusNotFound},
		{name: "extra segments", path: "/api/videos/1/stream/extra", want: http.StatusNotFound},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			req := authed(httptest.NewRequest(http.MethodGet, tc.path, nil), identity)
			handler.VideoByID(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d (%s)", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func newStreamFixture(t *testing.T, content string) (*Handler, Identity, string) {
	t.Helper()
	handler, store := newTestHandler(t)
	userID := store.addUser("viewer", "password123")
	store.addVideo("Stream Me", "stream_me.mp4", 0)

	mediaDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(mediaDir, "stream_me.mp4"), []byte(content), 0o644); err != nil {
		t.Fatalf("write media file: %v", err)
	}
	handler.MediaDir = mediaDir
	return handler, Identity{UserID: userID}, "/api/videos/2/stream"
}

func TestStreamFullFile(t *testing.T) {
	t.Parallel()
	handler, identity, path := newStreamFixture(t, "0123456789")

	rec := httptest.NewRecorder()
	req := authed(httptest.NewRequest(http.MethodGet, path, nil), identity)
	handler.VideoByID(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); ct != "video/mp4" {
		t.Fatalf("expected video/mp4, got %q", ct)
	}
	if ar := res.Header.Get("Accept-Ranges"); ar != "bytes" {
		t.Fatalf("expected Accept-Ranges bytes, got %q", ar)
	}
	if res.Header.Get("Last-Modified") == "" {
		t.Fatal("expected Last-Modified header")
	}
	body, _ := io.ReadAll(res.Body)
	if string(body) != "0123456789" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestStreamRangeRequests(t *testing.T) {
	t.Parallel()
	handler, identity, path := newStreamFixture(t, "0123456789")

	cases := []struct {
		name         string
		header       string
		wantBody     string
		contentRange string
	}{
		{name: "middle span", header: "bytes=2-5", wantBody: "2345", contentRange: "bytes 2-5/10"},
		{name: "open ended", header: "bytes=7-", wantBody: "789", contentRange: "bytes 7-9/10"},
		{name: "suffix", header: "bytes=-3", wantBody: "789", contentRange: "bytes 7-9/10"},
		{name: "clamped end", header: "bytes=8-99", wantBody: "89", contentRange: "bytes 8-9/10"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			req := authed(httptest.NewRequest(http.MethodGet, path, nil), identity)
			req.Header.Set("Range", tc.header)
			handler.VideoByID(rec, req)

			res := rec.Result()
			if res.StatusCode != http.StatusPartialContent {
				t.Fatalf("expected 206, got %d", res.StatusCode)
			}
			if cr := res.Header.Get("Content-Range"); cr != tc.contentRange {
				t.Fatalf("expected Content-Range %q, got %q", tc.contentRange, cr)
			}
			body, _ := io.ReadAll(res.Body)
			if string(body) != tc.wantBody {
				t.Fatalf("expected body %q, got %q", tc.wantBody, body)
			}
		})
	}
}

func TestStreamUnsatisfiableRange(t *testing.T) {
	t.Parallel()
	handler, identity, path := newStreamFixture(t, "0123456789")

	rec := httptest.NewRecorder()
	req := authed(httptest.NewRequest(http.MethodGet, path, nil), identity)
	req.Header.Set("Range", "bytes=50-")
	handler.VideoByID(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusRequestedRangeNotSatisfiable {
		t.Fatalf("expected 416, got %d", res.StatusCode)
	}
	if cr := res.Header.Get("Content-Range"); cr != "bytes */10" {
		t.Fatalf("expected Content-Range bytes */10, got %q", cr)
	}
}

func TestStreamMissingFileIs404(t *testing.T) {
	t.Parallel()
	handler, store := newTestHandler(t)
	userID := store.addUser("viewer", "password123")
	store.addVideo("Ghost", "ghost.mp4", 0)
	handler.MediaDir = t.TempDir()

	rec := httptest.NewRecorder()
	req := authed(httptest.NewRequest(http.MethodGet, "/api/videos/2/stream", nil), Identity{UserID: userID})
	handler.VideoByID(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing media file, got %d", rec.Code)
	}
}

func TestThumbnailServed(t *testing.T) {
	t.Parallel()
	handler, identity, _ := newStreamFixture(t, "0123456789")

	thumbPath := filepath.Join(t.TempDir(), "2.jpg")
	if err := os.WriteFile(thumbPath, []byte("jpeg-bytes"), 0o644); err != nil {
		t.Fatalf("write thumb: %v", err)
	}
	handler.Thumbs = &fakeThumbnailer{path: thumbPath}

	rec := httptest.NewRecorder()
	req := authed(httptest.NewRequest(http.MethodGet, "/api/videos/2/thumbnail", nil), identity)
	handler.VideoByID(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Fatalf("expected image/jpeg, got %q", ct)
	}
	body, _ := io.ReadAll(res.Body)
	if string(body) != "jpeg-bytes" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestThumbnailGenerationFailure(t *testing.T) {
	t.Parallel()
	handler, identity, _ := newStreamFixture(t, "0123456789")
	handler.Thumbs = &fakeThumbnailer{err: errBoom}

	rec := httptest.NewRecorder()
	req := authed(httptest.NewRequest(http.MethodGet, "/api/videos/2/thumbnail", nil), identity)
	handler.VideoByID(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
