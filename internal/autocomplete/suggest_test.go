package autocomplete

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/zmb3/spotify/v2"
)

type fakeSearcher struct {
	tracks []spotify.FullTrack
	err    error
	limit  int
}

func (f *fakeSearcher) SearchTracks(_ context.Context, _ string, limit int) ([]spotify.FullTrack, error) {
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	if len(f.tracks) > limit {
		return f.tracks[:limit], nil
	}
	return f.tracks, nil
}

func fullTrack(id, name, artist string) spotify.FullTrack {
	var t spotify.FullTrack
	t.ID = spotify.ID(id)
	t.Name = name
	t.Artists = []spotify.SimpleArtist{{Name: artist}}
	return t
}

func suggestServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ds") != "yt" || r.URL.Query().Get("q") == "" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestParseSuggestions(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
		err  bool
	}{
		{"normal", `["q",["a","b"]]`, []string{"a", "b"}, false},
		{"mixed types", `["q",["a",1,""]]`, []string{"a"}, false},
		{"short", `["q"]`, nil, false},
		{"garbage", `{`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSuggestions(strings.NewReader(tt.in))
			if (err != nil) != tt.err {
				t.Fatalf("err = %v", err)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChoicesMixesSources(t *testing.T) {
	srv := suggestServer(t, `["lofi",["lofi hip hop","lofi girl","lofi beats","lofi rain"]]`)
	sp := &fakeSearcher{tracks: []spotify.FullTrack{
		fullTrack("t1", "Snowman", "WYS"),
		fullTrack("t2", "Coffee", "Beabadoobee"),
		fullTrack("t3", "Extra", "Nobody"),
	}}
	s := NewSuggester(sp)
	s.base = srv.URL

	got := s.Choices(context.Background(), "lofi", 4)
	if len(got) != 4 || sp.limit != 2 {
		t.Fatalf("choices = %d, spotify limit = %d", len(got), sp.limit)
	}
	if got[0].Name != "YouTube: lofi hip hop" || got[0].Value != "lofi hip hop" {
		t.Fatalf("first = %+v", got[0])
	}
	if got[2].Value != "spotify:track:t1" || got[2].Name != "Spotify: 🎵 Snowman - WYS" {
		t.Fatalf("third = %+v", got[2])
	}
}

func TestChoicesSurvivesFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := NewSuggester(&fakeSearcher{err: errors.New("rate limited")})
	s.base = srv.URL
	if got := s.Choices(context.Background(), "anything", 10); len(got) != 0 {
		t.Fatalf("choices = %d", len(got))
	}

	if got := s.Choices(context.Background(), "   ", 10); got == nil || len(got) != 0 {
		t.Fatal("blank query must yield an empty, non-nil slice")
	}
}

func TestChoicesWithoutSpotify(t *testing.T) {
	long := strings.Repeat("x", 120)
	srv := suggestServer(t, `["q",["`+long+`","short"]]`)
	s := NewSuggester(nil)
	s.base = srv.URL

	got := s.Choices(context.Background(), "q", 10)
	if len(got) != 1 || got[0].Value != "short" {
		t.Fatalf("choices = %+v", got)
	}
}
