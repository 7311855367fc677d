package feed

import (
	"context"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/example/connectfood/internal/cache"
	"github.com/example/connectfood/internal/freshness"
	"github.com/example/connectfood/internal/models"
)

func TestStreamPushesReadingsAndRecordsSnapshots(t *testing.T) {
	snapshots := cache.NewMemorySnapshots()
	f := &Feed{
		Snapshots: snapshots,
		Interval:  5 * time.Millisecond,
		NewSource: func() freshness.Source { return rand.New(rand.NewSource(7)) },
	}

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		f.Stream(r.Context(), conn, "l1")
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	var first, second models.FreshnessReading
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read first: %v", err)
	}
	if err := conn.ReadJSON(&second); err != nil {
		t.Fatalf("read second: %v", err)
	}
	conn.Close()

	if first.ListingID != "l1" || second.ListingID != "l1" {
		t.Fatalf("wrong listing ids: %q %q", first.ListingID, second.ListingID)
	}
	if first.Freshness < 50 || second.Freshness < 50 {
		t.Fatalf("freshness below floor: %d %d", first.Freshness, second.Freshness)
	}

	// the session mirrors each reading into the snapshot cache
	deadline := time.Now().Add(time.Second)
	for {
		if _, err := snapshots.Latest(context.Background(), "l1"); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("no snapshot recorded")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
