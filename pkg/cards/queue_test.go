package cards

import (
	"testing"
	"time"

	"github.com/smith3v/tg-anki-sync/pkg/db"
	"github.com/smith3v/tg-anki-sync/pkg/internal/testutil"
)

func TestCardIDIsStableAndContentDerived(t *testing.T) {
	a := CardID("犬", "イヌ")
	b := CardID("犬", "イヌ")
	if a != b {
		t.Fatalf("same payload must yield same id: %q vs %q", a, b)
	}
	if CardID("犬", "イヌ") == CardID("犬イ", "ヌ") {
		t.Fatal("field separator must keep distinct payloads distinct")
	}
	if a == CardID("猫", "ネコ") {
		t.Fatal("different payloads must yield different ids")
	}
}

func TestPollReturnsStableSetUntilAck(t *testing.T) {
	testutil.SetupTestDB(t)

	if _, err := Enqueue(7, "犬", "イヌ"); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	if _, err := Enqueue(7, "猫", "ネコ"); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	first, err := Poll(7)
	if err != nil {
		t.Fatalf("first poll failed: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(first))
	}
	for _, c := range first {
		if c.Status != db.CardStatusDelivered {
			t.Fatalf("expected delivered status, got %q", c.Status)
		}
		if c.DeliveredAt == nil {
			t.Fatal("expected delivered_at to be set")
		}
	}

	second, err := Poll(7)
	if err != nil {
		t.Fatalf("second poll failed: %v", err)
	}
	if len(second) != len(first) {
		t.Fatalf("re-poll changed the set size: %d vs %d", len(second), len(first))
	}
	for i := range second {
		if second[i].CardID != first[i].CardID {
			t.Fatalf("re-poll changed card order or identity at %d", i)
		}
	}
}

func TestAcknowledgeRemovesFromPoll(t *testing.T) {
	testutil.SetupTestDB(t)

	inu, err := Enqueue(8, "犬", "イヌ")
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	neko, err := Enqueue(8, "猫", "ネコ")
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	if _, err := Poll(8); err != nil {
		t.Fatalf("poll failed: %v", err)
	}

	acked, err := Acknowledge(8, []string{inu.CardID})
	if err != nil {
		t.Fatalf("acknowledge failed: %v", err)
	}
	if acked != 1 {
		t.Fatalf("expected 1 newly acked card, got %d", acked)
	}

	remaining, err := Poll(8)
	if err != nil {
		t.Fatalf("poll failed: %v", err)
	}
	if len(remaining) != 1 || remaining[0].CardID != neko.CardID {
		t.Fatalf("expected only the neko card, got %+v", remaining)
	}
}

func TestAcknowledgeIsRetrySafe(t *testing.T) {
	testutil.SetupTestDB(t)

	card, err := Enqueue(9, "犬", "イヌ")
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	if _, err := Acknowledge(9, []string{card.CardID}); err != nil {
		t.Fatalf("acknowledge failed: %v", err)
	}
	again, err := Acknowledge(9, []string{card.CardID, "unknown-id"})
	if err != nil {
		t.Fatalf("retried acknowledge failed: %v", err)
	}
	if again != 0 {
		t.Fatalf("retry must not re-ack, got %d", again)
	}

	polled, err := Poll(9)
	if err != nil {
		t.Fatalf("poll failed: %v", err)
	}
	if len(polled) != 0 {
		t.Fatalf("acked card must never reappear, got %+v", polled)
	}
}

func TestEnqueueIsIdempotentPerUser(t *testing.T) {
	testutil.SetupTestDB(t)

	if _, err := Enqueue(10, "犬", "イヌ"); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	if _, err := Enqueue(10, "犬", "イヌ"); err != nil {
		t.Fatalf("duplicate enqueue failed: %v", err)
	}
	// Same payload for another user is a separate card.
	if _, err := Enqueue(11, "犬", "イヌ"); err != nil {
		t.Fatalf("enqueue for second user failed: %v", err)
	}

	var count int64
	if err := db.DB.Model(&db.SyncCard{}).Where("user_id = ?", 10).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 card for user 10, got %d", count)
	}
}

func TestPruneAcked(t *testing.T) {
	testutil.SetupTestDB(t)

	card, err := Enqueue(12, "犬", "イヌ")
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	if _, err := Acknowledge(12, []string{card.CardID}); err != nil {
		t.Fatalf("acknowledge failed: %v", err)
	}

	pruned, err := PruneAcked(time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("prune failed: %v", err)
	}
	if pruned != 1 {
		t.Fatalf("expected 1 pruned card, got %d", pruned)
	}

	var count int64
	if err := db.DB.Model(&db.SyncCard{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty table, got %d rows", count)
	}
}
