package room

import (
	"math/rand"
	"testing"
)

func testWorld(seed int64) *worldState {
	return newWorldState(DefaultBounds(), rand.New(rand.NewSource(seed)))
}

func TestWorldSpawnsInsideBounds(t *testing.T) {
	w := testWorld(1)
	bounds := DefaultBounds()

	for i := 0; i < 200; i++ {
		name := string(rune('a' + i%26)) + string(rune('0'+i/26))
		rec, created := w.getOrCreate(name, "avatar-1")
		if !created {
			t.Fatalf("expected %q to be a fresh record", name)
		}
		if rec.X < bounds.X.Min || rec.X > bounds.X.Max {
			t.Fatalf("spawn x %d out of [%d, %d]", rec.X, bounds.X.Min, bounds.X.Max)
		}
		if rec.Y < bounds.Y.Min || rec.Y > bounds.Y.Max {
			t.Fatalf("spawn y %d out of [%d, %d]", rec.Y, bounds.Y.Min, bounds.Y.Max)
		}
	}
}

func TestWorldGetOrCreateKeepsExistingRecord(t *testing.T) {
	w := testWorld(7)

	first, created := w.getOrCreate("alice", "crab")
	if !created {
		t.Fatal("first getOrCreate must create")
	}
	first.X = 321
	first.Y = 654

	second, created := w.getOrCreate("alice", "seagull")
	if created {
		t.Fatal("second getOrCreate must not create")
	}
	if second != first {
		t.Fatal("expected the same record back")
	}
	if second.X != 321 || second.Y != 654 {
		t.Fatalf("position reset to (%d, %d)", second.X, second.Y)
	}
	if second.AvatarID != "crab" {
		t.Fatalf("avatar replaced: %q", second.AvatarID)
	}
}

func TestWorldMoveClamps(t *testing.T) {
	w := testWorld(7)
	rec, _ := w.getOrCreate("alice", "crab")
	rec.X = DefaultBounds().X.Max - 3
	rec.Y = DefaultBounds().Y.Min + 3

	moved, err := w.move("alice", AxisX, 10)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if moved.X != DefaultBounds().X.Max {
		t.Fatalf("x = %d, want max %d", moved.X, DefaultBounds().X.Max)
	}

	moved, err = w.move("alice", AxisY, -10)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if moved.Y != DefaultBounds().Y.Min {
		t.Fatalf("y = %d, want min %d", moved.Y, DefaultBounds().Y.Min)
	}
}

func TestWorldMoveUnknownUser(t *testing.T) {
	w := testWorld(7)
	if _, err := w.move("ghost", AxisX, 10); err != ErrUnknownUser {
		t.Fatalf("err = %v, want ErrUnknownUser", err)
	}
}

func TestWorldSnapshotIsDetached(t *testing.T) {
	w := testWorld(7)
	rec, _ := w.getOrCreate("alice", "crab")
	rec.X = 100
	rec.message = &activeMessage{text: "hello"}

	snap := w.snapshot()
	info, ok := snap["alice"]
	if !ok {
		t.Fatal("snapshot missing alice")
	}
	if info.X != 100 || info.AvatarID != "crab" || info.Message != "hello" {
		t.Fatalf("snapshot info = %+v", info)
	}

	rec.X = 200
	rec.message = nil
	if snap["alice"].X != 100 || snap["alice"].Message != "hello" {
		t.Fatal("snapshot tracked live record mutations")
	}
}

func TestWorldRemove(t *testing.T) {
	w := testWorld(7)
	w.getOrCreate("alice", "crab")
	w.remove("alice")
	if _, ok := w.get("alice"); ok {
		t.Fatal("record survived remove")
	}
	if w.len() != 0 {
		t.Fatalf("len = %d", w.len())
	}
	w.remove("alice")
}
