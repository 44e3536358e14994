package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/tomasz-trela/backend-thread-weaver/core"
	"github.com/tomasz-trela/backend-thread-weaver/storage"
)

func TestSpeakerBasics(t *testing.T) {
	_, speakerRepo, _ := newTestRepos(t)
	ctx := context.Background()

	speaker := &core.Speaker{Name: "ada", Surname: "lovelace"}

	added, err := speakerRepo.AddSpeakers(ctx, speaker)
	if err != nil {
		t.Fatalf("Failed to add speaker: %v", err)
	}
	if added[0].Id == 0 {
		t.Fatal("Expected non-zero ID")
	}
	if added[0].InsertedAt.IsZero() {
		t.Fatal("Expected InsertedAt to be set")
	}

	retrieved, err := speakerRepo.GetSpeaker(ctx, added[0].Id)
	if err != nil {
		t.Fatalf("Failed to get speaker: %v", err)
	}
	if retrieved.Name != "ada" || retrieved.Surname != "lovelace" {
		t.Fatalf("Unexpected speaker: %+v", retrieved)
	}
}

func TestFindSpeakerByName(t *testing.T) {
	_, speakerRepo, _ := newTestRepos(t)
	ctx := context.Background()

	added, err := speakerRepo.AddSpeakers(ctx,
		&core.Speaker{Name: "ada", Surname: "lovelace"},
		&core.Speaker{Name: "ada", Surname: "unknown"},
	)
	if err != nil {
		t.Fatalf("Failed to add speakers: %v", err)
	}

	found, err := speakerRepo.FindSpeakerByName(ctx, "ada", "unknown")
	if err != nil {
		t.Fatalf("Failed to find speaker: %v", err)
	}
	if found.Id != added[1].Id {
		t.Fatalf("Expected speaker %d, got %d", added[1].Id, found.Id)
	}

	_, err = speakerRepo.FindSpeakerByName(ctx, "grace", "hopper")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestGetOrCreateSpeaker(t *testing.T) {
	_, speakerRepo, _ := newTestRepos(t)
	ctx := context.Background()

	first, err := speakerRepo.GetOrCreateSpeaker(ctx, "speaker_00", "unknown")
	if err != nil {
		t.Fatalf("Failed to create speaker: %v", err)
	}
	if first.Id == 0 {
		t.Fatal("Expected non-zero ID")
	}

	second, err := speakerRepo.GetOrCreateSpeaker(ctx, "speaker_00", "unknown")
	if err != nil {
		t.Fatalf("Failed to get existing speaker: %v", err)
	}
	if second.Id != first.Id {
		t.Fatalf("Expected the same speaker, got %d and %d", first.Id, second.Id)
	}

	all, err := speakerRepo.GetAllSpeakers(ctx)
	if err != nil {
		t.Fatalf("Failed to list speakers: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("Expected 1 speaker, got %d", len(all))
	}
}

func TestUpdateSpeaker_MovesNameIndex(t *testing.T) {
	_, speakerRepo, _ := newTestRepos(t)
	ctx := context.Background()

	added, err := speakerRepo.AddSpeakers(ctx, &core.Speaker{Name: "speaker_00", Surname: "unknown"})
	if err != nil {
		t.Fatalf("Failed to add speaker: %v", err)
	}

	added[0].Name = "ada"
	added[0].Surname = "lovelace"
	if _, err := speakerRepo.UpdateSpeakers(ctx, added[0]); err != nil {
		t.Fatalf("Failed to update speaker: %v", err)
	}

	if _, err := speakerRepo.FindSpeakerByName(ctx, "speaker_00", "unknown"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected old name to be unindexed, got %v", err)
	}

	found, err := speakerRepo.FindSpeakerByName(ctx, "ada", "lovelace")
	if err != nil {
		t.Fatalf("Failed to find renamed speaker: %v", err)
	}
	if found.Id != added[0].Id {
		t.Fatalf("Expected speaker %d, got %d", added[0].Id, found.Id)
	}
}

func TestDeleteSpeakers(t *testing.T) {
	_, speakerRepo, _ := newTestRepos(t)
	ctx := context.Background()

	added, err := speakerRepo.AddSpeakers(ctx, &core.Speaker{Name: "ada", Surname: "lovelace"})
	if err != nil {
		t.Fatalf("Failed to add speaker: %v", err)
	}

	if err := speakerRepo.DeleteSpeakers(ctx, added[0].Id); err != nil {
		t.Fatalf("Failed to delete speaker: %v", err)
	}

	if _, err := speakerRepo.GetSpeaker(ctx, added[0].Id); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound after delete, got %v", err)
	}
	if _, err := speakerRepo.FindSpeakerByName(ctx, "ada", "lovelace"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected name index to be cleaned, got %v", err)
	}
}
