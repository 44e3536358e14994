package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomasz-trela/backend-thread-weaver/core"
	"github.com/tomasz-trela/backend-thread-weaver/storage"
)

// SpeakerRepository implements storage.SpeakerRepository for BadgerDB.
type SpeakerRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.SpeakerRepository = (*SpeakerRepository)(nil)

// NewSpeakerRepository creates a new SpeakerRepository.
func NewSpeakerRepository(backend *Backend) (*SpeakerRepository, error) {
	idSeq, err := backend.GetSequence(speakerIDSeq)
	if err != nil {
		return nil, err
	}

	return &SpeakerRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *SpeakerRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *SpeakerRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddSpeakers adds one or more speakers to storage.
func (r *SpeakerRepository) AddSpeakers(ctx context.Context, speakers ...*core.Speaker) ([]*core.Speaker, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, speaker := range speakers {
			nextID, err := r.idSeq.Next()
			if err != nil {
				return err
			}
			// BadgerDB sequences can return 0 on first call, so we skip it
			if nextID == 0 {
				nextID, err = r.idSeq.Next()
				if err != nil {
					return err
				}
			}
			speaker.Id = core.ID(nextID)

			speaker.InsertedAt = storedNow()
			speaker.UpdatedAt = speaker.InsertedAt

			key := makeSpeakerKey(speaker.Id)
			if err := tx.Set(key, storage.MarshalSpeaker(speaker)); err != nil {
				return err
			}

			// Name index
			nameKey := makeSpeakerNameKey(speaker.Name, speaker.Surname)
			if err := tx.Set(nameKey, storage.MarshalID(speaker.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return speakers, err
}

// UpdateSpeakers updates existing speakers.
func (r *SpeakerRepository) UpdateSpeakers(ctx context.Context, speakers ...*core.Speaker) ([]*core.Speaker, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, speaker := range speakers {
			key := makeSpeakerKey(speaker.Id)

			old, err := readSpeaker(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			speaker.UpdatedAt = storedNow()

			if err := tx.Set(key, storage.MarshalSpeaker(speaker)); err != nil {
				return err
			}

			// Update name index if the identity tuple changed
			if old.Name != speaker.Name || old.Surname != speaker.Surname {
				if err := tx.Delete(makeSpeakerNameKey(old.Name, old.Surname)); err != nil {
					return err
				}
				nameKey := makeSpeakerNameKey(speaker.Name, speaker.Surname)
				if err := tx.Set(nameKey, storage.MarshalID(speaker.Id)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return speakers, err
}

// DeleteSpeakers removes speakers by their IDs.
func (r *SpeakerRepository) DeleteSpeakers(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeSpeakerKey(id)

			speaker, err := readSpeaker(tx, key)
			if err != nil {
				return err
			}
			if speaker == nil {
				return storage.ErrNotFound
			}

			if err := tx.Delete(makeSpeakerNameKey(speaker.Name, speaker.Surname)); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetSpeaker retrieves a single speaker by ID.
func (r *SpeakerRepository) GetSpeaker(ctx context.Context, id core.ID) (*core.Speaker, error) {
	var result *core.Speaker
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readSpeaker(tx, makeSpeakerKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetSpeakers retrieves multiple speakers by their IDs.
func (r *SpeakerRepository) GetSpeakers(ctx context.Context, ids ...core.ID) ([]*core.Speaker, error) {
	var result []*core.Speaker
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			speaker, err := readSpeaker(tx, makeSpeakerKey(id))
			if err != nil {
				return err
			}
			if speaker != nil {
				result = append(result, speaker)
			}
		}
		return nil
	}, false)
	return result, err
}

// GetAllSpeakers retrieves all speakers, ordered by ID ascending.
func (r *SpeakerRepository) GetAllSpeakers(ctx context.Context) ([]*core.Speaker, error) {
	var results []*core.Speaker
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := []byte(speakerPrefix + ":")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var speaker *core.Speaker
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				speaker, err = storage.UnmarshalSpeaker(val)
				return err
			}); err != nil {
				return err
			}
			if speaker != nil {
				results = append(results, speaker)
			}
		}
		return nil
	}, false)

	return results, err
}

// FindSpeakerByName finds a speaker by the (name, surname) tuple.
func (r *SpeakerRepository) FindSpeakerByName(ctx context.Context, name, surname string) (*core.Speaker, error) {
	var result *core.Speaker
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeSpeakerNameKey(name, surname))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}

		var speakerID core.ID
		err = item.Value(func(val []byte) error {
			speakerID, err = storage.UnmarshalID(val)
			return err
		})
		if err != nil {
			return err
		}

		result, err = readSpeaker(tx, makeSpeakerKey(speakerID))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetOrCreateSpeaker finds or creates a speaker by name and surname.
func (r *SpeakerRepository) GetOrCreateSpeaker(ctx context.Context, name, surname string) (*core.Speaker, error) {
	speaker, err := r.FindSpeakerByName(ctx, name, surname)
	if err == nil {
		return speaker, nil
	}
	if err != storage.ErrNotFound {
		return nil, err
	}

	newSpeaker := &core.Speaker{
		Name:    name,
		Surname: surname,
	}

	// Try to add it (may fail due to race condition)
	added, err := r.AddSpeakers(ctx, newSpeaker)
	if err != nil {
		// If add failed, try to find it again (someone else may have created it)
		speaker, findErr := r.FindSpeakerByName(ctx, name, surname)
		if findErr == nil {
			return speaker, nil
		}
		return nil, err
	}

	return added[0], nil
}

// readSpeaker reads a speaker from the transaction.
func readSpeaker(tx *badger.Txn, key []byte) (*core.Speaker, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var speaker *core.Speaker
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		speaker, unmarshalErr = storage.UnmarshalSpeaker(val)
		return unmarshalErr
	})
	return speaker, err
}
