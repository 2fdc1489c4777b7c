// File: internal/profile/firestore_store.go
package profile

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore keeps one document per user id in a collection.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
	logger     *zap.Logger
}

func NewFirestoreStore(client *firestore.Client, collection string, logger *zap.Logger) *FirestoreStore {
	return &FirestoreStore{client: client, collection: collection, logger: logger.Named("FirestoreStore")}
}

func (s *FirestoreStore) doc(userID string) *firestore.DocumentRef {
	return s.client.Collection(s.collection).Doc(userID)
}

func (s *FirestoreStore) Get(ctx context.Context, userID string) (*Record, error) {
	snap, err := s.doc(userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("firestore get %s/%s: %w", s.collection, userID, err)
	}

	var rec Record
	if err := snap.DataTo(&rec); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", userID, err)
	}
	return &rec, nil
}

func (s *FirestoreStore) Set(ctx context.Context, userID string, fields Fields, opts SetOptions) error {
	if err := fields.validate(); err != nil {
		return err
	}
	data := make(map[string]interface{}, len(fields))
	for name, value := range fields {
		if _, ok := value.(serverTimestamp); ok {
			data[name] = firestore.ServerTimestamp
			continue
		}
		data[name] = value
	}

	var err error
	switch {
	case opts.CreateOnly:
		_, err = s.doc(userID).Create(ctx, data)
		if status.Code(err) == codes.AlreadyExists {
			return ErrAlreadyExists
		}
	case opts.Merge:
		_, err = s.doc(userID).Set(ctx, data, firestore.MergeAll)
	default:
		_, err = s.doc(userID).Set(ctx, data)
	}
	if err != nil {
		return fmt.Errorf("firestore set %s/%s: %w", s.collection, userID, err)
	}
	s.logger.Debug("Profile document written", zap.String("userID", userID), zap.Bool("merge", opts.Merge))
	return nil
}
