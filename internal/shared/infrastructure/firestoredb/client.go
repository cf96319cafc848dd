// Package firestoredb connects to the family's Firestore project and holds
// helpers shared by the Firestore repositories.
package firestoredb

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Config identifies the Firebase project.
type Config struct {
	ProjectID string
	// CredentialsFile is a service account key. Empty uses application default credentials.
	CredentialsFile string
}

// NewClient initializes a Firebase app and returns its Firestore client.
func NewClient(ctx context.Context, cfg Config) (*firestore.Client, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get firestore client: %w", err)
	}
	return client, nil
}

// IsNotFound reports a missing document.
func IsNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// IsAlreadyExists reports a create that hit an existing document.
func IsAlreadyExists(err error) bool {
	return status.Code(err) == codes.AlreadyExists
}

// CreateOrGet creates the document, or returns the stored one when it
// already exists. The bool reports whether a new document was written.
func CreateOrGet(ctx context.Context, ref *firestore.DocumentRef, data any) (*firestore.DocumentSnapshot, bool, error) {
	if _, err := ref.Create(ctx, data); err != nil {
		if !IsAlreadyExists(err) {
			return nil, false, err
		}
		snap, err := ref.Get(ctx)
		if err != nil {
			return nil, false, err
		}
		return snap, false, nil
	}
	return nil, true, nil
}
