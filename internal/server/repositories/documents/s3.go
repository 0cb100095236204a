package documents

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/dmitrijs2005/sabo/internal/common"
	"github.com/dmitrijs2005/sabo/internal/server/models"
)

// ObjectAPI is the part of *s3.Client the repository uses.
type ObjectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Repository stores each document as one JSON object. Writes for a user
// are serialised inside this process only; run a single server instance
// against a bucket.
type S3Repository struct {
	api    ObjectAPI
	bucket string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewS3Repository(api ObjectAPI, bucket string) *S3Repository {
	return &S3Repository{api: api, bucket: bucket, locks: make(map[string]*sync.Mutex)}
}

// ObjectKey is the object holding userID's document.
func ObjectKey(userID string) string {
	return "users/" + userID + "/items.json"
}

func (r *S3Repository) userLock(userID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[userID] = l
	}
	return l
}

func isNoSuchKey(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

func (r *S3Repository) Get(ctx context.Context, userID string) (*models.Document, error) {
	out, err := r.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(ObjectKey(userID)),
	})
	if isNoSuchKey(err) {
		return nil, fmt.Errorf("document %s: %w", userID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object: %w", err)
	}
	var doc models.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode object %s: %w", ObjectKey(userID), err)
	}
	return &doc, nil
}

func (r *S3Repository) Put(ctx context.Context, userID string, items json.RawMessage, now time.Time) (*models.Document, error) {
	l := r.userLock(userID)
	l.Lock()
	defer l.Unlock()

	var version int64
	switch cur, err := r.Get(ctx, userID); {
	case err == nil:
		version = cur.Version
	case errors.Is(err, common.ErrNotFound):
	default:
		return nil, err
	}

	doc := &models.Document{UserID: userID, Items: items, UpdatedAt: now, Version: version + 1}
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	_, err = r.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(ObjectKey(userID)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("put object: %w", err)
	}
	return doc, nil
}
