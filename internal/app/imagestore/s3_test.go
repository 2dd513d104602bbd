package imagestore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-secondhand-market/internal/types"
)

// fakeS3 records calls and plays back scripted responses.
type fakeS3 struct {
	putInputs    []*s3.PutObjectInput
	putErr       error
	listOutputs  []*s3.ListObjectsV2Output
	listErr      error
	deleteInputs []*s3.DeleteObjectsInput
	deleteErr    error
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.putInputs = append(f.putInputs, params)
	if f.putErr != nil {
		return nil, f.putErr
	}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if len(f.listOutputs) == 0 {
		return &s3.ListObjectsV2Output{}, nil
	}
	out := f.listOutputs[0]
	f.listOutputs = f.listOutputs[1:]
	return out, nil
}

func (f *fakeS3) DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	f.deleteInputs = append(f.deleteInputs, params)
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	return &s3.DeleteObjectsOutput{}, nil
}

func newTestStore(client s3API) *S3Store {
	return &S3Store{
		client:        client,
		bucket:        "marketplace-images",
		publicBaseURL: "https://img.example.com",
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestUpload(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		fake := &fakeS3{}
		store := newTestStore(fake)

		img := &types.ImageUpload{
			Filename:    "photo.png",
			ContentType: "image/png",
			Data:        []byte{1, 2, 3},
		}
		descriptor, err := store.Upload(context.Background(), "offers/abc", "preview", img)

		require.NoError(t, err)
		assert.Equal(t, "offers/abc/preview", descriptor.PublicID)
		assert.Equal(t, "https://img.example.com/offers/abc/preview", descriptor.SecureURL)
		assert.Equal(t, "image/png", descriptor.ContentType)
		assert.Equal(t, int64(3), descriptor.Bytes)

		require.Len(t, fake.putInputs, 1)
		assert.Equal(t, "marketplace-images", *fake.putInputs[0].Bucket)
		assert.Equal(t, "offers/abc/preview", *fake.putInputs[0].Key)
	})

	t.Run("UpstreamFailure", func(t *testing.T) {
		fake := &fakeS3{putErr: errors.New("access denied")}
		store := newTestStore(fake)

		descriptor, err := store.Upload(context.Background(), "offers/abc", "preview",
			&types.ImageUpload{ContentType: "image/png", Data: []byte{1}})

		assert.Nil(t, descriptor)
		assert.ErrorIs(t, err, types.ErrUpstream)
	})
}

func TestDeleteByPrefix(t *testing.T) {
	t.Run("DeletesAllListedObjects", func(t *testing.T) {
		fake := &fakeS3{
			listOutputs: []*s3.ListObjectsV2Output{
				{
					Contents: []s3types.Object{
						{Key: aws.String("offers/abc/preview")},
						{Key: aws.String("offers/abc/extra")},
					},
					IsTruncated: aws.Bool(false),
				},
			},
		}
		store := newTestStore(fake)

		require.NoError(t, store.DeleteByPrefix(context.Background(), "offers/abc"))
		require.Len(t, fake.deleteInputs, 1)
		assert.Len(t, fake.deleteInputs[0].Delete.Objects, 2)
	})

	t.Run("PagesThroughTruncatedListings", func(t *testing.T) {
		fake := &fakeS3{
			listOutputs: []*s3.ListObjectsV2Output{
				{
					Contents:              []s3types.Object{{Key: aws.String("offers/abc/a")}},
					IsTruncated:           aws.Bool(true),
					NextContinuationToken: aws.String("next"),
				},
				{
					Contents:    []s3types.Object{{Key: aws.String("offers/abc/b")}},
					IsTruncated: aws.Bool(false),
				},
			},
		}
		store := newTestStore(fake)

		require.NoError(t, store.DeleteByPrefix(context.Background(), "offers/abc"))
		assert.Len(t, fake.deleteInputs, 2)
	})

	t.Run("EmptyPrefixIsANoop", func(t *testing.T) {
		fake := &fakeS3{}
		store := newTestStore(fake)

		require.NoError(t, store.DeleteByPrefix(context.Background(), "offers/ghost"))
		assert.Empty(t, fake.deleteInputs)
	})

	t.Run("ListFailure", func(t *testing.T) {
		fake := &fakeS3{listErr: errors.New("timeout")}
		store := newTestStore(fake)

		err := store.DeleteByPrefix(context.Background(), "offers/abc")
		assert.ErrorIs(t, err, types.ErrUpstream)
	})
}

func TestFolders(t *testing.T) {
	assert.Equal(t, "offers/abc", OfferFolder("abc"))
	assert.Equal(t, "users/abc/avatar", AvatarFolder("abc"))
}
