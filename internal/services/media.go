package services

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"indorunners-backend-go/internal/apperr"
	"indorunners-backend-go/internal/models"
	"indorunners-backend-go/internal/policy"
	"indorunners-backend-go/internal/store"

	"github.com/google/uuid"
)

const (
	BucketPaymentProofs = "payment-proofs"

	DefaultMaxProofBytes int64 = 5 << 20
)

var allowedProofTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

var errFileTooLarge = errors.New("file exceeds size limit")

// FileStore keeps uploaded bytes outside the database.
type FileStore interface {
	// Put stores at most limit bytes and returns the size and sha256 hex.
	Put(bucket, key string, body io.Reader, limit int64) (int64, string, error)
	Open(bucket, key string) (io.ReadCloser, error)
	Delete(bucket, key string) error
}

// DiskFileStore writes files under Base/<bucket>/<key>.
type DiskFileStore struct {
	Base string
}

func (d DiskFileStore) ensureBucket(bucket string) (string, error) {
	path := filepath.Join(d.Base, bucket)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", err
	}
	return path, nil
}

func (d DiskFileStore) Put(bucket, key string, body io.Reader, limit int64) (int64, string, error) {
	bucketPath, err := d.ensureBucket(bucket)
	if err != nil {
		return 0, "", err
	}
	target := filepath.Join(bucketPath, filepath.Base(key))
	file, err := os.Create(target)
	if err != nil {
		return 0, "", err
	}
	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(file, hasher), io.LimitReader(body, limit+1))
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && size > limit {
		err = errFileTooLarge
	}
	if err != nil {
		_ = os.Remove(target)
		return 0, "", err
	}
	return size, hex.EncodeToString(hasher.Sum(nil)), nil
}

func (d DiskFileStore) Open(bucket, key string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(d.Base, bucket, filepath.Base(key)))
}

func (d DiskFileStore) Delete(bucket, key string) error {
	err := os.Remove(filepath.Join(d.Base, bucket, filepath.Base(key)))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

type MediaService struct {
	Deps
	Files         FileStore
	MaxProofBytes int64
}

func NewMediaService(d Deps, files FileStore, maxProofBytes int64) *MediaService {
	if maxProofBytes <= 0 {
		maxProofBytes = DefaultMaxProofBytes
	}
	return &MediaService{Deps: d.withDefaults(), Files: files, MaxProofBytes: maxProofBytes}
}

// SavePaymentProof stores an uploaded image and returns the asset whose id
// a registration references. The declared content type must match what the
// bytes sniff as.
func (s *MediaService) SavePaymentProof(ctx context.Context, caller policy.Caller, filename, contentType string, body io.Reader) (models.MediaAsset, error) {
	if err := s.Policy.Authorize(caller, policy.UploadPaymentProof); err != nil {
		return models.MediaAsset{}, err
	}
	reader := bufio.NewReaderSize(body, 512)
	head, err := reader.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return models.MediaAsset{}, apperr.Internal("read upload", err)
	}
	if len(head) == 0 {
		return models.MediaAsset{}, apperr.Validation("File is empty")
	}
	sniffed := http.DetectContentType(head)
	declared := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if declared == "" {
		declared = sniffed
	}
	if !allowedProofTypes[declared] || declared != sniffed {
		return models.MediaAsset{}, apperr.Validation("Payment proof must be a JPEG, PNG or WebP image")
	}

	asset := models.MediaAsset{
		ID:          uuid.NewString(),
		Bucket:      BucketPaymentProofs,
		ContentType: declared,
		CreatedAt:   s.Now(),
	}
	asset.StorageKey = asset.ID
	if name := strings.TrimSpace(filepath.Base(filename)); name != "" && name != "." {
		asset.Filename = &name
	}
	if !caller.IsAnonymous() {
		owner := caller.UserID
		asset.OwnerUserID = &owner
	}

	size, sum, err := s.Files.Put(asset.Bucket, asset.StorageKey, reader, s.MaxProofBytes)
	if errors.Is(err, errFileTooLarge) {
		return models.MediaAsset{}, apperr.Validation("Payment proof is too large")
	}
	if err != nil {
		return models.MediaAsset{}, apperr.Internal("store payment proof", err)
	}
	asset.SizeBytes = size
	asset.Sha256 = sum

	if err := s.Store.InsertMediaAsset(ctx, asset); err != nil {
		_ = s.Files.Delete(asset.Bucket, asset.StorageKey)
		return models.MediaAsset{}, store.Translate(err, "save media asset")
	}
	s.Log.Info().Str("asset_id", asset.ID).Int64("size", size).Msg("payment proof stored")
	return asset, nil
}

// Delete removes the row and the file. A missing asset is not an error.
func (s *MediaService) Delete(ctx context.Context, assetID string) error {
	asset, err := s.Store.FindMediaAsset(ctx, assetID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return store.Translate(err, "find media asset")
	}
	if _, err := s.Store.DeleteMediaAsset(ctx, assetID); err != nil {
		return store.Translate(err, "delete media asset")
	}
	if err := s.Files.Delete(asset.Bucket, asset.StorageKey); err != nil {
		s.Log.Warn().Err(err).Str("asset_id", assetID).Msg("media file cleanup failed")
	}
	return nil
}

// Open returns the asset content to an admin, the uploader, or the member
// whose registration references it.
func (s *MediaService) Open(ctx context.Context, caller policy.Caller, assetID string) (models.MediaAsset, io.ReadCloser, error) {
	if err := s.Policy.Authorize(caller, policy.ViewMedia); err != nil {
		return models.MediaAsset{}, nil, err
	}
	asset, err := s.Store.FindMediaAsset(ctx, assetID)
	if errors.Is(err, store.ErrNotFound) {
		return models.MediaAsset{}, nil, apperr.NotFound("Asset not found")
	}
	if err != nil {
		return models.MediaAsset{}, nil, store.Translate(err, "find media asset")
	}
	if !caller.IsAdmin() && (asset.OwnerUserID == nil || *asset.OwnerUserID != caller.UserID) {
		ok, err := s.Store.PaymentProofAccessible(ctx, asset.ID, caller.UserID)
		if err != nil {
			return models.MediaAsset{}, nil, store.Translate(err, "check media access")
		}
		if !ok {
			return models.MediaAsset{}, nil, apperr.ErrForbidden
		}
	}
	body, err := s.Files.Open(asset.Bucket, asset.StorageKey)
	if errors.Is(err, os.ErrNotExist) {
		return models.MediaAsset{}, nil, apperr.NotFound("Asset content missing")
	}
	if err != nil {
		return models.MediaAsset{}, nil, apperr.Internal("open media asset", err)
	}
	return asset, body, nil
}
