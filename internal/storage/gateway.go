package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"agroproposals/internal/codec"
	"agroproposals/pkg/types"

	"github.com/sirupsen/logrus"
)

const PDFContentType = "application/pdf"

// Backend is the object store the gateway writes to. Implementations do no
// authorization of their own.
type Backend interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Remove(ctx context.Context, keys ...string) error
	PublicURL(key string) string
}

// Gateway stores proposal PDFs under "{ownerID}/" and refuses to touch keys
// outside the caller's own prefix. Keys are always built from the resolved
// owner, never from caller supplied path segments.
type Gateway struct {
	backend Backend
	bucket  string
	logger  logrus.FieldLogger
}

func NewGateway(backend Backend, bucket string, logger logrus.FieldLogger) *Gateway {
	return &Gateway{
		backend: backend,
		bucket:  bucket,
		logger:  logger,
	}
}

// Put validates the PDF header and writes (or overwrites) {ownerID}/{fileName}.
func (g *Gateway) Put(ctx context.Context, ownerID, fileName string, data []byte) (string, error) {
	if ownerID == "" {
		return "", types.ErrNotAuthenticated
	}

	if !codec.IsValidPDF(data) {
		return "", types.ErrInvalidContent
	}

	key, err := objectKey(ownerID, fileName)
	if err != nil {
		return "", err
	}

	err = g.backend.Upload(ctx, key, data, PDFContentType)
	if err != nil {
		return "", &types.UpstreamError{Op: "upload " + key, Err: err}
	}

	g.logger.WithFields(logrus.Fields{
		"user_id":     ownerID,
		"storage_key": key,
		"size_bytes":  len(data),
	}).Debug("stored proposal pdf")

	return g.backend.PublicURL(key), nil
}

// Replace removes the object behind oldURL when it belongs to ownerID and then
// writes the new PDF. The removal is best effort, a foreign or unparsable
// oldURL is skipped without telling the caller.
func (g *Gateway) Replace(ctx context.Context, ownerID, fileName string, data []byte, oldURL string) (string, error) {
	if ownerID == "" {
		return "", types.ErrNotAuthenticated
	}

	if !codec.IsValidPDF(data) {
		return "", types.ErrInvalidContent
	}

	g.removePrevious(ctx, ownerID, oldURL)

	return g.Put(ctx, ownerID, fileName, data)
}

// PutEncoded is Put for a base64 or data URL payload.
func (g *Gateway) PutEncoded(ctx context.Context, ownerID, fileName, payload string) (string, error) {
	if ownerID == "" {
		return "", types.ErrNotAuthenticated
	}

	data, err := decodePayload(payload)
	if err != nil {
		return "", err
	}

	return g.Put(ctx, ownerID, fileName, data)
}

// ReplaceEncoded is Replace for a base64 or data URL payload.
func (g *Gateway) ReplaceEncoded(ctx context.Context, ownerID, fileName, payload, oldURL string) (string, error) {
	if ownerID == "" {
		return "", types.ErrNotAuthenticated
	}

	data, err := decodePayload(payload)
	if err != nil {
		return "", err
	}

	return g.Replace(ctx, ownerID, fileName, data, oldURL)
}

// Remove deletes the object behind url if its key sits under ownerID.
func (g *Gateway) Remove(ctx context.Context, ownerID, url string) error {
	if ownerID == "" {
		return types.ErrNotAuthenticated
	}

	key, ok := g.KeyFromURL(url)
	if !ok {
		return types.ErrInvalidReference
	}

	if !ownedBy(key, ownerID) {
		g.logger.WithFields(logrus.Fields{
			"user_id":     ownerID,
			"storage_key": key,
		}).Warn("refusing to remove pdf outside the caller's prefix")
		return types.ErrUnauthorized
	}

	err := g.backend.Remove(ctx, key)
	if err != nil {
		return &types.UpstreamError{Op: "remove " + key, Err: err}
	}

	return nil
}

// ResolveURL maps a storage key to its public URL. Reads are public.
func (g *Gateway) ResolveURL(key string) string {
	return g.backend.PublicURL(strings.TrimPrefix(key, "/"))
}

// KeyFromURL returns the bucket relative key of a public object URL. URLs
// built by the configured backend are matched on its exact public prefix, so
// a bucket named like one of the prefix's own path segments still resolves.
// Anything else falls back to the first "/{bucket}/" segment.
func (g *Gateway) KeyFromURL(url string) (string, bool) {
	key, found := strings.CutPrefix(url, g.backend.PublicURL(""))
	if !found {
		_, key, found = strings.Cut(url, "/"+g.bucket+"/")
	}
	if !found {
		return "", false
	}

	if i := strings.IndexAny(key, "?#"); i >= 0 {
		key = key[:i]
	}

	if key == "" || strings.HasSuffix(key, "/") {
		return "", false
	}

	return key, true
}

func (g *Gateway) removePrevious(ctx context.Context, ownerID, oldURL string) {
	if oldURL == "" {
		return
	}

	key, ok := g.KeyFromURL(oldURL)
	if !ok || !ownedBy(key, ownerID) {
		g.logger.WithField("user_id", ownerID).Debug("skipping removal of previous pdf not owned by caller")
		return
	}

	err := g.backend.Remove(ctx, key)
	if err != nil {
		g.logger.WithError(err).WithFields(logrus.Fields{
			"user_id":     ownerID,
			"storage_key": key,
		}).Warn("failed to remove previous proposal pdf, continuing with upload")
	}
}

func objectKey(ownerID, fileName string) (string, error) {
	base := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if base == "." || base == "/" || base == ".." {
		return "", fmt.Errorf("%w: empty file name", types.ErrInvalidReference)
	}

	return ownerID + "/" + base, nil
}

// ownedBy is the whole authorization model: the first key segment is the owner.
func ownedBy(key, ownerID string) bool {
	if path.Clean(key) != key {
		return false
	}

	return strings.HasPrefix(key, ownerID+"/")
}

func decodePayload(payload string) ([]byte, error) {
	data, err := codec.Decode(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidContent, err)
	}

	return data, nil
}
