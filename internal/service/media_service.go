package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"net/http"
	"strings"

	"mesto/internal/models"
	"mesto/internal/observability"
	"mesto/internal/storage"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	MaxUploadBytes = 10 * 1024 * 1024
	MasterMaxSize  = 2048
	JPEGQuality    = 82
	WebPQuality    = 70
	// MaxImagePixels caps declared dimensions before any pixel buffer is allocated.
	MaxImagePixels = 40_000_000
)

// UploadImageInput is one uploaded file.
type UploadImageInput struct {
	UserID      uint
	Filename    string
	ContentType string
	Content     []byte
}

// UploadResult locates both stored masters.
type UploadResult struct {
	URL  string `json:"url"`
	WebP string `json:"webp"`
	Hash string `json:"hash"`
}

type MediaService struct {
	store storage.Store
}

func NewMediaService(store storage.Store) *MediaService {
	return &MediaService{store: store}
}

// Upload normalizes an image into JPEG and WebP masters no larger than
// MasterMaxSize and stores them under the content hash.
func (s *MediaService) Upload(ctx context.Context, in UploadImageInput) (*UploadResult, error) {
	ctx, span := observability.StartSpan(ctx, "MediaService", "Upload")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	if len(in.Content) == 0 {
		err = models.NewValidationError("No file uploaded")
		return nil, err
	}
	if len(in.Content) > MaxUploadBytes {
		err = models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", MaxUploadBytes/(1024*1024)))
		return nil, err
	}
	if !isAllowedImageMIME(http.DetectContentType(in.Content)) {
		err = models.NewValidationError("Invalid image type")
		return nil, err
	}

	cfg, _, cfgErr := image.DecodeConfig(bytes.NewReader(in.Content))
	if cfgErr != nil {
		err = models.NewValidationError("Invalid image file")
		return nil, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		err = models.NewValidationError(fmt.Sprintf("Image dimensions too large (max %d megapixels)", MaxImagePixels/1_000_000))
		return nil, err
	}

	decoded, _, decodeErr := image.Decode(bytes.NewReader(in.Content))
	if decodeErr != nil {
		err = models.NewValidationError("Invalid image file")
		return nil, err
	}

	master := resizeToFit(decoded, MasterMaxSize, MasterMaxSize)
	jpgBytes, err := encodeJPEG(master, JPEGQuality)
	if err != nil {
		err = models.NewInternalError(err)
		return nil, err
	}
	webpBytes, err := encodeWebP(master, WebPQuality)
	if err != nil {
		err = models.NewInternalError(err)
		return nil, err
	}

	hash := contentHash(jpgBytes)
	jpgKey := hash + "/master.jpg"
	webpKey := hash + "/master.webp"
	result := &UploadResult{URL: s.store.URL(jpgKey), WebP: s.store.URL(webpKey), Hash: hash}

	exists, err := s.store.Exists(ctx, jpgKey)
	if err != nil {
		err = models.NewInternalError(err)
		return nil, err
	}
	if exists {
		return result, nil
	}

	if err = s.store.Put(ctx, webpKey, webpBytes, "image/webp"); err != nil {
		err = models.NewInternalError(err)
		return nil, err
	}
	// The JPEG goes last so Exists only sees complete uploads.
	if err = s.store.Put(ctx, jpgKey, jpgBytes, "image/jpeg"); err != nil {
		err = models.NewInternalError(err)
		return nil, err
	}
	observability.UploadBytes.Observe(float64(len(jpgBytes) + len(webpBytes)))
	return result, nil
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 || (w <= maxWidth && h <= maxHeight) {
		return src
	}

	scale := min(float64(maxWidth)/float64(w), float64(maxHeight)/float64(h))
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")
	switch strings.ToLower(strings.TrimSpace(mediaType)) {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
