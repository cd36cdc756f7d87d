package service

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"testing"

	"mesto/internal/models"
	"mesto/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaService_UploadStoresBothMasters(t *testing.T) {
	store := testutil.NewMemoryStore()
	svc := NewMediaService(store)

	res, err := svc.Upload(context.Background(), UploadImageInput{UserID: 1, Content: testutil.PNGBytes(t, 64, 32)})
	require.NoError(t, err)

	assert.Len(t, res.Hash, 64)
	assert.Equal(t, "http://media.test/"+res.Hash+"/master.jpg", res.URL)
	assert.Equal(t, "http://media.test/"+res.Hash+"/master.webp", res.WebP)
	assert.Equal(t, "image/jpeg", store.Types[res.Hash+"/master.jpg"])
	assert.Equal(t, "image/webp", store.Types[res.Hash+"/master.webp"])

	again, err := svc.Upload(context.Background(), UploadImageInput{UserID: 2, Content: testutil.PNGBytes(t, 64, 32)})
	require.NoError(t, err)
	assert.Equal(t, res.Hash, again.Hash, "identical content is stored once")
	assert.Len(t, store.Objects, 2)
}

func TestMediaService_DownscalesLargeImages(t *testing.T) {
	store := testutil.NewMemoryStore()
	svc := NewMediaService(store)

	res, err := svc.Upload(context.Background(), UploadImageInput{UserID: 1, Content: testutil.PNGBytes(t, 4096, 1024)})
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(store.Objects[res.Hash+"/master.jpg"]))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, MasterMaxSize, cfg.Width)
	assert.Equal(t, 512, cfg.Height)
}

func TestMediaService_RejectsBadInput(t *testing.T) {
	svc := NewMediaService(testutil.NewMemoryStore())

	tests := []struct {
		name    string
		content []byte
	}{
		{"empty", nil},
		{"too large", make([]byte, MaxUploadBytes+1)},
		{"not an image", []byte("plain text, definitely not pixels")},
		{"truncated png", testutil.PNGBytes(t, 8, 8)[:20]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(context.Background(), UploadImageInput{UserID: 1, Content: tt.content})
			assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
		})
	}
}

// pngHeader returns a PNG holding only an IHDR for a width x height 8-bit
// grayscale image, enough for DecodeConfig to report the dimensions.
func pngHeader(width, height uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], width)
	binary.BigEndian.PutUint32(ihdr[4:8], height)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 0 // grayscale

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestMediaService_RejectsOversizedDimensions(t *testing.T) {
	store := testutil.NewMemoryStore()
	svc := NewMediaService(store)

	content := pngHeader(16000, 16000)
	cfg, _, err := image.DecodeConfig(bytes.NewReader(content))
	require.NoError(t, err)
	require.Equal(t, 16000, cfg.Width)

	_, err = svc.Upload(context.Background(), UploadImageInput{UserID: 1, Content: content})
	require.Error(t, err)
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
	assert.Contains(t, err.Error(), "Image dimensions too large")
	assert.Empty(t, store.Objects)
}
