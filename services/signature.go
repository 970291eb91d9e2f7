package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"
)

const (
	// MaxSignatureSize is the upload cap for signature images (2MB)
	MaxSignatureSize = 2 * 1024 * 1024
)

// ValidateSignatureUpload checks that the uploaded file is a JPEG or PNG
// image within the size limit. Content is sniffed, not just the extension.
func ValidateSignatureUpload(fileHeader *multipart.FileHeader) error {
	if fileHeader.Size > MaxSignatureSize {
		return fmt.Errorf("file size exceeds maximum allowed size of 2MB")
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		return fmt.Errorf("only JPEG and PNG images are allowed")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	buffer := make([]byte, 8)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read file content: %w", err)
	}
	buffer = buffer[:n]

	isJPEG := len(buffer) >= 3 && bytes.Equal(buffer[0:3], []byte{0xFF, 0xD8, 0xFF})
	isPNG := len(buffer) >= 8 && bytes.Equal(buffer[0:8], []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A})

	if !isJPEG && !isPNG {
		return fmt.Errorf("file is not a valid JPEG or PNG image")
	}

	return nil
}

// SaveSignature validates and stores a trapper signature image, returning
// the storage key to persist on the trapper profile.
func SaveSignature(ctx context.Context, fileHeader *multipart.FileHeader) (string, error) {
	if err := ValidateSignatureUpload(fileHeader); err != nil {
		return "", err
	}

	key := SignatureKey(fileHeader.Filename, time.Now())
	if _, err := Storage.Upload(ctx, fileHeader, key); err != nil {
		return "", fmt.Errorf("failed to store signature image: %w", err)
	}
	return key, nil
}
