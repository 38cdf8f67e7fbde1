package services

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/akinalp/gaduly/pkg"
)

// UploadPrefix is the URL path stored uploads are served under.
const UploadPrefix = "/uploads/"

// UploadService stores message images and avatars on disk.
type UploadService interface {
	// SaveImage validates and stores an image and returns its public URL.
	SaveImage(file multipart.File, header *multipart.FileHeader) (string, error)
	// Remove deletes a file previously returned by SaveImage. Unknown
	// URLs are ignored.
	Remove(url string)
}

type uploadService struct {
	uploadDir string
	maxSize   int64
}

// NewUploadService is the constructor.
func NewUploadService(uploadDir string, maxSize int64) UploadService {
	return &uploadService{
		uploadDir: uploadDir,
		maxSize:   maxSize,
	}
}

// allowedImageTypes maps the accepted content types to the stored extension.
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

func (s *uploadService) SaveImage(file multipart.File, header *multipart.FileHeader) (string, error) {
	if header.Size > s.maxSize {
		return "", fmt.Errorf("%w: file too large (max %dMB)", pkg.ErrBadRequest, s.maxSize/(1024*1024))
	}

	// Sniff the bytes instead of trusting the part's Content-Type.
	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	contentType := http.DetectContentType(head[:n])
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return "", fmt.Errorf("%w: file type not allowed: %s", pkg.ErrBadRequest, contentType)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind upload: %w", err)
	}

	randomBytes := make([]byte, 16)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random filename: %w", err)
	}
	diskFilename := hex.EncodeToString(randomBytes) + ext

	if err := os.MkdirAll(s.uploadDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	destPath := filepath.Join(s.uploadDir, diskFilename)
	destFile, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, file); err != nil {
		os.Remove(destPath)
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return UploadPrefix + diskFilename, nil
}

func (s *uploadService) Remove(url string) {
	name := strings.TrimPrefix(url, UploadPrefix)
	if name == url || name != sanitizeFilename(name) {
		return
	}
	os.Remove(filepath.Join(s.uploadDir, name))
}

// sanitizeFilename strips any directory part so a name cannot escape the
// upload directory (../../etc/passwd).
func sanitizeFilename(name string) string {
	name = filepath.Base(name)

	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == '\x00' {
			return -1
		}
		return r
	}, name)

	if name == "" || name == "." || name == ".." {
		name = "unnamed"
	}

	return name
}
