// Package fetch is the download collaborator used by dataset constructors
// when local files are absent and the caller opted in to downloading. It
// copies from local paths or gs:// buckets, optionally verifies an MD5
// checksum, and extracts zip archives.
package fetch

import (
	"archive/zip"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
)

// Download fetches src into destDir and returns the local path of the copy.
// src may be a plain filesystem path or a gs://bucket/object URL.
func Download(ctx context.Context, src, destDir string) (string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", destDir, err)
	}

	var r io.ReadCloser
	var name string
	if bucket, object, ok := splitGS(src); ok {
		client, err := storage.NewClient(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to create storage client: %w", err)
		}
		defer client.Close()

		rc, err := client.Bucket(bucket).Object(object).NewReader(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to open gs://%s/%s: %w", bucket, object, err)
		}
		r = rc
		name = filepath.Base(object)
	} else {
		f, err := os.Open(src)
		if err != nil {
			return "", fmt.Errorf("failed to open %s: %w", src, err)
		}
		r = f
		name = filepath.Base(src)
	}
	defer r.Close()

	dest := filepath.Join(destDir, name)
	w, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer w.Close()

	if _, err := io.Copy(w, r); err != nil {
		return "", fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return dest, nil
}

// splitGS splits a gs://bucket/object URL into bucket and object.
func splitGS(src string) (bucket, object string, ok bool) {
	rest, found := strings.CutPrefix(src, "gs://")
	if !found {
		return "", "", false
	}
	bucket, object, found = strings.Cut(rest, "/")
	if !found || bucket == "" || object == "" {
		return "", "", false
	}
	return bucket, object, true
}

// VerifyMD5 checks that the file at path has the given hex MD5 digest.
func VerifyMD5(path, sum string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("failed to hash %s: %w", path, err)
	}

	got := hex.EncodeToString(h.Sum(nil))
	if !strings.EqualFold(got, sum) {
		return fmt.Errorf("checksum mismatch for %s: got %s, want %s", path, got, sum)
	}
	return nil
}

// ExtractZip unpacks the archive at src into destDir, refusing entries that
// would escape destDir.
func ExtractZip(src, destDir string) error {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("failed to open archive %s: %w", src, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		dest := filepath.Join(destDir, filepath.Clean(f.Name))
		if !strings.HasPrefix(dest, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry %s escapes %s", f.Name, destDir)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return fmt.Errorf("failed to create %s: %w", dest, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", filepath.Dir(dest), err)
		}
		if err := extractFile(f, dest); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, dest string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open archive entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	w, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer w.Close()

	if _, err := io.Copy(w, rc); err != nil {
		return fmt.Errorf("failed to extract %s: %w", f.Name, err)
	}
	return nil
}
