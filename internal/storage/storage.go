// Package storage is the media bucket: an object store on local disk,
// partitioned by key prefix and served read-only under a public base URL.
package storage

import (
    "bytes"
    "errors"
    "fmt"
    "io"
    "net/http"
    "os"
    "path"
    "path/filepath"
    "strconv"
    "strings"

    "github.com/google/uuid"

    "github.com/iliyamo/artist-booking/internal/config"
)

// Key prefixes.  Every object lives under exactly one of them.
const (
    PrefixProfiles    = "profiles/"
    PrefixArtistMedia = "artist-media/"
    PrefixEventCovers = "event-covers/"
)

var (
    ErrTooLarge    = errors.New("file too large")
    ErrInvalidKey  = errors.New("invalid object key")
    ErrUnsupported = errors.New("unsupported file type")
)

// Object is a stored file.
type Object struct {
    Key         string `json:"key"`
    URL         string `json:"url"`
    Size        int64  `json:"size"`
    ContentType string `json:"content_type"`
}

// Bucket stores objects under Root/Name.
type Bucket struct {
    dir      string
    baseURL  string
    maxBytes int64
}

// New creates the bucket directory when missing.
func New(cfg config.StorageConfig) (*Bucket, error) {
    dir := filepath.Join(cfg.Root, cfg.Bucket)
    if err := os.MkdirAll(dir, 0o755); err != nil {
        return nil, fmt.Errorf("create bucket dir: %w", err)
    }
    maxMB := cfg.MaxUploadMB
    if maxMB <= 0 {
        maxMB = 25
    }
    return &Bucket{
        dir:      dir,
        baseURL:  strings.TrimRight(cfg.PublicBaseURL, "/"),
        maxBytes: int64(maxMB) << 20,
    }, nil
}

// Dir is the directory served under the public base URL.
func (b *Bucket) Dir() string { return b.dir }

// MaxBytes is the per-object size limit.
func (b *Bucket) MaxBytes() int64 { return b.maxBytes }

// URL returns the public URL of key.
func (b *Bucket) URL(key string) string { return b.baseURL + "/" + key }

// Put writes r under prefix/ownerID/<uuid><ext> and returns the object.
// The content type is sniffed from the first bytes; only image, video and
// audio files are accepted.
func (b *Bucket) Put(prefix string, ownerID uint64, filename string, r io.Reader) (*Object, error) {
    if !validPrefix(prefix) {
        return nil, ErrInvalidKey
    }
    head := make([]byte, 512)
    n, err := io.ReadFull(r, head)
    if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
        return nil, err
    }
    head = head[:n]
    ctype := http.DetectContentType(head)
    if MediaKind(ctype) == "" {
        return nil, ErrUnsupported
    }

    key := prefix + strconv.FormatUint(ownerID, 10) + "/" + uuid.NewString() + strings.ToLower(path.Ext(filename))
    full := filepath.Join(b.dir, filepath.FromSlash(key))
    if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
        return nil, err
    }
    tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
    if err != nil {
        return nil, err
    }
    defer os.Remove(tmp.Name())

    src := io.MultiReader(bytes.NewReader(head), io.LimitReader(r, b.maxBytes+1-int64(n)))
    size, err := io.Copy(tmp, src)
    if cerr := tmp.Close(); err == nil {
        err = cerr
    }
    if err != nil {
        return nil, err
    }
    if size > b.maxBytes {
        return nil, ErrTooLarge
    }
    if err := os.Rename(tmp.Name(), full); err != nil {
        return nil, err
    }
    return &Object{Key: key, URL: b.URL(key), Size: size, ContentType: ctype}, nil
}

// Remove deletes key.  Removing a missing object is not an error.
func (b *Bucket) Remove(key string) error {
    if !validKey(key) {
        return ErrInvalidKey
    }
    err := os.Remove(filepath.Join(b.dir, filepath.FromSlash(key)))
    if errors.Is(err, os.ErrNotExist) {
        return nil
    }
    return err
}

// MediaKind maps a content type to image, video or audio, or "" when the
// type is not a media file.
func MediaKind(contentType string) string {
    switch {
    case strings.HasPrefix(contentType, "image/"):
        return "image"
    case strings.HasPrefix(contentType, "video/"):
        return "video"
    case strings.HasPrefix(contentType, "audio/"), contentType == "application/ogg":
        return "audio"
    }
    return ""
}

func validPrefix(p string) bool {
    return p == PrefixProfiles || p == PrefixArtistMedia || p == PrefixEventCovers
}

func validKey(key string) bool {
    if key == "" || strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
        return false
    }
    for _, p := range []string{PrefixProfiles, PrefixArtistMedia, PrefixEventCovers} {
        if strings.HasPrefix(key, p) {
            return true
        }
    }
    return false
}
