package storage

import (
    "bytes"
    "errors"
    "os"
    "path/filepath"
    "strings"
    "testing"

    "github.com/iliyamo/artist-booking/internal/config"
)

// pngHeader is enough for http.DetectContentType to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newBucket(t *testing.T, maxMB int) *Bucket {
    t.Helper()
    b, err := New(config.StorageConfig{Root: t.TempDir(), Bucket: "media", PublicBaseURL: "/storage/", MaxUploadMB: maxMB})
    if err != nil {
        t.Fatal(err)
    }
    return b
}

func TestPutAndRemove(t *testing.T) {
    b := newBucket(t, 1)
    obj, err := b.Put(PrefixArtistMedia, 7, "Gig.PNG", bytes.NewReader(append(pngHeader, make([]byte, 100)...)))
    if err != nil {
        t.Fatal(err)
    }
    if !strings.HasPrefix(obj.Key, "artist-media/7/") || !strings.HasSuffix(obj.Key, ".png") {
        t.Fatalf("key = %q", obj.Key)
    }
    if obj.URL != "/storage/"+obj.Key || obj.ContentType != "image/png" {
        t.Fatalf("object = %+v", obj)
    }
    full := filepath.Join(b.Dir(), filepath.FromSlash(obj.Key))
    if _, err := os.Stat(full); err != nil {
        t.Fatalf("object not on disk: %v", err)
    }
    if err := b.Remove(obj.Key); err != nil {
        t.Fatal(err)
    }
    if _, err := os.Stat(full); !os.IsNotExist(err) {
        t.Fatalf("object still on disk: %v", err)
    }
    if err := b.Remove(obj.Key); err != nil {
        t.Fatalf("second remove: %v", err)
    }
}

func TestPutRejects(t *testing.T) {
    b := newBucket(t, 1)
    if _, err := b.Put("secrets/", 1, "a.png", bytes.NewReader(pngHeader)); !errors.Is(err, ErrInvalidKey) {
        t.Errorf("bad prefix err = %v", err)
    }
    if _, err := b.Put(PrefixProfiles, 1, "a.txt", strings.NewReader("hello world")); !errors.Is(err, ErrUnsupported) {
        t.Errorf("text file err = %v", err)
    }
    big := append(append([]byte{}, pngHeader...), make([]byte, 1<<20)...)
    if _, err := b.Put(PrefixProfiles, 1, "a.png", bytes.NewReader(big)); !errors.Is(err, ErrTooLarge) {
        t.Errorf("oversized err = %v", err)
    }
}

func TestRemoveRejectsTraversal(t *testing.T) {
    b := newBucket(t, 1)
    for _, key := range []string{"", "../etc/passwd", "/abs", "other/1/x.png", "profiles/../../x"} {
        if err := b.Remove(key); !errors.Is(err, ErrInvalidKey) {
            t.Errorf("Remove(%q) err = %v", key, err)
        }
    }
}

func TestMediaKind(t *testing.T) {
    cases := map[string]string{
        "image/jpeg": "image", "video/mp4": "video", "audio/mpeg": "audio",
        "application/ogg": "audio", "text/plain; charset=utf-8": "",
    }
    for in, want := range cases {
        if got := MediaKind(in); got != want {
            t.Errorf("MediaKind(%q) = %q, want %q", in, got, want)
        }
    }
}
