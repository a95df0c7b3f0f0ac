package backup

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/bmorrisey/rotaledger/internal/database"
)

// mockS3Client implements s3Client against an in-memory bucket.
type mockS3Client struct {
	mu       sync.Mutex
	objects  map[string][]byte
	modified map[string]time.Time
	putErr   error
}

func newMockS3() *mockS3Client {
	return &mockS3Client{
		objects:  make(map[string][]byte),
		modified: make(map[string]time.Time),
	}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, _ := io.ReadAll(input.Body)
	m.objects[*input.Key] = data
	m.modified[*input.Key] = time.Now().UTC()
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) GetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*input.Key]
	if !ok {
		return nil, &s3NotFound{}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: aws.Int64(int64(len(data))),
	}, nil
}

func (m *mockS3Client) DeleteObject(_ context.Context, input *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, *input.Key)
	delete(m.modified, *input.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func (m *mockS3Client) ListObjectsV2(_ context.Context, input *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for key := range m.objects {
		if strings.HasPrefix(key, aws.ToString(input.Prefix)) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	out := &s3.ListObjectsV2Output{}
	for _, key := range keys {
		mod := m.modified[key]
		out.Contents = append(out.Contents, s3types.Object{
			Key:          aws.String(key),
			Size:         aws.Int64(int64(len(m.objects[key]))),
			LastModified: &mod,
		})
	}
	return out, nil
}

type s3NotFound struct{}

func (e *s3NotFound) Error() string { return "NoSuchKey" }

func enabledConfig(dbPath string) Config {
	return Config{
		S3:         S3Config{Bucket: "test", AccessKey: "key", SecretKey: "secret"},
		DBPath:     dbPath,
		Passphrase: "hunter2",
	}
}

func testManager(t *testing.T) (*Manager, *mockS3Client) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	m := NewManager(enabledConfig(dbPath), db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	mock := newMockS3()
	m.client = mock
	return m, mock
}

func TestManagerStateLifecycle(t *testing.T) {
	// Without S3 config -> disabled
	m := NewManager(Config{}, nil, slog.Default())
	if m.Status().State != StateDisabled {
		t.Errorf("state = %q, want %q", m.Status().State, StateDisabled)
	}
	if m.Enabled() {
		t.Error("unconfigured manager must report disabled")
	}

	// Passphrase missing -> still disabled; an unencrypted upload is
	// never an option.
	m2 := NewManager(Config{
		S3: S3Config{Bucket: "test", AccessKey: "key", SecretKey: "secret"},
	}, nil, slog.Default())
	if m2.Status().State != StateDisabled {
		t.Errorf("state = %q, want %q without passphrase", m2.Status().State, StateDisabled)
	}

	m3 := NewManager(enabledConfig("x.db"), nil, slog.Default())
	if m3.Status().State != StateIdle {
		t.Errorf("state = %q, want %q", m3.Status().State, StateIdle)
	}
}

func TestRunNowUploadsEncryptedSnapshot(t *testing.T) {
	m, mock := testManager(t)

	key, err := m.RunNow(context.Background())
	if err != nil {
		t.Fatalf("run now: %v", err)
	}
	if !strings.HasPrefix(key, keyPrefix) {
		t.Errorf("key = %q, want %q prefix", key, keyPrefix)
	}

	data, ok := mock.objects[key]
	if !ok {
		t.Fatal("snapshot not uploaded")
	}
	// sqlite files start with this header; the ciphertext must not.
	if bytes.HasPrefix(data, []byte("SQLite format 3")) {
		t.Error("uploaded snapshot is not encrypted")
	}

	status := m.Status()
	if status.State != StateIdle {
		t.Errorf("state = %q after success, want %q", status.State, StateIdle)
	}
	if status.LastBackup == nil {
		t.Error("last backup time not recorded")
	}
}

func TestRunNowUploadFailure(t *testing.T) {
	m, mock := testManager(t)
	mock.putErr = &s3NotFound{}

	if _, err := m.RunNow(context.Background()); err == nil {
		t.Fatal("expected upload error")
	}
	if m.Status().State != StateError {
		t.Errorf("state = %q after failure, want %q", m.Status().State, StateError)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	m, _ := testManager(t)

	key, err := m.RunNow(context.Background())
	if err != nil {
		t.Fatalf("run now: %v", err)
	}

	body, size, err := m.Download(context.Background(), key)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer body.Close()
	if size <= 0 {
		t.Errorf("size = %d, want > 0", size)
	}

	tmp := t.TempDir()
	encFile := filepath.Join(tmp, "snap.db.enc")
	decFile := filepath.Join(tmp, "snap.db")
	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if err := os.WriteFile(encFile, data, 0600); err != nil {
		t.Fatal(err)
	}

	if err := Decrypt(encFile, decFile, "hunter2"); err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	restored, err := database.Open(decFile)
	if err != nil {
		t.Fatalf("open restored db: %v", err)
	}
	defer restored.Close()
	var integrity string
	if err := restored.QueryRow("PRAGMA integrity_check").Scan(&integrity); err != nil {
		t.Fatalf("integrity check: %v", err)
	}
	if integrity != "ok" {
		t.Errorf("integrity = %q, want ok", integrity)
	}
}

func TestDownloadRejectsForeignKey(t *testing.T) {
	m, _ := testManager(t)
	if _, _, err := m.Download(context.Background(), "../../etc/passwd"); err == nil {
		t.Error("non-snapshot key must be rejected")
	}
}

func TestPruneDeletesExpiredOnly(t *testing.T) {
	m, mock := testManager(t)

	old := time.Now().UTC().AddDate(0, 0, -45)
	mock.objects[keyPrefix+"rotaledger-old.db.enc"] = []byte("x")
	mock.modified[keyPrefix+"rotaledger-old.db.enc"] = old
	mock.objects[keyPrefix+"rotaledger-new.db.enc"] = []byte("y")
	mock.modified[keyPrefix+"rotaledger-new.db.enc"] = time.Now().UTC()

	if err := m.Prune(context.Background()); err != nil {
		t.Fatalf("prune: %v", err)
	}
	if _, ok := mock.objects[keyPrefix+"rotaledger-old.db.enc"]; ok {
		t.Error("expired snapshot not deleted")
	}
	if _, ok := mock.objects[keyPrefix+"rotaledger-new.db.enc"]; !ok {
		t.Error("recent snapshot must survive prune")
	}
}

func TestSnapshotsNewestFirst(t *testing.T) {
	m, mock := testManager(t)

	mock.objects[keyPrefix+"a"] = []byte("x")
	mock.modified[keyPrefix+"a"] = time.Now().UTC().Add(-time.Hour)
	mock.objects[keyPrefix+"b"] = []byte("y")
	mock.modified[keyPrefix+"b"] = time.Now().UTC()
	mock.objects["unrelated/c"] = []byte("z")

	snaps, err := m.Snapshots(context.Background())
	if err != nil {
		t.Fatalf("snapshots: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("len = %d, want 2", len(snaps))
	}
	if snaps[0].Key != keyPrefix+"b" {
		t.Errorf("first = %q, want newest", snaps[0].Key)
	}
}

func TestStopWithoutStart(t *testing.T) {
	m := NewManager(Config{}, nil, slog.Default())
	m.Stop() // must not panic or block
}
