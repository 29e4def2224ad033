package service

import (
	"context"
	"errors"
	"testing"

	"github.com/pailler/qrlink/internal/app/model"
	"github.com/pailler/qrlink/internal/qr"
	"github.com/pailler/qrlink/internal/storage"
)

func newTestQRService(t *testing.T, qrCodes *mockQRCodeRepository) (QRCodeService, *storage.BlobStore) {
	t.Helper()

	owner := "sess-1"
	links := &mockLinkRepository{
		getIDFn: func(ctx context.Context, id string) (*model.Link, error) {
			return &model.Link{ID: id, ShortCode: "abc123", SessionID: &owner}, nil
		},
	}
	store, err := storage.NewBlobStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewBlobStore error: %v", err)
	}

	return NewQRCodeService(QRCodeServiceDeps{
		Links:   links,
		QRCodes: qrCodes,
		Store:   store,
		BaseURL: "https://qr.example.com",
	}), store
}

func TestQRCodeService_Create(t *testing.T) {
	var stored *model.QRCode
	qrCodes := &mockQRCodeRepository{
		createFn: func(ctx context.Context, record *model.QRCode) error {
			stored = record
			return nil
		},
	}

	svc, store := newTestQRService(t, qrCodes)
	record, err := svc.Create(context.Background(), sessionPrincipal("sess-1"), CreateQRCodeInput{
		LinkID: "link-1",
		Name:   "poster",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if record.ImageFormat != model.QRFormatPNG || record.SizePx != qr.DefaultSizePx {
		t.Fatalf("expected defaults applied, got %+v", record)
	}
	if stored == nil || stored.StoredImageRef == "" {
		t.Fatal("expected record persisted with an image ref")
	}
	if _, err := store.Load(record.StoredImageRef); err != nil {
		t.Fatalf("expected rendered image in store: %v", err)
	}
}

func TestQRCodeService_Create_CleansUpOnRepoFailure(t *testing.T) {
	var ref string
	qrCodes := &mockQRCodeRepository{
		createFn: func(ctx context.Context, record *model.QRCode) error {
			ref = record.StoredImageRef
			return errors.New("insert failed")
		},
	}

	svc, store := newTestQRService(t, qrCodes)
	_, err := svc.Create(context.Background(), sessionPrincipal("sess-1"), CreateQRCodeInput{LinkID: "link-1"})
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if _, err := store.Load(ref); !errors.Is(err, storage.ErrBlobNotFound) {
		t.Fatal("expected orphaned blob to be removed")
	}
}

func TestQRCodeService_Create_ForeignLink(t *testing.T) {
	svc, _ := newTestQRService(t, &mockQRCodeRepository{})
	_, err := svc.Create(context.Background(), sessionPrincipal("intruder"), CreateQRCodeInput{LinkID: "link-1"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestQRCodeService_Create_BadColor(t *testing.T) {
	svc, _ := newTestQRService(t, &mockQRCodeRepository{})
	_, err := svc.Create(context.Background(), sessionPrincipal("sess-1"), CreateQRCodeInput{
		LinkID:          "link-1",
		ForegroundColor: "magenta",
	})
	if !errors.Is(err, qr.ErrRenderFailed) {
		t.Fatalf("expected ErrRenderFailed, got %v", err)
	}
}

func TestQRCodeService_Update_VisualChangeRegenerates(t *testing.T) {
	current := &model.QRCode{
		ID:              "qr-1",
		LinkID:          "link-1",
		ImageFormat:     model.QRFormatPNG,
		SizePx:          300,
		ForegroundColor: "#000000",
		BackgroundColor: "#FFFFFF",
		LogoSizePx:      50,
		StoredImageRef:  "old.png",
	}
	qrCodes := &mockQRCodeRepository{
		getFn: func(ctx context.Context, id string) (*model.QRCode, error) {
			clone := *current
			return &clone, nil
		},
		updateFn: func(ctx context.Context, record *model.QRCode) error {
			current = record
			return nil
		},
	}

	svc, store := newTestQRService(t, qrCodes)
	if err := store.Save("old.png", []byte("previous image")); err != nil {
		t.Fatalf("seed old blob: %v", err)
	}

	newColor := "#FF0000"
	record, err := svc.Update(context.Background(), sessionPrincipal("sess-1"), "qr-1", UpdateQRCodeInput{
		ForegroundColor: &newColor,
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if record.StoredImageRef == "old.png" {
		t.Fatal("expected a fresh image ref after a visual change")
	}
	if _, err := store.Load(record.StoredImageRef); err != nil {
		t.Fatalf("expected regenerated image in store: %v", err)
	}
	if _, err := store.Load("old.png"); !errors.Is(err, storage.ErrBlobNotFound) {
		t.Fatal("expected the old image to be deleted")
	}
}

func TestQRCodeService_Update_MetadataOnlyKeepsImage(t *testing.T) {
	current := &model.QRCode{
		ID:              "qr-1",
		LinkID:          "link-1",
		Name:            "old name",
		ImageFormat:     model.QRFormatPNG,
		SizePx:          300,
		ForegroundColor: "#000000",
		BackgroundColor: "#FFFFFF",
		LogoSizePx:      50,
		StoredImageRef:  "keep.png",
	}
	qrCodes := &mockQRCodeRepository{
		getFn: func(ctx context.Context, id string) (*model.QRCode, error) {
			clone := *current
			return &clone, nil
		},
	}

	svc, store := newTestQRService(t, qrCodes)
	if err := store.Save("keep.png", []byte("image")); err != nil {
		t.Fatalf("seed blob: %v", err)
	}

	name := "new name"
	record, err := svc.Update(context.Background(), sessionPrincipal("sess-1"), "qr-1", UpdateQRCodeInput{
		Name: &name,
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if record.StoredImageRef != "keep.png" {
		t.Fatalf("metadata-only update must keep the image, got ref %q", record.StoredImageRef)
	}
	if record.Name != "new name" {
		t.Fatalf("expected renamed record, got %q", record.Name)
	}
	if _, err := store.Load("keep.png"); err != nil {
		t.Fatalf("expected image untouched: %v", err)
	}
}

func TestQRCodeService_Delete_RemovesImage(t *testing.T) {
	qrCodes := &mockQRCodeRepository{
		getFn: func(ctx context.Context, id string) (*model.QRCode, error) {
			return &model.QRCode{ID: id, LinkID: "link-1", StoredImageRef: "bye.png"}, nil
		},
	}

	svc, store := newTestQRService(t, qrCodes)
	if err := store.Save("bye.png", []byte("image")); err != nil {
		t.Fatalf("seed blob: %v", err)
	}

	if err := svc.Delete(context.Background(), sessionPrincipal("sess-1"), "qr-1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, err := store.Load("bye.png"); !errors.Is(err, storage.ErrBlobNotFound) {
		t.Fatal("expected image removed with the record")
	}
}

func TestQRCodeService_Image(t *testing.T) {
	qrCodes := &mockQRCodeRepository{
		getFn: func(ctx context.Context, id string) (*model.QRCode, error) {
			return &model.QRCode{ID: id, LinkID: "link-1", ImageFormat: model.QRFormatPNG, StoredImageRef: "img.png"}, nil
		},
	}

	svc, store := newTestQRService(t, qrCodes)
	if err := store.Save("img.png", []byte("png payload")); err != nil {
		t.Fatalf("seed blob: %v", err)
	}

	record, data, err := svc.Image(context.Background(), "qr-1")
	if err != nil {
		t.Fatalf("Image error: %v", err)
	}
	if string(data) != "png payload" {
		t.Fatalf("unexpected bytes %q", data)
	}
	if record.ContentType() != "image/png" {
		t.Fatalf("unexpected content type %q", record.ContentType())
	}
}
