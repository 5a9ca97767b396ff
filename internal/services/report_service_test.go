package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tbourn/opc-agent/internal/report"
	"github.com/tbourn/opc-agent/internal/storage"
)

type stubRenderer struct {
	fn func(in report.Input) ([]byte, error)
}

func (s stubRenderer) Render(in report.Input) ([]byte, error) { return s.fn(in) }

type stubStore struct {
	fn func(ctx context.Context, name string, data []byte) (string, error)
}

func (s stubStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	return s.fn(ctx, name, data)
}

func TestReportGenerate_StoresUnderContentName(t *testing.T) {
	var gotName string
	svc := NewReportService(
		stubRenderer{fn: func(report.Input) ([]byte, error) { return []byte("hello"), nil }},
		stubStore{fn: func(_ context.Context, name string, _ []byte) (string, error) {
			gotName = name
			return "http://x/files/" + name, nil
		}},
	)
	url, err := svc.Generate(context.Background(), report.Input{UserInfo: "u"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if gotName != "opc_guide_5d41402a.pdf" || !strings.HasSuffix(url, gotName) {
		t.Fatalf("name=%q url=%q", gotName, url)
	}
}

func TestReportGenerate_Errors(t *testing.T) {
	boom := errors.New("disk full")
	svc := NewReportService(
		stubRenderer{fn: func(report.Input) ([]byte, error) { return []byte("x"), nil }},
		stubStore{fn: func(context.Context, string, []byte) (string, error) { return "", boom }},
	)
	if _, err := svc.Generate(context.Background(), report.Input{}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}

	svc.Renderer = stubRenderer{fn: func(report.Input) ([]byte, error) { return nil, report.ErrEmptyInput }}
	if _, err := svc.Generate(context.Background(), report.Input{}); !errors.Is(err, report.ErrEmptyInput) {
		t.Fatalf("expected render error, got %v", err)
	}
}

func TestReportGenerate_RealRendererAndLocalStore(t *testing.T) {
	store, err := storage.NewLocal(t.TempDir(), "/files")
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	svc := NewReportService(report.Renderer{}, store)
	url, err := svc.Generate(context.Background(), report.Input{UserInfo: "城市：北京", Projects: "自媒体"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.HasPrefix(url, "/files/opc_guide_") || !strings.HasSuffix(url, ".pdf") {
		t.Fatalf("url = %q", url)
	}
}
