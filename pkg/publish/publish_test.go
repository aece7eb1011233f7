package publish

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (f *fakePutter) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	data, _ := io.ReadAll(params.Body)
	f.body = string(data)
	return &s3.PutObjectOutput{}, f.err
}

func TestPutCalendar(t *testing.T) {
	fake := &fakePutter{}
	p := &Publisher{client: fake, bucket: "orari"}

	if err := p.PutCalendar(context.Background(), "/calendars/GP004-1.ics", []byte("BEGIN:VCALENDAR")); err != nil {
		t.Fatalf("PutCalendar failed: %v", err)
	}
	if *fake.input.Bucket != "orari" || *fake.input.Key != "calendars/GP004-1.ics" {
		t.Errorf("unexpected target %s/%s", *fake.input.Bucket, *fake.input.Key)
	}
	if *fake.input.ContentType != "text/calendar; charset=utf-8" {
		t.Errorf("unexpected content type %q", *fake.input.ContentType)
	}
	if fake.body != "BEGIN:VCALENDAR" || *fake.input.ContentLength != int64(len("BEGIN:VCALENDAR")) {
		t.Errorf("unexpected body %q", fake.body)
	}
}

func TestPutCalendar_Errors(t *testing.T) {
	p := &Publisher{client: &fakePutter{err: errors.New("denied")}, bucket: "orari"}
	if err := p.PutCalendar(context.Background(), "a.ics", nil); err == nil || !strings.Contains(err.Error(), "s3://orari/a.ics") {
		t.Errorf("expected wrapped upload error, got %v", err)
	}
	if err := p.PutCalendar(context.Background(), "/", nil); err == nil {
		t.Errorf("expected empty key to be rejected")
	}
}

func TestNew_RequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Errorf("expected an error without bucket")
	}
}

func TestNew_UploadsToEndpoint(t *testing.T) {
	var (
		mu         sync.Mutex
		gotPath    string
		gotType    string
		gotBody    string
		gotAuthHdr string
		gotMethod  string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		data, _ := io.ReadAll(r.Body)
		gotMethod, gotPath, gotType, gotBody = r.Method, r.URL.Path, r.Header.Get("Content-Type"), string(data)
		gotAuthHdr = r.Header.Get("Authorization")
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	p, err := New(context.Background(), Config{
		Bucket:          "orari",
		Endpoint:        server.URL,
		PathStyle:       true,
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
		HTTPClient:      server.Client(),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := p.PutCalendar(context.Background(), "feed.ics", []byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n")); err != nil {
		t.Fatalf("PutCalendar failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if gotMethod != http.MethodPut || gotPath != "/orari/feed.ics" {
		t.Errorf("unexpected request %s %s", gotMethod, gotPath)
	}
	if gotType != "text/calendar; charset=utf-8" {
		t.Errorf("unexpected content type %q", gotType)
	}
	if !strings.Contains(gotBody, "BEGIN:VCALENDAR") {
		t.Errorf("unexpected body %q", gotBody)
	}
	if !strings.Contains(gotAuthHdr, "Credential=AKIA/") || !strings.Contains(gotAuthHdr, "/eu-south-1/s3/") {
		t.Errorf("expected a SigV4 signature for eu-south-1, got %q", gotAuthHdr)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("ORARICTL_S3_BUCKET", "from-env")
	t.Setenv("ORARICTL_S3_REGION", "eu-west-1")
	t.Setenv("ORARICTL_S3_ENDPOINT", "http://localhost:9000")
	t.Setenv("ORARICTL_S3_PATH_STYLE", "TRUE")

	cfg := ConfigFromEnv("")
	if cfg.Bucket != "from-env" || cfg.Region != "eu-west-1" || cfg.Endpoint != "http://localhost:9000" || !cfg.PathStyle {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg := ConfigFromEnv("flag"); cfg.Bucket != "flag" {
		t.Errorf("expected explicit bucket to win, got %q", cfg.Bucket)
	}
}
