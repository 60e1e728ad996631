package r2client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

func TestNew_Validation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		cfg     Config
		missing []string
	}{
		{"empty", Config{}, []string{"endpoint", "access key id", "secret key", "bucket"}},
		{"endpoint only", Config{Endpoint: "https://acct.r2.cloudflarestorage.com"}, []string{"access key id", "secret key", "bucket"}},
		{"no bucket", Config{Endpoint: "https://e", AccessKeyID: "id", SecretKey: "secret"}, []string{"bucket"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(context.Background(), tt.cfg)
			if err == nil {
				t.Fatal("New() should fail")
			}
			for _, field := range tt.missing {
				if !strings.Contains(err.Error(), field) {
					t.Errorf("error %q should name %q", err, field)
				}
			}
		})
	}
}

func TestEndpointForAccount(t *testing.T) {
	t.Parallel()
	if got := EndpointForAccount("abc123"); got != "https://abc123.r2.cloudflarestorage.com" {
		t.Errorf("EndpointForAccount() = %q", got)
	}
}

func TestCompressJSON(t *testing.T) {
	t.Parallel()
	type entry struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	in := make([]entry, 0, 200)
	for i := range 200 {
		in = append(in, entry{Role: "user", Content: fmt.Sprintf("I like robotics, message %d", i)})
	}

	data, err := CompressJSON(in)
	if err != nil {
		t.Fatalf("CompressJSON() error = %v", err)
	}
	if len(data) >= 200*len(`{"role":"user","content":"I like robotics, message 100"}`) {
		t.Errorf("compressed size %d is not smaller than the JSON", len(data))
	}

	var out []entry
	if err := DecompressJSON(bytes.NewReader(data), &out); err != nil {
		t.Fatalf("DecompressJSON() error = %v", err)
	}
	if len(out) != len(in) || out[199] != in[199] {
		t.Errorf("decoded %d entries, last = %+v", len(out), out[len(out)-1])
	}
}

func TestCompressJSON_Unencodable(t *testing.T) {
	t.Parallel()
	if _, err := CompressJSON(make(chan int)); err == nil {
		t.Error("CompressJSON() should fail for a channel")
	}
}

func TestDecompressJSON_Corrupt(t *testing.T) {
	t.Parallel()
	var out []string
	if err := DecompressJSON(strings.NewReader("not zstd"), &out); err == nil {
		t.Error("DecompressJSON() should fail on corrupt input")
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"typed not found", &types.NotFound{}, ErrBucketNotFound},
		{"typed no such bucket", fmt.Errorf("wrapped: %w", &types.NoSuchBucket{}), ErrBucketNotFound},
		{"api no such bucket", &smithy.GenericAPIError{Code: "NoSuchBucket"}, ErrBucketNotFound},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, ErrAccessDenied},
		{"bad signature", &smithy.GenericAPIError{Code: "SignatureDoesNotMatch"}, ErrAccessDenied},
		{"other api error", &smithy.GenericAPIError{Code: "SlowDown"}, nil},
		{"plain", errors.New("timeout"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := classify(tt.err)
			if !errors.Is(got, tt.err) {
				t.Errorf("classify() = %v, should keep the original error", got)
			}
			if tt.want != nil && !errors.Is(got, tt.want) {
				t.Errorf("classify() = %v, want %v", got, tt.want)
			}
			if tt.want == nil && (errors.Is(got, ErrBucketNotFound) || errors.Is(got, ErrAccessDenied)) {
				t.Errorf("classify() = %v, want no mapping", got)
			}
		})
	}
}
