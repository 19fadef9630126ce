package archive

import (
	"context"
	"testing"
)

func TestObjectNameIsContentAddressed(t *testing.T) {
	if got := ObjectName(12, "abc123"); got != "imports/12/abc123.csv" {
		t.Fatalf("unexpected object name %q", got)
	}
}

func TestSplitURI(t *testing.T) {
	bucket, object, err := SplitURI("gs://ledger-uploads/imports/1/x.csv")
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if bucket != "ledger-uploads" || object != "imports/1/x.csv" {
		t.Fatalf("unexpected split %q %q", bucket, object)
	}

	for _, bad := range []string{"s3://bucket/key", "gs://bucket", "gs:///key", "gs://bucket/"} {
		if _, _, err := SplitURI(bad); err == nil {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func TestNopArchiver(t *testing.T) {
	var a Archiver = Nop{}
	uri, err := a.Archive(context.Background(), 1, "abc", []byte("x"))
	if err != nil || uri != "" {
		t.Fatalf("expected empty uri, got %q %v", uri, err)
	}
}
