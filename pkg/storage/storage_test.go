package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func TestFileSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	sink := FileSink{Dir: dir}
	if err := sink.Save(context.Background(), []byte("zipdata"), "photo_grid.zip"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dir, "photo_grid.zip"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "zipdata" {
		t.Errorf("content = %q", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "photo_grid.zip.part")); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}
}

func TestMemorySink(t *testing.T) {
	var sink MemorySink
	ctx := context.Background()
	sink.Save(ctx, []byte("a"), "a_grid.zip")
	sink.Save(ctx, []byte("b"), "b_grid.zip")
	sink.Save(ctx, []byte("a2"), "a_grid.zip")
	if names := sink.Names(); len(names) != 2 || names[0] != "a_grid.zip" {
		t.Errorf("names = %v", names)
	}
	if data, ok := sink.Get("a_grid.zip"); !ok || string(data) != "a2" {
		t.Errorf("a_grid.zip = %q %v", data, ok)
	}
}

type fakeS3 struct {
	hasBucket bool
	created   []string
	puts      map[string][]byte
	putErr    error
}

func (f *fakeS3) HeadBucket(_ context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if !f.hasBucket {
		return nil, errors.New("not found")
	}
	return &s3.HeadBucketOutput{}, nil
}

func (f *fakeS3) CreateBucket(_ context.Context, in *s3.CreateBucketInput, _ ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	f.created = append(f.created, aws.ToString(in.Bucket))
	f.hasBucket = true
	return &s3.CreateBucketOutput{}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	if f.puts == nil {
		f.puts = make(map[string][]byte)
	}
	f.puts[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func TestS3SinkCreatesBucketOnce(t *testing.T) {
	fake := &fakeS3{}
	sink := &S3Sink{Client: fake, Bucket: "tiles-bucket", Prefix: "job1"}
	ctx := context.Background()
	if err := sink.Save(ctx, []byte("one"), "a_grid.zip"); err != nil {
		t.Fatal(err)
	}
	if err := sink.Save(ctx, []byte("two"), "b_grid.zip"); err != nil {
		t.Fatal(err)
	}
	if len(fake.created) != 1 || fake.created[0] != "tiles-bucket" {
		t.Errorf("created = %v", fake.created)
	}
	if !bytes.Equal(fake.puts["job1/a_grid.zip"], []byte("one")) || !bytes.Equal(fake.puts["job1/b_grid.zip"], []byte("two")) {
		t.Errorf("puts = %v", fake.puts)
	}
}

func TestS3SinkPutError(t *testing.T) {
	boom := errors.New("denied")
	sink := &S3Sink{Client: &fakeS3{hasBucket: true, putErr: boom}, Bucket: "b"}
	if err := sink.Save(context.Background(), nil, "x_grid.zip"); !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
	if sink.Key("x.zip") != "x.zip" {
		t.Errorf("Key without prefix = %s", sink.Key("x.zip"))
	}
}
