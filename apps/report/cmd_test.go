package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ready4exam/platform/core"
	publishsvc "github.com/ready4exam/platform/services/publish"
	"github.com/ready4exam/platform/testutil"
)

type fakeS3 struct {
	keys []string
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.keys = append(f.keys, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.PutObjectOutput{}, nil
}

func writeCurriculum(t *testing.T, root string) {
	dir := filepath.Join(root, "cbse", "class9")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	data := `{
		"Science": {"Science Textbook": [{"chapter_title": "Motion"}, {"chapter_title": "Force"}]},
		"Hindi": {"Kshitij": [{"chapter_title": "Do Bailon Ki Katha"}]}
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "curriculum.json"), []byte(data), 0o644))
}

func runReport(t *testing.T, args ...string) (string, error) {
	cmd := newRootCmd(testutil.NewLogger(core.NewTestConfig()))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestGenerate(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(t.TempDir(), "data")
	writeCurriculum(t, root)

	stdout, err := runReport(t, "generate", "--root", root, "--out", out, "--date", "2025-01-02")
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(stdout, "wrote "))

	full, err := os.ReadFile(filepath.Join(out, "cbse", "report_full_2025-01-02.md"))
	require.NoError(t, err)
	assert.Contains(t, string(full), "| CLASS9 | Hindi | Kshitij | 1 |")
	assert.Contains(t, string(full), "**GRAND TOTAL ALL CLASSES** | **3** |")

	coreCSV, err := os.ReadFile(filepath.Join(out, "cbse", "data_core_2025-01-02.csv"))
	require.NoError(t, err)
	assert.NotContains(t, string(coreCSV), "Hindi")
	assert.Contains(t, string(coreCSV), "TOTAL:2")
}

func TestGenerateXLSXAndUpload(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(t.TempDir(), "data")
	writeCurriculum(t, root)

	client := new(fakeS3)
	newS3ClientFunc = func(context.Context) (publishsvc.PutObjectAPI, error) { return client, nil }
	defer func() {
		newS3ClientFunc = func(ctx context.Context) (publishsvc.PutObjectAPI, error) { return publishsvc.NewS3Client(ctx) }
	}()

	stdout, err := runReport(t, "generate", "--root", root, "--out", out, "--date", "2025-01-02", "--xlsx", "--s3-bucket", "r4e-reports", "--s3-prefix", "weekly")
	require.NoError(t, err)
	assert.Equal(t, 6, strings.Count(stdout, "uploaded s3://"))

	sort.Strings(client.keys)
	assert.Equal(t, []string{
		"r4e-reports/weekly/cbse/data_core_2025-01-02.csv",
		"r4e-reports/weekly/cbse/data_core_2025-01-02.xlsx",
		"r4e-reports/weekly/cbse/data_full_2025-01-02.csv",
		"r4e-reports/weekly/cbse/data_full_2025-01-02.xlsx",
		"r4e-reports/weekly/cbse/report_core_2025-01-02.md",
		"r4e-reports/weekly/cbse/report_full_2025-01-02.md",
	}, client.keys)
}

func TestGenerateErrors(t *testing.T) {
	_, err := runReport(t, "generate", "--date", "02/01/2025")
	assert.Error(t, err)

	_, err = runReport(t, "generate", "extra")
	assert.Error(t, err)

	stdout, err := runReport(t, "generate", "--root", t.TempDir(), "--out", filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "no curriculum found")
}
