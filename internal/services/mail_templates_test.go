package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjectStore struct {
	objects map[string]string
	keys    []string
}

func (f *fakeObjectStore) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := aws.ToString(in.Key)
	f.keys = append(f.keys, key)
	body, ok := f.objects[key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	n := int64(len(body))
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader([]byte(body))),
		ContentLength: aws.Int64(n),
		ContentRange:  aws.String(fmt.Sprintf("bytes 0-%d/%d", n-1, n)),
	}, nil
}

func TestRenderTemplateEscapesValues(t *testing.T) {
	out := RenderTemplate("<p>{name} {code}</p>", map[string]string{
		"name": "<script>",
		"code": "AB12C",
	})
	assert.Equal(t, "<p>&lt;script&gt; AB12C</p>", out)
}

func TestEmbeddedTemplatesHavePlaceholders(t *testing.T) {
	for _, name := range []string{TemplateWelcome, TemplateForgotPassword, TemplateChangeEmail} {
		tpl, err := EmbeddedTemplates{}.Load(context.Background(), name)
		require.NoError(t, err, name)
		assert.Contains(t, tpl, "{name}")
	}
	tpl, err := EmbeddedTemplates{}.Load(context.Background(), TemplateForgotPassword)
	require.NoError(t, err)
	assert.Contains(t, tpl, "{code}")
}

func TestS3TemplateSourceDownloads(t *testing.T) {
	store := &fakeObjectStore{objects: map[string]string{
		"mail/templates/welcome.html": "<h1>Hi {name}</h1>",
	}}
	src := NewS3TemplateSource(store, "bucket", "mail/templates/")

	tpl, err := src.Load(context.Background(), TemplateWelcome)
	require.NoError(t, err)
	assert.Equal(t, "<h1>Hi {name}</h1>", tpl)
	assert.Equal(t, "mail/templates/welcome.html", store.keys[0])
}

func TestS3TemplateSourceFallsBackToEmbedded(t *testing.T) {
	src := NewS3TemplateSource(&fakeObjectStore{}, "bucket", "mail/templates/")

	tpl, err := src.Load(context.Background(), TemplateChangeEmail)
	require.NoError(t, err)
	assert.Contains(t, tpl, "{secret}")
}
