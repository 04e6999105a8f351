package services

import (
	"context"
	"embed"
	"fmt"
	"html"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	TemplateWelcome        = "welcome"
	TemplateForgotPassword = "forgot_password"
	TemplateChangeEmail    = "change_email"
)

// TemplateSource loads a raw HTML template by name.
type TemplateSource interface {
	Load(ctx context.Context, name string) (string, error)
}

//go:embed templates/*.html
var embeddedTemplates embed.FS

type EmbeddedTemplates struct{}

func (EmbeddedTemplates) Load(_ context.Context, name string) (string, error) {
	b, err := embeddedTemplates.ReadFile(path.Join("templates", name+".html"))
	if err != nil {
		return "", fmt.Errorf("services.EmbeddedTemplates.Load: %w", err)
	}
	return string(b), nil
}

// S3TemplateSource reads <prefix><name>.html from a bucket, falling back to
// the embedded copy when the object cannot be fetched.
type S3TemplateSource struct {
	downloader *manager.Downloader
	bucket     string
	prefix     string
	fallback   TemplateSource
}

func NewS3TemplateSource(client manager.DownloadAPIClient, bucket, prefix string) *S3TemplateSource {
	return &S3TemplateSource{
		downloader: manager.NewDownloader(client),
		bucket:     bucket,
		prefix:     prefix,
		fallback:   EmbeddedTemplates{},
	}
}

func (s *S3TemplateSource) Load(ctx context.Context, name string) (string, error) {
	key := s.prefix + name + ".html"

	buf := manager.NewWriteAtBuffer(nil)
	_, err := s.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if s.fallback != nil {
			return s.fallback.Load(ctx, name)
		}
		return "", fmt.Errorf("services.S3TemplateSource.Load %s: %w", key, err)
	}
	return string(buf.Bytes()), nil
}

// RenderTemplate replaces {placeholders} with HTML-escaped values.
func RenderTemplate(tpl string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", html.EscapeString(v))
	}
	return strings.NewReplacer(pairs...).Replace(tpl)
}
