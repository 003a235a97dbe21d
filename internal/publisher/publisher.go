package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"gramline/internal/instaweb"
	"gramline/internal/logging"
	"gramline/internal/services"
	"gramline/internal/session"
)

// Uploader is the slice of the Instagram client the publisher needs.
type Uploader interface {
	UploadPhoto(ctx context.Context, tokens instaweb.Tokens, imagePath, caption string) (string, error)
}

// Publisher posts single-image content through an authenticated session.
type Publisher struct {
	uploader Uploader
	hashtags string
	logger   *slog.Logger
}

// New builds a Publisher. Hashtags, when present, are appended to every
// caption separated by a blank line.
func New(uploader Uploader, hashtags string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Publisher{
		uploader: uploader,
		hashtags: strings.TrimSpace(hashtags),
		logger:   logging.NewComponentLogger(logger, "publisher"),
	}
}

// Publish uploads one image with the finalized caption and returns the
// resulting media identifier. An invalid session fails fast with
// services.ErrNotAuthenticated before any network traffic.
func (p *Publisher) Publish(ctx context.Context, sess *session.Session, imagePath, caption string) (string, error) {
	if !sess.Valid() {
		return "", services.Wrap(services.ErrNotAuthenticated, "publisher", "publish",
			"no authenticated session", nil)
	}

	finalCaption := p.FinalCaption(caption)
	mediaID, err := p.uploader.UploadPhoto(ctx, sess.Tokens, imagePath, finalCaption)
	if err != nil {
		return "", fmt.Errorf("publish photo: %w", err)
	}

	p.logger.Info("published post",
		logging.String(logging.FieldEventType, "post_published"),
		logging.String("image", filepath.Base(imagePath)),
		logging.String("media_id", mediaID),
		logging.Int("caption_length", len(finalCaption)),
	)
	return mediaID, nil
}

// FinalCaption returns the caption as posted, with the hashtag suffix.
func (p *Publisher) FinalCaption(caption string) string {
	caption = strings.TrimSpace(caption)
	if p.hashtags == "" {
		return caption
	}
	if caption == "" {
		return p.hashtags
	}
	return caption + "\n\n" + p.hashtags
}
