package instaweb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gramline/internal/services"
)

// UploadPhoto publishes a single image with the given caption and returns the
// media identifier assigned by Instagram. The operation runs in two phases:
// a binary upload followed by a configure call that attaches the caption.
func (c *Client) UploadPhoto(ctx context.Context, tokens Tokens, imagePath, caption string) (string, error) {
	if !tokens.Valid() {
		return "", services.Wrap(services.ErrAuth, "instaweb", "upload", "session tokens incomplete", nil)
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", services.Wrap(services.ErrNotFound, "instaweb", "upload",
			fmt.Sprintf("read image %s", filepath.Base(imagePath)), err)
	}

	uploadID := fmt.Sprintf("%d", time.Now().UnixMilli())
	if err := c.uploadBinary(ctx, tokens, uploadID, imagePath, data); err != nil {
		return "", err
	}
	return c.configureMedia(ctx, tokens, uploadID, caption)
}

func (c *Client) uploadBinary(ctx context.Context, tokens Tokens, uploadID, imagePath string, data []byte) error {
	entityName := fmt.Sprintf("fb_uploader_%s", uploadID)
	req, err := c.newRequest(ctx, http.MethodPost, "/rupload_igphoto/"+entityName, bytes.NewReader(data))
	if err != nil {
		return err
	}
	c.applySession(req, tokens)

	params, err := json.Marshal(map[string]string{
		"media_type":          "1",
		"upload_id":           uploadID,
		"upload_media_height": "0",
		"upload_media_width":  "0",
	})
	if err != nil {
		return fmt.Errorf("encode upload params: %w", err)
	}

	req.Header.Set("Content-Type", contentTypeFor(imagePath))
	req.Header.Set("X-Entity-Name", entityName)
	req.Header.Set("X-Entity-Length", fmt.Sprintf("%d", len(data)))
	req.Header.Set("X-Instagram-Rupload-Params", string(params))
	req.Header.Set("Offset", "0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "instaweb", "upload", "image upload failed", err)
	}
	defer drainAndClose(resp.Body)

	if err := checkStatus(resp, "upload"); err != nil {
		return err
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return services.Wrap(services.ErrTransient, "instaweb", "upload", "decode upload response", err)
	}
	if body.Status != "ok" {
		return services.Wrap(services.ErrTransient, "instaweb", "upload",
			fmt.Sprintf("upload status %q", body.Status), nil)
	}
	return nil
}

func (c *Client) configureMedia(ctx context.Context, tokens Tokens, uploadID, caption string) (string, error) {
	form := url.Values{}
	form.Set("upload_id", uploadID)
	form.Set("caption", caption)
	form.Set("source_type", "library")
	form.Set("device_id", c.deviceID)

	req, err := c.newRequest(ctx, http.MethodPost, "/api/v1/media/configure/", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	c.applySession(req, tokens)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "instaweb", "configure", "media configure failed", err)
	}
	defer drainAndClose(resp.Body)

	if err := checkStatus(resp, "configure"); err != nil {
		return "", err
	}

	var body struct {
		Status string `json:"status"`
		Media  struct {
			ID   string `json:"id"`
			Code string `json:"code"`
		} `json:"media"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", services.Wrap(services.ErrTransient, "instaweb", "configure", "decode configure response", err)
	}
	if body.Status != "ok" {
		return "", services.Wrap(services.ErrTransient, "instaweb", "configure",
			fmt.Sprintf("configure status %q", body.Status), nil)
	}
	if body.Media.ID == "" {
		return uploadID, nil
	}
	return body.Media.ID, nil
}

func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
