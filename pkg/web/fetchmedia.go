package web

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
)

var client = resty.New()

func FetchMedia(ctx context.Context, mediaURL string) ([]byte, error) {
	resp, err := client.R().SetContext(ctx).Get(mediaURL)
	if err != nil {
		return nil, err
	}

	if resp.IsError() {
		return nil, fmt.Errorf("failed to fetch media: %s, %s", resp.Status(), resp.String())
	}

	return resp.Body(), nil
}
