package notion

import (
	"context"
	"errors"
	"fmt"

	"github.com/dtnitsch/notion-clipper/models"
	"github.com/dtnitsch/notion-clipper/pkg/budget"
)

// Target names the database a clip is saved into.
type Target struct {
	DatabaseID    string
	TitleProperty string
	MaxBlocks     int
}

// SaveResult describes what was finally submitted.
type SaveResult struct {
	Page           *PageResponse
	Blocks         []models.Block
	ImagesStripped int
}

// SaveWithFallback creates the page. When the API rejects it because of an
// image, image blocks are removed, an image-failure notice is put first and
// the request is sent once more. page is not modified.
func (c *Client) SaveWithFallback(ctx context.Context, target Target, page *models.Page) (*SaveResult, error) {
	if target.MaxBlocks <= 0 {
		target.MaxBlocks = budget.DefaultMaxBlocks
	}

	resp, err := c.CreatePage(ctx, BuildCreatePageRequest(target.DatabaseID, target.TitleProperty, page))
	if err == nil {
		return &SaveResult{Page: resp, Blocks: page.Blocks}, nil
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) || !apiErr.IsImageRejection() {
		return nil, err
	}

	stripped, removed := budget.StripBlocksOfKind(page.Blocks, models.ImageBlock)
	if removed == 0 {
		return nil, err
	}
	blocks, nerr := budget.InsertNotice(stripped, budget.ImageFailureNotice(removed), target.MaxBlocks)
	if nerr != nil {
		return nil, nerr
	}

	c.logger().Warn("page rejected because of images, retrying without them",
		"title", page.Title, "removed", removed, "error", apiErr.Message)

	retry := *page
	retry.Blocks = blocks
	resp, err = c.CreatePage(ctx, BuildCreatePageRequest(target.DatabaseID, target.TitleProperty, &retry))
	if err != nil {
		return nil, fmt.Errorf("save without images: %w", err)
	}
	return &SaveResult{Page: resp, Blocks: blocks, ImagesStripped: removed}, nil
}
