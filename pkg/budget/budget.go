// Package budget keeps a block sequence within the per-request block limit
// and provides the pure block edits used when a request is retried.
package budget

import (
	"errors"
	"fmt"

	"github.com/dtnitsch/notion-clipper/models"
)

const DefaultMaxBlocks = models.DefaultMaxBlocks

var ErrInvalidBudget = errors.New("budget: maxBlocks must be positive")

// Enforce returns blocks unchanged when they fit. Otherwise it keeps the
// first maxBlocks-1 blocks and appends one notice naming how many were
// omitted. The input slice is never modified.
func Enforce(blocks []models.Block, maxBlocks int) ([]models.Block, error) {
	if maxBlocks <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBudget, maxBlocks)
	}
	if len(blocks) <= maxBlocks {
		return blocks, nil
	}
	return truncate(blocks, maxBlocks, 0), nil
}

// truncate keeps maxBlocks-1 blocks and appends a truncation notice that
// also accounts for carried blocks omitted by an earlier pass.
func truncate(blocks []models.Block, maxBlocks, carried int) []models.Block {
	keep := maxBlocks - 1
	out := make([]models.Block, 0, maxBlocks)
	out = append(out, blocks[:keep]...)
	return append(out, TruncationNotice(len(blocks)-keep+carried))
}

// InsertNotice puts notice at the front of blocks and re-applies
// truncation so the result never exceeds maxBlocks. An existing trailing
// truncation notice is kept last and its count folded into the new one.
func InsertNotice(blocks []models.Block, notice models.Block, maxBlocks int) ([]models.Block, error) {
	if maxBlocks <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBudget, maxBlocks)
	}

	body := blocks
	var trailing *models.Block
	if n := len(blocks); n > 0 && blocks[n-1].IsTruncationNotice() {
		b := blocks[n-1]
		trailing = &b
		body = blocks[:n-1]
	}

	out := make([]models.Block, 0, len(body)+2)
	out = append(out, notice)
	out = append(out, body...)

	if trailing == nil {
		if len(out) <= maxBlocks {
			return out, nil
		}
		return truncate(out, maxBlocks, 0), nil
	}

	if len(out)+1 <= maxBlocks {
		return append(out, *trailing), nil
	}
	return truncate(out, maxBlocks, trailing.Notice.Omitted), nil
}

// StripBlocksOfKind returns a copy of blocks without any block of kind,
// and how many were removed.
func StripBlocksOfKind(blocks []models.Block, kind models.BlockKind) ([]models.Block, int) {
	out := make([]models.Block, 0, len(blocks))
	for _, b := range blocks {
		if b.Kind == kind {
			continue
		}
		out = append(out, b)
	}
	return out, len(blocks) - len(out)
}

// OmittedCount returns the count stated by a trailing truncation notice, or 0.
func OmittedCount(blocks []models.Block) int {
	if n := len(blocks); n > 0 && blocks[n-1].IsTruncationNotice() {
		return blocks[n-1].Notice.Omitted
	}
	return 0
}
